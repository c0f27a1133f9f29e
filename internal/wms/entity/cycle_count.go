package entity

import (
	"math"
	"time"
)

// CycleCountSession 盘点会话，按库区拆分为若干分区任务
type CycleCountSession struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	Code     string `json:"code" gorm:"size:32;not null;uniqueIndex:idx_cc_branch_code,priority:2"`
	Name     string `json:"name" gorm:"size:200;not null"`
	Type     string `json:"type" gorm:"size:20;not null"` // daily/weekly/monthly/quarterly
	OrgID    string `json:"org_id" gorm:"size:32;not null;index"`
	BranchID string `json:"branch_id" gorm:"size:32;not null;uniqueIndex:idx_cc_branch_code,priority:1"`
	Status   string `json:"status" gorm:"size:20;default:pending"` // pending/in_progress/completed

	CreatedBy   string     `json:"created_by" gorm:"size:32"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// 关联
	Zones []ZoneAssignment `json:"zones,omitempty" gorm:"foreignKey:SessionID"`
}

func (CycleCountSession) TableName() string {
	return "wms_cycle_count_sessions"
}

// 盘点会话类型
const (
	CycleCountTypeDaily     = "daily"
	CycleCountTypeWeekly    = "weekly"
	CycleCountTypeMonthly   = "monthly"
	CycleCountTypeQuarterly = "quarterly"
)

// 盘点会话/分区状态
const (
	CycleCountStatusPending    = "pending"
	CycleCountStatusInProgress = "in_progress"
	CycleCountStatusCompleted  = "completed"
)

// ZoneAssignment 盘点分区任务，归属盘点会话
type ZoneAssignment struct {
	ID             string `json:"id" gorm:"primaryKey;size:32"`
	SessionID      string `json:"session_id" gorm:"size:32;not null;index"`
	ZoneID         string `json:"zone_id" gorm:"size:32;not null"`
	AssignedUserID string `json:"assigned_user_id" gorm:"size:32"`
	Status         string `json:"status" gorm:"size:20;default:pending"` // pending/in_progress/completed

	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// 关联
	Items []CycleCountItem `json:"items,omitempty" gorm:"foreignKey:AssignmentID"`
	Zone  *StorageZone     `json:"zone,omitempty" gorm:"foreignKey:ZoneID"`
}

func (ZoneAssignment) TableName() string {
	return "wms_zone_assignments"
}

// CycleCountItem 盘点行项，期望数量来自创建时的库存快照
type CycleCountItem struct {
	ID           string  `json:"id" gorm:"primaryKey;size:32"`
	AssignmentID string  `json:"assignment_id" gorm:"size:32;not null;index"`
	SessionID    string  `json:"session_id" gorm:"size:32;not null;index"`
	ZoneID       string  `json:"zone_id" gorm:"size:32;not null"`
	VariantID    string  `json:"variant_id" gorm:"size:32;not null"`
	SKUCode      string  `json:"sku_code" gorm:"size:50"`
	BatchID      *string `json:"batch_id" gorm:"size:32"`

	QuantityExpected float64 `json:"quantity_expected" gorm:"type:decimal(12,2);default:0"`
	QuantityActual   float64 `json:"quantity_actual" gorm:"type:decimal(12,2);default:0"`
	Variance         float64 `json:"variance" gorm:"type:decimal(12,2);default:0"` // actual - expected，有符号

	IsScanned bool       `json:"is_scanned" gorm:"default:false"`
	ScannedAt *time.Time `json:"scanned_at"`
	ScannedBy string     `json:"scanned_by" gorm:"size:32"`

	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CycleCountItem) TableName() string {
	return "wms_cycle_count_items"
}

// ZoneProgress 分区进度（按需计算，不落库）
type ZoneProgress struct {
	AssignmentID    string  `json:"assignment_id"`
	ZoneID          string  `json:"zone_id"`
	Status          string  `json:"status"`
	ScannedItems    int     `json:"scanned_items"`
	TotalItems      int     `json:"total_items"`
	ProgressPercent float64 `json:"progress_percent"`
}

// SessionProgress 盘点会话进度汇总
type SessionProgress struct {
	SessionID       string  `json:"session_id"`
	Status          string  `json:"status"`
	CompletedZones  int     `json:"completed_zones"`
	TotalZones      int     `json:"total_zones"`
	ScannedItems    int     `json:"scanned_items"`
	TotalItems      int     `json:"total_items"`
	ProgressPercent float64 `json:"progress_percent"`
}

// ProgressPercent 进度百分比，0/0 记为 0 而不是除零
func ProgressPercent(scanned, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(scanned) / float64(total) * 100)
}

// ComputeZoneProgress 计算单个分区进度
func ComputeZoneProgress(a *ZoneAssignment) ZoneProgress {
	scanned := 0
	for _, it := range a.Items {
		if it.IsScanned {
			scanned++
		}
	}
	return ZoneProgress{
		AssignmentID:    a.ID,
		ZoneID:          a.ZoneID,
		Status:          a.Status,
		ScannedItems:    scanned,
		TotalItems:      len(a.Items),
		ProgressPercent: ProgressPercent(scanned, len(a.Items)),
	}
}

// ComputeSessionProgress 汇总所有分区进度
func ComputeSessionProgress(s *CycleCountSession) SessionProgress {
	p := SessionProgress{SessionID: s.ID, Status: s.Status, TotalZones: len(s.Zones)}
	for i := range s.Zones {
		zp := ComputeZoneProgress(&s.Zones[i])
		p.ScannedItems += zp.ScannedItems
		p.TotalItems += zp.TotalItems
		if s.Zones[i].Status == CycleCountStatusCompleted {
			p.CompletedZones++
		}
	}
	p.ProgressPercent = ProgressPercent(p.ScannedItems, p.TotalItems)
	return p
}

// AllItemsScanned 分区内行项是否全部扫描
func AllItemsScanned(items []CycleCountItem) bool {
	for _, it := range items {
		if !it.IsScanned {
			return false
		}
	}
	return true
}
