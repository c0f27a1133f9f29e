package entity

import "time"

// ReceiveSession 收货会话（一张采购单只允许一个会话）
type ReceiveSession struct {
	ID              string `json:"id" gorm:"primaryKey;size:32"`
	Code            string `json:"code" gorm:"size:32;not null;uniqueIndex:idx_rs_branch_code,priority:2"`
	PurchaseOrderID string `json:"purchase_order_id" gorm:"size:32;not null;uniqueIndex"`
	OrgID           string `json:"org_id" gorm:"size:32;not null;index"`
	BranchID        string `json:"branch_id" gorm:"size:32;not null;uniqueIndex:idx_rs_branch_code,priority:1"`
	Status          string `json:"status" gorm:"size:20;default:pending"` // pending/in_progress/completed

	ReceivedAt  time.Time  `json:"received_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Details []ReceiveSessionDetail `json:"details,omitempty" gorm:"foreignKey:SessionID"`
}

func (ReceiveSession) TableName() string {
	return "wms_receive_sessions"
}

// 收货会话状态
const (
	ReceiveSessionStatusPending    = "pending"
	ReceiveSessionStatusInProgress = "in_progress"
	ReceiveSessionStatusCompleted  = "completed"
)

// ReceiveSessionDetail 收货会话行项，从采购单行项复制而来
type ReceiveSessionDetail struct {
	ID               string  `json:"id" gorm:"primaryKey;size:32"`
	SessionID        string  `json:"session_id" gorm:"size:32;not null;index"`
	POLineID         string  `json:"po_line_id" gorm:"size:32;not null"`
	VariantID        string  `json:"variant_id" gorm:"size:32;not null"`
	SKUCode          string  `json:"sku_code" gorm:"size:50"`
	QuantityExpected float64 `json:"quantity_expected" gorm:"type:decimal(12,2);not null"`
	QuantityReceived float64 `json:"quantity_received" gorm:"type:decimal(12,2);default:0"`
	Status           string  `json:"status" gorm:"size:20;default:pending"` // pending/partial/completed/return_requested

	RecommendedZoneID *string `json:"recommended_zone_id" gorm:"size:32"`

	SortOrder int       `json:"sort_order" gorm:"default:0"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ReceiveSessionDetail) TableName() string {
	return "wms_receive_session_details"
}

// 收货行项状态
const (
	ReceiveDetailStatusPending         = "pending"
	ReceiveDetailStatusPartial         = "partial"
	ReceiveDetailStatusCompleted       = "completed"
	ReceiveDetailStatusReturnRequested = "return_requested"
)

// ValidReceiveDetailTransitions 收货行项状态迁移表
// return_requested 为终态，不再接受收货
var ValidReceiveDetailTransitions = map[string][]string{
	ReceiveDetailStatusPending:         {ReceiveDetailStatusPartial, ReceiveDetailStatusCompleted, ReceiveDetailStatusReturnRequested},
	ReceiveDetailStatusPartial:         {ReceiveDetailStatusPartial, ReceiveDetailStatusCompleted, ReceiveDetailStatusReturnRequested},
	ReceiveDetailStatusCompleted:       {ReceiveDetailStatusCompleted},
	ReceiveDetailStatusReturnRequested: {},
}

// CanTransitionReceiveDetail 判断收货行项状态迁移是否合法
func CanTransitionReceiveDetail(from, to string) bool {
	for _, s := range ValidReceiveDetailTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// DeriveReceiveDetailStatus 根据数量推导行项状态
func DeriveReceiveDetailStatus(received, expected float64) string {
	switch {
	case received >= expected && expected > 0:
		return ReceiveDetailStatusCompleted
	case received > 0:
		return ReceiveDetailStatusPartial
	default:
		return ReceiveDetailStatusPending
	}
}

// DeriveReceiveSessionStatus 会话状态是行项状态的纯函数：
// 全部 completed 则 completed；任一行项 received>0 则 in_progress；否则 pending。
// 存在 return_requested 行项时会话不会判定为 completed；只有 received>0 才算进度。
func DeriveReceiveSessionStatus(details []ReceiveSessionDetail) string {
	if len(details) == 0 {
		return ReceiveSessionStatusPending
	}

	allCompleted := true
	anyProgress := false
	for _, d := range details {
		if d.Status != ReceiveDetailStatusCompleted {
			allCompleted = false
		}
		if d.QuantityReceived > 0 {
			anyProgress = true
		}
	}

	if allCompleted {
		return ReceiveSessionStatusCompleted
	}
	if anyProgress {
		return ReceiveSessionStatusInProgress
	}
	return ReceiveSessionStatusPending
}

// AllReceiveDetailsHandled 所有行项均已收完或转退货
func AllReceiveDetailsHandled(details []ReceiveSessionDetail) bool {
	for _, d := range details {
		if d.Status != ReceiveDetailStatusCompleted && d.Status != ReceiveDetailStatusReturnRequested {
			return false
		}
	}
	return len(details) > 0
}
