package entity

import "time"

// WorkSession 作业会话：记录"谁在什么时候做这个物理任务"
// 与收货会话 / 盘点分区一一绑定，首次需要时惰性创建
type WorkSession struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	Code     string `json:"code" gorm:"size:32;not null;uniqueIndex:idx_ws_branch_code,priority:2"`
	OrgID    string `json:"org_id" gorm:"size:32;not null;index"`
	BranchID string `json:"branch_id" gorm:"size:32;not null;uniqueIndex:idx_ws_branch_code,priority:1"`
	Type     string `json:"type" gorm:"size:20;not null"` // inbound/cycle_count

	// 绑定的业务记录（非拥有引用），同一引用只允许一个作业会话
	RefType string `json:"ref_type" gorm:"size:30;not null;uniqueIndex:idx_ws_ref,priority:1"`
	RefID   string `json:"ref_id" gorm:"size:32;not null;uniqueIndex:idx_ws_ref,priority:2"`

	AssignedUserID string `json:"assigned_user_id" gorm:"size:32;not null"`
	Status         string `json:"status" gorm:"size:20;default:in_progress"` // in_progress/completed

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	VerifiedBy  *string    `json:"verified_by" gorm:"size:32"`
	VerifiedAt  *time.Time `json:"verified_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (WorkSession) TableName() string {
	return "wms_work_sessions"
}

// 作业会话类型
const (
	WorkSessionTypeInbound    = "inbound"
	WorkSessionTypeCycleCount = "cycle_count"
)

// 作业会话绑定目标
const (
	WorkSessionRefReceiveSession = "receive_session"
	WorkSessionRefZoneAssignment = "zone_assignment"
)

// 作业会话状态
const (
	WorkSessionStatusInProgress = "in_progress"
	WorkSessionStatusCompleted  = "completed"
)
