package entity

import "time"

// SystemLookup 枚举展示元数据表
// 业务状态以代码常量为准做穷尽判断，这里只存展示用的标签/描述/排序，
// 首次使用时 ensure 创建，先写者胜，不做原地更新。
type SystemLookup struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	LookupType  string `json:"lookup_type" gorm:"size:50;not null;uniqueIndex:idx_lookup_type_code,priority:1"`
	LookupCode  string `json:"lookup_code" gorm:"size:50;not null;uniqueIndex:idx_lookup_type_code,priority:2"`
	LookupValue string `json:"lookup_value" gorm:"size:200;not null"`
	Description string `json:"description" gorm:"size:500"`
	SortOrder   int    `json:"sort_order" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SystemLookup) TableName() string {
	return "wms_system_lookups"
}

// 枚举命名空间
const (
	LookupTypeReceiveSessionStatus = "ReceiveSessionStatus"
	LookupTypeReceiveDetailStatus  = "ReceiveDetailStatus"
	LookupTypePurchaseOrderStatus  = "PurchaseOrderStatus"
	LookupTypeReturnStatus         = "ReturnRequestStatus"
	LookupTypeCycleCountStatus     = "CycleCountStatus"
	LookupTypeWorkSessionType      = "WorkSessionType"
	LookupTypeReturnReason         = "ReturnReason"
)
