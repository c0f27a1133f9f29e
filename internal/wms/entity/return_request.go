package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReturnRequest 供应商退货申请，可独立创建或由收货差异触发
type ReturnRequest struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Code        string    `json:"code" gorm:"size:32;not null;uniqueIndex:idx_rr_branch_code,priority:2"`
	OrgID       string    `json:"org_id" gorm:"size:32;not null;index"`
	BranchID    string    `json:"branch_id" gorm:"size:32;not null;uniqueIndex:idx_rr_branch_code,priority:1"`
	SupplierID  string    `json:"supplier_id" gorm:"size:32;not null;index"`
	RequestedBy string    `json:"requested_by" gorm:"size:32;not null"`
	RequestedAt time.Time `json:"requested_at"`
	Status      string    `json:"status" gorm:"size:20;default:pending"` // pending/approved/rejected

	IsDeleted bool      `json:"is_deleted" gorm:"default:false;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes" gorm:"type:text"`

	// 关联
	Details  []ReturnRequestDetail `json:"details,omitempty" gorm:"foreignKey:ReturnRequestID"`
	Supplier *Supplier             `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
}

func (ReturnRequest) TableName() string {
	return "wms_return_requests"
}

// 退货申请状态
const (
	ReturnStatusPending  = "pending"
	ReturnStatusApproved = "approved"
	ReturnStatusRejected = "rejected"
)

// ReturnRequestDetail 退货行项
// ExpectedCredit 在创建时按当时成本价快照，后续成本变动不回溯
type ReturnRequestDetail struct {
	ID              string  `json:"id" gorm:"primaryKey;size:32"`
	ReturnRequestID string  `json:"return_request_id" gorm:"size:32;not null;index"`
	VariantID       string  `json:"variant_id" gorm:"size:32;not null"`
	SKUCode         string  `json:"sku_code" gorm:"size:50"`
	BatchNo         string  `json:"batch_no" gorm:"size:50"` // 收货前发起时可为空
	Quantity        float64 `json:"quantity" gorm:"type:decimal(12,2);not null"`
	Reason          string  `json:"reason" gorm:"size:50"`

	UnitCost       decimal.Decimal `json:"unit_cost" gorm:"type:decimal(15,4);not null"`
	ExpectedCredit decimal.Decimal `json:"expected_credit" gorm:"type:decimal(15,2);not null"`

	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ReturnRequestDetail) TableName() string {
	return "wms_return_request_details"
}
