package entity

import "time"

// PurchaseOrder 采购单（收货的源单据）
type PurchaseOrder struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	Code       string `json:"code" gorm:"size:32;not null;uniqueIndex:idx_po_branch_code,priority:2"`
	OrgID      string `json:"org_id" gorm:"size:32;not null;index"`
	BranchID   string `json:"branch_id" gorm:"size:32;not null;uniqueIndex:idx_po_branch_code,priority:1"`
	SupplierID string `json:"supplier_id" gorm:"size:32;not null;index"`
	Status     string `json:"status" gorm:"size:20;default:pending"` // pending/partial/received/cancelled

	OrderedAt          time.Time  `json:"ordered_at"`
	ExpectedDeliveryAt *time.Time `json:"expected_delivery_at"`

	IsDeleted bool      `json:"is_deleted" gorm:"default:false;index"`
	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes" gorm:"type:text"`

	// 关联
	Lines    []PurchaseOrderLine `json:"lines,omitempty" gorm:"foreignKey:PurchaseOrderID"`
	Supplier *Supplier           `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
}

func (PurchaseOrder) TableName() string {
	return "wms_purchase_orders"
}

// 采购单状态
const (
	POStatusPending   = "pending"
	POStatusPartial   = "partial"
	POStatusReceived  = "received"
	POStatusCancelled = "cancelled"
)

// PurchaseOrderLine 采购单行项
// QuantityReceived 由收货会话累加回写，允许超收（不截断）
type PurchaseOrderLine struct {
	ID               string  `json:"id" gorm:"primaryKey;size:32"`
	PurchaseOrderID  string  `json:"purchase_order_id" gorm:"size:32;not null;index"`
	VariantID        string  `json:"variant_id" gorm:"size:32;not null"`
	SKUCode          string  `json:"sku_code" gorm:"size:50"`
	QuantityOrdered  float64 `json:"quantity_ordered" gorm:"type:decimal(12,2);not null"`
	QuantityReceived float64 `json:"quantity_received" gorm:"type:decimal(12,2);default:0"`

	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PurchaseOrderLine) TableName() string {
	return "wms_purchase_order_lines"
}
