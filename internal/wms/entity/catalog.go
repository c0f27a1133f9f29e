package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StorageZone 库区，收货时随机推荐 STORAGE 类型的活跃库区
type StorageZone struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	OrgID    string `json:"org_id" gorm:"size:32;not null;index"`
	BranchID string `json:"branch_id" gorm:"size:32;not null;index"`
	Code     string `json:"code" gorm:"size:32;not null"`
	Name     string `json:"name" gorm:"size:100;not null"`
	Type     string `json:"type" gorm:"size:20;default:STORAGE"` // STORAGE/PICKING/STAGING
	Status   string `json:"status" gorm:"size:20;default:active"`

	IsDeleted bool      `json:"is_deleted" gorm:"default:false;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StorageZone) TableName() string {
	return "wms_storage_zones"
}

// 库区类型
const (
	ZoneTypeStorage = "STORAGE"
	ZoneTypePicking = "PICKING"
	ZoneTypeStaging = "STAGING"
)

// ProductVariant 商品变体（SKU），退货时按当时成本价快照计算预期退款
type ProductVariant struct {
	ID        string          `json:"id" gorm:"primaryKey;size:32"`
	ProductID string          `json:"product_id" gorm:"size:32;not null;index"`
	SKUCode   string          `json:"sku_code" gorm:"size:50;not null;uniqueIndex"`
	Name      string          `json:"name" gorm:"size:200;not null"`
	CostPrice decimal.Decimal `json:"cost_price" gorm:"type:decimal(15,4);default:0"`

	IsDeleted bool      `json:"is_deleted" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProductVariant) TableName() string {
	return "wms_product_variants"
}

// Supplier 供应商
type Supplier struct {
	ID     string `json:"id" gorm:"primaryKey;size:32"`
	OrgID  string `json:"org_id" gorm:"size:32;not null;index"`
	Code   string `json:"code" gorm:"size:32;not null"`
	Name   string `json:"name" gorm:"size:200;not null"`
	Status string `json:"status" gorm:"size:20;default:active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Supplier) TableName() string {
	return "wms_suppliers"
}

// Branch 分支仓库，编码序列按分支本地日窗口计数
type Branch struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	OrgID    string `json:"org_id" gorm:"size:32;not null;index"`
	Code     string `json:"code" gorm:"size:32;not null"`
	Name     string `json:"name" gorm:"size:100;not null"`
	Timezone string `json:"timezone" gorm:"size:50;default:UTC"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Branch) TableName() string {
	return "wms_branches"
}

// User 用户（仅展示用途）
type User struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	FullName string `json:"full_name" gorm:"size:100;not null"`
	Email    string `json:"email" gorm:"size:100"`
	Status   string `json:"status" gorm:"size:20;default:active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "wms_users"
}
