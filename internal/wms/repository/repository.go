package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// IsDuplicateKey 唯一约束冲突（依赖 gorm TranslateError）
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// Repositories WMS仓库集合
type Repositories struct {
	PurchaseOrder  *PurchaseOrderRepository
	ReceiveSession *ReceiveSessionRepository
	WorkSession    *WorkSessionRepository
	ReturnRequest  *ReturnRequestRepository
	CycleCount     *CycleCountRepository
	Lookup         *LookupRepository
	Zone           *ZoneRepository
	Catalog        *CatalogRepository
	Code           *CodeGenerator
}

// NewRepositories 创建WMS仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		PurchaseOrder:  NewPurchaseOrderRepository(db),
		ReceiveSession: NewReceiveSessionRepository(db),
		WorkSession:    NewWorkSessionRepository(db),
		ReturnRequest:  NewReturnRequestRepository(db),
		CycleCount:     NewCycleCountRepository(db),
		Lookup:         NewLookupRepository(db),
		Zone:           NewZoneRepository(db),
		Catalog:        NewCatalogRepository(db),
		Code:           NewCodeGenerator(db),
	}
}
