package repository

import (
	"context"
	"errors"

	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"gorm.io/gorm"
)

// ReturnRequestRepository 退货申请仓库
type ReturnRequestRepository struct {
	db *gorm.DB
}

func NewReturnRequestRepository(db *gorm.DB) *ReturnRequestRepository {
	return &ReturnRequestRepository{db: db}
}

// Create 创建退货申请及行项
func (r *ReturnRequestRepository) Create(ctx context.Context, rr *entity.ReturnRequest) error {
	return r.db.WithContext(ctx).Create(rr).Error
}

// FindByID 根据ID查找退货申请（含行项）
func (r *ReturnRequestRepository) FindByID(ctx context.Context, id string) (*entity.ReturnRequest, error) {
	var rr entity.ReturnRequest
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Details").
		Where("id = ? AND is_deleted = ?", id, false).
		First(&rr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rr, nil
}

// FindAll 按分支查询退货申请列表
func (r *ReturnRequestRepository) FindAll(ctx context.Context, branchID string, page, pageSize int, filters map[string]string) ([]entity.ReturnRequest, int64, error) {
	var items []entity.ReturnRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ReturnRequest{}).
		Where("branch_id = ? AND is_deleted = ?", branchID, false)

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if supplierID := filters["supplier_id"]; supplierID != "" {
		query = query.Where("supplier_id = ?", supplierID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Supplier").
		Preload("Details").
		Order("requested_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// Update 更新退货申请
func (r *ReturnRequestRepository) Update(ctx context.Context, rr *entity.ReturnRequest) error {
	return r.db.WithContext(ctx).Save(rr).Error
}

// SoftDelete 软删除退货申请
func (r *ReturnRequestRepository) SoftDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&entity.ReturnRequest{}).
		Where("id = ?", id).
		Update("is_deleted", true).Error
}
