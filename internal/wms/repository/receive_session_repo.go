package repository

import (
	"context"
	"errors"

	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"gorm.io/gorm"
)

// ReceiveSessionRepository 收货会话仓库
type ReceiveSessionRepository struct {
	db *gorm.DB
}

func NewReceiveSessionRepository(db *gorm.DB) *ReceiveSessionRepository {
	return &ReceiveSessionRepository{db: db}
}

// Create 创建收货会话及行项
func (r *ReceiveSessionRepository) Create(ctx context.Context, s *entity.ReceiveSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// FindByID 根据ID查找收货会话（含行项）
func (r *ReceiveSessionRepository) FindByID(ctx context.Context, id string) (*entity.ReceiveSession, error) {
	var s entity.ReceiveSession
	err := r.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindByPurchaseOrderID 查找采购单已有的收货会话，不存在返回nil
func (r *ReceiveSessionRepository) FindByPurchaseOrderID(ctx context.Context, poID string) (*entity.ReceiveSession, error) {
	var s entity.ReceiveSession
	err := r.db.WithContext(ctx).Where("purchase_order_id = ?", poID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// FindAll 按分支查询收货会话列表
func (r *ReceiveSessionRepository) FindAll(ctx context.Context, branchID, status string, page, pageSize int) ([]entity.ReceiveSession, int64, error) {
	var items []entity.ReceiveSession
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ReceiveSession{}).
		Where("branch_id = ?", branchID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Details").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindDetailByID 查找收货行项
func (r *ReceiveSessionRepository) FindDetailByID(ctx context.Context, detailID string) (*entity.ReceiveSessionDetail, error) {
	var d entity.ReceiveSessionDetail
	err := r.db.WithContext(ctx).Where("id = ?", detailID).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// UpdateStatus 更新会话状态
func (r *ReceiveSessionRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&entity.ReceiveSession{}).
		Where("id = ?", id).
		Update("status", status).Error
}
