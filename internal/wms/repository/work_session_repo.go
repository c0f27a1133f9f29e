package repository

import (
	"context"
	"errors"

	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"gorm.io/gorm"
)

// WorkSessionRepository 作业会话仓库
type WorkSessionRepository struct {
	db *gorm.DB
}

func NewWorkSessionRepository(db *gorm.DB) *WorkSessionRepository {
	return &WorkSessionRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓库副本
func (r *WorkSessionRepository) WithTx(tx *gorm.DB) *WorkSessionRepository {
	return &WorkSessionRepository{db: tx}
}

// FindByRef 查找绑定到指定业务记录的作业会话，不存在返回nil
func (r *WorkSessionRepository) FindByRef(ctx context.Context, refType, refID string) (*entity.WorkSession, error) {
	var ws entity.WorkSession
	err := r.db.WithContext(ctx).
		Where("ref_type = ? AND ref_id = ?", refType, refID).
		First(&ws).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ws, nil
}

// FindByID 根据ID查找作业会话
func (r *WorkSessionRepository) FindByID(ctx context.Context, id string) (*entity.WorkSession, error) {
	var ws entity.WorkSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ws).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ws, nil
}

// Create 创建作业会话
func (r *WorkSessionRepository) Create(ctx context.Context, ws *entity.WorkSession) error {
	return r.db.WithContext(ctx).Create(ws).Error
}

// Update 更新作业会话
func (r *WorkSessionRepository) Update(ctx context.Context, ws *entity.WorkSession) error {
	return r.db.WithContext(ctx).Save(ws).Error
}

// FindAll 按分支查询作业会话列表
func (r *WorkSessionRepository) FindAll(ctx context.Context, branchID, sessionType string, page, pageSize int) ([]entity.WorkSession, int64, error) {
	var items []entity.WorkSession
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.WorkSession{}).
		Where("branch_id = ?", branchID)
	if sessionType != "" {
		query = query.Where("type = ?", sessionType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("started_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}
