package repository

import (
	"context"
	"errors"

	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"gorm.io/gorm"
)

// CycleCountRepository 盘点仓库
type CycleCountRepository struct {
	db *gorm.DB
}

func NewCycleCountRepository(db *gorm.DB) *CycleCountRepository {
	return &CycleCountRepository{db: db}
}

// CreateSession 创建盘点会话及分区/行项
func (r *CycleCountRepository) CreateSession(ctx context.Context, s *entity.CycleCountSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// FindSessionByID 根据ID查找盘点会话（含分区和行项）
func (r *CycleCountRepository) FindSessionByID(ctx context.Context, id string) (*entity.CycleCountSession, error) {
	var s entity.CycleCountSession
	err := r.db.WithContext(ctx).
		Preload("Zones", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Zones.Zone").
		Preload("Zones.Items").
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

// FindAllSessions 按分支查询盘点会话列表
func (r *CycleCountRepository) FindAllSessions(ctx context.Context, branchID, status string, page, pageSize int) ([]entity.CycleCountSession, int64, error) {
	var items []entity.CycleCountSession
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.CycleCountSession{}).
		Where("branch_id = ?", branchID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Zones").
		Preload("Zones.Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindAssignmentByID 查找盘点分区（含行项）
func (r *CycleCountRepository) FindAssignmentByID(ctx context.Context, id string) (*entity.ZoneAssignment, error) {
	var a entity.ZoneAssignment
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindItemByID 查找盘点行项
func (r *CycleCountRepository) FindItemByID(ctx context.Context, id string) (*entity.CycleCountItem, error) {
	var it entity.CycleCountItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&it).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

// UpdateAssignment 更新盘点分区
func (r *CycleCountRepository) UpdateAssignment(ctx context.Context, a *entity.ZoneAssignment) error {
	return r.db.WithContext(ctx).Omit("Items", "Zone").Save(a).Error
}

// UpdateSession 更新盘点会话
func (r *CycleCountRepository) UpdateSession(ctx context.Context, s *entity.CycleCountSession) error {
	return r.db.WithContext(ctx).Omit("Zones").Save(s).Error
}
