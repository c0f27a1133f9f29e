package repository

import (
	"context"
	"errors"

	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LookupRepository 枚举展示元数据仓库
type LookupRepository struct {
	db *gorm.DB
}

func NewLookupRepository(db *gorm.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// FindByTypeCode 按命名空间+代码查找
func (r *LookupRepository) FindByTypeCode(ctx context.Context, lookupType, lookupCode string) (*entity.SystemLookup, error) {
	var l entity.SystemLookup
	err := r.db.WithContext(ctx).
		Where("lookup_type = ? AND lookup_code = ?", lookupType, lookupCode).
		First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// CreateIfAbsent 不存在则创建，存在则保持原值（先写者胜）
func (r *LookupRepository) CreateIfAbsent(ctx context.Context, l *entity.SystemLookup) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lookup_type"}, {Name: "lookup_code"}},
			DoNothing: true,
		}).
		Create(l).Error
}

// ListByType 按命名空间列出
func (r *LookupRepository) ListByType(ctx context.Context, lookupType string) ([]entity.SystemLookup, error) {
	var items []entity.SystemLookup
	err := r.db.WithContext(ctx).
		Where("lookup_type = ?", lookupType).
		Order("sort_order ASC, lookup_code ASC").
		Find(&items).Error
	return items, err
}
