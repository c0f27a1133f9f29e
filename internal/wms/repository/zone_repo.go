package repository

import (
	"context"
	"errors"

	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"gorm.io/gorm"
)

// ZoneRepository 库区仓库
type ZoneRepository struct {
	db *gorm.DB
}

func NewZoneRepository(db *gorm.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

// FindActiveByBranch 查询分支下活跃且未删除的库区，可按类型过滤
func (r *ZoneRepository) FindActiveByBranch(ctx context.Context, branchID, typeCode string) ([]entity.StorageZone, error) {
	var zones []entity.StorageZone
	query := r.db.WithContext(ctx).
		Where("branch_id = ? AND status = ? AND is_deleted = ?", branchID, "active", false)
	if typeCode != "" {
		query = query.Where("type = ?", typeCode)
	}
	err := query.Order("code ASC").Find(&zones).Error
	return zones, err
}

// FindByCode 按分支和库区编码查找库区
func (r *ZoneRepository) FindByCode(ctx context.Context, branchID, code string) (*entity.StorageZone, error) {
	var zone entity.StorageZone
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND code = ? AND is_deleted = ?", branchID, code, false).
		First(&zone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &zone, nil
}
