package repository

import (
	"context"
	"errors"
	"time"

	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"gorm.io/gorm"
)

// CatalogRepository 商品/用户/分支目录仓库（仅边界查询）
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// FindVariantByID 查找商品变体
func (r *CatalogRepository) FindVariantByID(ctx context.Context, id string) (*entity.ProductVariant, error) {
	var v entity.ProductVariant
	err := r.db.WithContext(ctx).Where("id = ? AND is_deleted = ?", id, false).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// FindVariantBySKU 按SKU编码查找商品变体
func (r *CatalogRepository) FindVariantBySKU(ctx context.Context, skuCode string) (*entity.ProductVariant, error) {
	var v entity.ProductVariant
	err := r.db.WithContext(ctx).Where("sku_code = ? AND is_deleted = ?", skuCode, false).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// FindUserByID 查找用户（展示用）
func (r *CatalogRepository) FindUserByID(ctx context.Context, id string) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindBranchByID 查找分支
func (r *CatalogRepository) FindBranchByID(ctx context.Context, id string) (*entity.Branch, error) {
	var b entity.Branch
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// BranchLocation 分支本地时区，解析失败回退服务器本地时区
func (r *CatalogRepository) BranchLocation(ctx context.Context, branchID string) *time.Location {
	b, err := r.FindBranchByID(ctx, branchID)
	if err != nil || b.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
