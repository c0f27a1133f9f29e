package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/repository"
)

const lookupCacheTTL = time.Hour

// LookupService 枚举展示元数据注册表
// ensure 语义：首次使用时创建，重复调用幂等，文案以先写者为准。
type LookupService struct {
	repo *repository.LookupRepository
	rdb  *redis.Client
}

func NewLookupService(repo *repository.LookupRepository, rdb *redis.Client) *LookupService {
	return &LookupService{repo: repo, rdb: rdb}
}

func lookupCacheKey(lookupType, lookupCode string) string {
	return fmt.Sprintf("wms:lookup:%s:%s", lookupType, lookupCode)
}

// GetLookup 查找枚举项ID，不存在返回空串（读路径的自然"暂无"信号）
func (s *LookupService) GetLookup(ctx context.Context, lookupType, lookupCode string) (string, error) {
	if s.rdb != nil {
		if id, err := s.rdb.Get(ctx, lookupCacheKey(lookupType, lookupCode)).Result(); err == nil && id != "" {
			return id, nil
		}
	}

	l, err := s.repo.FindByTypeCode(ctx, lookupType, lookupCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	s.cache(ctx, lookupType, lookupCode, l.ID)
	return l.ID, nil
}

// EnsureLookup 幂等的查找或创建，重复调用不覆盖已有文案
func (s *LookupService) EnsureLookup(ctx context.Context, lookupType, lookupCode, lookupValue, description string) (string, error) {
	create := &entity.SystemLookup{
		ID:          uuid.New().String()[:32],
		LookupType:  lookupType,
		LookupCode:  lookupCode,
		LookupValue: lookupValue,
		Description: description,
	}
	if err := s.repo.CreateIfAbsent(ctx, create); err != nil {
		return "", err
	}

	// 冲突时 DoNothing，重读拿到先写者的记录
	l, err := s.repo.FindByTypeCode(ctx, lookupType, lookupCode)
	if err != nil {
		return "", err
	}

	s.cache(ctx, lookupType, lookupCode, l.ID)
	return l.ID, nil
}

// ListByType 按命名空间列出枚举项
func (s *LookupService) ListByType(ctx context.Context, lookupType string) ([]entity.SystemLookup, error) {
	return s.repo.ListByType(ctx, lookupType)
}

func (s *LookupService) cache(ctx context.Context, lookupType, lookupCode, id string) {
	if s.rdb == nil {
		return
	}
	s.rdb.Set(ctx, lookupCacheKey(lookupType, lookupCode), id, lookupCacheTTL)
}

// SeedDefaults 启动时补齐各状态命名空间的展示文案，幂等
func (s *LookupService) SeedDefaults(ctx context.Context) error {
	seeds := []struct {
		Type, Code, Value, Desc string
	}{
		{entity.LookupTypePurchaseOrderStatus, entity.POStatusPending, "待收货", ""},
		{entity.LookupTypePurchaseOrderStatus, entity.POStatusPartial, "部分收货", ""},
		{entity.LookupTypePurchaseOrderStatus, entity.POStatusReceived, "已收货", ""},
		{entity.LookupTypePurchaseOrderStatus, entity.POStatusCancelled, "已取消", ""},
		{entity.LookupTypeReceiveSessionStatus, entity.ReceiveSessionStatusPending, "待开始", ""},
		{entity.LookupTypeReceiveSessionStatus, entity.ReceiveSessionStatusInProgress, "收货中", ""},
		{entity.LookupTypeReceiveSessionStatus, entity.ReceiveSessionStatusCompleted, "已完成", ""},
		{entity.LookupTypeReceiveDetailStatus, entity.ReceiveDetailStatusPending, "待收货", ""},
		{entity.LookupTypeReceiveDetailStatus, entity.ReceiveDetailStatusPartial, "部分收货", ""},
		{entity.LookupTypeReceiveDetailStatus, entity.ReceiveDetailStatusCompleted, "已收完", ""},
		{entity.LookupTypeReceiveDetailStatus, entity.ReceiveDetailStatusReturnRequested, "已转退货", ""},
		{entity.LookupTypeReturnStatus, entity.ReturnStatusPending, "待审批", ""},
		{entity.LookupTypeReturnStatus, entity.ReturnStatusApproved, "已通过", ""},
		{entity.LookupTypeReturnStatus, entity.ReturnStatusRejected, "已驳回", ""},
		{entity.LookupTypeCycleCountStatus, entity.CycleCountStatusPending, "待盘点", ""},
		{entity.LookupTypeCycleCountStatus, entity.CycleCountStatusInProgress, "盘点中", ""},
		{entity.LookupTypeCycleCountStatus, entity.CycleCountStatusCompleted, "已完成", ""},
		{entity.LookupTypeWorkSessionType, entity.WorkSessionTypeInbound, "入库作业", ""},
		{entity.LookupTypeWorkSessionType, entity.WorkSessionTypeCycleCount, "盘点作业", ""},
	}

	for i, seed := range seeds {
		l := &entity.SystemLookup{
			ID:          uuid.New().String()[:32],
			LookupType:  seed.Type,
			LookupCode:  seed.Code,
			LookupValue: seed.Value,
			Description: seed.Desc,
			SortOrder:   i + 1,
		}
		if err := s.repo.CreateIfAbsent(ctx, l); err != nil {
			return err
		}
	}
	return nil
}
