package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/repository"
)

// ZoneRecommender 库区推荐策略
// 只是摆放建议，不做容量感知也不做预留，收货状态机不依赖其结果。
type ZoneRecommender interface {
	Recommend(ctx context.Context, branchID string) (*entity.StorageZone, error)
}

// randomZoneRecommender 在分支的活跃 STORAGE 库区中等概率随机挑选
type randomZoneRecommender struct {
	zones *repository.ZoneRepository

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomZoneRecommender(zones *repository.ZoneRepository) ZoneRecommender {
	return &randomZoneRecommender{
		zones: zones,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Recommend 没有可用库区时返回 nil, nil
func (p *randomZoneRecommender) Recommend(ctx context.Context, branchID string) (*entity.StorageZone, error) {
	zones, err := p.zones.FindActiveByBranch(ctx, branchID, entity.ZoneTypeStorage)
	if err != nil {
		return nil, err
	}
	if len(zones) == 0 {
		return nil, nil
	}

	p.mu.Lock()
	idx := p.rnd.Intn(len(zones))
	p.mu.Unlock()

	return &zones[idx], nil
}
