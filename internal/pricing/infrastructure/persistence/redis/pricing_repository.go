// Package redis 定价结果的 Redis 仓储：每个标的保存最新结果与定长历史列表
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/cache"
)

// DefaultHistoryLen 每个标的保留的历史条数
const DefaultHistoryLen = 500

// PricingRepository Redis 定价结果仓储
type PricingRepository struct {
	cache      *cache.RedisCache
	prefix     string
	ttl        time.Duration
	historyLen int64
}

var _ domain.PricingRepository = (*PricingRepository)(nil)

// NewPricingRepository ttl 为 0 时不过期
func NewPricingRepository(rc *cache.RedisCache, ttl time.Duration) *PricingRepository {
	return &PricingRepository{
		cache:      rc,
		prefix:     "pricing_result:",
		ttl:        ttl,
		historyLen: DefaultHistoryLen,
	}
}

// Save 覆盖最新结果并头插历史列表
func (r *PricingRepository) Save(ctx context.Context, result *domain.PricingResult) error {
	if result == nil || result.Symbol == "" {
		return nil
	}
	if err := r.cache.SetJSON(ctx, r.latestKey(result.Symbol), result, r.ttl); err != nil {
		return err
	}
	return r.cache.PushJSON(ctx, r.historyKey(result.Symbol), result, r.historyLen, r.ttl)
}

// GetLatest 未命中返回 (nil, nil)
func (r *PricingRepository) GetLatest(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	if symbol == "" {
		return nil, nil
	}
	var result domain.PricingResult
	ok, err := r.cache.GetJSON(ctx, r.latestKey(symbol), &result)
	if err != nil || !ok {
		return nil, err
	}
	return &result, nil
}

// GetHistory 最新在前
func (r *PricingRepository) GetHistory(ctx context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	return cache.RangeJSON[*domain.PricingResult](ctx, r.cache, r.historyKey(symbol), int64(limit))
}

func (r *PricingRepository) latestKey(symbol string) string {
	return fmt.Sprintf("%slatest:%s", r.prefix, symbol)
}

func (r *PricingRepository) historyKey(symbol string) string {
	return fmt.Sprintf("%shistory:%s", r.prefix, symbol)
}
