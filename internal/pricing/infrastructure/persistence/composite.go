// Package persistence 组合数据库与缓存两级仓储
package persistence

import (
	"context"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/logger"
)

// CompositeRepository 写穿透：先写主存储再写缓存；读优先命中缓存。
// 缓存失败只记录日志，不影响主流程。
type CompositeRepository struct {
	primary domain.PricingRepository
	cache   domain.PricingRepository
}

var _ domain.PricingRepository = (*CompositeRepository)(nil)

// NewCompositeRepository cache 可为 nil
func NewCompositeRepository(primary, cache domain.PricingRepository) *CompositeRepository {
	return &CompositeRepository{primary: primary, cache: cache}
}

func (r *CompositeRepository) Save(ctx context.Context, result *domain.PricingResult) error {
	if err := r.primary.Save(ctx, result); err != nil {
		return err
	}
	if r.cache != nil {
		if err := r.cache.Save(ctx, result); err != nil {
			logger.Warn(ctx, "Failed to cache pricing result", "symbol", result.Symbol, "error", err)
		}
	}
	return nil
}

func (r *CompositeRepository) GetLatest(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	if r.cache != nil {
		res, err := r.cache.GetLatest(ctx, symbol)
		if err != nil {
			logger.Warn(ctx, "Pricing result cache read failed", "symbol", symbol, "error", err)
		} else if res != nil {
			return res, nil
		}
	}
	return r.primary.GetLatest(ctx, symbol)
}

// GetHistory 缓存中条数不足时回落到主存储
func (r *CompositeRepository) GetHistory(ctx context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	if r.cache != nil {
		res, err := r.cache.GetHistory(ctx, symbol, limit)
		if err != nil {
			logger.Warn(ctx, "Pricing history cache read failed", "symbol", symbol, "error", err)
		} else if len(res) >= limit {
			return res, nil
		}
	}
	return r.primary.GetHistory(ctx, symbol, limit)
}
