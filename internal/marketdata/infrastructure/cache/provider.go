// Package cache 行情数据源的 Redis 缓存装饰器
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wyfcoding/optionpricing/internal/marketdata/domain"
	pkgcache "github.com/wyfcoding/optionpricing/pkg/cache"
	"github.com/wyfcoding/optionpricing/pkg/logger"
)

const (
	quoteKeyPrefix   = "marketdata:quote:"
	historyKeyPrefix = "marketdata:history:"
)

// CachedProvider 先读缓存，未命中再访问上游并回填。缓存故障只记录日志，不影响请求。
type CachedProvider struct {
	next  domain.Provider
	cache *pkgcache.RedisCache
	ttl   time.Duration
}

var _ domain.Provider = (*CachedProvider)(nil)

// NewCachedProvider 创建缓存装饰器
func NewCachedProvider(next domain.Provider, cache *pkgcache.RedisCache, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedProvider{next: next, cache: cache, ttl: ttl}
}

func (p *CachedProvider) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	key := quoteKeyPrefix + strings.ToUpper(symbol)

	var cached domain.Quote
	if found, err := p.cache.GetJSON(ctx, key, &cached); err != nil {
		logger.Warn(ctx, "quote cache read failed", "symbol", symbol, "error", err)
	} else if found {
		return &cached, nil
	}

	q, err := p.next.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := p.cache.SetJSON(ctx, key, q, p.ttl); err != nil {
		logger.Warn(ctx, "quote cache write failed", "symbol", symbol, "error", err)
	}
	return q, nil
}

func (p *CachedProvider) History(ctx context.Context, symbol, lookback string) ([]domain.Bar, error) {
	key := fmt.Sprintf("%s%s:%s", historyKeyPrefix, strings.ToUpper(symbol), lookback)

	var cached []domain.Bar
	if found, err := p.cache.GetJSON(ctx, key, &cached); err != nil {
		logger.Warn(ctx, "history cache read failed", "symbol", symbol, "error", err)
	} else if found {
		return cached, nil
	}

	bars, err := p.next.History(ctx, symbol, lookback)
	if err != nil {
		return nil, err
	}
	if err := p.cache.SetJSON(ctx, key, bars, p.ttl); err != nil {
		logger.Warn(ctx, "history cache write failed", "symbol", symbol, "error", err)
	}
	return bars, nil
}
