// Package application 行情应用服务：报价查询与历史波动率估计
package application

import (
	"context"

	"github.com/wyfcoding/optionpricing/internal/marketdata/domain"
	"github.com/wyfcoding/optionpricing/pkg/xerrors"
)

// MarketDataService 行情门面服务
type MarketDataService struct {
	provider   domain.Provider
	Volatility *VolatilityService
}

// NewMarketDataService 构造函数
func NewMarketDataService(provider domain.Provider, volatility *VolatilityService) *MarketDataService {
	return &MarketDataService{provider: provider, Volatility: volatility}
}

// GetQuote 最新报价
func (s *MarketDataService) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	if symbol == "" {
		return nil, xerrors.InvalidArg("symbol is required")
	}
	return s.provider.Quote(ctx, symbol)
}

// EstimateVolatility 历史波动率
func (s *MarketDataService) EstimateVolatility(ctx context.Context, symbol string) (*VolatilityEstimate, error) {
	if symbol == "" {
		return nil, xerrors.InvalidArg("symbol is required")
	}
	return s.Volatility.Estimate(ctx, symbol)
}
