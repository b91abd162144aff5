// Package application 定价应用服务：命令、查询与仪表盘报价
package application

import (
	"context"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/xerrors"
)

var errMarketDataDisabled = xerrors.Unavailable("market data is not configured", nil)

// PricingService 定价门面服务
type PricingService struct {
	Command *PricingCommandService
	Query   *PricingQueryService
	Quotes  *QuoteService
}

// NewPricingService 构造函数，quotes 可为 nil（未接入行情时）
func NewPricingService(command *PricingCommandService, query *PricingQueryService, quotes *QuoteService) *PricingService {
	return &PricingService{Command: command, Query: query, Quotes: quotes}
}

// --- Command Facade ---

func (s *PricingService) PriceOption(ctx context.Context, cmd PriceOptionCommand) (*PricingResultDTO, error) {
	return s.Command.PriceOption(ctx, cmd)
}

func (s *PricingService) BatchPriceOptions(ctx context.Context, cmd BatchPriceOptionsCommand) (*BatchPricingResult, error) {
	return s.Command.BatchPriceOptions(ctx, cmd)
}

// --- Query Facade ---

func (s *PricingService) GetGreeks(ctx context.Context, cmd PriceOptionCommand) (*domain.Greeks, error) {
	return s.Query.GetGreeks(ctx, cmd)
}

func (s *PricingService) GetPayoffCurve(ctx context.Context, cmd PayoffCommand) (*domain.PayoffCurve, error) {
	return s.Query.GetPayoffCurve(ctx, cmd)
}

func (s *PricingService) GetLatestResult(ctx context.Context, symbol string) (*PricingResultDTO, error) {
	return s.Query.GetLatestResult(ctx, symbol)
}

func (s *PricingService) GetHistory(ctx context.Context, symbol string, limit int) ([]*PricingResultDTO, error) {
	return s.Query.GetHistory(ctx, symbol, limit)
}

// --- Dashboard ---

func (s *PricingService) Quote(ctx context.Context, cmd QuoteCommand) (*QuoteDTO, error) {
	if s.Quotes == nil {
		return nil, errMarketDataDisabled
	}
	return s.Quotes.Quote(ctx, cmd)
}
