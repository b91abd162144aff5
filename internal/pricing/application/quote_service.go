package application

import (
	"context"
	"strings"
	"time"

	mdapp "github.com/wyfcoding/optionpricing/internal/marketdata/application"
	mddomain "github.com/wyfcoding/optionpricing/internal/marketdata/domain"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/xerrors"
	"golang.org/x/sync/errgroup"
)

// MarketData 行情依赖
type MarketData interface {
	GetQuote(ctx context.Context, symbol string) (*mddomain.Quote, error)
	EstimateVolatility(ctx context.Context, symbol string) (*mdapp.VolatilityEstimate, error)
}

// QuoteService 仪表盘流程：取现价与波动率，给出看涨/看跌估值与以现价为锚的损益曲线
type QuoteService struct {
	engine     *domain.Engine
	marketData MarketData
	defaults   PayoffDefaults
	metrics    *metrics.Metrics
}

// NewQuoteService 构造函数
func NewQuoteService(engine *domain.Engine, md MarketData, defaults PayoffDefaults, m *metrics.Metrics) *QuoteService {
	return &QuoteService{engine: engine, marketData: md, defaults: defaults, metrics: m}
}

// Quote 单侧估值失败时以错误文本代替价格，整体请求仍然成功
func (s *QuoteService) Quote(ctx context.Context, cmd QuoteCommand) (*QuoteDTO, error) {
	symbol := strings.ToUpper(strings.TrimSpace(cmd.Symbol))
	if symbol == "" {
		return nil, xerrors.InvalidArg("symbol is required")
	}
	payoffType := domain.OptionTypeCall
	if cmd.PayoffType != "" {
		t, err := domain.ParseOptionType(cmd.PayoffType)
		if err != nil {
			return nil, err
		}
		payoffType = t
	}

	var (
		quote *mddomain.Quote
		vol   *mdapp.VolatilityEstimate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := s.marketData.GetQuote(gctx, symbol)
		quote = q
		return err
	})
	if cmd.Volatility == nil {
		g.Go(func() error {
			v, err := s.marketData.EstimateVolatility(gctx, symbol)
			vol = v
			return err
		})
	} else {
		vol = &mdapp.VolatilityEstimate{Symbol: symbol, Value: *cmd.Volatility, Source: "input"}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	params := domain.OptionParameters{
		Spot:       quote.LastPrice,
		Strike:     cmd.Strike,
		Maturity:   cmd.Maturity,
		Rate:       DefaultRate,
		Volatility: vol.Value,
	}
	if params.Strike == 0 {
		params.Strike = quote.LastPrice
	}
	if params.Maturity == 0 {
		params.Maturity = DefaultMaturity
	}
	if cmd.Rate != nil {
		params.Rate = *cmd.Rate
	}

	dto := &QuoteDTO{
		Quote:      quote,
		Volatility: vol,
		Parameters: params,
		Call:       s.valuation(params, domain.OptionTypeCall),
		Put:        s.valuation(params, domain.OptionTypePut),
		AsOf:       time.Now().UTC(),
	}

	spec := domain.PayoffSpec{
		Type:       payoffType,
		Strike:     params.Strike,
		Anchor:     quote.LastPrice,
		Count:      s.defaults.Points,
		LowFactor:  s.defaults.LowFactor,
		HighFactor: s.defaults.HighFactor,
	}
	if curve, err := domain.GeneratePayoffCurve(spec); err != nil {
		dto.PayoffErr = err.Error()
	} else {
		dto.Payoff = &curve
	}
	return dto, nil
}

func (s *QuoteService) valuation(p domain.OptionParameters, t domain.OptionType) ValuationDTO {
	p.Type = t
	start := time.Now()
	v, err := s.engine.Evaluate(p)
	s.metrics.RecordPricing(string(t), pricingStatus(err), time.Since(start))
	if err != nil {
		return ValuationDTO{OptionType: t, Error: err.Error()}
	}
	return toDisplay(t, v)
}
