package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/xerrors"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchConcurrency = 8
	maxBatchSize            = 1000
)

// PricingCommandService 处理定价相关的命令操作。
// 仓储与发布者均可为 nil，此时跳过持久化或事件发布。
type PricingCommandService struct {
	engine           *domain.Engine
	repo             domain.PricingRepository
	publisher        domain.EventPublisher
	metrics          *metrics.Metrics
	batchConcurrency int
	now              func() time.Time
}

// CommandOption PricingCommandService 选项
type CommandOption func(*PricingCommandService)

// WithBatchConcurrency 批量定价并发度
func WithBatchConcurrency(n int) CommandOption {
	return func(s *PricingCommandService) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// WithClock 替换时钟
func WithClock(now func() time.Time) CommandOption {
	return func(s *PricingCommandService) { s.now = now }
}

// NewPricingCommandService 创建新的 PricingCommandService 实例
func NewPricingCommandService(engine *domain.Engine, repo domain.PricingRepository, publisher domain.EventPublisher, m *metrics.Metrics, opts ...CommandOption) *PricingCommandService {
	s := &PricingCommandService{
		engine:           engine,
		repo:             repo,
		publisher:        publisher,
		metrics:          m,
		batchConcurrency: defaultBatchConcurrency,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PriceOption 期权定价：计算价格与希腊字母，保存结果并发布事件
func (c *PricingCommandService) PriceOption(ctx context.Context, cmd PriceOptionCommand) (*PricingResultDTO, error) {
	cmd.Symbol = strings.ToUpper(strings.TrimSpace(cmd.Symbol))

	p, v, err := c.evaluate(cmd)
	if err != nil {
		logger.Warn(ctx, "option pricing failed", "symbol", cmd.Symbol, "option_type", cmd.OptionType, "error", err)
		c.publishError(ctx, cmd, err)
		return nil, err
	}

	now := c.now()
	result := domain.NewPricingResult(cmd.Symbol, p, v, now)

	if c.repo != nil && cmd.Symbol != "" {
		if err := c.repo.Save(ctx, result); err != nil {
			return nil, xerrors.Wrap(err, xerrors.ErrInternal, "save pricing result")
		}
	}

	if c.publisher != nil {
		c.publish(ctx, domain.OptionPricedEventType, cmd.Symbol, domain.OptionPricedEvent{
			Symbol:          cmd.Symbol,
			OptionType:      p.Type,
			StrikePrice:     p.Strike,
			Maturity:        p.Maturity,
			OptionPrice:     v.Price,
			UnderlyingPrice: p.Spot,
			Volatility:      p.Volatility,
			RiskFreeRate:    p.Rate,
			PricingModel:    domain.ModelBlackScholes,
			CalculatedAt:    result.CalculatedAt,
			OccurredOn:      now,
		})
		c.publish(ctx, domain.GreeksCalculatedEventType, cmd.Symbol, domain.GreeksCalculatedEvent{
			Symbol:          cmd.Symbol,
			OptionType:      p.Type,
			StrikePrice:     p.Strike,
			Maturity:        p.Maturity,
			UnderlyingPrice: p.Spot,
			Greeks:          v.Greeks,
			CalculatedAt:    result.CalculatedAt,
			OccurredOn:      now,
		})
	}

	dto := toResultDTO(result)
	// 返回未经 decimal 转换的原始浮点值
	dto.Price, dto.Greeks = v.Price, v.Greeks
	return dto, nil
}

// BatchPriceOptions 批量定价，单项失败不影响其它项，结果与输入同序
func (c *PricingCommandService) BatchPriceOptions(ctx context.Context, cmd BatchPriceOptionsCommand) (*BatchPricingResult, error) {
	if len(cmd.Contracts) == 0 {
		return nil, xerrors.InvalidArg("batch contains no contracts")
	}
	if len(cmd.Contracts) > maxBatchSize {
		return nil, xerrors.InvalidArg("batch size %d exceeds limit %d", len(cmd.Contracts), maxBatchSize)
	}
	if cmd.BatchID == "" {
		cmd.BatchID = uuid.NewString()
	}

	start := time.Now()
	items := make([]BatchItemResult, len(cmd.Contracts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.batchConcurrency)
	for i, contract := range cmd.Contracts {
		i, contract := i, contract
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item := BatchItemResult{Index: i}
			res, err := c.PriceOption(gctx, contract)
			if err != nil {
				item.Error = err.Error()
				item.ErrorType = xerrors.TypeOf(err).String()
			} else {
				item.Result = res
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &BatchPricingResult{BatchID: cmd.BatchID, Items: items, Duration: time.Since(start).Seconds()}
	for _, it := range items {
		if it.Result != nil {
			out.SuccessCount++
		} else {
			out.FailureCount++
		}
	}

	logger.Info(ctx, "batch pricing completed", "batch_id", out.BatchID,
		"total", len(items), "success", out.SuccessCount, "failure", out.FailureCount)

	if c.publisher != nil {
		c.publish(ctx, domain.BatchPricingCompletedEventType, out.BatchID, domain.BatchPricingCompletedEvent{
			BatchID:        out.BatchID,
			Symbols:        extractSymbols(cmd.Contracts),
			TotalContracts: len(items),
			SuccessCount:   out.SuccessCount,
			FailureCount:   out.FailureCount,
			Duration:       out.Duration,
			OccurredOn:     c.now(),
		})
	}
	return out, nil
}

func (c *PricingCommandService) evaluate(cmd PriceOptionCommand) (domain.OptionParameters, domain.Valuation, error) {
	start := time.Now()
	p, err := cmd.Parameters()
	if err != nil {
		c.metrics.RecordPricing("unknown", pricingStatus(err), time.Since(start))
		return p, domain.Valuation{}, err
	}
	v, err := c.engine.Evaluate(p)
	c.metrics.RecordPricing(string(p.Type), pricingStatus(err), time.Since(start))
	return p, v, err
}

func (c *PricingCommandService) publishError(ctx context.Context, cmd PriceOptionCommand, err error) {
	if c.publisher == nil {
		return
	}
	c.publish(ctx, domain.PricingErrorEventType, cmd.Symbol, domain.PricingErrorEvent{
		Symbol:     cmd.Symbol,
		OptionType: domain.OptionType(strings.ToUpper(cmd.OptionType)),
		Error:      err.Error(),
		ErrorCode:  xerrors.TypeOf(err).String(),
		OccurredOn: c.now(),
	})
}

// publish 事件发布失败只记录日志，不影响定价结果
func (c *PricingCommandService) publish(ctx context.Context, eventType, key string, event any) {
	if err := c.publisher.Publish(ctx, eventType, key, event); err != nil {
		logger.Error(ctx, "failed to publish event", "event_type", eventType, "key", key, "error", err)
	}
}

func pricingStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case xerrors.IsInvalidArg(err):
		return "invalid"
	case xerrors.IsDomain(err):
		return "domain"
	default:
		return "error"
	}
}

// extractSymbols 提取去重后的合约标的
func extractSymbols(contracts []PriceOptionCommand) []string {
	symbols := make([]string, 0, len(contracts))
	seen := make(map[string]bool)
	for _, contract := range contracts {
		s := strings.ToUpper(strings.TrimSpace(contract.Symbol))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		symbols = append(symbols, s)
	}
	return symbols
}
