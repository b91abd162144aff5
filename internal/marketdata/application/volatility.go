package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wyfcoding/optionpricing/internal/marketdata/domain"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/xerrors"
)

// Policy 波动率估计失败时的处理策略
type Policy string

const (
	PolicyStrict   Policy = "strict"   // 直接返回错误
	PolicyFallback Policy = "fallback" // 返回默认波动率并标注原因
)

const (
	SourceHistorical = "historical"
	SourceFallback   = "fallback"

	DefaultLookback   = "3mo"
	DefaultVolatility = 0.30
)

// ParsePolicy 解析策略名
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyStrict, PolicyFallback:
		return p, nil
	case "":
		return PolicyFallback, nil
	default:
		return "", fmt.Errorf("unknown volatility policy %q", s)
	}
}

// VolatilityConfig 波动率估计参数
type VolatilityConfig struct {
	Lookback     string
	TradingDays  float64
	Policy       Policy
	DefaultValue float64
}

func (c VolatilityConfig) withDefaults() VolatilityConfig {
	if c.Lookback == "" {
		c.Lookback = DefaultLookback
	}
	if c.TradingDays <= 0 {
		c.TradingDays = domain.DefaultTradingDays
	}
	if c.Policy == "" {
		c.Policy = PolicyFallback
	}
	if c.DefaultValue <= 0 {
		c.DefaultValue = DefaultVolatility
	}
	return c
}

// VolatilityEstimate 波动率估计结果
type VolatilityEstimate struct {
	Symbol   string  `json:"symbol"`
	Value    float64 `json:"value"`
	Source   string  `json:"source"`
	Lookback string  `json:"lookback"`
	Samples  int     `json:"samples"`
	Reason   string  `json:"reason,omitempty"`
}

// VolatilityService 基于日线收盘价估计年化历史波动率
type VolatilityService struct {
	provider domain.Provider
	cfg      VolatilityConfig
	metrics  *metrics.Metrics
}

// NewVolatilityService 构造函数，m 可为 nil
func NewVolatilityService(provider domain.Provider, cfg VolatilityConfig, m *metrics.Metrics) *VolatilityService {
	return &VolatilityService{provider: provider, cfg: cfg.withDefaults(), metrics: m}
}

// Estimate 估计标的历史波动率。fallback 策略下上游或计算失败时返回默认值，调用方取消除外。
func (s *VolatilityService) Estimate(ctx context.Context, symbol string) (*VolatilityEstimate, error) {
	est, err := s.historical(ctx, symbol)
	if err == nil {
		return est, nil
	}
	if s.cfg.Policy == PolicyStrict || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	logger.Warn(ctx, "historical volatility unavailable, using default",
		"symbol", symbol, "default", s.cfg.DefaultValue, "error", err)
	s.metrics.RecordVolatilityFallback()
	return &VolatilityEstimate{
		Symbol:   strings.ToUpper(symbol),
		Value:    s.cfg.DefaultValue,
		Source:   SourceFallback,
		Lookback: s.cfg.Lookback,
		Reason:   err.Error(),
	}, nil
}

func (s *VolatilityService) historical(ctx context.Context, symbol string) (*VolatilityEstimate, error) {
	bars, err := s.provider.History(ctx, symbol, s.cfg.Lookback)
	if err != nil {
		return nil, err
	}
	closes := domain.Closes(bars)
	vol, err := domain.HistoricalVolatility(closes, s.cfg.TradingDays)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.ErrInvalidArg, fmt.Sprintf("estimate volatility for %s", symbol))
	}
	if vol <= 0 {
		return nil, xerrors.Domain("historical volatility for %s is zero", symbol)
	}
	return &VolatilityEstimate{
		Symbol:   strings.ToUpper(symbol),
		Value:    vol,
		Source:   SourceHistorical,
		Lookback: s.cfg.Lookback,
		Samples:  len(closes) - 1,
	}, nil
}
