package application

import (
	"context"
	"strings"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/xerrors"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// PayoffDefaults 损益曲线默认参数
type PayoffDefaults struct {
	Points     int
	LowFactor  float64
	HighFactor float64
}

// PricingQueryService 处理所有定价相关的查询操作（Queries）
type PricingQueryService struct {
	engine   *domain.Engine
	repo     domain.PricingRepository
	defaults PayoffDefaults
}

// NewPricingQueryService 构造函数，repo 可为 nil
func NewPricingQueryService(engine *domain.Engine, repo domain.PricingRepository, defaults PayoffDefaults) *PricingQueryService {
	return &PricingQueryService{engine: engine, repo: repo, defaults: defaults}
}

// GetGreeks 计算希腊字母，不保存结果
func (s *PricingQueryService) GetGreeks(ctx context.Context, cmd PriceOptionCommand) (*domain.Greeks, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := cmd.Parameters()
	if err != nil {
		return nil, err
	}
	g, err := s.engine.Greeks(p)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetPayoffCurve 生成到期损益曲线；未给出 Anchor 时以行权价为锚
func (s *PricingQueryService) GetPayoffCurve(ctx context.Context, cmd PayoffCommand) (*domain.PayoffCurve, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := domain.ParseOptionType(cmd.OptionType)
	if err != nil {
		return nil, err
	}
	spec := domain.PayoffSpec{
		Type:       t,
		Strike:     cmd.Strike,
		Anchor:     cmd.Anchor,
		Count:      cmd.Points,
		LowFactor:  cmd.LowFactor,
		HighFactor: cmd.HighFactor,
	}
	if spec.Anchor == 0 {
		spec.Anchor = spec.Strike
	}
	s.applyDefaults(&spec)

	curve, err := domain.GeneratePayoffCurve(spec)
	if err != nil {
		return nil, err
	}
	return &curve, nil
}

func (s *PricingQueryService) applyDefaults(spec *domain.PayoffSpec) {
	if spec.Count == 0 {
		spec.Count = s.defaults.Points
	}
	if spec.LowFactor == 0 {
		spec.LowFactor = s.defaults.LowFactor
	}
	if spec.HighFactor == 0 {
		spec.HighFactor = s.defaults.HighFactor
	}
}

// GetLatestResult 获取最新定价结果
func (s *PricingQueryService) GetLatestResult(ctx context.Context, symbol string) (*PricingResultDTO, error) {
	symbol, err := s.checkSymbol(symbol)
	if err != nil {
		return nil, err
	}
	r, err := s.repo.GetLatest(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, xerrors.NotFound("no pricing result for %s", symbol)
	}
	return toResultDTO(r), nil
}

// GetHistory 获取定价历史，最新在前
func (s *PricingQueryService) GetHistory(ctx context.Context, symbol string, limit int) ([]*PricingResultDTO, error) {
	symbol, err := s.checkSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	results, err := s.repo.GetHistory(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]*PricingResultDTO, 0, len(results))
	for _, r := range results {
		dtos = append(dtos, toResultDTO(r))
	}
	return dtos, nil
}

func (s *PricingQueryService) checkSymbol(symbol string) (string, error) {
	if s.repo == nil {
		return "", xerrors.Unavailable("pricing result storage is not configured", nil)
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", xerrors.InvalidArg("symbol is required")
	}
	return symbol, nil
}
