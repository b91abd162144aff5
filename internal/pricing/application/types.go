package application

import (
	"time"

	"github.com/shopspring/decimal"
	mdapp "github.com/wyfcoding/optionpricing/internal/marketdata/application"
	mddomain "github.com/wyfcoding/optionpricing/internal/marketdata/domain"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// PriceOptionCommand 期权定价命令
type PriceOptionCommand struct {
	Symbol     string  `json:"symbol"`
	OptionType string  `json:"option_type" binding:"required"`
	Spot       float64 `json:"spot"`
	Strike     float64 `json:"strike"`
	Maturity   float64 `json:"maturity"`   // 年
	Rate       float64 `json:"rate"`       // 小数
	Volatility float64 `json:"volatility"` // 小数
}

// Parameters 转换为领域输入
func (c PriceOptionCommand) Parameters() (domain.OptionParameters, error) {
	t, err := domain.ParseOptionType(c.OptionType)
	if err != nil {
		return domain.OptionParameters{}, err
	}
	return domain.OptionParameters{
		Spot:       c.Spot,
		Strike:     c.Strike,
		Maturity:   c.Maturity,
		Rate:       c.Rate,
		Volatility: c.Volatility,
		Type:       t,
	}, nil
}

// BatchPriceOptionsCommand 批量定价命令
type BatchPriceOptionsCommand struct {
	BatchID   string               `json:"batch_id"`
	Contracts []PriceOptionCommand `json:"contracts" binding:"required"`
}

// PayoffCommand 损益曲线命令，零值字段使用配置默认值
type PayoffCommand struct {
	OptionType string  `json:"option_type" binding:"required"`
	Strike     float64 `json:"strike"`
	Anchor     float64 `json:"anchor"`
	Points     int     `json:"points"`
	LowFactor  float64 `json:"low_factor"`
	HighFactor float64 `json:"high_factor"`
}

// QuoteCommand 仪表盘查询：按标的取现价与波动率，同时给出看涨/看跌估值与损益曲线
type QuoteCommand struct {
	Symbol     string
	Strike     float64  // 为零时取现价
	Maturity   float64  // 为零时取 DefaultMaturity
	Rate       *float64 // 为空时取 DefaultRate
	Volatility *float64 // 为空时由历史波动率估计
	PayoffType string   // 为空时为 CALL
}

const (
	DefaultMaturity = 0.25
	DefaultRate     = 0.02
)

// PricingResultDTO 单次定价结果
type PricingResultDTO struct {
	Symbol       string            `json:"symbol,omitempty"`
	OptionType   domain.OptionType `json:"option_type"`
	Spot         float64           `json:"spot"`
	Strike       float64           `json:"strike"`
	Maturity     float64           `json:"maturity"`
	Rate         float64           `json:"rate"`
	Volatility   float64           `json:"volatility"`
	Price        float64           `json:"price"`
	Greeks       domain.Greeks     `json:"greeks"`
	PricingModel string            `json:"pricing_model"`
	CalculatedAt int64             `json:"calculated_at"`
}

// BatchItemResult 批量定价中的单项结果，与输入同序
type BatchItemResult struct {
	Index     int               `json:"index"`
	Result    *PricingResultDTO `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	ErrorType string            `json:"error_type,omitempty"`
}

// BatchPricingResult 批量定价结果
type BatchPricingResult struct {
	BatchID      string            `json:"batch_id"`
	Items        []BatchItemResult `json:"items"`
	SuccessCount int               `json:"success_count"`
	FailureCount int               `json:"failure_count"`
	Duration     float64           `json:"duration"` // 秒
}

// ValuationDTO 仪表盘中一侧的估值；计算失败时 Error 取代价格
type ValuationDTO struct {
	OptionType domain.OptionType `json:"option_type"`
	Price      float64           `json:"price"`
	Greeks     domain.Greeks     `json:"greeks"`
	Error      string            `json:"error,omitempty"`
}

// QuoteDTO 仪表盘视图
type QuoteDTO struct {
	Quote      *mddomain.Quote           `json:"quote"`
	Volatility *mdapp.VolatilityEstimate `json:"volatility"`
	Parameters domain.OptionParameters   `json:"parameters"`
	Call       ValuationDTO              `json:"call"`
	Put        ValuationDTO              `json:"put"`
	Payoff     *domain.PayoffCurve       `json:"payoff,omitempty"`
	PayoffErr  string                    `json:"payoff_error,omitempty"`
	AsOf       time.Time                 `json:"as_of"`
}

func toResultDTO(r *domain.PricingResult) *PricingResultDTO {
	if r == nil {
		return nil
	}
	return &PricingResultDTO{
		Symbol:     r.Symbol,
		OptionType: r.OptionType,
		Spot:       r.UnderlyingPrice.InexactFloat64(),
		Strike:     r.StrikePrice.InexactFloat64(),
		Maturity:   r.Maturity.InexactFloat64(),
		Rate:       r.RiskFreeRate.InexactFloat64(),
		Volatility: r.Volatility.InexactFloat64(),
		Price:      r.OptionPrice.InexactFloat64(),
		Greeks: domain.Greeks{
			Delta: r.Delta.InexactFloat64(),
			Gamma: r.Gamma.InexactFloat64(),
			Theta: r.Theta.InexactFloat64(),
			Vega:  r.Vega.InexactFloat64(),
			Rho:   r.Rho.InexactFloat64(),
		},
		PricingModel: r.PricingModel,
		CalculatedAt: r.CalculatedAt,
	}
}

// toDisplay 价格保留 2 位、希腊字母保留 5 位小数
func toDisplay(t domain.OptionType, v domain.Valuation) ValuationDTO {
	round := func(x float64, places int32) float64 {
		return decimal.NewFromFloat(x).Round(places).InexactFloat64()
	}
	return ValuationDTO{
		OptionType: t,
		Price:      round(v.Price, 2),
		Greeks: domain.Greeks{
			Delta: round(v.Greeks.Delta, 5),
			Gamma: round(v.Greeks.Gamma, 5),
			Theta: round(v.Greeks.Theta, 5),
			Vega:  round(v.Greeks.Vega, 5),
			Rho:   round(v.Greeks.Rho, 5),
		},
	}
}
