package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const ModelBlackScholes = "BlackScholes"

// PricingResult 定价结果实体，用于持久化与事件发布
type PricingResult struct {
	ID              uint            `json:"id"`
	CreatedAt       time.Time       `json:"created_at"`
	Symbol          string          `json:"symbol"`
	OptionType      OptionType      `json:"option_type"`
	StrikePrice     decimal.Decimal `json:"strike_price"`
	Maturity        decimal.Decimal `json:"maturity"`
	Volatility      decimal.Decimal `json:"volatility"`
	RiskFreeRate    decimal.Decimal `json:"risk_free_rate"`
	UnderlyingPrice decimal.Decimal `json:"underlying_price"`
	OptionPrice     decimal.Decimal `json:"option_price"`
	Delta           decimal.Decimal `json:"delta"`
	Gamma           decimal.Decimal `json:"gamma"`
	Theta           decimal.Decimal `json:"theta"`
	Vega            decimal.Decimal `json:"vega"`
	Rho             decimal.Decimal `json:"rho"`
	CalculatedAt    int64           `json:"calculated_at"`
	PricingModel    string          `json:"pricing_model"`
}

// NewPricingResult 由输入与估值结果构造实体
func NewPricingResult(symbol string, p OptionParameters, v Valuation, at time.Time) *PricingResult {
	return &PricingResult{
		Symbol:          symbol,
		OptionType:      p.Type,
		StrikePrice:     decimal.NewFromFloat(p.Strike),
		Maturity:        decimal.NewFromFloat(p.Maturity),
		Volatility:      decimal.NewFromFloat(p.Volatility),
		RiskFreeRate:    decimal.NewFromFloat(p.Rate),
		UnderlyingPrice: decimal.NewFromFloat(p.Spot),
		OptionPrice:     decimal.NewFromFloat(v.Price),
		Delta:           decimal.NewFromFloat(v.Greeks.Delta),
		Gamma:           decimal.NewFromFloat(v.Greeks.Gamma),
		Theta:           decimal.NewFromFloat(v.Greeks.Theta),
		Vega:            decimal.NewFromFloat(v.Greeks.Vega),
		Rho:             decimal.NewFromFloat(v.Greeks.Rho),
		CalculatedAt:    at.UnixMilli(),
		PricingModel:    ModelBlackScholes,
	}
}
