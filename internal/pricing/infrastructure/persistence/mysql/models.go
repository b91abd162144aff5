package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// PricingResultModel 定价结果数据库模型，金额类字段以 decimal 字符串落库
type PricingResultModel struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	Symbol          string    `gorm:"column:symbol;type:varchar(32);index:idx_symbol_calc,priority:1;not null"`
	OptionType      string    `gorm:"column:option_type;type:varchar(8);not null"`
	StrikePrice     string    `gorm:"column:strike_price;type:decimal(32,18);not null"`
	Maturity        string    `gorm:"column:maturity;type:decimal(32,18);not null"`
	Volatility      string    `gorm:"column:volatility;type:decimal(32,18);not null"`
	RiskFreeRate    string    `gorm:"column:risk_free_rate;type:decimal(32,18);not null"`
	UnderlyingPrice string    `gorm:"column:underlying_price;type:decimal(32,18);not null"`
	OptionPrice     string    `gorm:"column:option_price;type:decimal(32,18);not null"`
	Delta           string    `gorm:"column:delta;type:decimal(32,18)"`
	Gamma           string    `gorm:"column:gamma;type:decimal(32,18)"`
	Theta           string    `gorm:"column:theta;type:decimal(32,18)"`
	Vega            string    `gorm:"column:vega;type:decimal(32,18)"`
	Rho             string    `gorm:"column:rho;type:decimal(32,18)"`
	CalculatedAt    int64     `gorm:"column:calculated_at;type:bigint;index:idx_symbol_calc,priority:2;not null"`
	PricingModel    string    `gorm:"column:pricing_model;type:varchar(32)"`
}

func (PricingResultModel) TableName() string { return "pricing_results" }

func toPricingResultModel(res *domain.PricingResult) *PricingResultModel {
	if res == nil {
		return nil
	}
	return &PricingResultModel{
		ID:              res.ID,
		CreatedAt:       res.CreatedAt,
		Symbol:          res.Symbol,
		OptionType:      string(res.OptionType),
		StrikePrice:     res.StrikePrice.String(),
		Maturity:        res.Maturity.String(),
		Volatility:      res.Volatility.String(),
		RiskFreeRate:    res.RiskFreeRate.String(),
		UnderlyingPrice: res.UnderlyingPrice.String(),
		OptionPrice:     res.OptionPrice.String(),
		Delta:           res.Delta.String(),
		Gamma:           res.Gamma.String(),
		Theta:           res.Theta.String(),
		Vega:            res.Vega.String(),
		Rho:             res.Rho.String(),
		CalculatedAt:    res.CalculatedAt,
		PricingModel:    res.PricingModel,
	}
}

// parseDecimal 空串或非法值按零处理，旧数据中 Greeks 列可能为空
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toPricingResult(m *PricingResultModel) *domain.PricingResult {
	if m == nil {
		return nil
	}
	return &domain.PricingResult{
		ID:              m.ID,
		CreatedAt:       m.CreatedAt,
		Symbol:          m.Symbol,
		OptionType:      domain.OptionType(m.OptionType),
		StrikePrice:     parseDecimal(m.StrikePrice),
		Maturity:        parseDecimal(m.Maturity),
		Volatility:      parseDecimal(m.Volatility),
		RiskFreeRate:    parseDecimal(m.RiskFreeRate),
		UnderlyingPrice: parseDecimal(m.UnderlyingPrice),
		OptionPrice:     parseDecimal(m.OptionPrice),
		Delta:           parseDecimal(m.Delta),
		Gamma:           parseDecimal(m.Gamma),
		Theta:           parseDecimal(m.Theta),
		Vega:            parseDecimal(m.Vega),
		Rho:             parseDecimal(m.Rho),
		CalculatedAt:    m.CalculatedAt,
		PricingModel:    m.PricingModel,
	}
}
