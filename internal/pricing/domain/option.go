// 包 定价服务的领域模型
package domain

import (
	"math"
	"strings"

	"github.com/wyfcoding/optionpricing/pkg/xerrors"
)

// OptionType 期权类型
type OptionType string

const (
	OptionTypeCall OptionType = "CALL" // 看涨期权
	OptionTypePut  OptionType = "PUT"  // 看跌期权
)

// ParseOptionType 解析期权类型，大小写不敏感
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(OptionTypeCall):
		return OptionTypeCall, nil
	case string(OptionTypePut):
		return OptionTypePut, nil
	default:
		return "", xerrors.InvalidArg("option type must be CALL or PUT, got %q", s)
	}
}

// Valid 是否为已知类型
func (t OptionType) Valid() bool {
	return t == OptionTypeCall || t == OptionTypePut
}

func (t OptionType) String() string { return string(t) }

// OptionParameters 欧式期权定价输入
type OptionParameters struct {
	Spot       float64    `json:"spot"`       // S 标的价格
	Strike     float64    `json:"strike"`     // K 行权价
	Maturity   float64    `json:"maturity"`   // T 到期时间 (年)
	Rate       float64    `json:"rate"`       // r 无风险利率 (小数)
	Volatility float64    `json:"volatility"` // σ 年化波动率 (小数)
	Type       OptionType `json:"type,omitempty"`
}

// Validate 校验输入。
// T 或 σ 为零时允许通过，由计算阶段以 DomainError 拒绝。
func (p OptionParameters) Validate() error {
	if !p.Type.Valid() {
		return xerrors.InvalidArg("option type must be CALL or PUT, got %q", string(p.Type))
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"spot", p.Spot},
		{"strike", p.Strike},
		{"maturity", p.Maturity},
		{"rate", p.Rate},
		{"volatility", p.Volatility},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return xerrors.InvalidArg("%s must be a finite number", f.name)
		}
	}
	if p.Spot <= 0 {
		return xerrors.InvalidArg("spot must be positive, got %g", p.Spot)
	}
	if p.Strike <= 0 {
		return xerrors.InvalidArg("strike must be positive, got %g", p.Strike)
	}
	if p.Maturity < 0 {
		return xerrors.InvalidArg("maturity must not be negative, got %g", p.Maturity)
	}
	if p.Volatility < 0 {
		return xerrors.InvalidArg("volatility must not be negative, got %g", p.Volatility)
	}
	return nil
}

// Greeks 希腊字母。Theta 按日历日计，Vega 与 Rho 按 1 个百分点计。
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// Valuation 单次计算得到的价格与希腊字母
type Valuation struct {
	Price  float64 `json:"price"`
	Greeks Greeks  `json:"greeks"`
}
