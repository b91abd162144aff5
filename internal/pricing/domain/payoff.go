package domain

import (
	"math"

	"github.com/wyfcoding/optionpricing/pkg/xerrors"
)

const (
	DefaultPayoffPoints     = 100
	DefaultPayoffLowFactor  = 0.8
	DefaultPayoffHighFactor = 1.2
)

// PayoffPoint 到期损益曲线上的一个采样点
type PayoffPoint struct {
	StockPrice float64 `json:"stock_price"`
	Payoff     float64 `json:"payoff"`
}

// PayoffCurve 按标的价格升序排列的到期损益曲线
type PayoffCurve struct {
	Type   OptionType    `json:"type"`
	Strike float64       `json:"strike"`
	Low    float64       `json:"low"`
	High   float64       `json:"high"`
	Points []PayoffPoint `json:"points"`
}

// PayoffSpec 损益曲线生成参数。
// Count、LowFactor、HighFactor 为零值时取默认值 100 / 0.8 / 1.2。
type PayoffSpec struct {
	Type       OptionType
	Strike     float64
	Anchor     float64 // 用于确定采样区间的参考现价
	Count      int
	LowFactor  float64
	HighFactor float64
}

func (s PayoffSpec) withDefaults() PayoffSpec {
	if s.Count == 0 {
		s.Count = DefaultPayoffPoints
	}
	if s.LowFactor == 0 {
		s.LowFactor = DefaultPayoffLowFactor
	}
	if s.HighFactor == 0 {
		s.HighFactor = DefaultPayoffHighFactor
	}
	return s
}

// Payoff 到期时单点损益（不含权利金）。
// 调用方需先校验期权类型，未知类型返回 0。
func Payoff(t OptionType, strike, stockPrice float64) float64 {
	switch t {
	case OptionTypeCall:
		return math.Max(0, stockPrice-strike)
	case OptionTypePut:
		return math.Max(0, strike-stockPrice)
	default:
		return 0
	}
}

// GeneratePayoffCurve 在 [min(anchor,K)*low, max(anchor,K)*high] 上等距采样 Count 个点，两端包含在内
func GeneratePayoffCurve(spec PayoffSpec) (PayoffCurve, error) {
	spec = spec.withDefaults()

	if !spec.Type.Valid() {
		return PayoffCurve{}, xerrors.InvalidArg("option type must be CALL or PUT, got %q", string(spec.Type))
	}
	if !(spec.Strike > 0) || math.IsInf(spec.Strike, 0) {
		return PayoffCurve{}, xerrors.InvalidArg("strike must be positive, got %g", spec.Strike)
	}
	if !(spec.Anchor > 0) || math.IsInf(spec.Anchor, 0) {
		return PayoffCurve{}, xerrors.InvalidArg("anchor price must be positive, got %g", spec.Anchor)
	}
	if spec.Count < 2 {
		return PayoffCurve{}, xerrors.InvalidArg("payoff curve needs at least 2 points, got %d", spec.Count)
	}
	if !finite(spec.LowFactor) || !finite(spec.HighFactor) || spec.LowFactor < 0 || spec.HighFactor < 0 {
		return PayoffCurve{}, xerrors.InvalidArg("range factors must be positive (low=%g, high=%g)", spec.LowFactor, spec.HighFactor)
	}

	low := math.Min(spec.Anchor, spec.Strike) * spec.LowFactor
	high := math.Max(spec.Anchor, spec.Strike) * spec.HighFactor
	if !(high > low) {
		return PayoffCurve{}, xerrors.InvalidArg("empty sampling range [%g, %g]", low, high)
	}

	step := (high - low) / float64(spec.Count-1)
	points := make([]PayoffPoint, spec.Count)
	for i := range points {
		s := low + step*float64(i)
		if i == spec.Count-1 {
			s = high
		}
		points[i] = PayoffPoint{StockPrice: s, Payoff: Payoff(spec.Type, spec.Strike, s)}
	}

	return PayoffCurve{
		Type:   spec.Type,
		Strike: spec.Strike,
		Low:    low,
		High:   high,
		Points: points,
	}, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
