package domain

import (
	"math"

	"github.com/wyfcoding/optionpricing/pkg/xerrors"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	daysPerYear = 365.0
	perPercent  = 100.0
)

// StandardNormal 标准正态分布的 CDF(Φ) 与 PDF(φ)
type StandardNormal interface {
	CDF(x float64) float64
	Prob(x float64) float64
}

// Engine Black-Scholes 定价引擎。无内部可变状态，可并发使用。
type Engine struct {
	normal StandardNormal
}

// EngineOption 引擎选项
type EngineOption func(*Engine)

// WithStandardNormal 替换默认的正态分布实现
func WithStandardNormal(n StandardNormal) EngineOption {
	return func(e *Engine) {
		if n != nil {
			e.normal = n
		}
	}
}

// NewEngine 创建定价引擎，默认使用 gonum 的 distuv.UnitNormal
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{normal: distuv.UnitNormal}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// terms d1/d2 及公共中间量
type terms struct {
	d1, d2   float64
	sqrtT    float64
	discount float64 // e^(-rT)
}

func (e *Engine) terms(p OptionParameters) (terms, error) {
	if err := p.Validate(); err != nil {
		return terms{}, err
	}

	sqrtT := math.Sqrt(p.Maturity)
	volSqrtT := p.Volatility * sqrtT
	if volSqrtT == 0 {
		return terms{}, xerrors.Domain("sigma*sqrt(T) is zero (volatility=%g, maturity=%g)", p.Volatility, p.Maturity)
	}

	ratio := p.Spot / p.Strike
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		return terms{}, xerrors.Domain("ln(S/K) is undefined for S/K=%g", ratio)
	}

	d1 := (math.Log(ratio) + (p.Rate+0.5*p.Volatility*p.Volatility)*p.Maturity) / volSqrtT
	if math.IsNaN(d1) || math.IsInf(d1, 0) {
		return terms{}, xerrors.Domain("d1 is not finite (S=%g, K=%g, T=%g, sigma=%g)", p.Spot, p.Strike, p.Maturity, p.Volatility)
	}

	return terms{
		d1:       d1,
		d2:       d1 - volSqrtT,
		sqrtT:    sqrtT,
		discount: math.Exp(-p.Rate * p.Maturity),
	}, nil
}

// Evaluate 一次计算价格与全部希腊字母，期权类型只分派一次
func (e *Engine) Evaluate(p OptionParameters) (Valuation, error) {
	t, err := e.terms(p)
	if err != nil {
		return Valuation{}, err
	}

	S, K, T, r, sigma := p.Spot, p.Strike, p.Maturity, p.Rate, p.Volatility
	pdf := e.normal.Prob(t.d1)

	// 两种类型共用的部分
	gamma := pdf / (S * sigma * t.sqrtT)
	vega := S * pdf * t.sqrtT
	decay := -S * pdf * sigma / (2 * t.sqrtT)

	var price, delta, theta, rho float64
	switch p.Type {
	case OptionTypeCall:
		nd1, nd2 := e.normal.CDF(t.d1), e.normal.CDF(t.d2)
		price = S*nd1 - K*t.discount*nd2
		delta = nd1
		theta = decay - r*K*t.discount*nd2
		rho = K * T * t.discount * nd2
	case OptionTypePut:
		nmd1, nmd2 := e.normal.CDF(-t.d1), e.normal.CDF(-t.d2)
		price = K*t.discount*nmd2 - S*nmd1
		delta = e.normal.CDF(t.d1) - 1
		theta = decay + r*K*t.discount*nmd2
		rho = -K * T * t.discount * nmd2
	}

	// 深度虚值时减法抵消可能产生极小的负数
	price = math.Max(price, 0)

	v := Valuation{
		Price: price,
		Greeks: Greeks{
			Delta: delta,
			Gamma: gamma,
			Theta: theta / daysPerYear,
			Vega:  vega / perPercent,
			Rho:   rho / perPercent,
		},
	}
	// 极端输入下 S*sigma*sqrt(T) 等中间量可能下溢为 0，产生 0/0
	for name, x := range map[string]float64{
		"price": v.Price,
		"delta": v.Greeks.Delta,
		"gamma": v.Greeks.Gamma,
		"theta": v.Greeks.Theta,
		"vega":  v.Greeks.Vega,
		"rho":   v.Greeks.Rho,
	} {
		if !finite(x) {
			return Valuation{}, xerrors.Domain("%s is not finite (S=%g, K=%g, T=%g, sigma=%g)", name, S, K, T, sigma)
		}
	}
	return v, nil
}

// Price 计算 Black-Scholes 理论价格
func (e *Engine) Price(p OptionParameters) (float64, error) {
	v, err := e.Evaluate(p)
	if err != nil {
		return 0, err
	}
	return v.Price, nil
}

// Greeks 计算希腊字母
func (e *Engine) Greeks(p OptionParameters) (Greeks, error) {
	v, err := e.Evaluate(p)
	if err != nil {
		return Greeks{}, err
	}
	return v.Greeks, nil
}
