// Package breaker 基于 gobreaker 的熔断器封装
package breaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrServiceUnavailable 熔断器处于打开状态
var ErrServiceUnavailable = errors.New("service unavailable: circuit breaker is open")

// Settings 熔断器参数
type Settings struct {
	Name         string
	MaxRequests  uint32        // 半开状态允许的探测请求数
	Interval     time.Duration // 关闭状态下计数清零周期
	Timeout      time.Duration // 打开状态持续时间
	FailureRatio float64
	MinRequests  uint32
	// IsSuccessful 为 nil 时任何错误都计为失败
	IsSuccessful func(err error) bool
}

// Breaker 熔断器
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New 创建熔断器
func New(st Settings) *Breaker {
	failureRatio := st.FailureRatio
	if failureRatio <= 0 {
		failureRatio = 0.5
	}
	minRequests := st.MinRequests
	if minRequests == 0 {
		minRequests = 5
	}

	gs := gobreaker.Settings{
		Name:        st.Name,
		MaxRequests: st.MaxRequests,
		Interval:    st.Interval,
		Timeout:     st.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && ratio >= failureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: st.IsSuccessful,
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(gs)}
}

// State 当前状态
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Execute 执行受熔断保护的函数，b 为 nil 时直接执行
func Execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}

	res, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, ErrServiceUnavailable
		}
		if res == nil {
			return zero, err
		}
		return res.(T), err
	}
	return res.(T), nil
}
