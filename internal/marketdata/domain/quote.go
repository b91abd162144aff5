// Package domain 行情服务的领域模型：报价、日线与历史波动率
package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Quote 标的最新报价
type Quote struct {
	Symbol        string    `json:"symbol"`
	CompanyName   string    `json:"company_name"`
	LastPrice     float64   `json:"last_price"`
	PreviousClose float64   `json:"previous_close"`
	LastTradedAt  time.Time `json:"last_traded_at"`
	Change        float64   `json:"change"`
	ChangePct     float64   `json:"change_pct"`
}

// Bar 日线收盘数据
type Bar struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
}

// NewQuote 由最近几根日线构造报价。
// 只有一根日线时前收盘价取最新价，涨跌为零。
func NewQuote(symbol, companyName string, recent []Bar) (*Quote, error) {
	if len(recent) == 0 {
		return nil, fmt.Errorf("no recent bars for %s", symbol)
	}
	last := recent[len(recent)-1]
	prev := last.Close
	if len(recent) > 1 {
		prev = recent[len(recent)-2].Close
	}
	if companyName == "" {
		companyName = fmt.Sprintf("Company Name (%s)", strings.ToUpper(symbol))
	}

	q := &Quote{
		Symbol:        strings.ToUpper(symbol),
		CompanyName:   companyName,
		LastPrice:     last.Close,
		PreviousClose: prev,
		LastTradedAt:  last.Time,
		Change:        last.Close - prev,
	}
	if prev != 0 {
		q.ChangePct = q.Change / prev * 100
	}
	return q, nil
}

// Closes 提取收盘价序列
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Provider 行情数据源
type Provider interface {
	// Quote 最新报价，标的不存在时返回 NotFound
	Quote(ctx context.Context, symbol string) (*Quote, error)
	// History 按时间升序返回 lookback 区间（如 3mo）内的日线
	History(ctx context.Context, symbol, lookback string) ([]Bar, error)
}
