// Package yahoo 基于 Yahoo Finance chart 接口的行情数据源
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wyfcoding/optionpricing/internal/marketdata/domain"
	"github.com/wyfcoding/optionpricing/pkg/breaker"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/retry"
	"github.com/wyfcoding/optionpricing/pkg/xerrors"
	"golang.org/x/time/rate"
)

// quoteRange 报价只需要最近几个交易日
const quoteRange = "5d"

// Config 客户端配置
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	QPS            float64
	Burst          int
	BreakerTimeout time.Duration
	UserAgent      string
}

// Client Yahoo chart 客户端，带限流、熔断与重试
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	breaker    *breaker.Breaker
	retryCfg   retry.Config
	metrics    *metrics.Metrics
}

var _ domain.Provider = (*Client)(nil)

// NewClient 创建客户端，m 可为 nil
func NewClient(cfg Config, m *metrics.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.QPS > 0 {
		limit = rate.Limit(cfg.QPS)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.MaxRetries

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		breaker: breaker.New(breaker.Settings{
			Name:    "yahoo-chart",
			Timeout: cfg.BreakerTimeout,
			// 标的不存在不代表上游故障
			IsSuccessful: func(err error) bool { return err == nil || xerrors.IsNotFound(err) },
		}),
		retryCfg: retryCfg,
		metrics:  m,
	}
}

// Quote 最新报价
func (c *Client) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	res, err := c.chart(ctx, symbol, quoteRange)
	if err != nil {
		return nil, err
	}
	bars := res.bars()
	if len(bars) == 0 {
		return nil, xerrors.NotFound("no recent prices for symbol %q", symbol)
	}
	name := res.Meta.LongName
	if name == "" {
		name = res.Meta.ShortName
	}
	return domain.NewQuote(symbol, name, bars)
}

// History 日线收盘价
func (c *Client) History(ctx context.Context, symbol, lookback string) ([]domain.Bar, error) {
	res, err := c.chart(ctx, symbol, lookback)
	if err != nil {
		return nil, err
	}
	bars := res.bars()
	if len(bars) == 0 {
		return nil, xerrors.NotFound("no historical data found for symbol %q", symbol)
	}
	return bars, nil
}

func (c *Client) chart(ctx context.Context, symbol, rng string) (*chartResult, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, xerrors.InvalidArg("symbol is required")
	}
	if rng == "" {
		return nil, xerrors.InvalidArg("range is required")
	}

	q := url.Values{}
	q.Set("range", rng)
	q.Set("interval", "1d")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(strings.ToUpper(symbol)), q.Encode())

	done := logger.LogDuration(ctx, "market data fetched", "symbol", symbol, "range", rng)
	res, err := breaker.Execute(c.breaker, func() (*chartResult, error) {
		var out *chartResult
		err := retry.DoIf(ctx, func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return xerrors.Unavailable("market data rate limiter", err)
			}
			var ferr error
			out, ferr = c.fetch(ctx, endpoint)
			return ferr
		}, isRetryable, c.retryCfg)
		return out, err
	})
	done()

	switch {
	case err == nil:
		c.metrics.RecordMarketData("ok")
		return res, nil
	case xerrors.IsNotFound(err):
		c.metrics.RecordMarketData("not_found")
		return nil, err
	case errors.Is(err, breaker.ErrServiceUnavailable):
		c.metrics.RecordMarketData("circuit_open")
		return nil, xerrors.Unavailable("market data provider unavailable", err)
	default:
		c.metrics.RecordMarketData("error")
		if _, ok := xerrors.FromError(err); ok {
			return nil, err
		}
		return nil, xerrors.Unavailable("market data request failed", err)
	}
}

func (c *Client) fetch(ctx context.Context, endpoint string) (*chartResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, xerrors.Internal("build market data request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, xerrors.Unavailable("market data request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, xerrors.Unavailable("read market data response", err)
	}

	var payload chartResponse
	decodeErr := json.Unmarshal(body, &payload)

	if resp.StatusCode == http.StatusNotFound {
		return nil, xerrors.NotFound("symbol not found: %s", payload.errorDescription())
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, xerrors.Unavailable(fmt.Sprintf("market data provider returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, xerrors.InvalidArg("market data request rejected (%d): %s", resp.StatusCode, payload.errorDescription())
	}
	if decodeErr != nil {
		return nil, xerrors.Internal("decode market data response", decodeErr)
	}
	if payload.Chart.Error != nil {
		return nil, xerrors.NotFound("symbol not found: %s", payload.errorDescription())
	}
	if len(payload.Chart.Result) == 0 {
		return nil, xerrors.NotFound("no data returned")
	}
	return &payload.Chart.Result[0], nil
}

func isRetryable(err error) bool {
	return xerrors.TypeOf(err) == xerrors.ErrUnavailable
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (r chartResponse) errorDescription() string {
	if r.Chart.Error == nil {
		return "unknown error"
	}
	return r.Chart.Error.Description
}

type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		Currency           string  `json:"currency"`
		LongName           string  `json:"longName"`
		ShortName          string  `json:"shortName"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// bars 按时间升序，跳过停牌日的空收盘价
func (r *chartResult) bars() []domain.Bar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	closes := r.Indicators.Quote[0].Close
	n := min(len(closes), len(r.Timestamp))
	out := make([]domain.Bar, 0, n)
	for i := 0; i < n; i++ {
		if closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		out = append(out, domain.Bar{Time: time.Unix(r.Timestamp[i], 0).UTC(), Close: *closes[i]})
	}
	return out
}
