package application

import (
	"context"
	"errors"
	"sync"

	mdapp "github.com/wyfcoding/optionpricing/internal/marketdata/application"
	mddomain "github.com/wyfcoding/optionpricing/internal/marketdata/domain"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

type memoryRepo struct {
	mu      sync.Mutex
	results []*domain.PricingResult
	saveErr error
}

func (r *memoryRepo) Save(ctx context.Context, result *domain.PricingResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.results = append(r.results, result)
	return nil
}

func (r *memoryRepo) GetLatest(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.results) - 1; i >= 0; i-- {
		if r.results[i].Symbol == symbol {
			return r.results[i], nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) GetHistory(ctx context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.PricingResult
	for i := len(r.results) - 1; i >= 0 && len(out) < limit; i-- {
		if r.results[i].Symbol == symbol {
			out = append(out, r.results[i])
		}
	}
	return out, nil
}

type publishedEvent struct {
	eventType, key string
	event          any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{eventType, key, event})
	return p.err
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.eventType == eventType {
			n++
		}
	}
	return n
}

var errUpstream = errors.New("upstream down")

type fakeMarketData struct {
	spot     float64
	vol      float64
	quoteErr error
	volErr   error
	volCalls int
	mu       sync.Mutex
}

func (f *fakeMarketData) GetQuote(ctx context.Context, symbol string) (*mddomain.Quote, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &mddomain.Quote{Symbol: symbol, LastPrice: f.spot, PreviousClose: f.spot}, nil
}

func (f *fakeMarketData) EstimateVolatility(ctx context.Context, symbol string) (*mdapp.VolatilityEstimate, error) {
	f.mu.Lock()
	f.volCalls++
	f.mu.Unlock()
	if f.volErr != nil {
		return nil, f.volErr
	}
	return &mdapp.VolatilityEstimate{Symbol: symbol, Value: f.vol, Source: mdapp.SourceHistorical}, nil
}
