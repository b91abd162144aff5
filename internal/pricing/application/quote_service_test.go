package application

import (
	"context"
	"errors"
	"testing"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/xerrors"
)

func TestQuote_DashboardFlow(t *testing.T) {
	md := &fakeMarketData{spot: 150, vol: 0.30}
	svc := NewQuoteService(domain.NewEngine(), md, testDefaults, nil)

	dto, err := svc.Quote(context.Background(), QuoteCommand{Symbol: "aapl", Strike: 150})
	if err != nil {
		t.Fatal(err)
	}
	p := dto.Parameters
	if p.Spot != 150 || p.Maturity != DefaultMaturity || p.Rate != DefaultRate || p.Volatility != 0.30 {
		t.Errorf("parameters = %+v", p)
	}
	// 价格两位小数、希腊字母五位小数
	if dto.Call.Price != 9.32 || dto.Put.Price != 8.58 {
		t.Errorf("call=%v put=%v", dto.Call.Price, dto.Put.Price)
	}
	if dto.Call.Greeks.Delta != 0.54313 || dto.Put.Greeks.Delta != -0.45687 || dto.Call.Greeks.Gamma != 0.01763 {
		t.Errorf("greeks call=%+v put=%+v", dto.Call.Greeks, dto.Put.Greeks)
	}
	if dto.Payoff == nil || len(dto.Payoff.Points) != 100 || dto.Payoff.Type != domain.OptionTypeCall {
		t.Fatalf("payoff = %+v (%s)", dto.Payoff, dto.PayoffErr)
	}
	if dto.Payoff.Low != 120 || dto.Payoff.High != 180 {
		t.Errorf("payoff range [%v, %v]", dto.Payoff.Low, dto.Payoff.High)
	}
}

func TestQuote_Defaults(t *testing.T) {
	md := &fakeMarketData{spot: 200, vol: 0.25}
	svc := NewQuoteService(domain.NewEngine(), md, testDefaults, nil)

	vol, rate := 0.5, 0.0
	dto, err := svc.Quote(context.Background(), QuoteCommand{Symbol: "MSFT", Volatility: &vol, Rate: &rate, PayoffType: "put"})
	if err != nil {
		t.Fatal(err)
	}
	if dto.Parameters.Strike != 200 {
		t.Errorf("strike should default to spot, got %v", dto.Parameters.Strike)
	}
	if dto.Parameters.Volatility != 0.5 || dto.Volatility.Source != "input" || md.volCalls != 0 {
		t.Errorf("explicit volatility ignored: %+v calls=%d", dto.Volatility, md.volCalls)
	}
	if dto.Parameters.Rate != 0 {
		t.Errorf("explicit zero rate ignored")
	}
	if dto.Payoff.Type != domain.OptionTypePut {
		t.Errorf("payoff type = %v", dto.Payoff.Type)
	}
}

func TestQuote_ValuationErrorShownInPlaceOfPrice(t *testing.T) {
	md := &fakeMarketData{spot: 100}
	svc := NewQuoteService(domain.NewEngine(), md, testDefaults, nil)

	zero := 0.0
	dto, err := svc.Quote(context.Background(), QuoteCommand{Symbol: "X", Volatility: &zero})
	if err != nil {
		t.Fatal(err)
	}
	if dto.Call.Error == "" || dto.Put.Error == "" || dto.Call.Price != 0 {
		t.Errorf("expected per-side errors, got call=%+v put=%+v", dto.Call, dto.Put)
	}
	if dto.Payoff == nil {
		t.Errorf("payoff should still be produced")
	}
}

func TestQuote_Errors(t *testing.T) {
	svc := NewQuoteService(domain.NewEngine(), &fakeMarketData{spot: 100, vol: 0.2}, testDefaults, nil)
	if _, err := svc.Quote(context.Background(), QuoteCommand{}); !xerrors.IsInvalidArg(err) {
		t.Errorf("missing symbol: want InvalidArg, got %v", err)
	}
	if _, err := svc.Quote(context.Background(), QuoteCommand{Symbol: "X", PayoffType: "straddle"}); !xerrors.IsInvalidArg(err) {
		t.Errorf("bad payoff type: want InvalidArg, got %v", err)
	}

	svc = NewQuoteService(domain.NewEngine(), &fakeMarketData{quoteErr: xerrors.NotFound("no such symbol")}, testDefaults, nil)
	if _, err := svc.Quote(context.Background(), QuoteCommand{Symbol: "NOPE"}); !xerrors.IsNotFound(err) {
		t.Errorf("want NotFound, got %v", err)
	}

	svc = NewQuoteService(domain.NewEngine(), &fakeMarketData{spot: 100, volErr: errUpstream}, testDefaults, nil)
	if _, err := svc.Quote(context.Background(), QuoteCommand{Symbol: "X"}); !errors.Is(err, errUpstream) {
		t.Errorf("want volatility error, got %v", err)
	}
}

func TestPricingService_QuoteWithoutMarketData(t *testing.T) {
	s := NewPricingService(newCommandService(nil, nil, nil), NewPricingQueryService(domain.NewEngine(), nil, testDefaults), nil)
	if _, err := s.Quote(context.Background(), QuoteCommand{Symbol: "X"}); xerrors.TypeOf(err) != xerrors.ErrUnavailable {
		t.Errorf("want Unavailable, got %v", err)
	}
	if _, err := s.PriceOption(context.Background(), dashboardCommand("call")); err != nil {
		t.Errorf("facade price: %v", err)
	}
}
