package application

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/xerrors"
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func dashboardCommand(optionType string) PriceOptionCommand {
	return PriceOptionCommand{Symbol: "aapl", OptionType: optionType, Spot: 150, Strike: 150, Maturity: 0.25, Rate: 0.02, Volatility: 0.30}
}

func newCommandService(repo domain.PricingRepository, pub domain.EventPublisher, m *metrics.Metrics) *PricingCommandService {
	return NewPricingCommandService(domain.NewEngine(), repo, pub, m, WithClock(func() time.Time { return fixedNow }))
}

func TestPriceOption_SavesAndPublishes(t *testing.T) {
	repo, pub := &memoryRepo{}, &recordingPublisher{}
	m := metrics.New("test")
	svc := newCommandService(repo, pub, m)

	res, err := svc.PriceOption(context.Background(), dashboardCommand("call"))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Price-9.32445364861934) > 1e-8 {
		t.Errorf("price = %v", res.Price)
	}
	if res.Symbol != "AAPL" || res.OptionType != domain.OptionTypeCall || res.CalculatedAt != fixedNow.UnixMilli() {
		t.Errorf("unexpected result %+v", res)
	}

	if len(repo.results) != 1 || repo.results[0].Symbol != "AAPL" {
		t.Fatalf("repo = %+v", repo.results)
	}
	if got := repo.results[0].OptionPrice.InexactFloat64(); math.Abs(got-res.Price) > 1e-9 {
		t.Errorf("saved price = %v", got)
	}

	if pub.count(domain.OptionPricedEventType) != 1 || pub.count(domain.GreeksCalculatedEventType) != 1 {
		t.Errorf("events = %+v", pub.events)
	}
	ev := pub.events[0].event.(domain.OptionPricedEvent)
	if ev.Symbol != "AAPL" || ev.PricingModel != domain.ModelBlackScholes || pub.events[0].key != "AAPL" {
		t.Errorf("priced event = %+v", ev)
	}
	if got := testutil.ToFloat64(m.OptionsPriced.WithLabelValues("CALL", "ok")); got != 1 {
		t.Errorf("options_priced_total = %v", got)
	}
}

func TestPriceOption_Failures(t *testing.T) {
	repo, pub := &memoryRepo{}, &recordingPublisher{}
	m := metrics.New("test")
	svc := newCommandService(repo, pub, m)

	cmd := dashboardCommand("straddle")
	if _, err := svc.PriceOption(context.Background(), cmd); !xerrors.IsInvalidArg(err) {
		t.Errorf("straddle: want InvalidArg, got %v", err)
	}

	cmd = dashboardCommand("PUT")
	cmd.Volatility = 0
	_, err := svc.PriceOption(context.Background(), cmd)
	if !xerrors.IsDomain(err) {
		t.Errorf("zero vol: want Domain, got %v", err)
	}

	if len(repo.results) != 0 {
		t.Errorf("failed pricing must not be saved")
	}
	if pub.count(domain.PricingErrorEventType) != 2 {
		t.Errorf("want 2 PricingError events, got %+v", pub.events)
	}
	last := pub.events[len(pub.events)-1].event.(domain.PricingErrorEvent)
	if last.ErrorCode != xerrors.ErrDomain.String() || last.OptionType != domain.OptionTypePut {
		t.Errorf("error event = %+v", last)
	}
	if got := testutil.ToFloat64(m.OptionsPriced.WithLabelValues("PUT", "domain")); got != 1 {
		t.Errorf("options_priced_total{PUT,domain} = %v", got)
	}
}

func TestPriceOption_UnderflowingGreeksIsDomainError(t *testing.T) {
	repo := &memoryRepo{}
	svc := newCommandService(repo, nil, nil)

	cmd := PriceOptionCommand{Symbol: "TINY", OptionType: "call", Spot: 1e-200, Strike: 1, Maturity: 1, Rate: 0, Volatility: 1e-200}
	if _, err := svc.PriceOption(context.Background(), cmd); !xerrors.IsDomain(err) {
		t.Errorf("want Domain, got %v", err)
	}
	if len(repo.results) != 0 {
		t.Errorf("non-finite result must not be saved: %+v", repo.results)
	}
}

func TestPriceOption_NoRepoNoPublisher(t *testing.T) {
	svc := newCommandService(nil, nil, nil)
	res, err := svc.PriceOption(context.Background(), dashboardCommand("put"))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Price-8.576325527521675) > 1e-8 {
		t.Errorf("put price = %v", res.Price)
	}
}

func TestPriceOption_SaveErrorAndPublishError(t *testing.T) {
	svc := newCommandService(&memoryRepo{saveErr: errors.New("db down")}, nil, nil)
	if _, err := svc.PriceOption(context.Background(), dashboardCommand("call")); xerrors.TypeOf(err) != xerrors.ErrInternal {
		t.Errorf("want Internal, got %v", err)
	}

	// 发布失败不影响结果
	svc = newCommandService(&memoryRepo{}, &recordingPublisher{err: errors.New("kafka down")}, nil)
	if _, err := svc.PriceOption(context.Background(), dashboardCommand("call")); err != nil {
		t.Errorf("publish failure leaked: %v", err)
	}
}

func TestPriceOption_AnonymousNotSaved(t *testing.T) {
	repo := &memoryRepo{}
	svc := newCommandService(repo, nil, nil)
	cmd := dashboardCommand("call")
	cmd.Symbol = ""
	if _, err := svc.PriceOption(context.Background(), cmd); err != nil {
		t.Fatal(err)
	}
	if len(repo.results) != 0 {
		t.Errorf("result without symbol should not be stored")
	}
}

func TestBatchPriceOptions(t *testing.T) {
	repo, pub := &memoryRepo{}, &recordingPublisher{}
	svc := NewPricingCommandService(domain.NewEngine(), repo, pub, nil, WithBatchConcurrency(3))

	contracts := []PriceOptionCommand{
		dashboardCommand("call"),
		dashboardCommand("straddle"),
		dashboardCommand("put"),
	}
	for i := 0; i < 20; i++ {
		c := dashboardCommand("call")
		c.Symbol = "MSFT"
		c.Strike = 100 + float64(i)
		contracts = append(contracts, c)
	}

	out, err := svc.BatchPriceOptions(context.Background(), BatchPriceOptionsCommand{Contracts: contracts})
	if err != nil {
		t.Fatal(err)
	}
	if out.BatchID == "" {
		t.Errorf("batch id not generated")
	}
	if out.SuccessCount != 22 || out.FailureCount != 1 {
		t.Errorf("success=%d failure=%d", out.SuccessCount, out.FailureCount)
	}
	for i, it := range out.Items {
		if it.Index != i {
			t.Fatalf("item %d has index %d", i, it.Index)
		}
	}
	if out.Items[1].ErrorType != "InvalidArg" || out.Items[1].Result != nil {
		t.Errorf("item 1 = %+v", out.Items[1])
	}
	if out.Items[2].Result.OptionType != domain.OptionTypePut {
		t.Errorf("order not preserved: %+v", out.Items[2].Result)
	}
	for i := 3; i < len(out.Items); i++ {
		if got, want := out.Items[i].Result.Strike, float64(100+i-3); got != want {
			t.Errorf("item %d strike = %v, want %v", i, got, want)
		}
	}

	if pub.count(domain.BatchPricingCompletedEventType) != 1 {
		t.Fatalf("batch event missing")
	}
	var batchEv domain.BatchPricingCompletedEvent
	for _, e := range pub.events {
		if e.eventType == domain.BatchPricingCompletedEventType {
			batchEv = e.event.(domain.BatchPricingCompletedEvent)
		}
	}
	if len(batchEv.Symbols) != 2 || batchEv.TotalContracts != 23 {
		t.Errorf("batch event = %+v", batchEv)
	}
}

func TestBatchPriceOptions_Invalid(t *testing.T) {
	svc := newCommandService(nil, nil, nil)
	if _, err := svc.BatchPriceOptions(context.Background(), BatchPriceOptionsCommand{}); !xerrors.IsInvalidArg(err) {
		t.Errorf("empty batch: want InvalidArg, got %v", err)
	}
	big := make([]PriceOptionCommand, maxBatchSize+1)
	if _, err := svc.BatchPriceOptions(context.Background(), BatchPriceOptionsCommand{Contracts: big}); !xerrors.IsInvalidArg(err) {
		t.Errorf("oversized batch: want InvalidArg, got %v", err)
	}
}

func TestBatchPriceOptions_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newCommandService(nil, nil, nil)
	_, err := svc.BatchPriceOptions(ctx, BatchPriceOptionsCommand{Contracts: []PriceOptionCommand{dashboardCommand("call")}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}
