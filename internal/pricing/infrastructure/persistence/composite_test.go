package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

type stubRepo struct {
	saved    []*domain.PricingResult
	latest   *domain.PricingResult
	history  []*domain.PricingResult
	err      error
	getCalls int
}

func (s *stubRepo) Save(ctx context.Context, r *domain.PricingResult) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, r)
	return nil
}

func (s *stubRepo) GetLatest(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	s.getCalls++
	return s.latest, s.err
}

func (s *stubRepo) GetHistory(ctx context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	s.getCalls++
	if len(s.history) > limit {
		return s.history[:limit], s.err
	}
	return s.history, s.err
}

var errBroken = errors.New("broken")

func TestComposite_WriteThrough(t *testing.T) {
	db, cache := &stubRepo{}, &stubRepo{}
	repo := NewCompositeRepository(db, cache)
	r := &domain.PricingResult{Symbol: "AAPL"}
	if err := repo.Save(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	if len(db.saved) != 1 || len(cache.saved) != 1 {
		t.Errorf("db=%d cache=%d", len(db.saved), len(cache.saved))
	}

	// 主存储失败时不写缓存
	db.err = errBroken
	if err := repo.Save(context.Background(), r); !errors.Is(err, errBroken) {
		t.Errorf("want primary error, got %v", err)
	}
	if len(cache.saved) != 1 {
		t.Errorf("cache written after primary failure")
	}

	// 缓存失败被吞掉
	db.err, cache.err = nil, errBroken
	if err := repo.Save(context.Background(), r); err != nil {
		t.Errorf("cache failure leaked: %v", err)
	}
}

func TestComposite_ReadCacheFirst(t *testing.T) {
	hit := &domain.PricingResult{Symbol: "AAPL", CalculatedAt: 2}
	db := &stubRepo{latest: &domain.PricingResult{Symbol: "AAPL", CalculatedAt: 1}}
	cache := &stubRepo{latest: hit}
	repo := NewCompositeRepository(db, cache)

	got, err := repo.GetLatest(context.Background(), "AAPL")
	if err != nil || got != hit || db.getCalls != 0 {
		t.Errorf("cache hit: got=%v err=%v dbCalls=%d", got, err, db.getCalls)
	}

	cache.latest = nil
	got, _ = repo.GetLatest(context.Background(), "AAPL")
	if got.CalculatedAt != 1 {
		t.Errorf("miss should fall through to db")
	}

	cache.err = errBroken
	if got, err := repo.GetLatest(context.Background(), "AAPL"); err != nil || got == nil {
		t.Errorf("cache error should fall through: %v", err)
	}
}

func TestComposite_HistoryFallsBackWhenShort(t *testing.T) {
	mk := func(n int) []*domain.PricingResult {
		out := make([]*domain.PricingResult, n)
		for i := range out {
			out[i] = &domain.PricingResult{Symbol: "AAPL", CalculatedAt: int64(i)}
		}
		return out
	}
	db := &stubRepo{history: mk(10)}
	cache := &stubRepo{history: mk(3)}
	repo := NewCompositeRepository(db, cache)

	got, err := repo.GetHistory(context.Background(), "AAPL", 2)
	if err != nil || len(got) != 2 || db.getCalls != 0 {
		t.Errorf("cache should serve short request: %d items, db calls %d", len(got), db.getCalls)
	}
	got, _ = repo.GetHistory(context.Background(), "AAPL", 5)
	if len(got) != 5 || db.getCalls != 1 {
		t.Errorf("want db fallback, got %d items, db calls %d", len(got), db.getCalls)
	}

	if _, err := NewCompositeRepository(db, nil).GetHistory(context.Background(), "AAPL", 5); err != nil {
		t.Errorf("nil cache: %v", err)
	}
}
