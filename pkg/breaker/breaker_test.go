package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func TestBreaker_OpensAfterFailures(t *testing.T) {
	b := New(Settings{Name: "test", Timeout: time.Minute, MinRequests: 3, FailureRatio: 0.5})
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		if _, err := Execute(b, func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: want boom, got %v", i, err)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	called := false
	_, err := Execute(b, func() (int, error) { called = true; return 1, nil })
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("want ErrServiceUnavailable, got %v", err)
	}
	if called {
		t.Errorf("function ran while breaker open")
	}
}

func TestBreaker_IsSuccessfulExcludesErrors(t *testing.T) {
	notFound := errors.New("not found")
	b := New(Settings{
		Name:         "test",
		Timeout:      time.Minute,
		MinRequests:  1,
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, notFound) },
	})
	for i := 0; i < 5; i++ {
		_, _ = Execute(b, func() (string, error) { return "", notFound })
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("state = %v, want closed", b.State())
	}
}

func TestExecute_NilBreaker(t *testing.T) {
	v, err := Execute(nil, func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("got %v, %v", v, err)
	}
}
