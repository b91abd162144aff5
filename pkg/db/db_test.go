package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wyfcoding/optionpricing/pkg/logger"
	"gorm.io/gorm"
)

func TestDialector(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres"} {
		d, err := Dialector(driver, "dsn")
		if err != nil || d.Name() != driver {
			t.Errorf("%s: dialector=%v err=%v", driver, d, err)
		}
	}
	if _, err := Dialector("sqlite", "x"); err == nil {
		t.Errorf("sqlite should be unsupported")
	}
	if _, err := Init(Config{Driver: "oracle"}); err == nil {
		t.Errorf("Init should reject unknown drivers")
	}
}

func TestGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.Get()
	logger.SetDefault(logger.New(&buf, logger.Config{Level: "debug", Format: "json"}))
	t.Cleanup(func() { logger.SetDefault(prev) })

	l := NewGormLogger(false, 100*time.Millisecond)
	sql := func() (string, int64) { return "SELECT 1", 1 }
	ctx := context.Background()

	l.Trace(ctx, time.Now(), sql, nil)
	if buf.Len() != 0 {
		t.Errorf("fast query logged with logging disabled: %s", buf.String())
	}

	l.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Errorf("record-not-found should not be logged as failure")
	}

	l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	if !strings.Contains(buf.String(), "Slow query detected") {
		t.Errorf("slow query not logged: %s", buf.String())
	}

	buf.Reset()
	l.Trace(ctx, time.Now(), sql, errors.New("deadlock"))
	if !strings.Contains(buf.String(), "SQL execution failed") {
		t.Errorf("failure not logged: %s", buf.String())
	}
}
