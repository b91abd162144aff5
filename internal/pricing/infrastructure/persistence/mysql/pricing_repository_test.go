package mysql

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func sampleResult(t *testing.T) *domain.PricingResult {
	t.Helper()
	p := domain.OptionParameters{Type: domain.OptionTypeCall, Spot: 150, Strike: 150, Maturity: 0.25, Rate: 0.02, Volatility: 0.3}
	v, err := domain.NewEngine().Evaluate(p)
	if err != nil {
		t.Fatal(err)
	}
	return domain.NewPricingResult("AAPL", p, v, time.UnixMilli(1760000000000))
}

func TestModelMapping(t *testing.T) {
	res := sampleResult(t)
	m := toPricingResultModel(res)
	if m.OptionType != "CALL" || m.StrikePrice != "150" || m.Symbol != "AAPL" {
		t.Errorf("model = %+v", m)
	}

	back := toPricingResult(m)
	if !back.OptionPrice.Equal(res.OptionPrice) || !back.Delta.Equal(res.Delta) || !back.RiskFreeRate.Equal(res.RiskFreeRate) {
		t.Errorf("round trip lost precision: %v vs %v", back.OptionPrice, res.OptionPrice)
	}
	if back.CalculatedAt != res.CalculatedAt || back.PricingModel != domain.ModelBlackScholes {
		t.Errorf("round trip = %+v", back)
	}

	if toPricingResultModel(nil) != nil || toPricingResult(nil) != nil {
		t.Errorf("nil mapping should stay nil")
	}
}

func TestParseDecimal_EmptyColumn(t *testing.T) {
	if !parseDecimal("").IsZero() || !parseDecimal("garbage").IsZero() {
		t.Errorf("invalid column values should map to zero")
	}
	if parseDecimal("0.017627").String() != "0.017627" {
		t.Errorf("valid decimal not parsed")
	}
}

func TestRepository_DryRun(t *testing.T) {
	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		DSN:                       "user:pass@tcp(127.0.0.1:3306)/pricing?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatal(err)
	}

	var statements []string
	_ = db.Callback().Create().After("gorm:create").Register("test:capture_create", func(tx *gorm.DB) {
		statements = append(statements, tx.Statement.SQL.String())
	})
	_ = db.Callback().Query().After("gorm:query").Register("test:capture_query", func(tx *gorm.DB) {
		statements = append(statements, tx.Statement.SQL.String())
	})

	repo := NewPricingRepository(db)
	ctx := context.Background()
	if err := repo.Save(ctx, sampleResult(t)); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetHistory(ctx, "AAPL", 5); err != nil {
		t.Fatal(err)
	}

	if len(statements) != 2 {
		t.Fatalf("statements = %q", statements)
	}
	if !strings.HasPrefix(statements[0], "INSERT INTO `pricing_results`") {
		t.Errorf("insert = %s", statements[0])
	}
	if !strings.Contains(statements[1], "ORDER BY calculated_at desc") || !strings.Contains(statements[1], "LIMIT") {
		t.Errorf("history query = %s", statements[1])
	}
}
