package domain

import (
	"math"

	"github.com/wyfcoding/optionpricing/pkg/xerrors"
	"gonum.org/v1/gonum/stat"
)

// DefaultTradingDays 年化使用的交易日数
const DefaultTradingDays = 252

// HistoricalVolatility 对数收益率的总体标准差乘以 √tradingDays
func HistoricalVolatility(closes []float64, tradingDays float64) (float64, error) {
	if tradingDays <= 0 {
		return 0, xerrors.InvalidArg("trading days must be positive, got %g", tradingDays)
	}
	if len(closes) < 3 {
		return 0, xerrors.InvalidArg("need at least 3 closes for 2 log returns, got %d", len(closes))
	}

	returns := make([]float64, 0, len(closes)-1)
	for i, c := range closes {
		if !(c > 0) || math.IsInf(c, 0) {
			return 0, xerrors.InvalidArg("close #%d is not a positive price: %g", i, c)
		}
		if i > 0 {
			returns = append(returns, math.Log(c/closes[i-1]))
		}
	}

	return math.Sqrt(stat.PopVariance(returns, nil)) * math.Sqrt(tradingDays), nil
}
