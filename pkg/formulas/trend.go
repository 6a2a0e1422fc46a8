package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// Moving average periods used for the trend signal.
const (
	ShortTrendPeriod = 20 // roughly one trading month
	LongTrendPeriod  = 50 // roughly one trading quarter
)

// CalculateSMA calculates the Simple Moving Average over the last 'length'
// closes. Returns nil if there is insufficient data.
func CalculateSMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}

	sma := talib.Sma(closes, length)
	if len(sma) > 0 && !math.IsNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

// TrendSignal classifies a price series by comparing its short and long
// moving averages: "up" when the short SMA sits above the long SMA, "down"
// when below, "flat" when equal or when there is not enough history.
func TrendSignal(closes []float64) string {
	short := CalculateSMA(closes, ShortTrendPeriod)
	long := CalculateSMA(closes, LongTrendPeriod)
	if short == nil || long == nil {
		return "flat"
	}
	switch {
	case *short > *long:
		return "up"
	case *short < *long:
		return "down"
	default:
		return "flat"
	}
}
