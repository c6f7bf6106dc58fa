package stats

import (
	"math"

	"FlowSentry/internal/domain/models"
)

// MaxRatio is the defined fallback for zero-denominator ratios, so that
// degenerate windows produce a fixed large value instead of +Inf or NaN.
const MaxRatio = 100.0

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Std returns the sample standard deviation, or 0 when fewer than two points.
func Std(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := Mean(xs)
	var acc float64
	for _, x := range xs {
		d := x - m
		acc += d * d
	}
	v := acc / float64(n-1)
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}

// CV returns the coefficient of variation std/mean. A zero mean yields
// MaxRatio when dispersion exists and 0 for a flat series.
func CV(xs []float64) float64 {
	m := Mean(xs)
	s := Std(xs)
	if m == 0 {
		if s == 0 {
			return 0
		}
		return MaxRatio
	}
	return s / math.Abs(m)
}

// Ratio divides a by b with the fixed MaxRatio fallback on zero denominator.
func Ratio(a, b float64) float64 {
	if b == 0 {
		if a == 0 {
			return 0
		}
		return MaxRatio
	}
	return a / b
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp100 bounds a score into [0, 100].
func Clamp100(v float64) float64 { return Clamp(v, 0, 100) }

// VWAP computes the volume-weighted average price over the window using the
// typical price (H+L+C)/3 per bar. Zero total volume yields the last close.
func VWAP(candles []models.CandleBar) float64 {
	if len(candles) == 0 {
		return 0
	}
	var pv, vol float64
	for _, c := range candles {
		tp := (c.High + c.Low + c.Close) / 3
		pv += tp * c.Volume
		vol += c.Volume
	}
	if vol == 0 {
		return candles[len(candles)-1].Close
	}
	return pv / vol
}

// PercentChange returns (last-first)/first*100 over closes, 0 when undefined.
func PercentChange(candles []models.CandleBar) float64 {
	if len(candles) < 2 {
		return 0
	}
	first := candles[0].Close
	last := candles[len(candles)-1].Close
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

// BarMoves returns the absolute close-to-close percent move per bar.
func BarMoves(candles []models.CandleBar) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Abs((candles[i].Close-prev)/prev*100))
	}
	return out
}

// Volumes extracts per-bar volume.
func Volumes(candles []models.CandleBar) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// GreenRatio returns the fraction of bars that closed above their open.
func GreenRatio(candles []models.CandleBar) float64 {
	if len(candles) == 0 {
		return 0
	}
	n := 0
	for _, c := range candles {
		if c.IsGreen() {
			n++
		}
	}
	return float64(n) / float64(len(candles))
}

// SwingHighs extracts local highs: bars whose high exceeds both neighbors.
func SwingHighs(candles []models.CandleBar) []float64 {
	if len(candles) < 3 {
		return nil
	}
	var out []float64
	for i := 1; i < len(candles)-1; i++ {
		if candles[i].High > candles[i-1].High && candles[i].High > candles[i+1].High {
			out = append(out, candles[i].High)
		}
	}
	return out
}

// Declining reports whether the series trends down, judged by a negative
// least-squares slope.
func Declining(xs []float64) bool {
	return Slope(xs) < 0
}

// Slope returns the least-squares regression slope of xs over index.
func Slope(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range xs {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	den := fn*sumXX - sumX*sumX
	if den == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / den
}

// RSI computes the Wilder relative strength index over the trailing period.
// Zero average loss yields 100 (the defined maximal ratio, not a fault).
func RSI(candles []models.CandleBar, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return 50
	}
	var gain, loss float64
	for i := len(candles) - period; i < len(candles); i++ {
		d := candles[i].Close - candles[i-1].Close
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		if gain == 0 {
			return 50
		}
		return 100
	}
	rs := gain / loss
	return 100 - 100/(1+rs)
}

// InterTradeGaps returns consecutive trade time gaps in seconds.
func InterTradeGaps(trades []models.Trade) []float64 {
	if len(trades) < 2 {
		return nil
	}
	out := make([]float64, 0, len(trades)-1)
	for i := 1; i < len(trades); i++ {
		out = append(out, trades[i].Timestamp.Sub(trades[i-1].Timestamp).Seconds())
	}
	return out
}

// TradeSizes extracts per-trade quantity.
func TradeSizes(trades []models.Trade) []float64 {
	out := make([]float64, len(trades))
	for i, t := range trades {
		out[i] = t.Quantity
	}
	return out
}
