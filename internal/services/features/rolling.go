package features

import "math"

// RollingMean returns the trailing mean over window observations. Entries are
// NaN until the window is full or while a NaN sits inside the window.
func RollingMean(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += xs[j]
		}
		out[i] = sum / float64(window)
	}
	return out
}

// RollingStd returns the trailing sample standard deviation (n-1
// denominator) over window observations.
func RollingStd(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	if window <= 1 {
		return out
	}
	n := float64(window)
	for i := window - 1; i < len(xs); i++ {
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += xs[j]
		}
		mean := sum / n
		ss := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := xs[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / (n - 1))
	}
	return out
}

// SafeReturn computes (x[i] - x[i-shift]) / x[i-shift]. The result is NaN
// when the past value is missing or either price is at or below minPrice.
func SafeReturn(xs []float64, shift int, minPrice float64) []float64 {
	out := nanSlice(len(xs))
	if shift < 0 {
		return out
	}
	for i := shift; i < len(xs); i++ {
		cur, past := xs[i], xs[i-shift]
		if past > minPrice && cur > minPrice {
			out[i] = (cur - past) / past
		}
	}
	return out
}

// RSI computes the relative strength index using simple rolling means of
// gains and losses with a minimum of one observation. When the average loss
// is zero the gain/loss ratio is replaced by zeroLossRatio.
func RSI(xs []float64, period int, zeroLossRatio float64) []float64 {
	out := nanSlice(len(xs))
	if period <= 0 || len(xs) == 0 {
		return out
	}
	gains := make([]float64, len(xs))
	losses := make([]float64, len(xs))
	for i := 1; i < len(xs); i++ {
		d := xs[i] - xs[i-1]
		switch {
		case d > 0:
			gains[i] = d
		case d < 0:
			losses[i] = -d
		}
	}
	for i := range xs {
		start := i - period + 1
		if start < 0 {
			start = 0
		}
		var g, l float64
		for j := start; j <= i; j++ {
			g += gains[j]
			l += losses[j]
		}
		cnt := float64(i - start + 1)
		avgGain, avgLoss := g/cnt, l/cnt

		rs := zeroLossRatio
		if avgLoss != 0 {
			rs = avgGain / avgLoss
		}
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// EMA computes the bias-adjusted exponential moving average with the given
// span: alpha = 2/(span+1), y[t] = sum((1-a)^k x[t-k]) / sum((1-a)^k).
func EMA(xs []float64, span int) []float64 {
	out := nanSlice(len(xs))
	if span < 1 {
		return out
	}
	decay := 1 - 2/(float64(span)+1)
	num, den := 0.0, 0.0
	for i, x := range xs {
		num = x + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out
}

// Shift moves values forward by k positions, filling the head with NaN.
func Shift(xs []float64, k int) []float64 {
	out := nanSlice(len(xs))
	if k < 0 {
		return out
	}
	for i := k; i < len(xs); i++ {
		out[i] = xs[i-k]
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
