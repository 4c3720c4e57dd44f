package features

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRSIBalancedMovesIsFifty(t *testing.T) {
	out := RSI([]float64{10, 11, 10}, 14, 100)
	// first row has no delta, so gain and loss averages are both zero
	assert.InDelta(t, 100-100/101.0, out[0], 1e-9)
	assert.InDelta(t, 50, out[2], 1e-9)
}

func TestRSIFallingSeriesIsZero(t *testing.T) {
	out := RSI([]float64{10, 9, 8, 7}, 14, 100)
	assert.InDelta(t, 0, out[3], 1e-9)
}

func TestRSIUsesTrailingWindow(t *testing.T) {
	xs := []float64{10, 5}
	for i := 0; i < 14; i++ {
		xs = append(xs, xs[len(xs)-1]+1)
	}
	out := RSI(xs, 14, 100)
	// the big drop has left the 14-bar window by the last row
	assert.InDelta(t, 100-100/101.0, out[len(out)-1], 1e-9)
	assert.Less(t, out[2], 50.0)
}

func TestEMAAdjustedWeights(t *testing.T) {
	out := EMA([]float64{1, 2}, 12)
	alpha := 2.0 / 13.0
	want := (2 + (1-alpha)*1) / (1 + (1 - alpha))
	assert.InDelta(t, 1.0, out[0], 1e-12)
	assert.InDelta(t, want, out[1], 1e-12)
}

func TestRollingMeanPropagatesNaN(t *testing.T) {
	out := RollingMean([]float64{1, math.NaN(), 3, 4, 5, 6}, 2)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.True(t, math.IsNaN(out[2]))
	assert.InDelta(t, 3.5, out[3], 1e-12)
	assert.InDelta(t, 5.5, out[5], 1e-12)
}

func TestRollingStdSample(t *testing.T) {
	out := RollingStd([]float64{1, 2, 3, 4}, 4)
	assert.InDelta(t, math.Sqrt(5.0/3.0), out[3], 1e-12)
	assert.True(t, math.IsNaN(RollingStd([]float64{1, 2}, 1)[1]))
}

func TestShift(t *testing.T) {
	out := Shift([]float64{1, 2, 3}, 2)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.Equal(t, 1.0, out[2])
	assert.True(t, math.IsNaN(Shift([]float64{1}, -1)[0]))
}

func TestRSIStaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n := 20 + rng.Intn(200)
		xs := make([]float64, n)
		xs[0] = 1 + rng.Float64()*100
		for i := 1; i < n; i++ {
			// random walk with occasional large jumps
			step := rng.NormFloat64() * xs[i-1] * 0.03
			if rng.Intn(20) == 0 {
				step *= 10
			}
			xs[i] = math.Max(0.01, xs[i-1]+step)
		}
		for _, period := range []int{2, 14, 30} {
			for i, v := range RSI(xs, period, 100) {
				if math.IsNaN(v) {
					continue
				}
				assert.True(t, v >= 0 && v <= 100, "trial %d period %d row %d: rsi %v", trial, period, i, v)
			}
		}
	}
}
