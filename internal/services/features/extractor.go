package features

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"FinSimples/internal/domain/models"
)

// Column identifiers are part of the model artifact format.
const (
	ColMean4w       = "media_4w"
	ColMean12w      = "media_12w"
	ColVol4w        = "vol_4w"
	ColVol12w       = "vol_12w"
	ColReturn1w     = "retorno_1w"
	ColReturn4w     = "retorno_4w"
	ColReturn12w    = "retorno_12w"
	ColVolumeMean4w = "volume_medio_4w"
	ColEMA12        = "ema_12"
	ColRSI14        = "rsi_14"
)

const (
	rsiPeriod = 14
	emaSpan   = 12
	// Prices at or below this are treated as missing when computing returns.
	minPrice = 0.01
	// Ratio substituted when the RSI loss average is zero.
	rsiZeroLossRatio = 100.0
)

var (
	rollingWindows = []int{4, 8, 12, 26}
	returnHorizons = []int{1, 4, 12, 26}
	lagSteps       = []int{1, 2, 3, 4}
	volumeWindows  = []int{4, 12}

	defaultSelection = []string{
		ColMean4w, ColMean12w,
		ColVol4w, ColVol12w,
		ColReturn4w, ColReturn12w,
		ColVolumeMean4w,
		ColEMA12,
		ColRSI14,
	}
)

// ErrInvalidInput is returned by Transform when the bars cannot be processed.
var ErrInvalidInput = errors.New("features: invalid input")

// Extractor turns raw daily bars into the model's feature table. It holds no
// per-call state and is safe for concurrent use.
type Extractor struct {
	selected []string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSelection overrides the ordered list reported by FeatureNames.
func WithSelection(names []string) Option {
	return func(e *Extractor) {
		e.selected = append([]string(nil), names...)
	}
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{selected: append([]string(nil), defaultSelection...)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FeatureNames returns the ordered columns fed to the regressor.
func (e *Extractor) FeatureNames() []string {
	return append([]string(nil), e.selected...)
}

// Transform computes every derived column for bars, grouped by ticker and
// ordered by date. The input slice is not modified.
func (e *Extractor) Transform(bars []models.PriceBar) (*models.FeatureTable, error) {
	if err := validateBars(bars); err != nil {
		return nil, err
	}

	sorted := append([]models.PriceBar(nil), bars...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TickerCode != sorted[j].TickerCode {
			return sorted[i].TickerCode < sorted[j].TickerCode
		}
		return sorted[i].TradeDate.Before(sorted[j].TradeDate)
	})

	withVolume := models.BarsHaveVolume(sorted)
	table := &models.FeatureTable{
		Columns: columnLayout(withVolume),
		Rows:    make([]models.FeatureRow, len(sorted)),
	}
	for i, b := range sorted {
		table.Rows[i] = models.FeatureRow{
			PriceBar: b,
			Values:   make(map[string]float64, len(table.Columns)),
		}
	}

	for start := 0; start < len(sorted); {
		end := start + 1
		for end < len(sorted) && sorted[end].TickerCode == sorted[start].TickerCode {
			end++
		}
		computeGroup(table, start, end, withVolume)
		start = end
	}

	return table, nil
}

func computeGroup(table *models.FeatureTable, start, end int, withVolume bool) {
	rows := table.Rows[start:end]
	closes := make([]float64, len(rows))
	volumes := make([]float64, len(rows))
	for i, r := range rows {
		closes[i] = r.ClosePrice
		volumes[i] = r.Volume
	}

	set := func(name string, values []float64) {
		for i := range rows {
			rows[i].Values[name] = values[i]
		}
	}

	for _, w := range rollingWindows {
		set(meanCol(w), RollingMean(closes, w))
		set(volCol(w), RollingStd(closes, w))
	}

	var oneStep []float64
	for _, h := range returnHorizons {
		r := SafeReturn(closes, h-1, minPrice)
		if h == 1 {
			oneStep = r
		}
		set(returnCol(h), r)
	}

	set(ColRSI14, RSI(closes, rsiPeriod, rsiZeroLossRatio))

	if oneStep != nil && table.HasColumn(ColReturn1w) {
		for _, k := range lagSteps {
			set(lagCol(k), Shift(oneStep, k))
		}
	}

	set(ColEMA12, EMA(closes, emaSpan))

	if withVolume {
		for _, w := range volumeWindows {
			set(volumeCol(w), RollingMean(volumes, w))
		}
	}
}

func columnLayout(withVolume bool) []string {
	cols := make([]string, 0, 2*len(rollingWindows)+len(returnHorizons)+len(lagSteps)+2+len(volumeWindows))
	for _, w := range rollingWindows {
		cols = append(cols, meanCol(w), volCol(w))
	}
	for _, h := range returnHorizons {
		cols = append(cols, returnCol(h))
	}
	cols = append(cols, ColRSI14)
	for _, k := range lagSteps {
		cols = append(cols, lagCol(k))
	}
	cols = append(cols, ColEMA12)
	if withVolume {
		for _, w := range volumeWindows {
			cols = append(cols, volumeCol(w))
		}
	}
	return cols
}

func validateBars(bars []models.PriceBar) error {
	if len(bars) == 0 {
		return fmt.Errorf("%w: no bars", ErrInvalidInput)
	}
	type key struct {
		ticker string
		day    int64
	}
	seen := make(map[key]struct{}, len(bars))
	for i, b := range bars {
		if b.TickerCode == "" {
			return fmt.Errorf("%w: bar %d has no ticker code", ErrInvalidInput, i)
		}
		if b.TradeDate.IsZero() {
			return fmt.Errorf("%w: bar %d has no trade date", ErrInvalidInput, i)
		}
		if math.IsNaN(b.ClosePrice) || math.IsInf(b.ClosePrice, 0) {
			return fmt.Errorf("%w: bar %d (%s %s) has a non-finite close", ErrInvalidInput, i, b.TickerCode, b.TradeDate.Format("2006-01-02"))
		}
		k := key{ticker: b.TickerCode, day: b.TradeDate.Unix()}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: duplicate bar for %s on %s", ErrInvalidInput, b.TickerCode, b.TradeDate.Format("2006-01-02"))
		}
		seen[k] = struct{}{}
	}
	return nil
}

func meanCol(w int) string   { return fmt.Sprintf("media_%dw", w) }
func volCol(w int) string    { return fmt.Sprintf("vol_%dw", w) }
func returnCol(h int) string { return fmt.Sprintf("retorno_%dw", h) }
func lagCol(k int) string    { return fmt.Sprintf("retorno_lag_%dw", k) }
func volumeCol(w int) string { return fmt.Sprintf("volume_medio_%dw", w) }
