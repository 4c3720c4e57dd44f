package repository

// HistoryWindow is a provider lookback range such as "1y" or "3mo".
type HistoryWindow string

const (
	Window1mo HistoryWindow = "1mo"
	Window3mo HistoryWindow = "3mo"
	Window6mo HistoryWindow = "6mo"
	Window1y  HistoryWindow = "1y"
	Window2y  HistoryWindow = "2y"
	Window5y  HistoryWindow = "5y"
)

// IsValidWindow returns true if w is a supported lookback.
func IsValidWindow(w HistoryWindow) bool {
	switch w {
	case Window1mo, Window3mo, Window6mo, Window1y, Window2y, Window5y:
		return true
	default:
		return false
	}
}

// NormalizeWindow converts a raw string to a valid window, or def.
func NormalizeWindow(s string, def HistoryWindow) HistoryWindow {
	w := HistoryWindow(s)
	if IsValidWindow(w) {
		return w
	}
	return def
}
