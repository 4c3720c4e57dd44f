package pricesource

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptySeries      = errors.New("provider returned no usable bars")
	ErrMalformedPayload = errors.New("provider payload has an unexpected shape")
	ErrNoToken          = errors.New("secondary provider token not configured")
	ErrInvalidTicker    = errors.New("invalid ticker code")
)

// NotFoundError is the only error returned by Fallback.Fetch. It carries the
// reason each provider gave up.
type NotFoundError struct {
	Ticker  string
	Reasons []string
}

func (e *NotFoundError) Error() string {
	if len(e.Reasons) == 0 {
		return fmt.Sprintf("no price history found for %s", e.Ticker)
	}
	return fmt.Sprintf("no price history found for %s (%s)", e.Ticker, strings.Join(e.Reasons, "; "))
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
