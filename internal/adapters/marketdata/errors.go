package marketdata

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the client.
var (
	ErrNotFound    = errors.New("symbol not found")
	ErrRateLimited = errors.New("rate limited by provider")
	ErrProvider    = errors.New("provider error")
	ErrDecode      = errors.New("decode provider response")
)

// ErrHTTP wraps a non-success HTTP response.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %s", e.Status)
	}
	return fmt.Sprintf("http %s: %s", e.Status, e.Body)
}
