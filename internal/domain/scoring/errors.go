package scoring

import "errors"

// ErrVolatilityUnavailable marks a result that could not be scored because
// the volatility series or its as-of value was missing.
var ErrVolatilityUnavailable = errors.New("volatility data unavailable")
