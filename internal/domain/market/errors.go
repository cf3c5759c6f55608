package market

import "errors"

var (
	ErrMarketNotFound    = errors.New("market not found")
	ErrSubMarketNotFound = errors.New("sub-market not found")
	ErrOptionNotFound    = errors.New("option not found")
	ErrMarketSettled     = errors.New("market already settled")
	ErrInvalidOdds       = errors.New("odds must be at least 1")
	ErrNoOptions         = errors.New("at least one option is required")
)
