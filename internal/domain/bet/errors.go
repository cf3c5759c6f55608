package bet

import "errors"

var (
	ErrMarketClosed          = errors.New("market is closed for betting")
	ErrInvalidStake          = errors.New("stake must be a positive number of points")
	ErrInsufficientPoints    = errors.New("insufficient points")
	ErrAlreadySettled        = errors.New("already settled")
	ErrInvalidWinningOptions = errors.New("winning options must be a non-empty subset of the market's options")
	ErrSettlementNotFound    = errors.New("settlement not found")
	ErrSelectionNotFound     = errors.New("selection not found")
)
