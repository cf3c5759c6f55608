package ledger

import "errors"

var (
	ErrScoreNotFound      = errors.New("score not found")
	ErrInsufficientPoints = errors.New("insufficient points")
)
