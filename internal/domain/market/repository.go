package market

import (
	"context"
	"time"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	CreateMarket(ctx context.Context, m *Market) error
	CreateSubMarket(ctx context.Context, sm *SubMarket) error
	CreateOptions(ctx context.Context, options []Option) error
	// GetMarketByID loads a market with its sub-markets and all options.
	GetMarketByID(ctx context.Context, marketID string) (*Market, error)
	// GetSubMarketByID loads a sub-market with its options and parent market.
	GetSubMarketByID(ctx context.Context, subMarketID string) (*SubMarket, error)
	UpdateMarket(ctx context.Context, marketID string, fields MarketUpdate) error
	UpdateSubMarket(ctx context.Context, subMarketID string, fields SubMarketUpdate) error
	UpdateOption(ctx context.Context, optionID, label string, odds float64) error
	// DeleteOptions removes options after removing their dependent
	// selections. Ordering is a correctness requirement.
	DeleteOptions(ctx context.Context, optionIDs []string) error
	// DeleteMarket removes a market and everything under it: selections,
	// settlements, options, sub-markets, then the market row.
	DeleteMarket(ctx context.Context, marketID string) error
	// DeleteSubMarket removes a sub-market and its dependents in the same
	// order.
	DeleteSubMarket(ctx context.Context, subMarketID string) error
}

type MarketUpdate struct {
	Title       string
	Description string
	ClosesAt    time.Time
}

type SubMarketUpdate struct {
	Title             string
	Description       string
	ClosesAt          time.Time
	AllowMultipleBets bool
}
