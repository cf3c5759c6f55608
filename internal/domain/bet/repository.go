package bet

import (
	"context"

	"github.com/Alpayozd/intern-betting-app-sub000/internal/domain/ledger"
	"github.com/Alpayozd/intern-betting-app-sub000/internal/domain/market"
)

// Repository gives the engines everything they need inside one
// transaction boundary: market state, membership, scores and selections.
type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	// GetSubMarket loads a sub-market with options and parent market.
	GetSubMarket(ctx context.Context, subMarketID string) (*market.SubMarket, error)
	// GetMarket loads a legacy market with its directly-owned options.
	GetMarket(ctx context.Context, marketID string) (*market.Market, error)
	SetSubMarketStatus(ctx context.Context, subMarketID, status string) error
	SetMarketStatus(ctx context.Context, marketID, status string) error

	// GetMemberRole returns group.ErrMemberNotFound for non-members.
	GetMemberRole(ctx context.Context, groupID, userID string) (string, error)

	GetScore(ctx context.Context, groupID, userID string) (*ledger.Score, error)
	CreateScore(ctx context.Context, score *ledger.Score) error
	// DebitScoreIfAtLeast is the conditional decrement that keeps the
	// balance check and the debit in one statement.
	DebitScoreIfAtLeast(ctx context.Context, groupID, userID string, amount float64) (bool, error)
	CreditScore(ctx context.Context, groupID, userID string, amount float64) error

	CreateSelection(ctx context.Context, selection *Selection) error
	ListSelectionsByOptions(ctx context.Context, optionIDs []string) ([]Selection, error)
	ListSelectionsBySubMarket(ctx context.Context, subMarketID string) ([]SelectionDetail, error)
	ListUserSelectionsBySubMarket(ctx context.Context, subMarketID, userID string) ([]SelectionContext, error)
	ListUserSelectionsByGroup(ctx context.Context, groupID, userID string) ([]SelectionContext, error)
	CountSelectionsByOption(ctx context.Context, subMarketID string) (map[string]int64, error)

	GetSettlementBySubMarket(ctx context.Context, subMarketID string) (*Settlement, error)
	GetSettlementByMarket(ctx context.Context, marketID string) (*Settlement, error)
	CreateSettlement(ctx context.Context, settlement *Settlement) error
}
