package ledger

import "context"

// ScoreRow is a raw leaderboard row before ranking.
type ScoreRow struct {
	UserID      string
	Name        string
	TotalPoints float64
}

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	GetScore(ctx context.Context, groupID, userID string) (*Score, error)
	CreateScore(ctx context.Context, score *Score) error
	// AdjustScore applies delta atomically and returns the new total.
	AdjustScore(ctx context.Context, groupID, userID string, delta float64) (float64, error)
	// DebitScoreIfAtLeast decrements TotalPoints by amount only when the
	// current balance covers it. Returns false when it does not.
	DebitScoreIfAtLeast(ctx context.Context, groupID, userID string, amount float64) (bool, error)
	// ListScoresWithNames returns all scores of a group joined with user
	// names, ordered by TotalPoints descending, user id ascending.
	ListScoresWithNames(ctx context.Context, groupID string) ([]ScoreRow, error)
}
