package ledger

import (
	"context"
	"errors"
)

type Service struct {
	repo          Repository
	initialPoints float64
}

func NewService(repo Repository, initialPoints float64) *Service {
	return &Service{repo: repo, initialPoints: initialPoints}
}

func (s *Service) InitialPoints() float64 {
	return s.initialPoints
}

func (s *Service) GetBalance(ctx context.Context, groupID, userID string) (float64, error) {
	score, err := s.repo.GetScore(ctx, groupID, userID)
	if err != nil {
		return 0, err
	}
	return score.TotalPoints, nil
}

// EnsureBalance returns the current balance, creating the score with the
// configured initial points when absent. Membership checks are the
// caller's responsibility.
func (s *Service) EnsureBalance(ctx context.Context, groupID, userID string) (float64, error) {
	score, err := s.repo.GetScore(ctx, groupID, userID)
	if err == nil {
		return score.TotalPoints, nil
	}
	if !errors.Is(err, ErrScoreNotFound) {
		return 0, err
	}

	created := Score{
		GroupID:       groupID,
		UserID:        userID,
		TotalPoints:   s.initialPoints,
		InitialPoints: s.initialPoints,
	}
	if err := s.repo.CreateScore(ctx, &created); err != nil {
		return 0, err
	}
	return created.TotalPoints, nil
}

// Adjust applies delta (positive or negative) atomically and returns the
// new balance.
func (s *Service) Adjust(ctx context.Context, groupID, userID string, delta float64) (float64, error) {
	return s.repo.AdjustScore(ctx, groupID, userID, delta)
}

// Leaderboard returns the group's scores ranked by TotalPoints descending
// with stable tie-breaking. The IsCurrentUser flag is set for
// currentUserID.
func (s *Service) Leaderboard(ctx context.Context, groupID, currentUserID string) ([]LeaderboardEntry, error) {
	rows, err := s.repo.ListScoresWithNames(ctx, groupID)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, LeaderboardEntry{
			Rank:          i + 1,
			UserID:        row.UserID,
			Name:          row.Name,
			TotalPoints:   row.TotalPoints,
			IsCurrentUser: row.UserID == currentUserID,
		})
	}
	return entries, nil
}
