package ledger

import (
	"context"
	"errors"

	"gorm.io/gorm"

	ledgerdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/ledger"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(ledgerdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) GetScore(ctx context.Context, groupID, userID string) (*ledgerdomain.Score, error) {
	var score ledgerdomain.Score
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&score).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledgerdomain.ErrScoreNotFound
		}
		return nil, err
	}
	return &score, nil
}

func (r *PostgresRepository) CreateScore(ctx context.Context, score *ledgerdomain.Score) error {
	return r.db.WithContext(ctx).Create(score).Error
}

func (r *PostgresRepository) AdjustScore(ctx context.Context, groupID, userID string, delta float64) (float64, error) {
	result := r.db.WithContext(ctx).Model(&ledgerdomain.Score{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("total_points", gorm.Expr("total_points + ?", delta))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ledgerdomain.ErrScoreNotFound
	}

	score, err := r.GetScore(ctx, groupID, userID)
	if err != nil {
		return 0, err
	}
	return score.TotalPoints, nil
}

func (r *PostgresRepository) DebitScoreIfAtLeast(ctx context.Context, groupID, userID string, amount float64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&ledgerdomain.Score{}).
		Where("group_id = ? AND user_id = ? AND total_points >= ?", groupID, userID, amount).
		Update("total_points", gorm.Expr("total_points - ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PostgresRepository) ListScoresWithNames(ctx context.Context, groupID string) ([]ledgerdomain.ScoreRow, error) {
	var rows []ledgerdomain.ScoreRow
	err := r.db.WithContext(ctx).
		Table("scores").
		Select("scores.user_id, users.name, scores.total_points").
		Joins("join users on users.id = scores.user_id").
		Where("scores.group_id = ?", groupID).
		Order("scores.total_points desc, scores.user_id asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
