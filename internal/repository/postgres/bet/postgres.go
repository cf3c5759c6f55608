package bet

import (
	"context"
	"errors"

	"gorm.io/gorm"

	betdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/bet"
	groupdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/group"
	ledgerdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/ledger"
	marketdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/market"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(betdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) GetSubMarket(ctx context.Context, subMarketID string) (*marketdomain.SubMarket, error) {
	var found marketdomain.SubMarket
	err := r.db.WithContext(ctx).
		Preload("Options").
		Preload("Market").
		Where("id = ?", subMarketID).
		First(&found).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketdomain.ErrSubMarketNotFound
		}
		return nil, err
	}
	return &found, nil
}

func (r *PostgresRepository) GetMarket(ctx context.Context, marketID string) (*marketdomain.Market, error) {
	var found marketdomain.Market
	err := r.db.WithContext(ctx).
		Preload("Options").
		Where("id = ?", marketID).
		First(&found).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketdomain.ErrMarketNotFound
		}
		return nil, err
	}
	return &found, nil
}

func (r *PostgresRepository) SetSubMarketStatus(ctx context.Context, subMarketID, status string) error {
	return r.db.WithContext(ctx).Model(&marketdomain.SubMarket{}).
		Where("id = ?", subMarketID).
		Update("status", status).Error
}

func (r *PostgresRepository) SetMarketStatus(ctx context.Context, marketID, status string) error {
	return r.db.WithContext(ctx).Model(&marketdomain.Market{}).
		Where("id = ?", marketID).
		Update("status", status).Error
}

func (r *PostgresRepository) GetMemberRole(ctx context.Context, groupID, userID string) (string, error) {
	var member groupdomain.Membership
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", groupdomain.ErrMemberNotFound
		}
		return "", err
	}
	return member.Role, nil
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

func (r *PostgresRepository) DebitScoreIfAtLeast(ctx context.Context, groupID, userID string, amount float64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&ledgerdomain.Score{}).
		Where("group_id = ? AND user_id = ? AND total_points >= ?", groupID, userID, amount).
		Update("total_points", gorm.Expr("total_points - ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PostgresRepository) CreditScore(ctx context.Context, groupID, userID string, amount float64) error {
	result := r.db.WithContext(ctx).Model(&ledgerdomain.Score{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("total_points", gorm.Expr("total_points + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledgerdomain.ErrScoreNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateSelection(ctx context.Context, selection *betdomain.Selection) error {
	return r.db.WithContext(ctx).Create(selection).Error
}

func (r *PostgresRepository) ListSelectionsByOptions(ctx context.Context, optionIDs []string) ([]betdomain.Selection, error) {
	if len(optionIDs) == 0 {
		return []betdomain.Selection{}, nil
	}
	var selections []betdomain.Selection
	err := r.db.WithContext(ctx).
		Where("option_id IN ?", optionIDs).
		Order("created_at asc").
		Find(&selections).Error
	if err != nil {
		return nil, err
	}
	return selections, nil
}

func (r *PostgresRepository) ListSelectionsBySubMarket(ctx context.Context, subMarketID string) ([]betdomain.SelectionDetail, error) {
	type row struct {
		betdomain.Selection
		UserName    string `gorm:"column:user_name"`
		OptionLabel string `gorm:"column:option_label"`
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Table("selections").
		Select("selections.*, users.name as user_name, options.label as option_label").
		Joins("join users on users.id = selections.user_id").
		Joins("join options on options.id = selections.option_id").
		Where("selections.sub_market_id = ?", subMarketID).
		Order("selections.created_at asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	details := make([]betdomain.SelectionDetail, 0, len(rows))
	for _, item := range rows {
		details = append(details, betdomain.SelectionDetail{
			Selection:   item.Selection,
			UserName:    item.UserName,
			OptionLabel: item.OptionLabel,
		})
	}
	return details, nil
}

func (r *PostgresRepository) ListUserSelectionsBySubMarket(ctx context.Context, subMarketID, userID string) ([]betdomain.SelectionContext, error) {
	return r.listSelectionContexts(ctx,
		"selections.sub_market_id = ? AND selections.user_id = ?", subMarketID, userID)
}

func (r *PostgresRepository) ListUserSelectionsByGroup(ctx context.Context, groupID, userID string) ([]betdomain.SelectionContext, error) {
	return r.listSelectionContexts(ctx,
		"markets.group_id = ? AND selections.user_id = ?", groupID, userID)
}

func (r *PostgresRepository) listSelectionContexts(ctx context.Context, query string, args ...interface{}) ([]betdomain.SelectionContext, error) {
	type row struct {
		betdomain.Selection
		OptionLabel    string  `gorm:"column:option_label"`
		Odds           float64 `gorm:"column:odds"`
		SubMarketTitle string  `gorm:"column:sub_market_title"`
		MarketID       string  `gorm:"column:context_market_id"`
		MarketTitle    string  `gorm:"column:market_title"`
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Table("selections").
		Select(`selections.*,
			options.label as option_label,
			options.odds as odds,
			coalesce(sub_markets.title, '') as sub_market_title,
			markets.id as context_market_id,
			markets.title as market_title`).
		Joins("join options on options.id = selections.option_id").
		Joins("left join sub_markets on sub_markets.id = selections.sub_market_id").
		Joins("join markets on markets.id = coalesce(sub_markets.market_id, options.market_id)").
		Where(query, args...).
		Order("selections.created_at desc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	contexts := make([]betdomain.SelectionContext, 0, len(rows))
	for _, item := range rows {
		contexts = append(contexts, betdomain.SelectionContext{
			Selection:      item.Selection,
			OptionLabel:    item.OptionLabel,
			Odds:           item.Odds,
			SubMarketTitle: item.SubMarketTitle,
			MarketID:       item.MarketID,
			MarketTitle:    item.MarketTitle,
		})
	}
	return contexts, nil
}

func (r *PostgresRepository) CountSelectionsByOption(ctx context.Context, subMarketID string) (map[string]int64, error) {
	type row struct {
		OptionID string `gorm:"column:option_id"`
		Count    int64  `gorm:"column:count"`
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Table("selections").
		Select("selections.option_id, count(*) as count").
		Where("selections.sub_market_id = ?", subMarketID).
		Group("selections.option_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, item := range rows {
		counts[item.OptionID] = item.Count
	}
	return counts, nil
}

func (r *PostgresRepository) GetSettlementBySubMarket(ctx context.Context, subMarketID string) (*betdomain.Settlement, error) {
	var settlement betdomain.Settlement
	err := r.db.WithContext(ctx).
		Preload("Winners").
		Where("sub_market_id = ?", subMarketID).
		First(&settlement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, betdomain.ErrSettlementNotFound
		}
		return nil, err
	}
	return &settlement, nil
}

func (r *PostgresRepository) GetSettlementByMarket(ctx context.Context, marketID string) (*betdomain.Settlement, error) {
	var settlement betdomain.Settlement
	err := r.db.WithContext(ctx).
		Preload("Winners").
		Where("market_id = ?", marketID).
		First(&settlement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, betdomain.ErrSettlementNotFound
		}
		return nil, err
	}
	return &settlement, nil
}

func (r *PostgresRepository) CreateSettlement(ctx context.Context, settlement *betdomain.Settlement) error {
	return r.db.WithContext(ctx).Create(settlement).Error
}
