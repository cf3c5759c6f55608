package market

import (
	"context"
	"errors"

	"gorm.io/gorm"

	betdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/bet"
	marketdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/market"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(marketdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) CreateMarket(ctx context.Context, m *marketdomain.Market) error {
	return r.db.WithContext(ctx).Omit("SubMarkets", "Options").Create(m).Error
}

func (r *PostgresRepository) CreateSubMarket(ctx context.Context, sm *marketdomain.SubMarket) error {
	return r.db.WithContext(ctx).Omit("Options", "Market").Create(sm).Error
}

func (r *PostgresRepository) CreateOptions(ctx context.Context, options []marketdomain.Option) error {
	return r.db.WithContext(ctx).Create(&options).Error
}

func (r *PostgresRepository) GetMarketByID(ctx context.Context, marketID string) (*marketdomain.Market, error) {
	var found marketdomain.Market
	err := r.db.WithContext(ctx).
		Preload("SubMarkets.Options").
		Preload("SubMarkets").
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

func (r *PostgresRepository) GetSubMarketByID(ctx context.Context, subMarketID string) (*marketdomain.SubMarket, error) {
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

func (r *PostgresRepository) UpdateMarket(ctx context.Context, marketID string, fields marketdomain.MarketUpdate) error {
	return r.db.WithContext(ctx).Model(&marketdomain.Market{}).
		Where("id = ?", marketID).
		Updates(map[string]interface{}{
			"title":       fields.Title,
			"description": fields.Description,
			"closes_at":   fields.ClosesAt,
		}).Error
}

func (r *PostgresRepository) UpdateSubMarket(ctx context.Context, subMarketID string, fields marketdomain.SubMarketUpdate) error {
	return r.db.WithContext(ctx).Model(&marketdomain.SubMarket{}).
		Where("id = ?", subMarketID).
		Updates(map[string]interface{}{
			"title":               fields.Title,
			"description":         fields.Description,
			"closes_at":           fields.ClosesAt,
			"allow_multiple_bets": fields.AllowMultipleBets,
		}).Error
}

func (r *PostgresRepository) UpdateOption(ctx context.Context, optionID, label string, odds float64) error {
	return r.db.WithContext(ctx).Model(&marketdomain.Option{}).
		Where("id = ?", optionID).
		Updates(map[string]interface{}{"label": label, "odds": odds}).Error
}

// DeleteOptions removes dependent selections before the option rows so no
// selection is left dangling.
func (r *PostgresRepository) DeleteOptions(ctx context.Context, optionIDs []string) error {
	if len(optionIDs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Delete(&betdomain.Selection{}, "option_id IN ?", optionIDs).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Delete(&marketdomain.Option{}, "id IN ?", optionIDs).Error
}

func (r *PostgresRepository) DeleteMarket(ctx context.Context, marketID string) error {
	var optionIDs []string
	err := r.db.WithContext(ctx).Model(&marketdomain.Option{}).
		Where("market_id = ? OR sub_market_id IN (?)",
			marketID,
			r.db.Model(&marketdomain.SubMarket{}).Select("id").Where("market_id = ?", marketID),
		).
		Pluck("id", &optionIDs).Error
	if err != nil {
		return err
	}

	if err := r.DeleteOptions(ctx, optionIDs); err != nil {
		return err
	}

	if err := r.deleteSettlements(ctx, "market_id = ? OR sub_market_id IN (?)",
		marketID,
		r.db.Model(&marketdomain.SubMarket{}).Select("id").Where("market_id = ?", marketID),
	); err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).
		Delete(&marketdomain.SubMarket{}, "market_id = ?", marketID).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&marketdomain.Market{}, "id = ?", marketID).Error
}

func (r *PostgresRepository) DeleteSubMarket(ctx context.Context, subMarketID string) error {
	var optionIDs []string
	err := r.db.WithContext(ctx).Model(&marketdomain.Option{}).
		Where("sub_market_id = ?", subMarketID).
		Pluck("id", &optionIDs).Error
	if err != nil {
		return err
	}

	if err := r.DeleteOptions(ctx, optionIDs); err != nil {
		return err
	}

	if err := r.deleteSettlements(ctx, "sub_market_id = ?", subMarketID); err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Delete(&marketdomain.SubMarket{}, "id = ?", subMarketID).Error
}

func (r *PostgresRepository) deleteSettlements(ctx context.Context, query string, args ...interface{}) error {
	var settlementIDs []string
	err := r.db.WithContext(ctx).Model(&betdomain.Settlement{}).
		Where(query, args...).
		Pluck("id", &settlementIDs).Error
	if err != nil {
		return err
	}
	if len(settlementIDs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Delete(&betdomain.SettlementWinner{}, "settlement_id IN ?", settlementIDs).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Delete(&betdomain.Settlement{}, "id IN ?", settlementIDs).Error
}
