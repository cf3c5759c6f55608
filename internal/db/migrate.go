package db

import (
	"fmt"

	"gorm.io/gorm"

	betdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/bet"
	groupdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/group"
	ledgerdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/ledger"
	marketdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/market"
	userdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/user"
)

// Migrate brings the schema up to date for all domain models.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&userdomain.User{},
		&userdomain.AuthToken{},
		&groupdomain.Group{},
		&groupdomain.Membership{},
		&ledgerdomain.Score{},
		&marketdomain.Market{},
		&marketdomain.SubMarket{},
		&marketdomain.Option{},
		&betdomain.Selection{},
		&betdomain.Settlement{},
		&betdomain.SettlementWinner{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
