package bet

import "time"

// Selection is a user's stake on one option. PotentialPayoutPoints is
// frozen at placement time and never recomputed.
type Selection struct {
	ID                    string    `gorm:"type:uuid;primaryKey"`
	SubMarketID           *string   `gorm:"type:uuid;index"`
	OptionID              string    `gorm:"type:uuid;not null;index"`
	UserID                string    `gorm:"type:uuid;not null;index"`
	StakePoints           int       `gorm:"not null"`
	PotentialPayoutPoints float64   `gorm:"not null"`
	CreatedAt             time.Time `gorm:"autoCreateTime"`
}

// Settlement is terminal: once it exists the sub-market (or legacy
// market) is permanently settled. The unique indexes enforce at most one
// settlement per owner.
type Settlement struct {
	ID              string    `gorm:"type:uuid;primaryKey"`
	SubMarketID     *string   `gorm:"type:uuid;uniqueIndex"`
	MarketID        *string   `gorm:"type:uuid;uniqueIndex"`
	SettledByUserID string    `gorm:"type:uuid;not null"`
	SettledAt       time.Time `gorm:"not null"`

	Winners []SettlementWinner `gorm:"foreignKey:SettlementID;constraint:OnDelete:CASCADE"`
}

// SettlementWinner links a settlement to one winning option. Multiple rows
// support ties and multi-outcome settlements.
type SettlementWinner struct {
	SettlementID string `gorm:"type:uuid;primaryKey"`
	OptionID     string `gorm:"type:uuid;primaryKey"`
}

// SelectionDetail is a selection with bettor identity, for the admin
// bet-detail view.
type SelectionDetail struct {
	Selection
	UserName    string
	OptionLabel string
}

// SelectionContext is a selection joined with its option and market
// context, for the my-bets view.
type SelectionContext struct {
	Selection
	OptionLabel    string
	Odds           float64
	SubMarketTitle string
	MarketID       string
	MarketTitle    string
}

// MyBets aggregates a user's selections with their running totals and
// current balance.
type MyBets struct {
	Selections           []SelectionContext
	TotalStake           int
	TotalPotentialPayout float64
	Balance              float64
}

// SettlementResult reports what a settlement did.
type SettlementResult struct {
	Settlement   Settlement
	WinnersCount int
	CreditedBets int
	TotalPaidOut float64
}
