package market

import "time"

// Persisted statuses. CLOSED is reachable only by explicit admin action;
// time-based closure is computed, never stored (see Closed).
const (
	StatusOpen    = "OPEN"
	StatusClosed  = "CLOSED"
	StatusSettled = "SETTLED"
)

// Market is a container for betting around one event. Current markets nest
// betting inside sub-markets; legacy markets own options directly.
type Market struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	GroupID     string    `gorm:"type:uuid;not null;index"`
	Title       string    `gorm:"not null"`
	Description string    `gorm:"type:text"`
	Status      string    `gorm:"type:varchar(16);not null"`
	ClosesAt    time.Time `gorm:"not null"`
	CreatorID   string    `gorm:"type:uuid;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`

	SubMarkets []SubMarket `gorm:"foreignKey:MarketID;constraint:OnDelete:CASCADE"`
	Options    []Option    `gorm:"foreignKey:MarketID"`
}

type SubMarket struct {
	ID                string    `gorm:"type:uuid;primaryKey"`
	MarketID          string    `gorm:"type:uuid;not null;index"`
	Title             string    `gorm:"not null"`
	Description       string    `gorm:"type:text"`
	Status            string    `gorm:"type:varchar(16);not null"`
	ClosesAt          time.Time `gorm:"not null"`
	AllowMultipleBets bool      `gorm:"not null;default:false"`
	CreatorID         string    `gorm:"type:uuid;not null"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`

	Market  *Market  `gorm:"foreignKey:MarketID;references:ID;constraint:OnDelete:CASCADE"`
	Options []Option `gorm:"foreignKey:SubMarketID"`
}

// Option belongs to exactly one sub-market, or to a market directly in the
// legacy form. Odds are frozen for the option's lifetime.
type Option struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	SubMarketID *string   `gorm:"type:uuid;index"`
	MarketID    *string   `gorm:"type:uuid;index"`
	Label       string    `gorm:"not null"`
	Odds        float64   `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// Closed is the single closure predicate: a market or sub-market accepts
// no stakes once its status left OPEN or its close time passed.
func Closed(status string, closesAt time.Time, now time.Time) bool {
	return status != StatusOpen || now.After(closesAt)
}
