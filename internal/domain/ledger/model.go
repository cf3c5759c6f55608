package ledger

import "time"

// Score is the per-(group,user) point balance. InitialPoints is frozen at
// creation; TotalPoints moves with stakes and payouts.
type Score struct {
	GroupID       string    `gorm:"type:uuid;primaryKey"`
	UserID        string    `gorm:"type:uuid;primaryKey"`
	TotalPoints   float64   `gorm:"not null"`
	InitialPoints float64   `gorm:"not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// LeaderboardEntry is a score joined with the member's name, ranked by
// TotalPoints descending.
type LeaderboardEntry struct {
	Rank          int
	UserID        string
	Name          string
	TotalPoints   float64
	IsCurrentUser bool
}
