package group

import "time"

const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

type Group struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Description string    `gorm:"type:text"`
	InviteCode  string    `gorm:"size:8;not null;uniqueIndex"`
	CreatorID   string    `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

type Membership struct {
	GroupID  string    `gorm:"type:uuid;primaryKey"`
	UserID   string    `gorm:"type:uuid;primaryKey"`
	Role     string    `gorm:"type:varchar(16);not null"`
	JoinedAt time.Time `gorm:"autoCreateTime"`

	Group Group `gorm:"foreignKey:GroupID;references:ID;constraint:OnDelete:CASCADE"`
}

// MemberProfile is a membership joined with the member's account fields.
type MemberProfile struct {
	UserID   string
	Name     string
	Email    string
	Role     string
	JoinedAt time.Time
}
