package user

import (
	"context"
	"time"
)

type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateToken(ctx context.Context, token *AuthToken) error
	GetToken(ctx context.Context, token string) (*AuthToken, error)
	DeleteToken(ctx context.Context, token string) error
	DeleteExpiredTokens(ctx context.Context, now time.Time) error
}
