package user

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	userdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/user"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateUser(ctx context.Context, account *userdomain.User) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*userdomain.User, error) {
	var account userdomain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userdomain.ErrUserNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	var account userdomain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userdomain.ErrUserNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *PostgresRepository) CreateToken(ctx context.Context, token *userdomain.AuthToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *PostgresRepository) GetToken(ctx context.Context, token string) (*userdomain.AuthToken, error) {
	var record userdomain.AuthToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userdomain.ErrTokenInvalid
		}
		return nil, err
	}
	return &record, nil
}

func (r *PostgresRepository) DeleteToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Delete(&userdomain.AuthToken{}, "token = ?", token).Error
}

func (r *PostgresRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) error {
	return r.db.WithContext(ctx).Delete(&userdomain.AuthToken{}, "expires_at < ?", now).Error
}
