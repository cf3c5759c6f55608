package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenBytes = 32

type Service struct {
	repo     Repository
	tokenTTL time.Duration
}

func NewService(repo Repository, tokenTTL time.Duration) *Service {
	return &Service{repo: repo, tokenTTL: tokenTTL}
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("valid email is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if err != ErrUserNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account := User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.repo.CreateUser(ctx, &account); err != nil {
		return nil, err
	}

	return &account, nil
}

// Login verifies credentials and issues an opaque bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	account, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if err == ErrUserNotFound {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, "", err
	}

	record := AuthToken{
		Token:     token,
		UserID:    account.ID,
		ExpiresAt: time.Now().UTC().Add(s.tokenTTL),
	}
	if err := s.repo.CreateToken(ctx, &record); err != nil {
		return nil, "", err
	}

	return account, token, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	record, err := s.repo.GetToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if time.Now().UTC().After(record.ExpiresAt) {
		_ = s.repo.DeleteToken(ctx, token)
		return nil, ErrTokenInvalid
	}
	return s.repo.GetUserByID(ctx, record.UserID)
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.repo.DeleteToken(ctx, token)
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newToken() (string, error) {
	var b [tokenBytes]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
