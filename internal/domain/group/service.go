package group

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	inviteCodeLength   = 8
	inviteCodeAttempts = 10
)

// ScoreInitializer creates the member's point balance when they enter a
// group. Implemented by the ledger service.
type ScoreInitializer interface {
	EnsureBalance(ctx context.Context, groupID, userID string) (float64, error)
}

type Service struct {
	repo   Repository
	scores ScoreInitializer
}

func NewService(repo Repository, scores ScoreInitializer) *Service {
	return &Service{repo: repo, scores: scores}
}

// CreateGroup creates a group with the caller as its first admin.
func (s *Service) CreateGroup(ctx context.Context, userID, name, description string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	var result Group
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		code, err := generateUniqueCode(ctx, tx)
		if err != nil {
			return err
		}

		created := Group{
			ID:          uuid.New().String(),
			Name:        name,
			Description: strings.TrimSpace(description),
			InviteCode:  code,
			CreatorID:   userID,
		}
		if err := tx.CreateGroup(ctx, &created); err != nil {
			return err
		}

		member := Membership{
			GroupID: created.ID,
			UserID:  userID,
			Role:    RoleAdmin,
		}
		if err := tx.AddMember(ctx, &member); err != nil {
			return err
		}

		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.scores.EnsureBalance(ctx, result.ID, userID); err != nil {
		return nil, err
	}

	return &result, nil
}

// JoinGroup adds the caller as a member via invite code.
func (s *Service) JoinGroup(ctx context.Context, userID, code string) (*Group, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("code is required")
	}

	var result Group
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		joined, err := tx.GetGroupByCode(ctx, code)
		if err != nil {
			return err
		}

		if _, err := tx.GetMember(ctx, joined.ID, userID); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, ErrMemberNotFound) {
			return err
		}

		member := Membership{
			GroupID: joined.ID,
			UserID:  userID,
			Role:    RoleMember,
		}
		if err := tx.AddMember(ctx, &member); err != nil {
			return err
		}

		result = *joined
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.scores.EnsureBalance(ctx, result.ID, userID); err != nil {
		return nil, err
	}

	return &result, nil
}

// GetGroup returns a group the caller belongs to.
func (s *Service) GetGroup(ctx context.Context, groupID, userID string) (*Group, error) {
	if _, err := s.MemberRole(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.repo.GetGroupByID(ctx, groupID)
}

// MemberRole returns the caller's role or ErrNotAMember.
func (s *Service) MemberRole(ctx context.Context, groupID, userID string) (string, error) {
	member, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return "", ErrNotAMember
		}
		return "", err
	}
	return member.Role, nil
}

func (s *Service) ListMembers(ctx context.Context, groupID, userID string) ([]MemberProfile, error) {
	if _, err := s.MemberRole(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, groupID)
}

// ChangeMemberRole updates a member's role. Downgrading the last admin is
// rejected.
func (s *Service) ChangeMemberRole(ctx context.Context, actorID, groupID, targetID, role string) error {
	if role != RoleAdmin && role != RoleMember {
		return ErrInvalidRole
	}

	return s.repo.Transaction(ctx, func(tx Repository) error {
		if err := requireAdmin(ctx, tx, groupID, actorID); err != nil {
			return err
		}

		target, err := tx.GetMember(ctx, groupID, targetID)
		if err != nil {
			return err
		}

		if target.Role == RoleAdmin && role == RoleMember {
			admins, err := tx.CountAdmins(ctx, groupID)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		return tx.UpdateMemberRole(ctx, groupID, targetID, role)
	})
}

// RemoveMember removes a member from the group. Removing the last admin is
// rejected.
func (s *Service) RemoveMember(ctx context.Context, actorID, groupID, targetID string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		if err := requireAdmin(ctx, tx, groupID, actorID); err != nil {
			return err
		}

		target, err := tx.GetMember(ctx, groupID, targetID)
		if err != nil {
			return err
		}

		if target.Role == RoleAdmin {
			admins, err := tx.CountAdmins(ctx, groupID)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		return tx.DeleteMember(ctx, groupID, targetID)
	})
}

func requireAdmin(ctx context.Context, repo Repository, groupID, userID string) error {
	member, err := repo.GetMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return ErrNotAMember
		}
		return err
	}
	if member.Role != RoleAdmin {
		return ErrNotAdmin
	}
	return nil
}

func generateUniqueCode(ctx context.Context, repo Repository) (string, error) {
	for i := 0; i < inviteCodeAttempts; i++ {
		code, err := generateCode(inviteCodeLength)
		if err != nil {
			return "", err
		}
		taken, err := repo.IsCodeTaken(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeGenerationFailed
}

func generateCode(length int) (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	max := big.NewInt(int64(len(alphabet)))

	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[n.Int64()])
	}

	return builder.String(), nil
}
