package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alpayozd/intern-betting-app-sub000/internal/domain/group"
)

// RoleFinder resolves a user's role within a group. Implemented by the
// group service.
type RoleFinder interface {
	MemberRole(ctx context.Context, groupID, userID string) (string, error)
}

type Service struct {
	repo  Repository
	roles RoleFinder
}

func NewService(repo Repository, roles RoleFinder) *Service {
	return &Service{repo: repo, roles: roles}
}

type OptionInput struct {
	// ID is set for existing options in an edit submission; empty for new
	// ones.
	ID    string
	Label string
	Odds  float64
}

type CreateMarketInput struct {
	GroupID     string
	Title       string
	Description string
	ClosesAt    time.Time
	// Options is only used by legacy markets that bet at the top level.
	Options []OptionInput
}

type CreateSubMarketInput struct {
	MarketID          string
	Title             string
	Description       string
	ClosesAt          time.Time
	AllowMultipleBets bool
	Options           []OptionInput
}

type EditMarketInput struct {
	Title       string
	Description string
	ClosesAt    time.Time
	Options     []OptionInput
}

type EditSubMarketInput struct {
	Title             string
	Description       string
	ClosesAt          time.Time
	AllowMultipleBets bool
	Options           []OptionInput
}

// CreateMarket creates an OPEN market. Any group member may create one.
func (s *Service) CreateMarket(ctx context.Context, userID string, input CreateMarketInput) (*Market, error) {
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	if err := validateOdds(input.Options); err != nil {
		return nil, err
	}
	if _, err := s.roles.MemberRole(ctx, input.GroupID, userID); err != nil {
		return nil, err
	}

	created := Market{
		ID:          uuid.New().String(),
		GroupID:     input.GroupID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      StatusOpen,
		ClosesAt:    input.ClosesAt,
		CreatorID:   userID,
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.CreateMarket(ctx, &created); err != nil {
			return err
		}
		options := make([]Option, 0, len(input.Options))
		for _, in := range input.Options {
			marketID := created.ID
			options = append(options, Option{
				ID:       uuid.New().String(),
				MarketID: &marketID,
				Label:    strings.TrimSpace(in.Label),
				Odds:     in.Odds,
			})
		}
		if len(options) == 0 {
			return nil
		}
		if err := tx.CreateOptions(ctx, options); err != nil {
			return err
		}
		created.Options = options
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// CreateSubMarket creates an OPEN sub-market with its options under an
// existing market. Any group member may create one.
func (s *Service) CreateSubMarket(ctx context.Context, userID string, input CreateSubMarketInput) (*SubMarket, error) {
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	if len(input.Options) == 0 {
		return nil, ErrNoOptions
	}
	if err := validateOdds(input.Options); err != nil {
		return nil, err
	}

	parent, err := s.repo.GetMarketByID(ctx, input.MarketID)
	if err != nil {
		return nil, err
	}
	if _, err := s.roles.MemberRole(ctx, parent.GroupID, userID); err != nil {
		return nil, err
	}
	if parent.Status == StatusSettled {
		return nil, ErrMarketSettled
	}

	created := SubMarket{
		ID:                uuid.New().String(),
		MarketID:          parent.ID,
		Title:             strings.TrimSpace(input.Title),
		Description:       strings.TrimSpace(input.Description),
		Status:            StatusOpen,
		ClosesAt:          input.ClosesAt,
		AllowMultipleBets: input.AllowMultipleBets,
		CreatorID:         userID,
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.CreateSubMarket(ctx, &created); err != nil {
			return err
		}
		options := make([]Option, 0, len(input.Options))
		for _, in := range input.Options {
			subMarketID := created.ID
			options = append(options, Option{
				ID:          uuid.New().String(),
				SubMarketID: &subMarketID,
				Label:       strings.TrimSpace(in.Label),
				Odds:        in.Odds,
			})
		}
		if err := tx.CreateOptions(ctx, options); err != nil {
			return err
		}
		created.Options = options
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// GetMarket returns a market with sub-markets and options for a group
// member.
func (s *Service) GetMarket(ctx context.Context, marketID, userID string) (*Market, error) {
	loaded, err := s.repo.GetMarketByID(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if _, err := s.roles.MemberRole(ctx, loaded.GroupID, userID); err != nil {
		return nil, err
	}
	return loaded, nil
}

// GetSubMarket returns a sub-market with options for a group member,
// along with the caller's role for the owning group.
func (s *Service) GetSubMarket(ctx context.Context, subMarketID, userID string) (*SubMarket, string, error) {
	loaded, err := s.repo.GetSubMarketByID(ctx, subMarketID)
	if err != nil {
		return nil, "", err
	}
	role, err := s.roles.MemberRole(ctx, loaded.Market.GroupID, userID)
	if err != nil {
		return nil, "", err
	}
	return loaded, role, nil
}

// EditMarket updates a legacy market and diffs its options. Admin only;
// allowed while not settled, regardless of time-based closure.
func (s *Service) EditMarket(ctx context.Context, actorID, marketID string, input EditMarketInput) (*Market, error) {
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	if err := validateOdds(input.Options); err != nil {
		return nil, err
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		loaded, err := tx.GetMarketByID(ctx, marketID)
		if err != nil {
			return err
		}
		if err := s.requireAdmin(ctx, loaded.GroupID, actorID); err != nil {
			return err
		}
		if loaded.Status == StatusSettled {
			return ErrMarketSettled
		}

		update := MarketUpdate{
			Title:       strings.TrimSpace(input.Title),
			Description: strings.TrimSpace(input.Description),
			ClosesAt:    input.ClosesAt,
		}
		if err := tx.UpdateMarket(ctx, marketID, update); err != nil {
			return err
		}

		owner := ownerRef{marketID: &marketID}
		return applyOptionDiff(ctx, tx, owner, loaded.Options, input.Options)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetMarketByID(ctx, marketID)
}

// EditSubMarket updates a sub-market and diffs its options. Admin only;
// allowed while not settled, regardless of time-based closure.
func (s *Service) EditSubMarket(ctx context.Context, actorID, subMarketID string, input EditSubMarketInput) (*SubMarket, error) {
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	if err := validateOdds(input.Options); err != nil {
		return nil, err
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		loaded, err := tx.GetSubMarketByID(ctx, subMarketID)
		if err != nil {
			return err
		}
		if err := s.requireAdmin(ctx, loaded.Market.GroupID, actorID); err != nil {
			return err
		}
		if loaded.Status == StatusSettled {
			return ErrMarketSettled
		}

		update := SubMarketUpdate{
			Title:             strings.TrimSpace(input.Title),
			Description:       strings.TrimSpace(input.Description),
			ClosesAt:          input.ClosesAt,
			AllowMultipleBets: input.AllowMultipleBets,
		}
		if err := tx.UpdateSubMarket(ctx, subMarketID, update); err != nil {
			return err
		}

		owner := ownerRef{subMarketID: &subMarketID}
		return applyOptionDiff(ctx, tx, owner, loaded.Options, input.Options)
	})
	if err != nil {
		return nil, err
	}

	loaded, err := s.repo.GetSubMarketByID(ctx, subMarketID)
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

// DeleteMarket removes a market and everything under it. Admin only;
// settled markets cannot be deleted.
func (s *Service) DeleteMarket(ctx context.Context, actorID, marketID string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		loaded, err := tx.GetMarketByID(ctx, marketID)
		if err != nil {
			return err
		}
		if err := s.requireAdmin(ctx, loaded.GroupID, actorID); err != nil {
			return err
		}
		if loaded.Status == StatusSettled {
			return ErrMarketSettled
		}
		return tx.DeleteMarket(ctx, marketID)
	})
}

// DeleteSubMarket removes a sub-market and its dependents. Admin only;
// settled sub-markets cannot be deleted.
func (s *Service) DeleteSubMarket(ctx context.Context, actorID, subMarketID string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		loaded, err := tx.GetSubMarketByID(ctx, subMarketID)
		if err != nil {
			return err
		}
		if err := s.requireAdmin(ctx, loaded.Market.GroupID, actorID); err != nil {
			return err
		}
		if loaded.Status == StatusSettled {
			return ErrMarketSettled
		}
		return tx.DeleteSubMarket(ctx, subMarketID)
	})
}

func (s *Service) requireAdmin(ctx context.Context, groupID, userID string) error {
	role, err := s.roles.MemberRole(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if role != group.RoleAdmin {
		return group.ErrNotAdmin
	}
	return nil
}

type ownerRef struct {
	marketID    *string
	subMarketID *string
}

// applyOptionDiff partitions submitted options into updates (id present),
// creates (no id) and deletes (existing id absent from the submission).
// Deleted options lose their dependent selections first.
func applyOptionDiff(ctx context.Context, tx Repository, owner ownerRef, existing []Option, submitted []OptionInput) error {
	existingIDs := make(map[string]struct{}, len(existing))
	for _, option := range existing {
		existingIDs[option.ID] = struct{}{}
	}

	submittedIDs := make(map[string]struct{}, len(submitted))
	var creates []Option
	for _, in := range submitted {
		if in.ID == "" {
			creates = append(creates, Option{
				ID:          uuid.New().String(),
				MarketID:    owner.marketID,
				SubMarketID: owner.subMarketID,
				Label:       strings.TrimSpace(in.Label),
				Odds:        in.Odds,
			})
			continue
		}
		if _, ok := existingIDs[in.ID]; !ok {
			return ErrOptionNotFound
		}
		submittedIDs[in.ID] = struct{}{}
		if err := tx.UpdateOption(ctx, in.ID, strings.TrimSpace(in.Label), in.Odds); err != nil {
			return err
		}
	}

	var deletes []string
	for _, option := range existing {
		if _, ok := submittedIDs[option.ID]; !ok {
			deletes = append(deletes, option.ID)
		}
	}
	if len(deletes) > 0 {
		if err := tx.DeleteOptions(ctx, deletes); err != nil {
			return err
		}
	}

	if len(creates) > 0 {
		if err := tx.CreateOptions(ctx, creates); err != nil {
			return err
		}
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}

func validateOdds(options []OptionInput) error {
	for _, in := range options {
		if strings.TrimSpace(in.Label) == "" {
			return fmt.Errorf("option label is required")
		}
		if in.Odds < 1 {
			return ErrInvalidOdds
		}
	}
	return nil
}
