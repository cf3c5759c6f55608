package bet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Alpayozd/intern-betting-app-sub000/internal/domain/group"
	"github.com/Alpayozd/intern-betting-app-sub000/internal/domain/ledger"
	"github.com/Alpayozd/intern-betting-app-sub000/internal/domain/market"
)

type Service struct {
	repo          Repository
	initialPoints float64
	now           func() time.Time
}

func NewService(repo Repository, initialPoints float64) *Service {
	return &Service{repo: repo, initialPoints: initialPoints, now: func() time.Time { return time.Now().UTC() }}
}

// PlaceStake debits the bettor and records a selection with the payout
// frozen at the option's current odds. The balance check and the debit
// run as one conditional update inside the transaction, so two
// overlapping stakes cannot jointly overdraw a balance.
//
// AllowMultipleBets is a client-side policy: the engine accepts any
// number of selections per (user, sub-market).
func (s *Service) PlaceStake(ctx context.Context, subMarketID, optionID, userID string, stakePoints int) (*Selection, error) {
	if stakePoints <= 0 {
		return nil, ErrInvalidStake
	}

	var placed Selection
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		subMarket, err := tx.GetSubMarket(ctx, subMarketID)
		if err != nil {
			return err
		}

		if market.Closed(subMarket.Status, subMarket.ClosesAt, s.now()) {
			return ErrMarketClosed
		}

		option, ok := findOption(subMarket.Options, optionID)
		if !ok {
			return market.ErrOptionNotFound
		}

		groupID := subMarket.Market.GroupID
		if _, err := tx.GetMemberRole(ctx, groupID, userID); err != nil {
			if errors.Is(err, group.ErrMemberNotFound) {
				return group.ErrNotAMember
			}
			return err
		}

		if err := s.ensureScore(ctx, tx, groupID, userID); err != nil {
			return err
		}

		debited, err := tx.DebitScoreIfAtLeast(ctx, groupID, userID, float64(stakePoints))
		if err != nil {
			return err
		}
		if !debited {
			return ErrInsufficientPoints
		}

		placed = Selection{
			ID:                    uuid.New().String(),
			SubMarketID:           &subMarket.ID,
			OptionID:              option.ID,
			UserID:                userID,
			StakePoints:           stakePoints,
			PotentialPayoutPoints: float64(stakePoints) * option.Odds,
		}
		return tx.CreateSelection(ctx, &placed)
	})
	if err != nil {
		return nil, err
	}

	return &placed, nil
}

// SettleSubMarket designates the winning options, credits every winning
// selection's frozen payout and marks the sub-market SETTLED. Settling
// twice fails with ErrAlreadySettled; the unique settlement index backs
// this up against concurrent calls.
func (s *Service) SettleSubMarket(ctx context.Context, subMarketID, settledBy string, winningOptionIDs []string) (*SettlementResult, error) {
	var result SettlementResult
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.GetSettlementBySubMarket(ctx, subMarketID); err == nil {
			return ErrAlreadySettled
		} else if !errors.Is(err, ErrSettlementNotFound) {
			return err
		}

		subMarket, err := tx.GetSubMarket(ctx, subMarketID)
		if err != nil {
			return err
		}
		groupID := subMarket.Market.GroupID

		if err := requireAdmin(ctx, tx, groupID, settledBy); err != nil {
			return err
		}

		settlement := Settlement{
			ID:              uuid.New().String(),
			SubMarketID:     &subMarket.ID,
			SettledByUserID: settledBy,
			SettledAt:       s.now(),
		}

		credited, paid, err := s.settle(ctx, tx, groupID, subMarket.Options, winningOptionIDs, &settlement)
		if err != nil {
			return err
		}

		if err := tx.SetSubMarketStatus(ctx, subMarketID, market.StatusSettled); err != nil {
			return err
		}

		result = SettlementResult{
			Settlement:   settlement,
			WinnersCount: len(settlement.Winners),
			CreditedBets: credited,
			TotalPaidOut: paid,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// SettleMarket is the legacy single-winner path for markets that own
// their options directly. It is the sub-market engine with winner
// cardinality one.
func (s *Service) SettleMarket(ctx context.Context, marketID, settledBy, winningOptionID string) (*SettlementResult, error) {
	var result SettlementResult
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.GetSettlementByMarket(ctx, marketID); err == nil {
			return ErrAlreadySettled
		} else if !errors.Is(err, ErrSettlementNotFound) {
			return err
		}

		legacy, err := tx.GetMarket(ctx, marketID)
		if err != nil {
			return err
		}

		if err := requireAdmin(ctx, tx, legacy.GroupID, settledBy); err != nil {
			return err
		}

		settlement := Settlement{
			ID:              uuid.New().String(),
			MarketID:        &legacy.ID,
			SettledByUserID: settledBy,
			SettledAt:       s.now(),
		}

		credited, paid, err := s.settle(ctx, tx, legacy.GroupID, legacy.Options, []string{winningOptionID}, &settlement)
		if err != nil {
			return err
		}

		if err := tx.SetMarketStatus(ctx, marketID, market.StatusSettled); err != nil {
			return err
		}

		result = SettlementResult{
			Settlement:   settlement,
			WinnersCount: len(settlement.Winners),
			CreditedBets: credited,
			TotalPaidOut: paid,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// settle validates the winning set, records the settlement with its
// winner links and credits every winning selection.
func (s *Service) settle(ctx context.Context, tx Repository, groupID string, options []market.Option, winningOptionIDs []string, settlement *Settlement) (int, float64, error) {
	if len(winningOptionIDs) == 0 {
		return 0, 0, ErrInvalidWinningOptions
	}

	known := make(map[string]struct{}, len(options))
	for _, option := range options {
		known[option.ID] = struct{}{}
	}

	winners := make([]SettlementWinner, 0, len(winningOptionIDs))
	seen := make(map[string]struct{}, len(winningOptionIDs))
	for _, optionID := range winningOptionIDs {
		if _, ok := known[optionID]; !ok {
			return 0, 0, ErrInvalidWinningOptions
		}
		if _, ok := seen[optionID]; ok {
			continue
		}
		seen[optionID] = struct{}{}
		winners = append(winners, SettlementWinner{SettlementID: settlement.ID, OptionID: optionID})
	}
	settlement.Winners = winners

	if err := tx.CreateSettlement(ctx, settlement); err != nil {
		return 0, 0, err
	}

	winnerIDs := make([]string, 0, len(winners))
	for _, winner := range winners {
		winnerIDs = append(winnerIDs, winner.OptionID)
	}

	selections, err := tx.ListSelectionsByOptions(ctx, winnerIDs)
	if err != nil {
		return 0, 0, err
	}

	var paid float64
	for _, selection := range selections {
		if err := tx.CreditScore(ctx, groupID, selection.UserID, selection.PotentialPayoutPoints); err != nil {
			return 0, 0, err
		}
		paid += selection.PotentialPayoutPoints
	}

	return len(selections), paid, nil
}

// ListBets returns every selection of a sub-market with bettor identity.
// Group admins only.
func (s *Service) ListBets(ctx context.Context, subMarketID, actorID string) ([]SelectionDetail, error) {
	subMarket, err := s.repo.GetSubMarket(ctx, subMarketID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(ctx, s.repo, subMarket.Market.GroupID, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListSelectionsBySubMarket(ctx, subMarketID)
}

// OptionBetCounts returns per-option selection counts for a sub-market.
// The handler includes these only in admin payloads.
func (s *Service) OptionBetCounts(ctx context.Context, subMarketID string) (map[string]int64, error) {
	return s.repo.CountSelectionsByOption(ctx, subMarketID)
}

// MyBetsBySubMarket returns the caller's selections on one sub-market
// with stake and payout totals plus their current balance.
func (s *Service) MyBetsBySubMarket(ctx context.Context, subMarketID, userID string) (*MyBets, error) {
	subMarket, err := s.repo.GetSubMarket(ctx, subMarketID)
	if err != nil {
		return nil, err
	}
	groupID := subMarket.Market.GroupID
	if err := requireMember(ctx, s.repo, groupID, userID); err != nil {
		return nil, err
	}

	selections, err := s.repo.ListUserSelectionsBySubMarket(ctx, subMarketID, userID)
	if err != nil {
		return nil, err
	}
	return s.buildMyBets(ctx, groupID, userID, selections)
}

// MyBetsByGroup returns the caller's selections across a whole group.
func (s *Service) MyBetsByGroup(ctx context.Context, groupID, userID string) (*MyBets, error) {
	if err := requireMember(ctx, s.repo, groupID, userID); err != nil {
		return nil, err
	}

	selections, err := s.repo.ListUserSelectionsByGroup(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	return s.buildMyBets(ctx, groupID, userID, selections)
}

func (s *Service) buildMyBets(ctx context.Context, groupID, userID string, selections []SelectionContext) (*MyBets, error) {
	result := MyBets{Selections: selections}
	for _, selection := range selections {
		result.TotalStake += selection.StakePoints
		result.TotalPotentialPayout += selection.PotentialPayoutPoints
	}

	score, err := s.repo.GetScore(ctx, groupID, userID)
	if err != nil {
		if !errors.Is(err, ledger.ErrScoreNotFound) {
			return nil, err
		}
		result.Balance = 0
	} else {
		result.Balance = score.TotalPoints
	}

	return &result, nil
}

func (s *Service) ensureScore(ctx context.Context, tx Repository, groupID, userID string) error {
	_, err := tx.GetScore(ctx, groupID, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ledger.ErrScoreNotFound) {
		return err
	}
	return tx.CreateScore(ctx, &ledger.Score{
		GroupID:       groupID,
		UserID:        userID,
		TotalPoints:   s.initialPoints,
		InitialPoints: s.initialPoints,
	})
}

func requireMember(ctx context.Context, repo Repository, groupID, userID string) error {
	if _, err := repo.GetMemberRole(ctx, groupID, userID); err != nil {
		if errors.Is(err, group.ErrMemberNotFound) {
			return group.ErrNotAMember
		}
		return err
	}
	return nil
}

func requireAdmin(ctx context.Context, repo Repository, groupID, userID string) error {
	role, err := repo.GetMemberRole(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, group.ErrMemberNotFound) {
			return group.ErrNotAMember
		}
		return err
	}
	if role != group.RoleAdmin {
		return group.ErrNotAdmin
	}
	return nil
}

func findOption(options []market.Option, optionID string) (market.Option, bool) {
	for _, option := range options {
		if option.ID == optionID {
			return option, true
		}
	}
	return market.Option{}, false
}
