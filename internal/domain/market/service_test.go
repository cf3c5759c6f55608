package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Alpayozd/intern-betting-app-sub000/internal/domain/group"
)

type fakeMarketRepo struct {
	markets    map[string]*Market
	subMarkets map[string]*SubMarket
	options    map[string]*Option

	deletedOptionIDs []string
}

func newFakeMarketRepo() *fakeMarketRepo {
	return &fakeMarketRepo{
		markets:    make(map[string]*Market),
		subMarkets: make(map[string]*SubMarket),
		options:    make(map[string]*Option),
	}
}

func (r *fakeMarketRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(r)
}

func (r *fakeMarketRepo) CreateMarket(ctx context.Context, m *Market) error {
	stored := *m
	r.markets[m.ID] = &stored
	return nil
}

func (r *fakeMarketRepo) CreateSubMarket(ctx context.Context, sm *SubMarket) error {
	stored := *sm
	r.subMarkets[sm.ID] = &stored
	return nil
}

func (r *fakeMarketRepo) CreateOptions(ctx context.Context, options []Option) error {
	for _, option := range options {
		stored := option
		r.options[option.ID] = &stored
	}
	return nil
}

func (r *fakeMarketRepo) GetMarketByID(ctx context.Context, marketID string) (*Market, error) {
	m, ok := r.markets[marketID]
	if !ok {
		return nil, ErrMarketNotFound
	}
	loaded := *m
	loaded.Options = nil
	loaded.SubMarkets = nil
	for _, option := range r.options {
		if option.MarketID != nil && *option.MarketID == marketID {
			loaded.Options = append(loaded.Options, *option)
		}
	}
	for _, sm := range r.subMarkets {
		if sm.MarketID == marketID {
			loaded.SubMarkets = append(loaded.SubMarkets, *sm)
		}
	}
	return &loaded, nil
}

func (r *fakeMarketRepo) GetSubMarketByID(ctx context.Context, subMarketID string) (*SubMarket, error) {
	sm, ok := r.subMarkets[subMarketID]
	if !ok {
		return nil, ErrSubMarketNotFound
	}
	loaded := *sm
	loaded.Options = nil
	for _, option := range r.options {
		if option.SubMarketID != nil && *option.SubMarketID == subMarketID {
			loaded.Options = append(loaded.Options, *option)
		}
	}
	if parent, ok := r.markets[sm.MarketID]; ok {
		parentCopy := *parent
		loaded.Market = &parentCopy
	}
	return &loaded, nil
}

func (r *fakeMarketRepo) UpdateMarket(ctx context.Context, marketID string, fields MarketUpdate) error {
	m, ok := r.markets[marketID]
	if !ok {
		return ErrMarketNotFound
	}
	m.Title = fields.Title
	m.Description = fields.Description
	m.ClosesAt = fields.ClosesAt
	return nil
}

func (r *fakeMarketRepo) UpdateSubMarket(ctx context.Context, subMarketID string, fields SubMarketUpdate) error {
	sm, ok := r.subMarkets[subMarketID]
	if !ok {
		return ErrSubMarketNotFound
	}
	sm.Title = fields.Title
	sm.Description = fields.Description
	sm.ClosesAt = fields.ClosesAt
	sm.AllowMultipleBets = fields.AllowMultipleBets
	return nil
}

func (r *fakeMarketRepo) UpdateOption(ctx context.Context, optionID, label string, odds float64) error {
	option, ok := r.options[optionID]
	if !ok {
		return ErrOptionNotFound
	}
	option.Label = label
	option.Odds = odds
	return nil
}

func (r *fakeMarketRepo) DeleteOptions(ctx context.Context, optionIDs []string) error {
	for _, id := range optionIDs {
		delete(r.options, id)
		r.deletedOptionIDs = append(r.deletedOptionIDs, id)
	}
	return nil
}

func (r *fakeMarketRepo) DeleteMarket(ctx context.Context, marketID string) error {
	for id, option := range r.options {
		if option.MarketID != nil && *option.MarketID == marketID {
			delete(r.options, id)
		}
	}
	for id, sm := range r.subMarkets {
		if sm.MarketID == marketID {
			for optID, option := range r.options {
				if option.SubMarketID != nil && *option.SubMarketID == id {
					delete(r.options, optID)
				}
			}
			delete(r.subMarkets, id)
		}
	}
	delete(r.markets, marketID)
	return nil
}

func (r *fakeMarketRepo) DeleteSubMarket(ctx context.Context, subMarketID string) error {
	for id, option := range r.options {
		if option.SubMarketID != nil && *option.SubMarketID == subMarketID {
			delete(r.options, id)
		}
	}
	delete(r.subMarkets, subMarketID)
	return nil
}

type fakeRoles struct {
	roles map[string]string
}

func newFakeRoles() *fakeRoles {
	return &fakeRoles{roles: make(map[string]string)}
}

func (f *fakeRoles) set(groupID, userID, role string) {
	f.roles[groupID+"/"+userID] = role
}

func (f *fakeRoles) MemberRole(ctx context.Context, groupID, userID string) (string, error) {
	role, ok := f.roles[groupID+"/"+userID]
	if !ok {
		return "", group.ErrNotAMember
	}
	return role, nil
}

func seedSubMarket(repo *fakeMarketRepo, status string, closesAt time.Time) {
	repo.markets["mkt-1"] = &Market{ID: "mkt-1", GroupID: "grp-1", Title: "Season", Status: StatusOpen, ClosesAt: closesAt}
	repo.subMarkets["sub-1"] = &SubMarket{ID: "sub-1", MarketID: "mkt-1", Title: "Winner", Status: status, ClosesAt: closesAt}
	subID := "sub-1"
	repo.options["opt-a"] = &Option{ID: "opt-a", SubMarketID: &subID, Label: "Team A", Odds: 1.8}
	repo.options["opt-b"] = &Option{ID: "opt-b", SubMarketID: &subID, Label: "Team B", Odds: 2.5}
}

func TestCreateMarketRequiresMembership(t *testing.T) {
	svc := NewService(newFakeMarketRepo(), newFakeRoles())
	_, err := svc.CreateMarket(context.Background(), "stranger", CreateMarketInput{
		GroupID:  "grp-1",
		Title:    "Season",
		ClosesAt: time.Now().Add(time.Hour),
	})
	if !errors.Is(err, group.ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember, got %v", err)
	}
}

func TestCreateSubMarketSuccess(t *testing.T) {
	repo := newFakeMarketRepo()
	repo.markets["mkt-1"] = &Market{ID: "mkt-1", GroupID: "grp-1", Title: "Season", Status: StatusOpen}
	roles := newFakeRoles()
	roles.set("grp-1", "user-1", group.RoleMember)

	svc := NewService(repo, roles)
	created, err := svc.CreateSubMarket(context.Background(), "user-1", CreateSubMarketInput{
		MarketID: "mkt-1",
		Title:    "  Match Winner  ",
		ClosesAt: time.Now().Add(time.Hour),
		Options: []OptionInput{
			{Label: "Team A", Odds: 1.8},
			{Label: "Team B", Odds: 2.5},
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.Status != StatusOpen {
		t.Fatalf("expected OPEN status, got %q", created.Status)
	}
	if created.Title != "Match Winner" {
		t.Fatalf("expected title trimmed, got %q", created.Title)
	}
	if len(created.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(created.Options))
	}
	for _, option := range created.Options {
		if option.SubMarketID == nil || *option.SubMarketID != created.ID {
			t.Fatalf("expected option bound to sub-market, got %+v", option)
		}
	}
}

func TestCreateSubMarketNoOptions(t *testing.T) {
	repo := newFakeMarketRepo()
	repo.markets["mkt-1"] = &Market{ID: "mkt-1", GroupID: "grp-1", Status: StatusOpen}
	roles := newFakeRoles()
	roles.set("grp-1", "user-1", group.RoleMember)

	svc := NewService(repo, roles)
	_, err := svc.CreateSubMarket(context.Background(), "user-1", CreateSubMarketInput{
		MarketID: "mkt-1",
		Title:    "Winner",
		ClosesAt: time.Now().Add(time.Hour),
	})
	if !errors.Is(err, ErrNoOptions) {
		t.Fatalf("expected ErrNoOptions, got %v", err)
	}
}

func TestCreateSubMarketInvalidOdds(t *testing.T) {
	repo := newFakeMarketRepo()
	repo.markets["mkt-1"] = &Market{ID: "mkt-1", GroupID: "grp-1", Status: StatusOpen}
	roles := newFakeRoles()
	roles.set("grp-1", "user-1", group.RoleMember)

	svc := NewService(repo, roles)
	_, err := svc.CreateSubMarket(context.Background(), "user-1", CreateSubMarketInput{
		MarketID: "mkt-1",
		Title:    "Winner",
		ClosesAt: time.Now().Add(time.Hour),
		Options:  []OptionInput{{Label: "Team A", Odds: 0.5}},
	})
	if !errors.Is(err, ErrInvalidOdds) {
		t.Fatalf("expected ErrInvalidOdds, got %v", err)
	}
}

func TestCreateSubMarketUnderSettledMarket(t *testing.T) {
	repo := newFakeMarketRepo()
	repo.markets["mkt-1"] = &Market{ID: "mkt-1", GroupID: "grp-1", Status: StatusSettled}
	roles := newFakeRoles()
	roles.set("grp-1", "user-1", group.RoleMember)

	svc := NewService(repo, roles)
	_, err := svc.CreateSubMarket(context.Background(), "user-1", CreateSubMarketInput{
		MarketID: "mkt-1",
		Title:    "Winner",
		ClosesAt: time.Now().Add(time.Hour),
		Options:  []OptionInput{{Label: "Team A", Odds: 1.5}},
	})
	if !errors.Is(err, ErrMarketSettled) {
		t.Fatalf("expected ErrMarketSettled, got %v", err)
	}
}

func TestEditSubMarketOptionDiff(t *testing.T) {
	repo := newFakeMarketRepo()
	seedSubMarket(repo, StatusOpen, time.Now().Add(time.Hour))
	roles := newFakeRoles()
	roles.set("grp-1", "admin", group.RoleAdmin)

	svc := NewService(repo, roles)
	updated, err := svc.EditSubMarket(context.Background(), "admin", "sub-1", EditSubMarketInput{
		Title:    "Winner v2",
		ClosesAt: time.Now().Add(2 * time.Hour),
		Options: []OptionInput{
			{ID: "opt-a", Label: "Team A", Odds: 2.1},
			{Label: "Draw", Odds: 3.0},
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Title != "Winner v2" {
		t.Fatalf("expected title updated, got %q", updated.Title)
	}
	if len(updated.Options) != 2 {
		t.Fatalf("expected 2 options after diff, got %d", len(updated.Options))
	}
	if repo.options["opt-a"].Odds != 2.1 {
		t.Fatalf("expected opt-a odds updated, got %v", repo.options["opt-a"].Odds)
	}
	if _, ok := repo.options["opt-b"]; ok {
		t.Fatalf("expected omitted opt-b deleted")
	}
	if len(repo.deletedOptionIDs) != 1 || repo.deletedOptionIDs[0] != "opt-b" {
		t.Fatalf("expected opt-b routed through DeleteOptions, got %v", repo.deletedOptionIDs)
	}
}

func TestEditSubMarketUnknownOptionID(t *testing.T) {
	repo := newFakeMarketRepo()
	seedSubMarket(repo, StatusOpen, time.Now().Add(time.Hour))
	roles := newFakeRoles()
	roles.set("grp-1", "admin", group.RoleAdmin)

	svc := NewService(repo, roles)
	_, err := svc.EditSubMarket(context.Background(), "admin", "sub-1", EditSubMarketInput{
		Title:    "Winner",
		ClosesAt: time.Now().Add(time.Hour),
		Options:  []OptionInput{{ID: "opt-ghost", Label: "Ghost", Odds: 2.0}},
	})
	if !errors.Is(err, ErrOptionNotFound) {
		t.Fatalf("expected ErrOptionNotFound, got %v", err)
	}
}

func TestEditSubMarketAfterSettled(t *testing.T) {
	repo := newFakeMarketRepo()
	seedSubMarket(repo, StatusSettled, time.Now().Add(time.Hour))
	roles := newFakeRoles()
	roles.set("grp-1", "admin", group.RoleAdmin)

	svc := NewService(repo, roles)
	_, err := svc.EditSubMarket(context.Background(), "admin", "sub-1", EditSubMarketInput{
		Title:    "Winner",
		ClosesAt: time.Now().Add(time.Hour),
		Options:  []OptionInput{{ID: "opt-a", Label: "Team A", Odds: 1.8}},
	})
	if !errors.Is(err, ErrMarketSettled) {
		t.Fatalf("expected ErrMarketSettled, got %v", err)
	}
}

func TestEditSubMarketNotAdmin(t *testing.T) {
	repo := newFakeMarketRepo()
	seedSubMarket(repo, StatusOpen, time.Now().Add(time.Hour))
	roles := newFakeRoles()
	roles.set("grp-1", "user-1", group.RoleMember)

	svc := NewService(repo, roles)
	_, err := svc.EditSubMarket(context.Background(), "user-1", "sub-1", EditSubMarketInput{
		Title:    "Winner",
		ClosesAt: time.Now().Add(time.Hour),
		Options:  []OptionInput{{ID: "opt-a", Label: "Team A", Odds: 1.8}},
	})
	if !errors.Is(err, group.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
}

func TestEditSubMarketPastCloseStillAllowed(t *testing.T) {
	repo := newFakeMarketRepo()
	seedSubMarket(repo, StatusOpen, time.Now().Add(-time.Hour))
	roles := newFakeRoles()
	roles.set("grp-1", "admin", group.RoleAdmin)

	svc := NewService(repo, roles)
	_, err := svc.EditSubMarket(context.Background(), "admin", "sub-1", EditSubMarketInput{
		Title:    "Winner",
		ClosesAt: time.Now().Add(time.Hour),
		Options: []OptionInput{
			{ID: "opt-a", Label: "Team A", Odds: 1.8},
			{ID: "opt-b", Label: "Team B", Odds: 2.5},
		},
	})
	if err != nil {
		t.Fatalf("expected edit past close time to succeed, got %v", err)
	}
}

func TestDeleteSubMarketSettled(t *testing.T) {
	repo := newFakeMarketRepo()
	seedSubMarket(repo, StatusSettled, time.Now().Add(time.Hour))
	roles := newFakeRoles()
	roles.set("grp-1", "admin", group.RoleAdmin)

	svc := NewService(repo, roles)
	err := svc.DeleteSubMarket(context.Background(), "admin", "sub-1")
	if !errors.Is(err, ErrMarketSettled) {
		t.Fatalf("expected ErrMarketSettled, got %v", err)
	}
}

func TestDeleteSubMarketSuccess(t *testing.T) {
	repo := newFakeMarketRepo()
	seedSubMarket(repo, StatusOpen, time.Now().Add(time.Hour))
	roles := newFakeRoles()
	roles.set("grp-1", "admin", group.RoleAdmin)

	svc := NewService(repo, roles)
	if err := svc.DeleteSubMarket(context.Background(), "admin", "sub-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := repo.subMarkets["sub-1"]; ok {
		t.Fatalf("expected sub-market removed")
	}
	if len(repo.options) != 0 {
		t.Fatalf("expected options removed, got %d", len(repo.options))
	}
}

func TestClosedPredicate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		status   string
		closesAt time.Time
		want     bool
	}{
		{"open before close", StatusOpen, now.Add(time.Minute), false},
		{"open at close", StatusOpen, now, false},
		{"open past close", StatusOpen, now.Add(-time.Minute), true},
		{"closed status", StatusClosed, now.Add(time.Hour), true},
		{"settled status", StatusSettled, now.Add(time.Hour), true},
	}
	for _, tc := range cases {
		if got := Closed(tc.status, tc.closesAt, now); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
