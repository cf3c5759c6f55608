//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Alpayozd/intern-betting-app-sub000/internal/config"
	"github.com/Alpayozd/intern-betting-app-sub000/internal/db"
	betdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/bet"
	groupdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/group"
	ledgerdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/ledger"
	marketdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/market"
	userdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/user"
	betrepo "github.com/Alpayozd/intern-betting-app-sub000/internal/repository/postgres/bet"
	grouprepo "github.com/Alpayozd/intern-betting-app-sub000/internal/repository/postgres/group"
	ledgerrepo "github.com/Alpayozd/intern-betting-app-sub000/internal/repository/postgres/ledger"
	marketrepo "github.com/Alpayozd/intern-betting-app-sub000/internal/repository/postgres/market"
	userrepo "github.com/Alpayozd/intern-betting-app-sub000/internal/repository/postgres/user"
	"github.com/Alpayozd/intern-betting-app-sub000/internal/transport/httpserver"
	"github.com/Alpayozd/intern-betting-app-sub000/internal/transport/httpserver/handler"
	"github.com/Alpayozd/intern-betting-app-sub000/pkg/logger"
)

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
}

func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("E2E_DB_DSN")
	if dsn == "" {
		t.Skip("E2E_DB_DSN not set; skipping e2e tests")
	}

	log := logger.New(io.Discard, 0, "json")

	cfg := config.Config{
		DB:      config.DBConfig{DSN: dsn},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		Auth:    config.AuthConfig{TokenTTL: time.Hour},
		Betting: config.BettingConfig{InitialPoints: 1000},
	}

	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}

	if err := db.Migrate(dbConn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if err := cleanDB(dbConn); err != nil {
		t.Fatalf("clean db: %v", err)
	}

	users := userdomain.NewService(userrepo.NewPostgres(dbConn), cfg.Auth.TokenTTL)
	scores := ledgerdomain.NewService(ledgerrepo.NewPostgres(dbConn), cfg.Betting.InitialPoints)
	groups := groupdomain.NewService(grouprepo.NewPostgres(dbConn), scores)
	markets := marketdomain.NewService(marketrepo.NewPostgres(dbConn), groups)
	bets := betdomain.NewService(betrepo.NewPostgres(dbConn), cfg.Betting.InitialPoints)

	handlers := handler.New(users, groups, scores, markets, bets, log)
	router := httpserver.NewRouter(cfg, handlers, users, log)
	server := httptest.NewServer(router)

	return &testEnv{server: server, db: dbConn}
}

func (e *testEnv) Close() {
	e.server.Close()
	sqlDB, err := e.db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

func cleanDB(dbConn *gorm.DB) error {
	return dbConn.WithContext(context.Background()).Exec(
		"TRUNCATE TABLE settlement_winners, settlements, selections, options, sub_markets, markets, scores, memberships, groups, auth_tokens, users RESTART IDENTITY CASCADE",
	).Error
}

func requestJSON(t *testing.T, client *http.Client, method, url, token string, payload interface{}) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	return resp, respBody
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type groupResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	InviteCode string `json:"invite_code"`
}

type optionResponse struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Odds     float64 `json:"odds"`
	BetCount *int64  `json:"bet_count"`
}

type marketResponse struct {
	ID      string `json:"id"`
	GroupID string `json:"group_id"`
	Status  string `json:"status"`
}

type subMarketResponse struct {
	ID       string           `json:"id"`
	MarketID string           `json:"market_id"`
	Status   string           `json:"status"`
	Closed   bool             `json:"closed"`
	Options  []optionResponse `json:"options"`
}

type selectionResponse struct {
	ID                    string  `json:"id"`
	PotentialPayoutPoints float64 `json:"potential_payout_points"`
}

type settlementResponse struct {
	WinnersCount int     `json:"winners_count"`
	CreditedBets int     `json:"credited_bets"`
	TotalPaidOut float64 `json:"total_paid_out"`
}

type leaderboardEntryResponse struct {
	Rank          int     `json:"rank"`
	UserID        string  `json:"user_id"`
	TotalPoints   float64 `json:"total_points"`
	IsCurrentUser bool    `json:"is_current_user"`
}

type myBetsResponse struct {
	Bets                 []json.RawMessage `json:"bets"`
	TotalStake           int               `json:"total_stake"`
	TotalPotentialPayout float64           `json:"total_potential_payout"`
	Balance              float64           `json:"balance"`
}

func registerAndLogin(t *testing.T, client *http.Client, baseURL, name, email string) (string, string) {
	t.Helper()

	resp, body := requestJSON(t, client, http.MethodPost, baseURL+"/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret-password",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", email, resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPost, baseURL+"/api/auth/login", "", map[string]string{
		"email": email, "password": "secret-password",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, resp.StatusCode, string(body))
	}
	var login loginResponse
	if err := json.Unmarshal(body, &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return login.Token, login.User.ID
}

func TestE2EBettingFlow(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	base := env.server.URL

	adminToken, adminID := registerAndLogin(t, client, base, "Admin", "admin@example.com")
	memberToken, memberID := registerAndLogin(t, client, base, "Member", "member@example.com")

	// Admin creates a group; member joins via invite code.
	resp, body := requestJSON(t, client, http.MethodPost, base+"/api/groups", adminToken, map[string]string{
		"name": "Office Pool",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create group: expected 201, got %d: %s", resp.StatusCode, string(body))
	}
	var grp groupResponse
	if err := json.Unmarshal(body, &grp); err != nil {
		t.Fatalf("decode group: %v", err)
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/groups/join", memberToken, map[string]string{
		"code": grp.InviteCode,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join group: expected 200, got %d: %s", resp.StatusCode, string(body))
	}

	// Market and sub-market.
	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/bet-markets", adminToken, map[string]interface{}{
		"group_id":  grp.ID,
		"title":     "Finals",
		"closes_at": time.Now().Add(24 * time.Hour).UTC(),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create market: expected 201, got %d: %s", resp.StatusCode, string(body))
	}
	var mkt marketResponse
	if err := json.Unmarshal(body, &mkt); err != nil {
		t.Fatalf("decode market: %v", err)
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/bet-sub-markets", adminToken, map[string]interface{}{
		"market_id": mkt.ID,
		"title":     "Match Winner",
		"closes_at": time.Now().Add(24 * time.Hour).UTC(),
		"options": []map[string]interface{}{
			{"label": "Team A", "odds": 1.8},
			{"label": "Team B", "odds": 2.5},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create sub-market: expected 201, got %d: %s", resp.StatusCode, string(body))
	}
	var sub subMarketResponse
	if err := json.Unmarshal(body, &sub); err != nil {
		t.Fatalf("decode sub-market: %v", err)
	}
	if len(sub.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(sub.Options))
	}
	teamA := sub.Options[0]
	if teamA.Label != "Team A" {
		teamA = sub.Options[1]
	}

	// Member stakes 100 at 1.8.
	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/bet-selections", memberToken, map[string]interface{}{
		"sub_market_id": sub.ID,
		"option_id":     teamA.ID,
		"stake_points":  100,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place stake: expected 201, got %d: %s", resp.StatusCode, string(body))
	}
	var placed selectionResponse
	if err := json.Unmarshal(body, &placed); err != nil {
		t.Fatalf("decode selection: %v", err)
	}
	if math.Abs(placed.PotentialPayoutPoints-180) > 1e-9 {
		t.Fatalf("expected frozen payout 180, got %v", placed.PotentialPayoutPoints)
	}

	// Overdraw is rejected.
	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/bet-selections", memberToken, map[string]interface{}{
		"sub_market_id": sub.ID,
		"option_id":     teamA.ID,
		"stake_points":  100000,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("overdraw: expected 409, got %d: %s", resp.StatusCode, string(body))
	}
	var errResp errorEnvelope
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Error.Code != "insufficient_points" {
		t.Fatalf("expected insufficient_points, got %q", errResp.Error.Code)
	}

	// Admin sees bet counts; member does not.
	resp, body = requestJSON(t, client, http.MethodGet, base+"/api/bet-sub-markets/"+sub.ID, adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get sub-market: expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var adminView subMarketResponse
	if err := json.Unmarshal(body, &adminView); err != nil {
		t.Fatalf("decode sub-market: %v", err)
	}
	for _, option := range adminView.Options {
		if option.BetCount == nil {
			t.Fatalf("expected bet counts for admin, got %s", string(body))
		}
	}

	resp, body = requestJSON(t, client, http.MethodGet, base+"/api/bet-sub-markets/"+sub.ID, memberToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get sub-market: expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var memberView subMarketResponse
	if err := json.Unmarshal(body, &memberView); err != nil {
		t.Fatalf("decode sub-market: %v", err)
	}
	for _, option := range memberView.Options {
		if option.BetCount != nil {
			t.Fatalf("expected no bet counts for member, got %s", string(body))
		}
	}

	// Member cannot settle; admin can, exactly once.
	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/bet-sub-markets/"+sub.ID+"/settle", memberToken, map[string]interface{}{
		"winning_option_ids": []string{teamA.ID},
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("member settle: expected 403, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/bet-sub-markets/"+sub.ID+"/settle", adminToken, map[string]interface{}{
		"winning_option_ids": []string{teamA.ID},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("settle: expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var settled settlementResponse
	if err := json.Unmarshal(body, &settled); err != nil {
		t.Fatalf("decode settlement: %v", err)
	}
	if settled.CreditedBets != 1 || math.Abs(settled.TotalPaidOut-180) > 1e-9 {
		t.Fatalf("expected one 180-point payout, got %+v", settled)
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/bet-sub-markets/"+sub.ID+"/settle", adminToken, map[string]interface{}{
		"winning_option_ids": []string{teamA.ID},
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second settle: expected 409, got %d: %s", resp.StatusCode, string(body))
	}

	// Leaderboard: member 1080, admin 1000.
	resp, body = requestJSON(t, client, http.MethodGet, base+"/api/groups/"+grp.ID+"/leaderboard", memberToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaderboard: expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var board []leaderboardEntryResponse
	if err := json.Unmarshal(body, &board); err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(board))
	}
	if board[0].UserID != memberID || math.Abs(board[0].TotalPoints-1080) > 1e-9 {
		t.Fatalf("expected member first with 1080, got %+v", board[0])
	}
	if !board[0].IsCurrentUser {
		t.Fatalf("expected current user flagged")
	}
	if board[1].UserID != adminID || math.Abs(board[1].TotalPoints-1000) > 1e-9 {
		t.Fatalf("expected admin second with 1000, got %+v", board[1])
	}

	// My bets across the group.
	resp, body = requestJSON(t, client, http.MethodGet, base+"/api/groups/"+grp.ID+"/my-bets", memberToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("my bets: expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var myBets myBetsResponse
	if err := json.Unmarshal(body, &myBets); err != nil {
		t.Fatalf("decode my bets: %v", err)
	}
	if len(myBets.Bets) != 1 || myBets.TotalStake != 100 {
		t.Fatalf("expected one 100-point bet, got %+v", myBets)
	}
	if math.Abs(myBets.Balance-1080) > 1e-9 {
		t.Fatalf("expected balance 1080, got %v", myBets.Balance)
	}
}

func TestE2EAuthRequired(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}

	resp, body := requestJSON(t, client, http.MethodGet, env.server.URL+"/api/auth/me", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", resp.StatusCode, string(body))
	}
	var errResp errorEnvelope
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Error.Code != "invalid_token" {
		t.Fatalf("expected invalid_token, got %q", errResp.Error.Code)
	}
}
