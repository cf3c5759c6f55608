package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	betdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/bet"
	groupdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/group"
	marketdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/market"
	"github.com/Alpayozd/intern-betting-app-sub000/internal/transport/httpserver/middleware"
)

type createSubMarketRequest struct {
	MarketID          string          `json:"market_id"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	ClosesAt          time.Time       `json:"closes_at"`
	AllowMultipleBets bool            `json:"allow_multiple_bets"`
	Options           []optionRequest `json:"options"`
}

type editSubMarketRequest struct {
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	ClosesAt          time.Time       `json:"closes_at"`
	AllowMultipleBets bool            `json:"allow_multiple_bets"`
	Options           []optionRequest `json:"options"`
}

type settleSubMarketRequest struct {
	WinningOptionIDs []string `json:"winning_option_ids"`
}

type subMarketResponse struct {
	ID                string           `json:"id"`
	MarketID          string           `json:"market_id"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	Status            string           `json:"status"`
	Closed            bool             `json:"closed"`
	ClosesAt          time.Time        `json:"closes_at"`
	AllowMultipleBets bool             `json:"allow_multiple_bets"`
	CreatorID         string           `json:"creator_id"`
	Options           []optionResponse `json:"options"`
}

type betDetailResponse struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"user_id"`
	UserName              string    `json:"user_name"`
	OptionID              string    `json:"option_id"`
	OptionLabel           string    `json:"option_label"`
	StakePoints           int       `json:"stake_points"`
	PotentialPayoutPoints float64   `json:"potential_payout_points"`
	CreatedAt             time.Time `json:"created_at"`
}

func (h *Handlers) CreateSubMarket(w http.ResponseWriter, r *http.Request) {
	var req createSubMarketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.MarketID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "market_id is required")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}
	if req.ClosesAt.IsZero() {
		writeError(w, http.StatusBadRequest, "invalid_request", "closes_at is required")
		return
	}
	if len(req.Options) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "at least one option is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	created, err := h.Markets.CreateSubMarket(r.Context(), user.ID, marketdomain.CreateSubMarketInput{
		MarketID:          req.MarketID,
		Title:             req.Title,
		Description:       req.Description,
		ClosesAt:          req.ClosesAt,
		AllowMultipleBets: req.AllowMultipleBets,
		Options:           toOptionInputs(req.Options),
	})
	if err != nil {
		h.writeMarketError(w, "sub_markets.create", err, user.ID)
		return
	}

	writeJSON(w, http.StatusCreated, h.toSubMarketResponse(created, nil))
}

// GetSubMarket returns the sub-market with options. Group admins also get
// per-option bet counts; members get the same payload with counts
// stripped.
func (h *Handlers) GetSubMarket(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	subMarketID := chi.URLParam(r, "sub_market_id")

	found, role, err := h.Markets.GetSubMarket(r.Context(), subMarketID, user.ID)
	if err != nil {
		h.writeMarketError(w, "sub_markets.get", err, user.ID)
		return
	}

	var counts map[string]int64
	if role == groupdomain.RoleAdmin {
		counts, err = h.Bets.OptionBetCounts(r.Context(), subMarketID)
		if err != nil {
			h.log.InternalError("sub_markets.get: count bets failed", err, "sub_market_id", subMarketID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}
	}

	writeJSON(w, http.StatusOK, h.toSubMarketResponse(found, counts))
}

func (h *Handlers) EditSubMarket(w http.ResponseWriter, r *http.Request) {
	var req editSubMarketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	subMarketID := chi.URLParam(r, "sub_market_id")

	updated, err := h.Markets.EditSubMarket(r.Context(), user.ID, subMarketID, marketdomain.EditSubMarketInput{
		Title:             req.Title,
		Description:       req.Description,
		ClosesAt:          req.ClosesAt,
		AllowMultipleBets: req.AllowMultipleBets,
		Options:           toOptionInputs(req.Options),
	})
	if err != nil {
		h.writeMarketError(w, "sub_markets.edit", err, user.ID)
		return
	}

	writeJSON(w, http.StatusOK, h.toSubMarketResponse(updated, nil))
}

func (h *Handlers) DeleteSubMarket(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	subMarketID := chi.URLParam(r, "sub_market_id")

	if err := h.Markets.DeleteSubMarket(r.Context(), user.ID, subMarketID); err != nil {
		h.writeMarketError(w, "sub_markets.delete", err, user.ID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SettleSubMarket(w http.ResponseWriter, r *http.Request) {
	var req settleSubMarketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if len(req.WinningOptionIDs) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "winning_option_ids is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	subMarketID := chi.URLParam(r, "sub_market_id")

	result, err := h.Bets.SettleSubMarket(r.Context(), subMarketID, user.ID, req.WinningOptionIDs)
	if err != nil {
		h.writeMarketError(w, "sub_markets.settle", err, user.ID)
		return
	}

	writeJSON(w, http.StatusOK, toSettlementResponse(result))
}

// ListSubMarketBets is the admin bet-detail view with bettor identities.
func (h *Handlers) ListSubMarketBets(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	subMarketID := chi.URLParam(r, "sub_market_id")

	details, err := h.Bets.ListBets(r.Context(), subMarketID, user.ID)
	if err != nil {
		h.writeMarketError(w, "sub_markets.bets", err, user.ID)
		return
	}

	response := make([]betDetailResponse, 0, len(details))
	for _, detail := range details {
		response = append(response, betDetailResponse{
			ID:                    detail.ID,
			UserID:                detail.UserID,
			UserName:              detail.UserName,
			OptionID:              detail.OptionID,
			OptionLabel:           detail.OptionLabel,
			StakePoints:           detail.StakePoints,
			PotentialPayoutPoints: detail.PotentialPayoutPoints,
			CreatedAt:             detail.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) SubMarketMyBets(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	subMarketID := chi.URLParam(r, "sub_market_id")

	myBets, err := h.Bets.MyBetsBySubMarket(r.Context(), subMarketID, user.ID)
	if err != nil {
		h.writeMarketError(w, "sub_markets.my_bets", err, user.ID)
		return
	}

	writeJSON(w, http.StatusOK, toMyBetsResponse(myBets))
}

func (h *Handlers) toSubMarketResponse(sm *marketdomain.SubMarket, counts map[string]int64) subMarketResponse {
	return subMarketResponse{
		ID:                sm.ID,
		MarketID:          sm.MarketID,
		Title:             sm.Title,
		Description:       sm.Description,
		Status:            sm.Status,
		Closed:            marketdomain.Closed(sm.Status, sm.ClosesAt, time.Now().UTC()),
		ClosesAt:          sm.ClosesAt,
		AllowMultipleBets: sm.AllowMultipleBets,
		CreatorID:         sm.CreatorID,
		Options:           toOptionResponses(sm.Options, counts),
	}
}

type myBetResponse struct {
	ID                    string    `json:"id"`
	OptionID              string    `json:"option_id"`
	OptionLabel           string    `json:"option_label"`
	Odds                  float64   `json:"odds"`
	SubMarketTitle        string    `json:"sub_market_title"`
	MarketID              string    `json:"market_id"`
	MarketTitle           string    `json:"market_title"`
	StakePoints           int       `json:"stake_points"`
	PotentialPayoutPoints float64   `json:"potential_payout_points"`
	CreatedAt             time.Time `json:"created_at"`
}

type myBetsResponse struct {
	Bets                 []myBetResponse `json:"bets"`
	TotalStake           int             `json:"total_stake"`
	TotalPotentialPayout float64         `json:"total_potential_payout"`
	Balance              float64         `json:"balance"`
}

func toMyBetsResponse(myBets *betdomain.MyBets) myBetsResponse {
	bets := make([]myBetResponse, 0, len(myBets.Selections))
	for _, selection := range myBets.Selections {
		bets = append(bets, myBetResponse{
			ID:                    selection.ID,
			OptionID:              selection.OptionID,
			OptionLabel:           selection.OptionLabel,
			Odds:                  selection.Odds,
			SubMarketTitle:        selection.SubMarketTitle,
			MarketID:              selection.MarketID,
			MarketTitle:           selection.MarketTitle,
			StakePoints:           selection.StakePoints,
			PotentialPayoutPoints: selection.PotentialPayoutPoints,
			CreatedAt:             selection.CreatedAt,
		})
	}
	return myBetsResponse{
		Bets:                 bets,
		TotalStake:           myBets.TotalStake,
		TotalPotentialPayout: myBets.TotalPotentialPayout,
		Balance:              myBets.Balance,
	}
}
