package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	betdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/bet"
	groupdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/group"
	marketdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/market"
	"github.com/Alpayozd/intern-betting-app-sub000/internal/transport/httpserver/middleware"
)

type optionRequest struct {
	ID    string  `json:"id,omitempty"`
	Label string  `json:"label"`
	Odds  float64 `json:"odds"`
}

type createMarketRequest struct {
	GroupID     string          `json:"group_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ClosesAt    time.Time       `json:"closes_at"`
	Options     []optionRequest `json:"options,omitempty"`
}

type editMarketRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ClosesAt    time.Time       `json:"closes_at"`
	Options     []optionRequest `json:"options"`
}

type settleMarketRequest struct {
	WinningOptionID string `json:"winning_option_id"`
}

type optionResponse struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Odds     float64 `json:"odds"`
	BetCount *int64  `json:"bet_count,omitempty"`
}

type marketResponse struct {
	ID          string               `json:"id"`
	GroupID     string               `json:"group_id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      string               `json:"status"`
	Closed      bool                 `json:"closed"`
	ClosesAt    time.Time            `json:"closes_at"`
	CreatorID   string               `json:"creator_id"`
	Options     []optionResponse     `json:"options,omitempty"`
	SubMarkets  []subMarketResponse  `json:"sub_markets,omitempty"`
}

type settlementResponse struct {
	SettledBy    string    `json:"settled_by"`
	SettledAt    time.Time `json:"settled_at"`
	WinnersCount int       `json:"winners_count"`
	CreditedBets int       `json:"credited_bets"`
	TotalPaidOut float64   `json:"total_paid_out"`
}

func (h *Handlers) CreateMarket(w http.ResponseWriter, r *http.Request) {
	var req createMarketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.GroupID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "group_id is required")
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

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	created, err := h.Markets.CreateMarket(r.Context(), user.ID, marketdomain.CreateMarketInput{
		GroupID:     req.GroupID,
		Title:       req.Title,
		Description: req.Description,
		ClosesAt:    req.ClosesAt,
		Options:     toOptionInputs(req.Options),
	})
	if err != nil {
		h.writeMarketError(w, "markets.create", err, user.ID)
		return
	}

	writeJSON(w, http.StatusCreated, h.toMarketResponse(created))
}

func (h *Handlers) GetMarket(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	marketID := chi.URLParam(r, "market_id")

	found, err := h.Markets.GetMarket(r.Context(), marketID, user.ID)
	if err != nil {
		h.writeMarketError(w, "markets.get", err, user.ID)
		return
	}

	writeJSON(w, http.StatusOK, h.toMarketResponse(found))
}

func (h *Handlers) EditMarket(w http.ResponseWriter, r *http.Request) {
	var req editMarketRequest
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
	marketID := chi.URLParam(r, "market_id")

	updated, err := h.Markets.EditMarket(r.Context(), user.ID, marketID, marketdomain.EditMarketInput{
		Title:       req.Title,
		Description: req.Description,
		ClosesAt:    req.ClosesAt,
		Options:     toOptionInputs(req.Options),
	})
	if err != nil {
		h.writeMarketError(w, "markets.edit", err, user.ID)
		return
	}

	writeJSON(w, http.StatusOK, h.toMarketResponse(updated))
}

func (h *Handlers) DeleteMarket(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	marketID := chi.URLParam(r, "market_id")

	if err := h.Markets.DeleteMarket(r.Context(), user.ID, marketID); err != nil {
		h.writeMarketError(w, "markets.delete", err, user.ID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SettleMarket is the legacy single-winner settlement for markets that
// own their options directly.
func (h *Handlers) SettleMarket(w http.ResponseWriter, r *http.Request) {
	var req settleMarketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.WinningOptionID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "winning_option_id is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	marketID := chi.URLParam(r, "market_id")

	result, err := h.Bets.SettleMarket(r.Context(), marketID, user.ID, req.WinningOptionID)
	if err != nil {
		h.writeMarketError(w, "markets.settle", err, user.ID)
		return
	}

	writeJSON(w, http.StatusOK, toSettlementResponse(result))
}

// writeMarketError maps market, betting and membership failures shared by
// the market and sub-market endpoints.
func (h *Handlers) writeMarketError(w http.ResponseWriter, operation string, err error, userID string) {
	switch {
	case errors.Is(err, marketdomain.ErrMarketNotFound):
		h.log.BusinessError(operation+": market not found", err, "user_id", userID)
		writeError(w, http.StatusNotFound, "market_not_found", "market not found")
	case errors.Is(err, marketdomain.ErrSubMarketNotFound):
		h.log.BusinessError(operation+": sub-market not found", err, "user_id", userID)
		writeError(w, http.StatusNotFound, "sub_market_not_found", "sub-market not found")
	case errors.Is(err, marketdomain.ErrOptionNotFound):
		h.log.BusinessError(operation+": option not found", err, "user_id", userID)
		writeError(w, http.StatusNotFound, "option_not_found", "option not found")
	case errors.Is(err, marketdomain.ErrMarketSettled):
		h.log.BusinessError(operation+": market settled", err, "user_id", userID)
		writeError(w, http.StatusConflict, "market_settled", "market already settled")
	case errors.Is(err, marketdomain.ErrInvalidOdds):
		writeError(w, http.StatusBadRequest, "invalid_request", "odds must be at least 1")
	case errors.Is(err, marketdomain.ErrNoOptions):
		writeError(w, http.StatusBadRequest, "invalid_request", "at least one option is required")
	case errors.Is(err, betdomain.ErrMarketClosed):
		h.log.BusinessError(operation+": market closed", err, "user_id", userID)
		writeError(w, http.StatusConflict, "market_closed", "market is closed for betting")
	case errors.Is(err, betdomain.ErrInvalidStake):
		writeError(w, http.StatusBadRequest, "invalid_request", "stake must be a positive number of points")
	case errors.Is(err, betdomain.ErrInsufficientPoints):
		h.log.BusinessError(operation+": insufficient points", err, "user_id", userID)
		writeError(w, http.StatusConflict, "insufficient_points", "insufficient points")
	case errors.Is(err, betdomain.ErrAlreadySettled):
		h.log.BusinessError(operation+": already settled", err, "user_id", userID)
		writeError(w, http.StatusConflict, "already_settled", "already settled")
	case errors.Is(err, betdomain.ErrInvalidWinningOptions):
		writeError(w, http.StatusBadRequest, "invalid_request", "winning options must be a non-empty subset of the market's options")
	case errors.Is(err, groupdomain.ErrNotAMember):
		h.log.BusinessError(operation+": not a member", err, "user_id", userID)
		writeError(w, http.StatusForbidden, "not_a_member", "not a member of this group")
	case errors.Is(err, groupdomain.ErrNotAdmin):
		h.log.BusinessError(operation+": admin required", err, "user_id", userID)
		writeError(w, http.StatusForbidden, "not_admin", "admin role required")
	default:
		h.log.InternalError(operation+": failed", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func (h *Handlers) toMarketResponse(m *marketdomain.Market) marketResponse {
	response := marketResponse{
		ID:          m.ID,
		GroupID:     m.GroupID,
		Title:       m.Title,
		Description: m.Description,
		Status:      m.Status,
		Closed:      marketdomain.Closed(m.Status, m.ClosesAt, time.Now().UTC()),
		ClosesAt:    m.ClosesAt,
		CreatorID:   m.CreatorID,
		Options:     toOptionResponses(m.Options, nil),
	}
	for i := range m.SubMarkets {
		response.SubMarkets = append(response.SubMarkets, h.toSubMarketResponse(&m.SubMarkets[i], nil))
	}
	return response
}

func toOptionInputs(options []optionRequest) []marketdomain.OptionInput {
	inputs := make([]marketdomain.OptionInput, 0, len(options))
	for _, option := range options {
		inputs = append(inputs, marketdomain.OptionInput{
			ID:    option.ID,
			Label: option.Label,
			Odds:  option.Odds,
		})
	}
	return inputs
}

// toOptionResponses renders options; counts are included only when the
// caller is a group admin (counts == nil strips them).
func toOptionResponses(options []marketdomain.Option, counts map[string]int64) []optionResponse {
	responses := make([]optionResponse, 0, len(options))
	for _, option := range options {
		item := optionResponse{
			ID:    option.ID,
			Label: option.Label,
			Odds:  option.Odds,
		}
		if counts != nil {
			count := counts[option.ID]
			item.BetCount = &count
		}
		responses = append(responses, item)
	}
	return responses
}

func toSettlementResponse(result *betdomain.SettlementResult) settlementResponse {
	return settlementResponse{
		SettledBy:    result.Settlement.SettledByUserID,
		SettledAt:    result.Settlement.SettledAt,
		WinnersCount: result.WinnersCount,
		CreditedBets: result.CreditedBets,
		TotalPaidOut: result.TotalPaidOut,
	}
}
