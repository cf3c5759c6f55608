package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/Alpayozd/intern-betting-app-sub000/internal/transport/httpserver/middleware"
)

type placeStakeRequest struct {
	SubMarketID string `json:"sub_market_id"`
	OptionID    string `json:"option_id"`
	StakePoints int    `json:"stake_points"`
}

type selectionResponse struct {
	ID                    string    `json:"id"`
	SubMarketID           string    `json:"sub_market_id"`
	OptionID              string    `json:"option_id"`
	StakePoints           int       `json:"stake_points"`
	PotentialPayoutPoints float64   `json:"potential_payout_points"`
	CreatedAt             time.Time `json:"created_at"`
}

func (h *Handlers) PlaceStake(w http.ResponseWriter, r *http.Request) {
	var req placeStakeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.SubMarketID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "sub_market_id is required")
		return
	}
	if strings.TrimSpace(req.OptionID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "option_id is required")
		return
	}
	if req.StakePoints <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "stake_points must be positive")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	placed, err := h.Bets.PlaceStake(r.Context(), req.SubMarketID, req.OptionID, user.ID, req.StakePoints)
	if err != nil {
		h.writeMarketError(w, "selections.place", err, user.ID)
		return
	}

	subMarketID := ""
	if placed.SubMarketID != nil {
		subMarketID = *placed.SubMarketID
	}
	writeJSON(w, http.StatusCreated, selectionResponse{
		ID:                    placed.ID,
		SubMarketID:           subMarketID,
		OptionID:              placed.OptionID,
		StakePoints:           placed.StakePoints,
		PotentialPayoutPoints: placed.PotentialPayoutPoints,
		CreatedAt:             placed.CreatedAt,
	})
}
