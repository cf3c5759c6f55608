package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	groupdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/group"
	"github.com/Alpayozd/intern-betting-app-sub000/internal/transport/httpserver/middleware"
)

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type joinGroupRequest struct {
	Code string `json:"code"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

type groupResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	InviteCode  string    `json:"invite_code"`
	CreatorID   string    `json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type memberResponse struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type leaderboardEntryResponse struct {
	Rank          int     `json:"rank"`
	UserID        string  `json:"user_id"`
	Name          string  `json:"name"`
	TotalPoints   float64 `json:"total_points"`
	IsCurrentUser bool    `json:"is_current_user"`
}

func (h *Handlers) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	created, err := h.Groups.CreateGroup(r.Context(), user.ID, req.Name, req.Description)
	if err != nil {
		h.log.InternalError("groups.create: create group failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toGroupResponse(created))
}

func (h *Handlers) JoinGroup(w http.ResponseWriter, r *http.Request) {
	var req joinGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	joined, err := h.Groups.JoinGroup(r.Context(), user.ID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, groupdomain.ErrInviteCodeNotFound):
			h.log.BusinessError("groups.join: invite code not found", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "invite_code_not_found", "invite code not found")
		case errors.Is(err, groupdomain.ErrAlreadyMember):
			h.log.BusinessError("groups.join: already a member", err, "user_id", user.ID)
			writeError(w, http.StatusConflict, "already_member", "already a member of this group")
		default:
			h.log.InternalError("groups.join: join group failed", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toGroupResponse(joined))
}

func (h *Handlers) GetGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	found, err := h.Groups.GetGroup(r.Context(), groupID, user.ID)
	if err != nil {
		h.writeGroupError(w, "groups.get", err, user.ID, groupID)
		return
	}

	writeJSON(w, http.StatusOK, toGroupResponse(found))
}

func (h *Handlers) ListGroupMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	members, err := h.Groups.ListMembers(r.Context(), groupID, user.ID)
	if err != nil {
		h.writeGroupError(w, "groups.list_members", err, user.ID, groupID)
		return
	}

	response := make([]memberResponse, 0, len(members))
	for _, member := range members {
		response = append(response, memberResponse{
			UserID:   member.UserID,
			Name:     member.Name,
			Email:    member.Email,
			Role:     member.Role,
			JoinedAt: member.JoinedAt,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) ChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	var req changeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")
	targetID := chi.URLParam(r, "user_id")

	err := h.Groups.ChangeMemberRole(r.Context(), user.ID, groupID, targetID, strings.ToUpper(strings.TrimSpace(req.Role)))
	if err != nil {
		switch {
		case errors.Is(err, groupdomain.ErrInvalidRole):
			writeError(w, http.StatusBadRequest, "invalid_request", "role must be ADMIN or MEMBER")
		case errors.Is(err, groupdomain.ErrLastAdmin):
			h.log.BusinessError("groups.change_role: last admin", err, "group_id", groupID, "target_id", targetID)
			writeError(w, http.StatusConflict, "last_admin", "group must keep at least one admin")
		default:
			h.writeGroupError(w, "groups.change_role", err, user.ID, groupID)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "role updated"})
}

func (h *Handlers) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")
	targetID := chi.URLParam(r, "user_id")

	err := h.Groups.RemoveMember(r.Context(), user.ID, groupID, targetID)
	if err != nil {
		if errors.Is(err, groupdomain.ErrLastAdmin) {
			h.log.BusinessError("groups.remove_member: last admin", err, "group_id", groupID, "target_id", targetID)
			writeError(w, http.StatusConflict, "last_admin", "group must keep at least one admin")
			return
		}
		h.writeGroupError(w, "groups.remove_member", err, user.ID, groupID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Leaderboard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	if _, err := h.Groups.MemberRole(r.Context(), groupID, user.ID); err != nil {
		h.writeGroupError(w, "groups.leaderboard", err, user.ID, groupID)
		return
	}

	entries, err := h.Ledger.Leaderboard(r.Context(), groupID, user.ID)
	if err != nil {
		h.log.InternalError("groups.leaderboard: query failed", err, "group_id", groupID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]leaderboardEntryResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, leaderboardEntryResponse{
			Rank:          entry.Rank,
			UserID:        entry.UserID,
			Name:          entry.Name,
			TotalPoints:   entry.TotalPoints,
			IsCurrentUser: entry.IsCurrentUser,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) GroupMyBets(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	myBets, err := h.Bets.MyBetsByGroup(r.Context(), groupID, user.ID)
	if err != nil {
		h.writeGroupError(w, "groups.my_bets", err, user.ID, groupID)
		return
	}

	writeJSON(w, http.StatusOK, toMyBetsResponse(myBets))
}

// writeGroupError maps the shared group/membership failures.
func (h *Handlers) writeGroupError(w http.ResponseWriter, operation string, err error, userID, groupID string) {
	switch {
	case errors.Is(err, groupdomain.ErrGroupNotFound):
		h.log.BusinessError(operation+": group not found", err, "user_id", userID, "group_id", groupID)
		writeError(w, http.StatusNotFound, "group_not_found", "group not found")
	case errors.Is(err, groupdomain.ErrMemberNotFound):
		h.log.BusinessError(operation+": member not found", err, "user_id", userID, "group_id", groupID)
		writeError(w, http.StatusNotFound, "member_not_found", "member not found")
	case errors.Is(err, groupdomain.ErrNotAMember):
		h.log.BusinessError(operation+": not a member", err, "user_id", userID, "group_id", groupID)
		writeError(w, http.StatusForbidden, "not_a_member", "not a member of this group")
	case errors.Is(err, groupdomain.ErrNotAdmin):
		h.log.BusinessError(operation+": admin required", err, "user_id", userID, "group_id", groupID)
		writeError(w, http.StatusForbidden, "not_admin", "admin role required")
	default:
		h.log.InternalError(operation+": failed", err, "user_id", userID, "group_id", groupID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func toGroupResponse(g *groupdomain.Group) groupResponse {
	return groupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		InviteCode:  g.InviteCode,
		CreatorID:   g.CreatorID,
		CreatedAt:   g.CreatedAt,
	}
}
