package rewards

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/luvbricks/backend-store/internal/common"
)

// Handler wires reward services to HTTP.
type Handler struct {
	Svc *Service
}

// Award applies a catalogued action for the authenticated user.
func (h *Handler) Award(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rewards service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload struct {
		Action   string `json:"action"`
		SourceID string `json:"sourceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	payload.Action = strings.TrimSpace(payload.Action)
	if payload.Action == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "action is required", nil)
		return
	}
	result, err := h.Svc.Award(r.Context(), userID, payload.Action, payload.SourceID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Status lists the actions the user has already completed.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rewards service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"completed": []string{}}})
		return
	}
	completed, err := h.Svc.Completed(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if completed == nil {
		completed = []string{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"completed": completed}})
}

// Balance returns the user's current point balance.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rewards service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	balance, err := h.Svc.Balance(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"points": balance}})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownAction):
		common.JSONError(w, http.StatusBadRequest, "UNKNOWN_ACTION", err.Error(), nil)
	case errors.Is(err, ErrMissingSourceID):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrCooldown):
		common.JSONError(w, http.StatusTooManyRequests, "COOLDOWN", "try again later", nil)
	case errors.Is(err, ErrEntryNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
