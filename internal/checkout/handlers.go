package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/luvbricks/backend-store/internal/cart"
	"github.com/luvbricks/backend-store/internal/common"
	"github.com/luvbricks/backend-store/internal/pricing"
)

var validate = validator.New()

// Handler exposes quoting and order placement over HTTP.
type Handler struct {
	Svc *Service
}

// Quote prices a cart without side effects. Anonymous callers get a
// zero point balance; authenticated ones quote against their real one.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CartID          string `json:"cartId"`
		State           string `json:"state"`
		RequestedPoints int64  `json:"requestedPoints"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.CartID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cartId is required", nil)
		return
	}

	available := int64(0)
	if userID, ok := common.UserID(r.Context()); ok && userID != "" && payload.RequestedPoints > 0 {
		balance, err := h.Svc.Rewards.Balance(r.Context(), userID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		available = balance
	}

	totals, err := h.Svc.Quote(r.Context(), payload.CartID, payload.State, available, payload.RequestedPoints)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": totals})
}

// Place turns the cart into an order for the authenticated user.
func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload struct {
		CartID          string  `json:"cartId" validate:"required"`
		RequestedPoints int64   `json:"requestedPoints" validate:"gte=0"`
		ShipTo          Address `json:"shipTo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", map[string]any{"error": err.Error()})
		return
	}

	order, err := h.Svc.Place(r.Context(), userID, PlaceInput{
		CartID:          payload.CartID,
		RequestedPoints: payload.RequestedPoints,
		ShipTo:          payload.ShipTo,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": order})
}

// ListOrders returns the user's order history.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	orders, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": orders})
}

// GetOrder returns one order with its line items.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	order, err := h.Svc.Get(r.Context(), userID, chi.URLParam(r, "orderID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": order})
}

// Reorder rebuilds a new cart from one of the user's past orders.
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	c, err := h.Svc.Reorder(r.Context(), userID, chi.URLParam(r, "orderID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": c})
}

// GetShipTo returns the user's saved shipping address.
func (h *Handler) GetShipTo(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	addr, err := h.Svc.SavedShipTo(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": addr})
}

// PutShipTo saves the user's default shipping address.
func (h *Handler) PutShipTo(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var addr Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := validate.Struct(addr); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid address", map[string]any{"error": err.Error()})
		return
	}
	if err := h.Svc.SaveShipTo(r.Context(), userID, addr); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": addr})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, ErrOrderNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
	case errors.Is(err, ErrNoSavedAddress):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "no saved shipping address", nil)
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart has no items", nil)
	case errors.Is(err, ErrMissingAddress):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, pricing.ErrNegativePrice):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
