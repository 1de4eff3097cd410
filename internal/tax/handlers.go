package tax

import (
	"errors"
	"net/http"

	"github.com/luvbricks/backend-store/internal/common"
)

// Handler serves the ZIP-to-tax-rate lookup used by the cart estimate.
type Handler struct{}

// Zip resolves ?zip=NNNNN to a state and its base tax rate.
func (h *Handler) Zip(w http.ResponseWriter, r *http.Request) {
	zip := r.URL.Query().Get("zip")
	state, err := StateForZip(zip)
	if err != nil {
		if errors.Is(err, ErrInvalidZip) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid zip", nil)
			return
		}
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "zip not found", nil)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"zip":   zip,
		"state": state,
		"rate":  RateForState(state),
	}})
}
