package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/luvbricks/backend-store/internal/common"
	"github.com/luvbricks/backend-store/internal/pricing"
)

// Handler serves the public catalog endpoints.
type Handler struct {
	Svc *Service
}

// List pages the catalog with optional tier and theme filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		Theme: q.Get("theme"),
	}
	if v := q.Get("limit"); v != "" {
		params.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		params.Offset, _ = strconv.Atoi(v)
	}
	if v := q.Get("tier"); v != "" {
		tier, err := strconv.Atoi(v)
		if err != nil || tier < 1 || tier > pricing.TierCount {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "tier must be 1-5", nil)
			return
		}
		params.Tier = tier
	}

	products, err := h.Svc.List(r.Context(), params)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": products})
}

// Get returns one product by slug.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.Svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": product})
}

// Tiers describes the price tiers and their discount ladder.
func (h *Handler) Tiers(w http.ResponseWriter, r *http.Request) {
	table := pricing.DefaultDiscountTable()
	type tierInfo struct {
		Tier    int    `json:"tier"`
		Range   string `json:"range"`
		Buy3Pct int    `json:"buy3Pct"`
		Buy4Pct int    `json:"buy4Pct"`
		Buy5Pct int    `json:"buy5PlusPct"`
	}
	tiers := make([]tierInfo, 0, pricing.TierCount)
	for t := 1; t <= pricing.TierCount; t++ {
		rates := table[t-1]
		tiers = append(tiers, tierInfo{
			Tier:    t,
			Range:   h.Svc.Tiers.RangeLabel(pricing.Tier(t)),
			Buy3Pct: rates.Buy3,
			Buy4Pct: rates.Buy4,
			Buy5Pct: rates.Buy5Plus,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": tiers})
}
