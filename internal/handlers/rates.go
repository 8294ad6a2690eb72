package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"planvest/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

func (h *Handler) AdminListRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.rates.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load rates")
		return
	}
	views := make([]map[string]any, 0, len(rates))
	for _, rate := range rates {
		views = append(views, map[string]any{
			"currency_code": rate.CurrencyCode,
			"rate":          rate.Rate.String(),
			"updated_at":    rate.UpdatedAt,
		})
	}
	respondJSON(w, http.StatusOK, views)
}

type upsertRateRequest struct {
	Rate string `json:"rate"`
}

func (h *Handler) AdminUpsertRate(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	code := strings.ToUpper(chi.URLParam(r, "code"))
	if code == "" || code == "USD" {
		respondError(w, http.StatusBadRequest, "currency code cannot be empty or USD")
		return
	}
	var req upsertRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil || rate.IsNegative() || rate.IsZero() {
		respondError(w, http.StatusBadRequest, "rate must be a positive number")
		return
	}
	if err := h.rates.Upsert(r.Context(), code, rate); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to store rate")
		return
	}
	if err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		data, _ := json.Marshal(map[string]string{"rate": rate.String()})
		return h.audit.Log(r.Context(), tx, adminID, "rate_upsert", "exchange_rate", code, string(data))
	}); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record audit entry")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"currency_code": code,
		"rate":          rate.String(),
	})
}

func (h *Handler) AdminRefreshRates(w http.ResponseWriter, r *http.Request) {
	if err := h.refresher.Refresh(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "rate refresh failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}
