package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"planvest/internal/middleware"
	"planvest/internal/money"
	"planvest/internal/store"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type limitsPayload struct {
	MinAmount string `json:"min_amount"`
	MaxAmount string `json:"max_amount"`
}

func limitsView(limits store.Limits) map[string]any {
	return map[string]any{
		"min_amount": money.Format(limits.MinAmount),
		"max_amount": money.Format(limits.MaxAmount),
		"updated_at": limits.UpdatedAt,
	}
}

func parseLimits(payload limitsPayload) (min, max decimal.Decimal, err error) {
	min, err = decimal.NewFromString(payload.MinAmount)
	if err != nil || min.IsNegative() {
		return decimal.Zero, decimal.Zero, errors.New("invalid min amount")
	}
	max, err = decimal.NewFromString(payload.MaxAmount)
	if err != nil || max.LessThan(min) {
		return decimal.Zero, decimal.Zero, errors.New("invalid max amount")
	}
	return min, max, nil
}

func (h *Handler) AdminGetInvestmentSettings(w http.ResponseWriter, r *http.Request) {
	limits, err := h.settings.InvestmentLimits(r.Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondJSON(w, http.StatusOK, nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load settings")
		return
	}
	respondJSON(w, http.StatusOK, limitsView(limits))
}

func (h *Handler) AdminSetInvestmentSettings(w http.ResponseWriter, r *http.Request) {
	h.setLimits(w, r, "investment")
}

func (h *Handler) AdminGetWithdrawalSettings(w http.ResponseWriter, r *http.Request) {
	limits, err := h.settings.WithdrawalLimits(r.Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondJSON(w, http.StatusOK, nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load settings")
		return
	}
	respondJSON(w, http.StatusOK, limitsView(limits))
}

func (h *Handler) AdminSetWithdrawalSettings(w http.ResponseWriter, r *http.Request) {
	h.setLimits(w, r, "withdrawal")
}

// The limit rows are singletons; a fixed id keeps the upsert targeting
// the same row.
const limitsRowID = "default"

func (h *Handler) setLimits(w http.ResponseWriter, r *http.Request, kind string) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	var payload limitsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	min, max, err := parseLimits(payload)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if kind == "investment" {
			if err := h.settings.SetInvestmentLimits(r.Context(), tx, limitsRowID, min, max); err != nil {
				return err
			}
		} else {
			if err := h.settings.SetWithdrawalLimits(r.Context(), tx, limitsRowID, min, max); err != nil {
				return err
			}
		}
		data, _ := json.Marshal(map[string]string{
			"min_amount": money.Format(min),
			"max_amount": money.Format(max),
		})
		return h.audit.Log(r.Context(), tx, adminID, kind+"_limits_set", "settings", limitsRowID, string(data))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to store settings")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"min_amount": money.Format(min),
		"max_amount": money.Format(max),
	})
}
