package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"planvest/internal/middleware"
	"planvest/internal/money"
	"planvest/internal/services"
	"planvest/internal/store"

	"github.com/go-chi/chi/v5"
)

type createWithdrawalRequest struct {
	Amount string `json:"amount"`
}

func (h *Handler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	withdrawalID, err := h.withdrawSvc.Create(r.Context(), userID, req.Amount)
	if err != nil {
		respondWithdrawalError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"id":     withdrawalID,
		"status": "pending",
	})
}

func (h *Handler) ListMyWithdrawals(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	withdrawals, err := h.withdrawals.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load withdrawals")
		return
	}
	respondJSON(w, http.StatusOK, withdrawalViews(withdrawals))
}

func withdrawalViews(withdrawals []store.Withdrawal) []map[string]any {
	views := make([]map[string]any, 0, len(withdrawals))
	for _, withdrawal := range withdrawals {
		views = append(views, map[string]any{
			"id":           withdrawal.ID,
			"user_id":      withdrawal.UserID,
			"amount":       money.Format(withdrawal.Amount),
			"status":       withdrawal.Status,
			"requested_at": withdrawal.RequestedAt,
		})
	}
	return views
}

func (h *Handler) AdminListWithdrawals(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = "pending"
	}
	withdrawals, err := h.withdrawals.ListByStatus(r.Context(), status)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load withdrawals")
		return
	}
	respondJSON(w, http.StatusOK, withdrawalViews(withdrawals))
}

func (h *Handler) AdminApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	withdrawalID := chi.URLParam(r, "id")
	if err := h.withdrawSvc.Approve(r.Context(), adminID, withdrawalID); err != nil {
		respondWithdrawalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"id":     withdrawalID,
		"status": "approved",
	})
}

func (h *Handler) AdminRejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	withdrawalID := chi.URLParam(r, "id")
	if err := h.withdrawSvc.Reject(r.Context(), adminID, withdrawalID); err != nil {
		respondWithdrawalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"id":     withdrawalID,
		"status": "rejected",
	})
}

func respondWithdrawalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, "withdrawal not found")
	case errors.Is(err, services.ErrNotPending):
		respondError(w, http.StatusConflict, "withdrawal already processed")
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid amount")
	case errors.Is(err, services.ErrOutOfBounds):
		respondError(w, http.StatusBadRequest, "amount outside configured limits")
	case errors.Is(err, services.ErrInsufficientBalance):
		respondError(w, http.StatusBadRequest, "insufficient balance")
	default:
		respondError(w, http.StatusInternalServerError, "withdrawal operation failed")
	}
}
