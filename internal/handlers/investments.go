package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"planvest/internal/middleware"
	"planvest/internal/money"
	"planvest/internal/services"
	"planvest/internal/store"
	"planvest/internal/uploads"

	"github.com/go-chi/chi/v5"
)

type createInvestmentRequest struct {
	PlanID      string `json:"plan_id"`
	LocalAmount string `json:"local_amount"`
}

func (h *Handler) CreateInvestment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createInvestmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	investmentID, err := h.investSvc.Create(r.Context(), services.CreateInvestmentRequest{
		UserID:      userID,
		PlanID:      req.PlanID,
		LocalAmount: req.LocalAmount,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPolicyNotAccepted):
			respondError(w, http.StatusForbidden, "accept the investment policy first")
		case errors.Is(err, services.ErrNotFound):
			respondError(w, http.StatusNotFound, "plan not found")
		case errors.Is(err, services.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, "invalid amount")
		case errors.Is(err, services.ErrOutOfBounds):
			respondError(w, http.StatusBadRequest, "amount outside configured limits")
		default:
			respondError(w, http.StatusInternalServerError, "unable to create investment")
		}
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"id":     investmentID,
		"status": "pending",
	})
}

func (h *Handler) UploadProof(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	investmentID := chi.URLParam(r, "id")
	if err := r.ParseMultipartForm(h.cfg.MaxImageBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("proof")
	if err != nil {
		respondError(w, http.StatusBadRequest, "proof file is required")
		return
	}
	defer file.Close()
	name, err := h.investSvc.AttachProof(r.Context(), investmentID, userID, file, header)
	if err != nil {
		switch {
		case errors.Is(err, uploads.ErrNoFile):
			respondError(w, http.StatusBadRequest, "proof file is required")
		case errors.Is(err, uploads.ErrInvalidExtension):
			respondError(w, http.StatusBadRequest, "file extension not allowed")
		case errors.Is(err, uploads.ErrInvalidImage):
			respondError(w, http.StatusBadRequest, "file is not a valid image")
		case errors.Is(err, uploads.ErrFileTooLarge):
			respondError(w, http.StatusRequestEntityTooLarge, "file exceeds size limit")
		case errors.Is(err, services.ErrNotFound):
			respondError(w, http.StatusNotFound, "investment not found")
		default:
			respondError(w, http.StatusInternalServerError, "unable to store proof")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"id":          investmentID,
		"proof_image": name,
	})
}

func (h *Handler) ListMyInvestments(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	investments, err := h.investments.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load investments")
		return
	}
	respondJSON(w, http.StatusOK, h.investmentViews(r, investments))
}

func (h *Handler) investmentViews(r *http.Request, investments []store.Investment) []map[string]any {
	planNames := make(map[string]string)
	views := make([]map[string]any, 0, len(investments))
	for _, investment := range investments {
		name, known := planNames[investment.PlanID]
		if !known {
			if plan, err := h.plans.GetByID(r.Context(), investment.PlanID); err == nil {
				name = plan.PlanName
			}
			planNames[investment.PlanID] = name
		}
		view := map[string]any{
			"id":             investment.ID,
			"user_id":        investment.UserID,
			"plan_id":        investment.PlanID,
			"plan_name":      name,
			"status":         investment.Status,
			"proof_image":    valueToString(investment.ProofImage),
			"amount_usd":     money.Format(investment.AmountUSD),
			"current_profit": money.Format(investment.CurrentProfit),
			"currency_code":  valueToString(investment.CurrencyCode),
			"created_at":     investment.CreatedAt,
		}
		if investment.AmountLocal.Valid {
			view["amount_local"] = money.Format(investment.AmountLocal.Decimal)
		} else {
			view["amount_local"] = nil
		}
		views = append(views, view)
	}
	return views
}

func (h *Handler) AdminListInvestments(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = "pending"
	}
	investments, err := h.investments.ListByStatus(r.Context(), status)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load investments")
		return
	}
	respondJSON(w, http.StatusOK, h.investmentViews(r, investments))
}

func (h *Handler) AdminApproveInvestment(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	investmentID := chi.URLParam(r, "id")
	if err := h.investSvc.Approve(r.Context(), adminID, investmentID); err != nil {
		respondInvestmentError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"id":     investmentID,
		"status": "active",
	})
}

func (h *Handler) AdminRejectInvestment(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	investmentID := chi.URLParam(r, "id")
	if err := h.investSvc.Reject(r.Context(), adminID, investmentID); err != nil {
		respondInvestmentError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"id":     investmentID,
		"status": "rejected",
	})
}

type editProfitRequest struct {
	Profit string `json:"profit"`
}

func (h *Handler) AdminEditProfit(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	investmentID := chi.URLParam(r, "id")
	var req editProfitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.investSvc.EditProfit(r.Context(), adminID, investmentID, req.Profit); err != nil {
		respondInvestmentError(w, err)
		return
	}
	investment, err := h.investments.GetByID(r.Context(), investmentID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load investment")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"id":             investmentID,
		"current_profit": money.Format(investment.CurrentProfit),
		"status":         investment.Status,
	})
}

func respondInvestmentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, "investment not found")
	case errors.Is(err, services.ErrNotPending):
		respondError(w, http.StatusConflict, "investment already processed")
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid amount")
	default:
		respondError(w, http.StatusInternalServerError, "investment operation failed")
	}
}
