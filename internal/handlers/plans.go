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

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	page, pageSize := parsePagination(r, 10)
	plans, err := h.plans.ListActive(r.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load plans")
		return
	}
	total, err := h.plans.CountActive(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load plans")
		return
	}
	currencyCode := h.viewerCurrency(r, userID)
	views := make([]map[string]any, 0, len(plans))
	for _, plan := range plans {
		views = append(views, h.planView(r, plan, currencyCode))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"plans":       views,
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": totalPages(total, pageSize),
	})
}

func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	planID := chi.URLParam(r, "id")
	plan, err := h.planSvc.Get(r.Context(), planID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "plan not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load plan")
		return
	}
	view := h.planView(r, plan, h.viewerCurrency(r, userID))
	if stats, err := h.planStats.Get(r.Context(), planID); err == nil {
		view["total_views"] = stats.TotalViews
		view["total_investors"] = stats.TotalInvestors
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) viewerCurrency(r *http.Request, userID string) string {
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil || user.CurrencyCode == nil {
		return ""
	}
	return *user.CurrencyCode
}

func (h *Handler) planView(r *http.Request, plan store.Plan, currencyCode string) map[string]any {
	view := map[string]any{
		"id":             plan.ID,
		"plan_name":      plan.PlanName,
		"minimum_amount": money.Format(plan.MinimumAmount),
		"profit_amount":  money.Format(plan.ProfitAmount),
		"total_return":   money.Format(plan.TotalReturn),
		"duration_days":  plan.DurationDays,
		"capital_back":   plan.CapitalBack,
		"status":         plan.Status,
		"created_at":     plan.CreatedAt,
	}
	if currencyCode == "" {
		view["minimum_amount_local"] = nil
		view["profit_amount_local"] = nil
		view["total_return_local"] = nil
		return view
	}
	minLocal, okMin := h.converter.ConvertUSDTo(r.Context(), currencyCode, plan.MinimumAmount)
	profitLocal, okProfit := h.converter.ConvertUSDTo(r.Context(), currencyCode, plan.ProfitAmount)
	totalLocal, okTotal := h.converter.ConvertUSDTo(r.Context(), currencyCode, plan.TotalReturn)
	view["minimum_amount_local"] = moneyOrNil(minLocal, okMin)
	view["profit_amount_local"] = moneyOrNil(profitLocal, okProfit)
	view["total_return_local"] = moneyOrNil(totalLocal, okTotal)
	view["local_currency"] = currencyCode
	return view
}

type planPayload struct {
	PlanName      string `json:"plan_name"`
	MinimumAmount string `json:"minimum_amount"`
	ProfitAmount  string `json:"profit_amount"`
	TotalReturn   string `json:"total_return"`
	DurationDays  int    `json:"duration_days"`
	CapitalBack   bool   `json:"capital_back"`
	Status        string `json:"status"`
}

func (p planPayload) toRequest() services.PlanRequest {
	return services.PlanRequest{
		PlanName:      p.PlanName,
		MinimumAmount: p.MinimumAmount,
		ProfitAmount:  p.ProfitAmount,
		TotalReturn:   p.TotalReturn,
		DurationDays:  p.DurationDays,
		CapitalBack:   p.CapitalBack,
		Status:        p.Status,
	}
}

func (h *Handler) AdminListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.ListAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load plans")
		return
	}
	views := make([]map[string]any, 0, len(plans))
	for _, plan := range plans {
		views = append(views, h.planView(r, plan, ""))
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *Handler) AdminCreatePlan(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	var payload planPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if payload.PlanName == "" {
		respondError(w, http.StatusBadRequest, "plan name is required")
		return
	}
	planID, err := h.planSvc.Create(r.Context(), adminID, payload.toRequest())
	if err != nil {
		respondPlanError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": planID})
}

func (h *Handler) AdminUpdatePlan(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	planID := chi.URLParam(r, "id")
	var payload planPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.planSvc.Update(r.Context(), adminID, planID, payload.toRequest()); err != nil {
		respondPlanError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": planID})
}

func (h *Handler) AdminTogglePlan(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	planID := chi.URLParam(r, "id")
	status, err := h.planSvc.Toggle(r.Context(), adminID, planID)
	if err != nil {
		respondPlanError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": planID, "status": status})
}

func (h *Handler) AdminDeletePlan(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	planID := chi.URLParam(r, "id")
	removed, err := h.planSvc.Delete(r.Context(), adminID, planID)
	if err != nil {
		respondPlanError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"id":                  planID,
		"removed_investments": removed,
	})
}

func respondPlanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, "plan not found")
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid amount")
	case errors.Is(err, services.ErrInvalidDuration):
		respondError(w, http.StatusBadRequest, "duration must be at least one day")
	default:
		respondError(w, http.StatusInternalServerError, "plan operation failed")
	}
}
