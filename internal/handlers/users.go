package handlers

import (
	"net/http"
	"strings"

	"planvest/internal/auth"
	"planvest/internal/middleware"
	"planvest/internal/money"
	"planvest/internal/websocket"

	"github.com/shopspring/decimal"
)

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	investments, err := h.investments.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load investments")
		return
	}
	withdrawals, err := h.withdrawals.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load withdrawals")
		return
	}
	activeInvested := decimal.Zero
	totalProfit := decimal.Zero
	for _, investment := range investments {
		if investment.Status != "active" {
			continue
		}
		activeInvested = activeInvested.Add(investment.AmountUSD)
		totalProfit = totalProfit.Add(investment.CurrentProfit)
	}
	payload := map[string]any{
		"user":            userView(user),
		"balance":         money.Format(user.Balance),
		"active_invested": money.Format(activeInvested),
		"total_profit":    money.Format(totalProfit),
		"investments":     h.investmentViews(r, investments),
		"withdrawals":     withdrawalViews(withdrawals),
	}
	if user.CurrencyCode != nil {
		local, ok := h.converter.ConvertUSDTo(r.Context(), *user.CurrencyCode, user.Balance)
		payload["balance_local"] = moneyOrNil(local, ok)
		payload["local_currency"] = *user.CurrencyCode
	} else {
		payload["balance_local"] = nil
	}
	respondJSON(w, http.StatusOK, payload)
}

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load users")
		return
	}
	views := make([]map[string]any, 0, len(users))
	for _, user := range users {
		views = append(views, userView(user))
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r, 50)
	logs, err := h.audit.List(r.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load audit logs")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}
