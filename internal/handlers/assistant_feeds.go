package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"planvest/internal/money"
)

// Feed endpoints for the assistant widget. They answer without auth so
// the widget can render before a visitor signs up.

func (h *Handler) AssistantPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.ListActive(r.Context(), 100, 0)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]any{"plans": []any{}})
		return
	}
	views := make([]map[string]any, 0, len(plans))
	for _, plan := range plans {
		views = append(views, map[string]any{
			"id":             plan.ID,
			"plan_name":      plan.PlanName,
			"minimum_amount": money.Format(plan.MinimumAmount),
			"profit_amount":  money.Format(plan.ProfitAmount),
			"total_return":   money.Format(plan.TotalReturn),
			"duration_days":  plan.DurationDays,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"plans": views})
}

var assistantTestimonials = []map[string]string{
	{"title": "John M.", "body": "Turned $200 into consistent weekly profits."},
	{"title": "Sarah K.", "body": "Recovered her starting capital in 3 weeks."},
	{"title": "David A.", "body": "Upgraded from Starter to Gold within a month."},
}

func (h *Handler) AssistantTestimonials(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"testimonials": assistantTestimonials})
}

func (h *Handler) AssistantInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"description": "This program helps members participate in our trading and investment system. Members choose a plan, activate their account, and monitor progress from their dashboard. Our goal is to make the process simple, transparent, and rewarding.",
	})
}

// AssistantContact condenses the admin contact file into the fields the
// widget shows, turning a bare WhatsApp number into a wa.me link.
func (h *Handler) AssistantContact(w http.ResponseWriter, r *http.Request) {
	contact := map[string]any{}
	if raw, err := os.ReadFile(h.cfg.AdminContactFile); err == nil {
		_ = json.Unmarshal(raw, &contact)
	}
	whatsapp := valueToString(contact["whatsapp"])
	switch {
	case whatsapp == "":
	case strings.HasPrefix(whatsapp, "https://"):
	default:
		cleaned := strings.NewReplacer("+", "", " ", "").Replace(whatsapp)
		whatsapp = "https://wa.me/" + cleaned
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"name":     valueToString(contact["name"]),
		"phone":    valueToString(contact["phone"]),
		"whatsapp": whatsapp,
	})
}
