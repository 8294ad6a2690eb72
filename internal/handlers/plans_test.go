package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"planvest/internal/services"
	"planvest/internal/store"

	"github.com/shopspring/decimal"
)

func TestListPlansConvertsToViewerCurrency(t *testing.T) {
	handler := newTestHandler(Deps{
		Users: stubUserStore{
			getByIDFn: func(_ context.Context, userID string) (store.User, error) {
				return store.User{ID: userID, CurrencyCode: stringPtr("NGN")}, nil
			},
		},
		Plans: stubPlanStore{
			listActiveFn: func(context.Context, int, int) ([]store.Plan, error) {
				return []store.Plan{{
					ID:            "plan-silver",
					PlanName:      "Silver",
					MinimumAmount: decimal.NewFromInt(200),
					ProfitAmount:  decimal.NewFromInt(30),
					TotalReturn:   decimal.NewFromInt(230),
					DurationDays:  30,
					Status:        "active",
				}}, nil
			},
			countActiveFn: func(context.Context) (int, error) {
				return 11, nil
			},
		},
		Converter: stubConverter{
			convertFn: func(_ context.Context, code string, amountUSD decimal.Decimal) (decimal.Decimal, bool) {
				if code != "NGN" {
					return decimal.Zero, false
				}
				return amountUSD.Mul(decimal.NewFromInt(770)), true
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/plans?page=1&page_size=10", nil)
	rr := serveWithAuth(t, handler.ListPlans, req, "user-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload struct {
		Plans      []map[string]any `json:"plans"`
		Total      int              `json:"total"`
		TotalPages int              `json:"total_pages"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Plans) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(payload.Plans))
	}
	plan := payload.Plans[0]
	if plan["minimum_amount"] != "200.00" {
		t.Fatalf("unexpected minimum amount: %v", plan["minimum_amount"])
	}
	if plan["minimum_amount_local"] != "154000.00" {
		t.Fatalf("unexpected local minimum: %v", plan["minimum_amount_local"])
	}
	if plan["local_currency"] != "NGN" {
		t.Fatalf("unexpected local currency: %v", plan["local_currency"])
	}
	if payload.Total != 11 || payload.TotalPages != 2 {
		t.Fatalf("unexpected pagination: total=%d pages=%d", payload.Total, payload.TotalPages)
	}
}

func TestListPlansWithoutViewerCurrency(t *testing.T) {
	handler := newTestHandler(Deps{
		Users: stubUserStore{
			getByIDFn: func(_ context.Context, userID string) (store.User, error) {
				return store.User{ID: userID}, nil
			},
		},
		Plans: stubPlanStore{
			listActiveFn: func(context.Context, int, int) ([]store.Plan, error) {
				return []store.Plan{{ID: "plan-1", PlanName: "Basic", MinimumAmount: decimal.NewFromInt(50)}}, nil
			},
			countActiveFn: func(context.Context) (int, error) {
				return 1, nil
			},
		},
		Converter: stubConverter{},
	})

	req := httptest.NewRequest(http.MethodGet, "/plans", nil)
	rr := serveWithAuth(t, handler.ListPlans, req, "user-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload struct {
		Plans []map[string]any `json:"plans"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Plans[0]["minimum_amount_local"] != nil {
		t.Fatalf("expected nil local amount, got %v", payload.Plans[0]["minimum_amount_local"])
	}
}

func TestGetPlanIncludesStats(t *testing.T) {
	handler := newTestHandler(Deps{
		Users: stubUserStore{},
		PlanSvc: stubPlanService{
			getFn: func(_ context.Context, planID string) (store.Plan, error) {
				return store.Plan{ID: planID, PlanName: "Silver", MinimumAmount: decimal.NewFromInt(200)}, nil
			},
		},
		PlanStats: stubPlanStatsStore{
			getFn: func(_ context.Context, planID string) (store.PlanStats, error) {
				return store.PlanStats{PlanID: planID, TotalViews: 42, TotalInvestors: 7}, nil
			},
		},
		Converter: stubConverter{},
	})

	req := httptest.NewRequest(http.MethodGet, "/plans/plan-silver", nil)
	req = withURLParam(req, "id", "plan-silver")
	rr := serveWithAuth(t, handler.GetPlan, req, "user-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["total_views"] != float64(42) {
		t.Fatalf("unexpected total views: %v", payload["total_views"])
	}
	if payload["total_investors"] != float64(7) {
		t.Fatalf("unexpected total investors: %v", payload["total_investors"])
	}
}

func TestGetPlanNotFound(t *testing.T) {
	handler := newTestHandler(Deps{
		Users: stubUserStore{},
		PlanSvc: stubPlanService{
			getFn: func(context.Context, string) (store.Plan, error) {
				return store.Plan{}, services.ErrNotFound
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/plans/missing", nil)
	req = withURLParam(req, "id", "missing")
	rr := serveWithAuth(t, handler.GetPlan, req, "user-1")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestAdminCreatePlanRequiresName(t *testing.T) {
	handler := newTestHandler(Deps{PlanSvc: stubPlanService{}})
	body := []byte(`{"minimum_amount":"200","profit_amount":"30","duration_days":30}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/plans", bytes.NewReader(body))
	rr := serveWithAuth(t, handler.AdminCreatePlan, req, "admin-1")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAdminCreatePlanMapsServiceErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{services.ErrInvalidAmount, http.StatusBadRequest},
		{services.ErrInvalidDuration, http.StatusBadRequest},
		{services.ErrNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		handler := newTestHandler(Deps{
			PlanSvc: stubPlanService{
				createFn: func(context.Context, string, services.PlanRequest) (string, error) {
					return "", tc.err
				},
			},
		})
		body := []byte(`{"plan_name":"Silver","minimum_amount":"200","profit_amount":"30","duration_days":30}`)
		req := httptest.NewRequest(http.MethodPost, "/admin/plans", bytes.NewReader(body))
		rr := serveWithAuth(t, handler.AdminCreatePlan, req, "admin-1")
		if rr.Code != tc.code {
			t.Fatalf("expected %d for %v, got %d", tc.code, tc.err, rr.Code)
		}
	}
}

func TestAdminDeletePlanReportsRemovedInvestments(t *testing.T) {
	handler := newTestHandler(Deps{
		PlanSvc: stubPlanService{
			deleteFn: func(_ context.Context, _, planID string) (int, error) {
				if planID != "plan-silver" {
					t.Fatalf("unexpected plan id: %s", planID)
				}
				return 3, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodDelete, "/admin/plans/plan-silver", nil)
	req = withURLParam(req, "id", "plan-silver")
	rr := serveWithAuth(t, handler.AdminDeletePlan, req, "admin-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["removed_investments"] != float64(3) {
		t.Fatalf("unexpected removed count: %v", payload["removed_investments"])
	}
}
