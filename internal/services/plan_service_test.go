package services

import (
	"context"
	"errors"
	"testing"

	"planvest/internal/store"
)

type planFixture struct {
	service     *PlanService
	plans       *stubPlanStore
	investments *stubInvestmentStore
	stats       *stubStatsStore
	audit       *stubAuditStore
}

func newPlanFixture() *planFixture {
	f := &planFixture{
		plans: &stubPlanStore{plans: map[string]store.Plan{
			"plan-silver": {ID: "plan-silver", PlanName: "Silver", MinimumAmount: d("200"), ProfitAmount: d("30"), Status: "active"},
		}},
		investments: &stubInvestmentStore{perPlan: map[string]int{"plan-silver": 3}},
		stats:       &stubStatsStore{},
		audit:       &stubAuditStore{},
	}
	f.service = NewPlanService(&fakeTxRunner{}, f.plans, f.investments, f.stats, f.audit)
	return f
}

func TestPlanCreateRejectsShortDuration(t *testing.T) {
	f := newPlanFixture()
	_, err := f.service.Create(context.Background(), "admin-1", PlanRequest{
		PlanName:      "Gold",
		MinimumAmount: "500",
		ProfitAmount:  "80",
		DurationDays:  0,
	})
	if !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestPlanCreateRejectsNegativeAmount(t *testing.T) {
	f := newPlanFixture()
	_, err := f.service.Create(context.Background(), "admin-1", PlanRequest{
		PlanName:      "Gold",
		MinimumAmount: "-500",
		ProfitAmount:  "80",
		DurationDays:  30,
	})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestPlanCreateDefaultsTotalReturn(t *testing.T) {
	f := newPlanFixture()
	id, err := f.service.Create(context.Background(), "admin-1", PlanRequest{
		PlanName:      "Gold",
		MinimumAmount: "500",
		ProfitAmount:  "80",
		DurationDays:  30,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if len(f.plans.created) != 1 {
		t.Fatalf("expected one created plan, got %d", len(f.plans.created))
	}
	row := f.plans.created[0]
	if row.ID != id {
		t.Fatalf("returned id %q does not match stored row %q", id, row.ID)
	}
	if !row.TotalReturn.Equal(d("580")) {
		t.Fatalf("expected total return 580, got %s", row.TotalReturn)
	}
	if row.Status != "active" {
		t.Fatalf("expected default status active, got %q", row.Status)
	}
}

func TestPlanUpdateUnknownPlan(t *testing.T) {
	f := newPlanFixture()
	err := f.service.Update(context.Background(), "admin-1", "missing", PlanRequest{
		PlanName:      "Gold",
		MinimumAmount: "500",
		ProfitAmount:  "80",
		DurationDays:  30,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlanGetRecordsView(t *testing.T) {
	f := newPlanFixture()
	plan, err := f.service.Get(context.Background(), "plan-silver")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if plan.PlanName != "Silver" {
		t.Fatalf("unexpected plan %+v", plan)
	}
	if got := f.stats.views["plan-silver"]; got != 1 {
		t.Fatalf("expected one recorded view, got %d", got)
	}
}

func TestPlanGetNotFound(t *testing.T) {
	f := newPlanFixture()
	if _, err := f.service.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(f.stats.views) != 0 {
		t.Fatal("missing plan must not record a view")
	}
}

func TestPlanToggleFlipsStatus(t *testing.T) {
	f := newPlanFixture()
	next, err := f.service.Toggle(context.Background(), "admin-1", "plan-silver")
	if err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if next != "inactive" {
		t.Fatalf("expected inactive, got %q", next)
	}
	if got := f.plans.statuses["plan-silver"]; got != "inactive" {
		t.Fatalf("expected stored status inactive, got %q", got)
	}
}

func TestPlanDeleteCascades(t *testing.T) {
	f := newPlanFixture()
	removed, err := f.service.Delete(context.Background(), "admin-1", "plan-silver")
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed investments reported, got %d", removed)
	}
	if len(f.investments.planDeletes) != 1 || f.investments.planDeletes[0] != "plan-silver" {
		t.Fatalf("expected dependent investments deleted, got %v", f.investments.planDeletes)
	}
	if len(f.stats.deleted) != 1 || f.stats.deleted[0] != "plan-silver" {
		t.Fatalf("expected stats row deleted, got %v", f.stats.deleted)
	}
	if len(f.plans.deleted) != 1 || f.plans.deleted[0] != "plan-silver" {
		t.Fatalf("expected plan deleted, got %v", f.plans.deleted)
	}
}

func TestPlanDeleteNotFound(t *testing.T) {
	f := newPlanFixture()
	if _, err := f.service.Delete(context.Background(), "admin-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
