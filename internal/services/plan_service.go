package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"

	"planvest/internal/db"
	"planvest/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var ErrInvalidDuration = errors.New("duration must be at least one day")

type PlanService struct {
	txRunner    db.TxRunner
	plans       CatalogPlanStore
	investments CatalogInvestmentStore
	stats       CatalogStatsStore
	auditStore  AuditStore
}

type CatalogPlanStore interface {
	Create(ctx context.Context, tx store.Execer, input store.PlanInput) error
	Update(ctx context.Context, tx store.Execer, input store.PlanInput) error
	GetByID(ctx context.Context, planID string) (store.Plan, error)
	SetStatus(ctx context.Context, tx store.Execer, planID, status string) error
	Delete(ctx context.Context, tx store.Execer, planID string) error
}

type CatalogInvestmentStore interface {
	CountByPlan(ctx context.Context, tx store.Getter, planID string) (int, error)
	DeleteByPlan(ctx context.Context, tx store.Execer, planID string) error
}

type CatalogStatsStore interface {
	RecordView(ctx context.Context, planID string) error
	Delete(ctx context.Context, tx store.Execer, planID string) error
}

func NewPlanService(txRunner db.TxRunner, plans CatalogPlanStore, investments CatalogInvestmentStore, stats CatalogStatsStore, auditStore AuditStore) *PlanService {
	return &PlanService{
		txRunner:    txRunner,
		plans:       plans,
		investments: investments,
		stats:       stats,
		auditStore:  auditStore,
	}
}

type PlanRequest struct {
	PlanName      string
	MinimumAmount string
	ProfitAmount  string
	TotalReturn   string
	DurationDays  int
	CapitalBack   bool
	Status        string
}

func (s *PlanService) parse(req PlanRequest) (store.PlanInput, error) {
	if req.DurationDays < 1 {
		return store.PlanInput{}, ErrInvalidDuration
	}
	minimum, err := parseNonNegative(req.MinimumAmount)
	if err != nil {
		return store.PlanInput{}, err
	}
	profit, err := parseNonNegative(req.ProfitAmount)
	if err != nil {
		return store.PlanInput{}, err
	}
	total := minimum.Add(profit)
	if req.TotalReturn != "" {
		total, err = parseNonNegative(req.TotalReturn)
		if err != nil {
			return store.PlanInput{}, err
		}
	}
	status := req.Status
	if status == "" {
		status = "active"
	}
	return store.PlanInput{
		PlanName:      req.PlanName,
		MinimumAmount: minimum,
		ProfitAmount:  profit,
		TotalReturn:   total,
		DurationDays:  req.DurationDays,
		CapitalBack:   req.CapitalBack,
		Status:        status,
	}, nil
}

func parseNonNegative(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return value, nil
}

func (s *PlanService) Create(ctx context.Context, adminID string, req PlanRequest) (string, error) {
	input, err := s.parse(req)
	if err != nil {
		return "", err
	}
	input.ID = uuid.NewString()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.plans.Create(ctx, tx, input); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"plan_name": input.PlanName})
		return s.auditStore.Log(ctx, tx, adminID, "plan_create", "plan", input.ID, string(data))
	})
	if err != nil {
		return "", err
	}
	return input.ID, nil
}

func (s *PlanService) Update(ctx context.Context, adminID, planID string, req PlanRequest) error {
	input, err := s.parse(req)
	if err != nil {
		return err
	}
	input.ID = planID
	if _, err := s.plans.GetByID(ctx, planID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.plans.Update(ctx, tx, input); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"plan_name": input.PlanName})
		return s.auditStore.Log(ctx, tx, adminID, "plan_update", "plan", planID, string(data))
	})
}

// Get fetches a plan for the public detail view and bumps its view
// counter. A failed counter write does not fail the read.
func (s *PlanService) Get(ctx context.Context, planID string) (store.Plan, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Plan{}, ErrNotFound
		}
		return store.Plan{}, err
	}
	if err := s.stats.RecordView(ctx, planID); err != nil {
		log.Printf("plan service: record view for %s: %v", planID, err)
	}
	return plan, nil
}

// Toggle flips a plan between active and inactive.
func (s *PlanService) Toggle(ctx context.Context, adminID, planID string) (string, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	next := "inactive"
	if plan.Status == "inactive" {
		next = "active"
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.plans.SetStatus(ctx, tx, planID, next); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"status": next})
		return s.auditStore.Log(ctx, tx, adminID, "plan_toggle", "plan", planID, string(data))
	})
	if err != nil {
		return "", err
	}
	return next, nil
}

// Delete removes a plan together with its investments and stats row,
// and reports how many investments were removed.
func (s *PlanService) Delete(ctx context.Context, adminID, planID string) (int, error) {
	var removed int
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.plans.GetByID(ctx, planID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		count, err := s.investments.CountByPlan(ctx, tx, planID)
		if err != nil {
			return err
		}
		removed = count
		if err := s.investments.DeleteByPlan(ctx, tx, planID); err != nil {
			return err
		}
		if err := s.stats.Delete(ctx, tx, planID); err != nil {
			return err
		}
		if err := s.plans.Delete(ctx, tx, planID); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]int{"removed_investments": removed})
		return s.auditStore.Log(ctx, tx, adminID, "plan_delete", "plan", planID, string(data))
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
