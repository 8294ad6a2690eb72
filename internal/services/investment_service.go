package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"mime/multipart"

	"planvest/internal/db"
	"planvest/internal/money"
	"planvest/internal/store"
	"planvest/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrPolicyNotAccepted   = errors.New("policy not accepted")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrOutOfBounds         = errors.New("amount outside configured limits")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotPending          = errors.New("request is not pending")
)

type InvestmentService struct {
	txRunner    db.TxRunner
	users       UserStore
	plans       PlanStore
	investments InvestmentStore
	stats       PlanStatsStore
	settings    SettingsStore
	auditStore  AuditStore
	converter   Converter
	uploader    ProofUploader
	hub         BalanceHub
}

type UserStore interface {
	GetByID(ctx context.Context, userID string) (store.User, error)
	GetForUpdate(ctx context.Context, tx store.Getter, userID string) (store.User, error)
	UpdateBalance(ctx context.Context, tx store.Execer, userID string, balance decimal.Decimal) error
}

type PlanStore interface {
	GetByID(ctx context.Context, planID string) (store.Plan, error)
	GetTx(ctx context.Context, tx store.Getter, planID string) (store.Plan, error)
}

type InvestmentStore interface {
	Create(ctx context.Context, tx store.Execer, input store.InvestmentInput) error
	GetForUpdate(ctx context.Context, tx store.Getter, investmentID string) (store.Investment, error)
	SetProof(ctx context.Context, investmentID, userID, filename string) (int64, error)
	SetStatus(ctx context.Context, tx store.Execer, investmentID, status string) error
	BackfillAmount(ctx context.Context, tx store.Execer, investmentID string, amountUSD decimal.Decimal) error
	UpdateProfit(ctx context.Context, tx store.Execer, investmentID string, profit decimal.Decimal, status string) error
}

type PlanStatsStore interface {
	IncrementInvestors(ctx context.Context, tx store.Execer, planID string) error
}

type SettingsStore interface {
	InvestmentLimits(ctx context.Context) (store.Limits, error)
	WithdrawalLimits(ctx context.Context) (store.Limits, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type Converter interface {
	ConvertUSDTo(ctx context.Context, code string, amountUSD decimal.Decimal) (decimal.Decimal, bool)
	ConvertToUSD(ctx context.Context, code string, amountLocal decimal.Decimal) (decimal.Decimal, bool)
}

type ProofUploader interface {
	SaveImage(file multipart.File, header *multipart.FileHeader) (string, error)
	Remove(name string) error
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

func NewInvestmentService(txRunner db.TxRunner, users UserStore, plans PlanStore, investments InvestmentStore, stats PlanStatsStore, settings SettingsStore, auditStore AuditStore, converter Converter, uploader ProofUploader, hub BalanceHub) *InvestmentService {
	return &InvestmentService{
		txRunner:    txRunner,
		users:       users,
		plans:       plans,
		investments: investments,
		stats:       stats,
		settings:    settings,
		auditStore:  auditStore,
		converter:   converter,
		uploader:    uploader,
		hub:         hub,
	}
}

type CreateInvestmentRequest struct {
	UserID      string
	PlanID      string
	LocalAmount string
}

// Create opens a pending investment. The policy check runs before
// anything else. A user-entered local amount is converted to the
// canonical USD value; when no rate is available the plan minimum is
// used instead and the entered amount is kept only as a display
// snapshot.
func (s *InvestmentService) Create(ctx context.Context, req CreateInvestmentRequest) (string, error) {
	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	if !user.PolicyAccepted {
		return "", ErrPolicyNotAccepted
	}
	plan, err := s.plans.GetByID(ctx, req.PlanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	currencyCode := ""
	if user.CurrencyCode != nil {
		currencyCode = *user.CurrencyCode
	}

	amountUSD := plan.MinimumAmount
	var amountLocal decimal.NullDecimal
	if req.LocalAmount != "" {
		local, err := money.ParseAmount(req.LocalAmount)
		if err != nil {
			return "", ErrInvalidAmount
		}
		amountLocal = decimal.NullDecimal{Decimal: local, Valid: true}
		if usd, ok := s.converter.ConvertToUSD(ctx, currencyCode, local); ok {
			amountUSD = usd
		}
		if err := s.checkInvestmentBounds(ctx, amountUSD); err != nil {
			return "", err
		}
	} else if converted, ok := s.converter.ConvertUSDTo(ctx, currencyCode, amountUSD); ok {
		amountLocal = decimal.NullDecimal{Decimal: converted, Valid: true}
	}

	var codePtr *string
	if currencyCode != "" {
		codePtr = &currencyCode
	}

	investmentID := uuid.NewString()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.investments.Create(ctx, tx, store.InvestmentInput{
			ID:           investmentID,
			UserID:       req.UserID,
			PlanID:       req.PlanID,
			AmountUSD:    amountUSD,
			AmountLocal:  amountLocal,
			CurrencyCode: codePtr,
		})
	})
	if err != nil {
		return "", err
	}
	return investmentID, nil
}

// checkInvestmentBounds applies the global limits only to amounts the
// user chose; a plan-minimum default is always accepted.
func (s *InvestmentService) checkInvestmentBounds(ctx context.Context, amountUSD decimal.Decimal) error {
	limits, err := s.settings.InvestmentLimits(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	if amountUSD.LessThan(limits.MinAmount) || amountUSD.GreaterThan(limits.MaxAmount) {
		return ErrOutOfBounds
	}
	return nil
}

// AttachProof stores the uploaded payment proof and records it on the
// investment, scoped to the requesting user. Returns the stored
// filename.
func (s *InvestmentService) AttachProof(ctx context.Context, investmentID, userID string, file multipart.File, header *multipart.FileHeader) (string, error) {
	name, err := s.uploader.SaveImage(file, header)
	if err != nil {
		return "", err
	}
	affected, err := s.investments.SetProof(ctx, investmentID, userID, name)
	if err != nil {
		_ = s.uploader.Remove(name)
		return "", err
	}
	if affected == 0 {
		_ = s.uploader.Remove(name)
		return "", ErrNotFound
	}
	return name, nil
}

// Approve credits the plan's profit amount to the owner's balance,
// activates the investment, and bumps the plan's investor counter as
// one transaction.
func (s *InvestmentService) Approve(ctx context.Context, adminID, investmentID string) error {
	var ownerID string
	var balanceAfter decimal.Decimal
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		investment, err := s.investments.GetForUpdate(ctx, tx, investmentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if investment.Status != "pending" {
			return ErrNotPending
		}
		plan, err := s.plans.GetTx(ctx, tx, investment.PlanID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		user, err := s.users.GetForUpdate(ctx, tx, investment.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		ownerID = user.ID
		balanceAfter = user.Balance.Add(plan.ProfitAmount)
		if err := s.users.UpdateBalance(ctx, tx, user.ID, balanceAfter); err != nil {
			return err
		}
		if investment.AmountUSD.IsZero() {
			if err := s.investments.BackfillAmount(ctx, tx, investmentID, plan.MinimumAmount); err != nil {
				return err
			}
		}
		if err := s.investments.SetStatus(ctx, tx, investmentID, "active"); err != nil {
			return err
		}
		if err := s.stats.IncrementInvestors(ctx, tx, investment.PlanID); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"user_id": user.ID,
			"plan_id": investment.PlanID,
			"profit":  money.Format(plan.ProfitAmount),
		})
		return s.auditStore.Log(ctx, tx, adminID, "investment_approve", "investment", investmentID, string(data))
	})
	if err != nil {
		return err
	}
	s.hub.BroadcastBalance(ownerID, websocket.BalanceUpdate{
		Balance:  money.Format(balanceAfter),
		Currency: "USD",
	})
	return nil
}

func (s *InvestmentService) Reject(ctx context.Context, adminID, investmentID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		investment, err := s.investments.GetForUpdate(ctx, tx, investmentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if investment.Status != "pending" {
			return ErrNotPending
		}
		if err := s.investments.SetStatus(ctx, tx, investmentID, "rejected"); err != nil {
			return err
		}
		return s.auditStore.Log(ctx, tx, adminID, "investment_reject", "investment", investmentID, "{}")
	})
}

// EditProfit rewrites an investment's current profit and adjusts the
// owner's balance by the difference from the previous value. Applying a
// sequence of edits therefore moves the balance by exactly the net
// profit change.
func (s *InvestmentService) EditProfit(ctx context.Context, adminID, investmentID, newProfit string) error {
	profit, err := decimal.NewFromString(newProfit)
	if err != nil || profit.IsNegative() {
		return ErrInvalidAmount
	}
	var ownerID string
	var balanceAfter decimal.Decimal
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		investment, err := s.investments.GetForUpdate(ctx, tx, investmentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		user, err := s.users.GetForUpdate(ctx, tx, investment.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		status := investment.Status
		if status == "" {
			status = "active"
		}
		delta := profit.Sub(investment.CurrentProfit)
		if err := s.investments.UpdateProfit(ctx, tx, investmentID, profit, status); err != nil {
			return err
		}
		ownerID = user.ID
		balanceAfter = user.Balance.Add(delta)
		if err := s.users.UpdateBalance(ctx, tx, user.ID, balanceAfter); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"user_id":    user.ID,
			"new_profit": money.Format(profit),
			"delta":      money.Format(delta),
		})
		return s.auditStore.Log(ctx, tx, adminID, "investment_profit_edit", "investment", investmentID, string(data))
	})
	if err != nil {
		return err
	}
	s.hub.BroadcastBalance(ownerID, websocket.BalanceUpdate{
		Balance:  money.Format(balanceAfter),
		Currency: "USD",
	})
	return nil
}
