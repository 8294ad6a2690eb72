package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"planvest/internal/db"
	"planvest/internal/money"
	"planvest/internal/store"
	"planvest/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type WithdrawalService struct {
	txRunner    db.TxRunner
	users       UserStore
	withdrawals WithdrawalStore
	settings    SettingsStore
	auditStore  AuditStore
	hub         BalanceHub
}

type WithdrawalStore interface {
	Create(ctx context.Context, tx store.Execer, id, userID string, amount decimal.Decimal) error
	GetForUpdate(ctx context.Context, tx store.Getter, withdrawalID string) (store.Withdrawal, error)
	SetStatus(ctx context.Context, tx store.Execer, withdrawalID, status string) error
}

func NewWithdrawalService(txRunner db.TxRunner, users UserStore, withdrawals WithdrawalStore, settings SettingsStore, auditStore AuditStore, hub BalanceHub) *WithdrawalService {
	return &WithdrawalService{
		txRunner:    txRunner,
		users:       users,
		withdrawals: withdrawals,
		settings:    settings,
		auditStore:  auditStore,
		hub:         hub,
	}
}

// Create validates the amount against the configured limits and the
// user's current balance, then inserts a pending request. No balance is
// moved until an admin approves.
func (s *WithdrawalService) Create(ctx context.Context, userID, rawAmount string) (string, error) {
	amount, err := money.ParseAmount(rawAmount)
	if err != nil {
		return "", ErrInvalidAmount
	}
	limits, err := s.settings.WithdrawalLimits(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	if err == nil && (amount.LessThan(limits.MinAmount) || amount.GreaterThan(limits.MaxAmount)) {
		return "", ErrOutOfBounds
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	if amount.GreaterThan(user.Balance) {
		return "", ErrInsufficientBalance
	}
	withdrawalID := uuid.NewString()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.withdrawals.Create(ctx, tx, withdrawalID, userID, amount)
	})
	if err != nil {
		return "", err
	}
	return withdrawalID, nil
}

// Approve re-validates the owner's balance under the row lock, since it
// may have dropped since the request, then debits and marks the
// withdrawal approved as one transaction.
func (s *WithdrawalService) Approve(ctx context.Context, adminID, withdrawalID string) error {
	var ownerID string
	var balanceAfter decimal.Decimal
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		withdrawal, err := s.withdrawals.GetForUpdate(ctx, tx, withdrawalID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if withdrawal.Status != "pending" {
			return ErrNotPending
		}
		user, err := s.users.GetForUpdate(ctx, tx, withdrawal.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if user.Balance.LessThan(withdrawal.Amount) {
			return ErrInsufficientBalance
		}
		ownerID = user.ID
		balanceAfter = user.Balance.Sub(withdrawal.Amount)
		if err := s.users.UpdateBalance(ctx, tx, user.ID, balanceAfter); err != nil {
			return err
		}
		if err := s.withdrawals.SetStatus(ctx, tx, withdrawalID, "approved"); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"user_id": user.ID,
			"amount":  money.Format(withdrawal.Amount),
		})
		return s.auditStore.Log(ctx, tx, adminID, "withdrawal_approve", "withdrawal", withdrawalID, string(data))
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

func (s *WithdrawalService) Reject(ctx context.Context, adminID, withdrawalID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		withdrawal, err := s.withdrawals.GetForUpdate(ctx, tx, withdrawalID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if withdrawal.Status != "pending" {
			return ErrNotPending
		}
		if err := s.withdrawals.SetStatus(ctx, tx, withdrawalID, "rejected"); err != nil {
			return err
		}
		return s.auditStore.Log(ctx, tx, adminID, "withdrawal_reject", "withdrawal", withdrawalID, "{}")
	})
}
