package store

import (
	"context"

	"github.com/shopspring/decimal"
)

type UserStore struct {
	db DB
}

type User struct {
	ID             string          `db:"id"`
	Username       string          `db:"username"`
	Email          string          `db:"email"`
	PasswordHash   string          `db:"password_hash"`
	Balance        decimal.Decimal `db:"balance"`
	PolicyAccepted bool            `db:"policy_accepted"`
	IsAdmin        bool            `db:"is_admin"`
	Country        *string         `db:"country"`
	CurrencyCode   *string         `db:"currency_code"`
	CurrencySymbol *string         `db:"currency_symbol"`
	CurrencyName   *string         `db:"currency_name"`
	CreatedAt      any             `db:"created_at"`
}

type UserInput struct {
	ID             string
	Username       string
	Email          string
	PasswordHash   string
	IsAdmin        bool
	Country        *string
	CurrencyCode   *string
	CurrencySymbol *string
	CurrencyName   *string
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, tx Execer, input UserInput) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, balance, policy_accepted, is_admin, country, currency_code, currency_symbol, currency_name)
		VALUES ($1, $2, $3, $4, 0, FALSE, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.Username, input.Email, input.PasswordHash, input.IsAdmin,
		input.Country, input.CurrencyCode, input.CurrencySymbol, input.CurrencyName,
	)
	return err
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (User, error) {
	var row User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, balance, policy_accepted, is_admin, country, currency_code, currency_symbol, currency_name, created_at
		FROM users
		WHERE id = $1
	`, userID)
	return row, err
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (User, error) {
	var row User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, balance, policy_accepted, is_admin, country, currency_code, currency_symbol, currency_name, created_at
		FROM users
		WHERE username = $1
	`, username)
	return row, err
}

// Count runs on the caller's transaction so the first-user-admin check
// shares a snapshot with the insert that depends on it.
func (s *UserStore) Count(ctx context.Context, tx Getter) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, `SELECT COUNT(1) FROM users`)
	return count, err
}

func (s *UserStore) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var isAdmin bool
	err := s.db.GetContext(ctx, &isAdmin, `SELECT is_admin FROM users WHERE id = $1`, userID)
	return isAdmin, err
}

func (s *UserStore) AcceptPolicy(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET policy_accepted = TRUE WHERE id = $1`, userID)
	return err
}

// GetForUpdate locks the user row for the remainder of the transaction.
// Every balance mutation goes through this lock so concurrent approvals
// for the same user serialize instead of overwriting each other.
func (s *UserStore) GetForUpdate(ctx context.Context, tx Getter, userID string) (User, error) {
	var row User
	err := tx.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, balance, policy_accepted, is_admin, country, currency_code, currency_symbol, currency_name
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID)
	return row, err
}

func (s *UserStore) UpdateBalance(ctx context.Context, tx Execer, userID string, balance decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `UPDATE users SET balance = $1 WHERE id = $2`, balance, userID)
	return err
}

func (s *UserStore) ListAll(ctx context.Context) ([]User, error) {
	var rows []User
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, username, email, password_hash, balance, policy_accepted, is_admin, country, currency_code, currency_symbol, currency_name, created_at
		FROM users
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
