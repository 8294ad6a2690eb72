package store

import (
	"context"
	"database/sql"
)

// The stores accept these narrow interfaces instead of *sqlx.DB or
// *sqlx.Tx so reads run against the pool while writes that must share a
// transaction (approvals, plan deletes) take the caller's tx.

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type Selecter interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type DB interface {
	Execer
	Getter
	Selecter
}

type Tx interface {
	Execer
	Getter
}
