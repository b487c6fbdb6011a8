// Package postgres implements repo.Store on PostgreSQL. Tenant isolation is
// enforced by row-level security: queries never filter on tenant_id and
// inserts rely on the column default app_current_tenant().
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platformbuilds/theo-core/internal/repo"
	"github.com/platformbuilds/theo-core/pkg/logger"
)

// Store is the PostgreSQL implementation of repo.Store.
type Store struct {
	pool *pgxpool.Pool
	log  logger.Logger
}

var _ repo.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool, log logger.Logger) *Store {
	return &Store{pool: pool, log: log}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// inTx runs fn in a transaction on a single tenant-bound connection.
func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, fn)
}

// translate maps driver errors onto the repo error taxonomy.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &repo.ConstraintError{Kind: repo.ErrConflict, Constraint: pgErr.ConstraintName, Detail: pgErr.Detail}
		case "23503", "23514", "23502":
			return &repo.ConstraintError{Kind: repo.ErrConstraint, Constraint: pgErr.ConstraintName, Detail: pgErr.Message}
		case "42501":
			// Raised by a WITH CHECK policy, e.g. an insert with no tenant bound.
			return &repo.ConstraintError{Kind: repo.ErrConstraint, Detail: pgErr.Message}
		case "22P02":
			return fmt.Errorf("%w: %s", repo.ErrInvalid, pgErr.Message)
		}
	}
	return err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, translate(err))
}

// expectRow turns a zero-row delete or update into ErrNotFound.
func expectRow(op string, tag pgconn.CommandTag, err error) error {
	if err != nil {
		return wrap(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repo.ErrNotFound)
	}
	return nil
}

// requireVisible checks that id names a row of table visible to the bound
// tenant. Foreign keys are checked without row-level security, so an id
// belonging to another tenant would otherwise be accepted as a reference.
func requireVisible(ctx context.Context, q querier, table, field string, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)", pgx.Identifier{table}.Sanitize())
	if err := q.QueryRow(ctx, query, *id).Scan(&exists); err != nil {
		return translate(err)
	}
	if !exists {
		return fmt.Errorf("%s %s: %w", field, id, repo.ErrNotFound)
	}
	return nil
}

// jsonArg encodes an optional JSON document; empty means SQL NULL.
func jsonArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// updateSet accumulates "column = $n" clauses for partial updates.
type updateSet struct {
	clauses []string
	args    []any
}

func (u *updateSet) set(column string, value any) {
	u.args = append(u.args, value)
	u.clauses = append(u.clauses, fmt.Sprintf("%s = $%d", column, len(u.args)))
}

// setRaw adds a clause with no bound argument, e.g. "updated_at = now()".
func (u *updateSet) setRaw(clause string) {
	u.clauses = append(u.clauses, clause)
}

// arg binds value and returns its placeholder.
func (u *updateSet) arg(value any) string {
	u.args = append(u.args, value)
	return fmt.Sprintf("$%d", len(u.args))
}

func (u *updateSet) empty() bool {
	return len(u.clauses) == 0
}

func (u *updateSet) String() string {
	return strings.Join(u.clauses, ", ")
}

// collect scans every row with scan.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()
	out := make([]*T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func pageArgs(p repo.Page) (int, int) {
	p = p.Normalize()
	return p.Limit, p.Offset
}
