package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/coworking-reservation/internal/database"
	"github.com/iliyamo/coworking-reservation/internal/model"
)

// CounterRepo owns the durable per-category counters behind generated
// client and room ids.
type CounterRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewCounterRepo returns a new CounterRepo bound to the given database.
func NewCounterRepo(db *sql.DB, dialect database.Dialect) *CounterRepo {
	return &CounterRepo{db: db, dialect: dialect}
}

// NextTx increments the counter for category and returns the new value.
// The UPDATE takes the row lock first, so two transactions can never read
// the same value; the lock is held until the caller commits or rolls back.
func (r *CounterRepo) NextTx(ctx context.Context, tx *sql.Tx, category model.Category) (int64, error) {
	res, err := tx.ExecContext(ctx, r.dialect.Rebind(`UPDATE counters SET value = value + 1 WHERE category = ?`), string(category))
	if err != nil {
		return 0, fmt.Errorf("increment counter %s: %w", category, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, fmt.Errorf("counter %s is not seeded", category)
	}
	var value int64
	err = tx.QueryRowContext(ctx, r.dialect.Rebind(`SELECT value FROM counters WHERE category = ?`), string(category)).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", category, err)
	}
	return value, nil
}

// Current returns the last value handed out for category.
func (r *CounterRepo) Current(ctx context.Context, category model.Category) (int64, error) {
	var value int64
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`SELECT value FROM counters WHERE category = ?`), string(category)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return value, err
}
