package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/coworking-reservation/internal/database"
	"github.com/iliyamo/coworking-reservation/internal/model"
)

// ClientRepo provides persistence for clients.  Clients are insert-only:
// there is no update or delete path.
type ClientRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewClientRepo returns a new ClientRepo bound to the given database.
func NewClientRepo(db *sql.DB, dialect database.Dialect) *ClientRepo {
	return &ClientRepo{db: db, dialect: dialect}
}

// ExistsByNameTx reports whether a client with the same names, ignoring
// case and surrounding whitespace, is already registered.
func (r *ClientRepo) ExistsByNameTx(ctx context.Context, tx *sql.Tx, givenNames, surnames string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, r.dialect.Rebind(`SELECT id FROM clients WHERE name_key = ?`),
		model.ClientNameKey(givenNames, surnames)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateTx inserts c within the caller's transaction.  A collision on the
// name key is reported as ErrDuplicate.
func (r *ClientRepo) CreateTx(ctx context.Context, tx *sql.Tx, c *model.Client) error {
	const q = `INSERT INTO clients (id, given_names, surnames, name_key) VALUES (?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, r.dialect.Rebind(q), c.ID, c.GivenNames, c.Surnames, model.ClientNameKey(c.GivenNames, c.Surnames))
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetByID returns the client with the given id or ErrNotFound.
func (r *ClientRepo) GetByID(ctx context.Context, id string) (*model.Client, error) {
	return r.getByID(ctx, r.db, id)
}

func (r *ClientRepo) getByID(ctx context.Context, q querier, id string) (*model.Client, error) {
	var c model.Client
	err := q.QueryRowContext(ctx, r.dialect.Rebind(`SELECT id, given_names, surnames FROM clients WHERE id = ?`), id).
		Scan(&c.ID, &c.GivenNames, &c.Surnames)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListSorted returns every client ordered by surnames, then given names,
// then id.  Column collations are binary, so the order is case-sensitive
// and total.
func (r *ClientRepo) ListSorted(ctx context.Context) ([]model.Client, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, given_names, surnames FROM clients ORDER BY surnames, given_names, LENGTH(id), id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []model.Client{}
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.GivenNames, &c.Surnames); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
