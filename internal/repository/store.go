package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/coworking-reservation/internal/database"
)

// querier is the subset of *sql.DB and *sql.Tx used by the repositories, so
// lookups can run either standalone or inside a caller's transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store bundles the repositories that share one database handle.  It is the
// only component allowed to mutate the entity tables.
type Store struct {
	db           *sql.DB
	dialect      database.Dialect
	Counters     *CounterRepo
	Clients      *ClientRepo
	Rooms        *RoomRepo
	Reservations *ReservationRepo
}

// NewStore wires every repository to db.
func NewStore(db *sql.DB, dialect database.Dialect) *Store {
	return &Store{
		db:           db,
		dialect:      dialect,
		Counters:     NewCounterRepo(db, dialect),
		Clients:      NewClientRepo(db, dialect),
		Rooms:        NewRoomRepo(db, dialect),
		Reservations: NewReservationRepo(db, dialect),
	}
}

// DB exposes the underlying handle so callers can begin transactions.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect reports the SQL flavour of the store.
func (s *Store) Dialect() database.Dialect { return s.dialect }

// BeginTx starts a read-committed transaction.  Writers that need to
// serialise take row locks explicitly (see RoomRepo.LockTx).
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
