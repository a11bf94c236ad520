package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/coworking-reservation/internal/database"
	"github.com/iliyamo/coworking-reservation/internal/model"
)

// RoomRepo provides persistence for rooms.  Rooms are insert-only.
type RoomRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB, dialect database.Dialect) *RoomRepo {
	return &RoomRepo{db: db, dialect: dialect}
}

// ExistsByNameTx reports whether a room with the same name, ignoring case
// and surrounding whitespace, is already registered.
func (r *RoomRepo) ExistsByNameTx(ctx context.Context, tx *sql.Tx, name string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, r.dialect.Rebind(`SELECT id FROM rooms WHERE name_key = ?`), model.RoomNameKey(name)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateTx inserts room within the caller's transaction.  A collision on
// the name key is reported as ErrDuplicate.
func (r *RoomRepo) CreateTx(ctx context.Context, tx *sql.Tx, room *model.Room) error {
	const q = `INSERT INTO rooms (id, name, name_key, capacity) VALUES (?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, r.dialect.Rebind(q), room.ID, room.Name, model.RoomNameKey(room.Name), room.Capacity)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetByID returns the room with the given id or ErrNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	return r.get(ctx, r.db, id, "")
}

// LockTx loads the room and holds its row lock until the transaction ends.
// Reservation writers lock the room first, so bookings of the same room
// are serialised while other rooms proceed in parallel.
func (r *RoomRepo) LockTx(ctx context.Context, tx *sql.Tx, id string) (*model.Room, error) {
	return r.get(ctx, tx, id, r.dialect.ForUpdate())
}

func (r *RoomRepo) get(ctx context.Context, q querier, id, suffix string) (*model.Room, error) {
	var room model.Room
	err := q.QueryRowContext(ctx, r.dialect.Rebind(`SELECT id, name, capacity FROM rooms WHERE id = ?`+suffix), id).
		Scan(&room.ID, &room.Name, &room.Capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// List returns every room ordered by id number (S9999 before S10000).
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, capacity FROM rooms ORDER BY LENGTH(id), id`)
	if err != nil {
		return nil, err
	}
	return scanRooms(rows)
}

// ListAvailable returns the rooms that have no active reservation for the
// given date and shift, ordered by id.
func (r *RoomRepo) ListAvailable(ctx context.Context, date time.Time, shift model.Shift) ([]model.Room, error) {
	const q = `SELECT s.id, s.name, s.capacity
               FROM rooms s
               WHERE NOT EXISTS (
                   SELECT 1 FROM reservations r
                   WHERE r.room_id = s.id AND r.event_date = ? AND r.shift = ? AND r.status = ?
               )
               ORDER BY LENGTH(s.id), s.id`
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(q),
		model.DateOf(date).Format(model.DateLayout), string(shift), string(model.StatusActive))
	if err != nil {
		return nil, err
	}
	return scanRooms(rows)
}

func scanRooms(rows *sql.Rows) ([]model.Room, error) {
	defer rows.Close()
	rooms := []model.Room{}
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.Capacity); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}
