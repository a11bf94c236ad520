package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/coworking-reservation/internal/database"
	"github.com/iliyamo/coworking-reservation/internal/model"
)

// ReservationRepo provides persistence for reservations.  Rows are never
// deleted: cancellation flips the status and clears slot_key, which frees
// the slot for new bookings while the folio stays addressable.
type ReservationRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB, dialect database.Dialect) *ReservationRepo {
	return &ReservationRepo{db: db, dialect: dialect}
}

const reservationColumns = `folio, event_name, client_id, room_id, event_date, shift, status, created_at, updated_at`

// shiftOrder sorts rows by shift in the order of the day rather than
// alphabetically.
const shiftOrder = `CASE shift WHEN 'MORNING' THEN 0 WHEN 'AFTERNOON' THEN 1 WHEN 'NIGHT' THEN 2 ELSE 3 END`

// ActiveFolioInSlotTx returns the folio of the active reservation holding
// (roomID, date, shift), or 0 when the slot is free.
func (r *ReservationRepo) ActiveFolioInSlotTx(ctx context.Context, tx *sql.Tx, roomID string, date time.Time, shift model.Shift) (int64, error) {
	const q = `SELECT folio FROM reservations
               WHERE room_id = ? AND event_date = ? AND shift = ? AND status = ?`
	var folio int64
	err := tx.QueryRowContext(ctx, r.dialect.Rebind(q),
		roomID, model.DateOf(date).Format(model.DateLayout), string(shift), string(model.StatusActive)).Scan(&folio)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return folio, nil
}

// CreateTx inserts res within the caller's transaction and fills in the
// folio assigned by the store.  An active reservation already holding the
// slot makes the insert fail with ErrConflict.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (event_name, client_id, room_id, event_date, shift, status, slot_key, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var slot any
	if res.Status == model.StatusActive {
		slot = model.SlotKey(res.RoomID, res.Date, res.Shift)
	}
	args := []any{
		res.EventName, res.ClientID, res.RoomID, model.DateOf(res.Date).Format(model.DateLayout),
		string(res.Shift), string(res.Status), slot,
		res.CreatedAt.UTC().Format(time.RFC3339Nano), res.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}

	if !r.dialect.SupportsLastInsertID() {
		err := tx.QueryRowContext(ctx, r.dialect.Rebind(q+` RETURNING folio`), args...).Scan(&res.Folio)
		return insertError(err)
	}
	result, err := tx.ExecContext(ctx, r.dialect.Rebind(q), args...)
	if err != nil {
		return insertError(err)
	}
	folio, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.Folio = folio
	return nil
}

func insertError(err error) error {
	if database.IsUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// GetByFolio returns the reservation with the given folio, whatever its
// status, or ErrNotFound.
func (r *ReservationRepo) GetByFolio(ctx context.Context, folio int64) (*model.Reservation, error) {
	return r.get(ctx, r.db, folio, "")
}

// GetForUpdateTx loads the reservation and holds its row lock until the
// transaction ends.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, folio int64) (*model.Reservation, error) {
	return r.get(ctx, tx, folio, r.dialect.ForUpdate())
}

func (r *ReservationRepo) get(ctx context.Context, q querier, folio int64, suffix string) (*model.Reservation, error) {
	row := q.QueryRowContext(ctx, r.dialect.Rebind(`SELECT `+reservationColumns+` FROM reservations WHERE folio = ?`+suffix), folio)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return res, err
}

// UpdateEventNameTx renames the event of an active reservation.  Only
// event_name and updated_at change.
func (r *ReservationRepo) UpdateEventNameTx(ctx context.Context, tx *sql.Tx, folio int64, name string, at time.Time) error {
	const q = `UPDATE reservations SET event_name = ?, updated_at = ? WHERE folio = ? AND status = ?`
	result, err := tx.ExecContext(ctx, r.dialect.Rebind(q), name, at.UTC().Format(time.RFC3339Nano), folio, string(model.StatusActive))
	if err != nil {
		return err
	}
	return expectOneRow(result, folio)
}

// CancelTx marks an active reservation as cancelled and releases its slot.
func (r *ReservationRepo) CancelTx(ctx context.Context, tx *sql.Tx, folio int64, at time.Time) error {
	const q = `UPDATE reservations SET status = ?, slot_key = NULL, updated_at = ? WHERE folio = ? AND status = ?`
	result, err := tx.ExecContext(ctx, r.dialect.Rebind(q),
		string(model.StatusCancelled), at.UTC().Format(time.RFC3339Nano), folio, string(model.StatusActive))
	if err != nil {
		return err
	}
	return expectOneRow(result, folio)
}

// expectOneRow guards status-conditioned updates.  The MySQL DSN sets
// clientFoundRows so every driver counts matched rows here.
func expectOneRow(result sql.Result, folio int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("reservation %d: expected 1 active row, updated %d", folio, n)
	}
	return nil
}

// ListActiveByDate returns active reservations on date ordered by shift
// (morning, afternoon, night) and then folio.
func (r *ReservationRepo) ListActiveByDate(ctx context.Context, date time.Time) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations
          WHERE event_date = ? AND status = ?
          ORDER BY ` + shiftOrder + `, folio`
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(q), model.DateOf(date).Format(model.DateLayout), string(model.StatusActive))
	if err != nil {
		return nil, err
	}
	return scanReservations(rows)
}

// ListActiveInRange returns active reservations with from <= date <= to,
// ordered by date and then folio.  An inverted range matches nothing.
func (r *ReservationRepo) ListActiveInRange(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations
          WHERE event_date >= ? AND event_date <= ? AND status = ?
          ORDER BY event_date, folio`
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(q),
		model.DateOf(from).Format(model.DateLayout), model.DateOf(to).Format(model.DateLayout), string(model.StatusActive))
	if err != nil {
		return nil, err
	}
	return scanReservations(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var (
		res                  model.Reservation
		date, shift, status  string
		createdAt, updatedAt string
	)
	if err := row.Scan(&res.Folio, &res.EventName, &res.ClientID, &res.RoomID, &date, &shift, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("reservation %d: bad event_date %q: %w", res.Folio, date, err)
	}
	res.Date = d
	res.Shift = model.Shift(shift)
	res.Status = model.Status(status)
	// Timestamps are informational; a malformed value leaves the zero time.
	res.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	res.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &res, nil
}

func scanReservations(rows *sql.Rows) ([]model.Reservation, error) {
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}
