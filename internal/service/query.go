package service

import (
	"context"
	"time"

	"github.com/iliyamo/coworking-reservation/internal/apperror"
	"github.com/iliyamo/coworking-reservation/internal/model"
)

// AvailableRooms returns the rooms with no active reservation for the
// slot, ordered by id.  The result is read from the store on every call.
func (e *Engine) AvailableRooms(ctx context.Context, date time.Time, shift model.Shift) ([]model.Room, error) {
	if !shift.Valid() {
		return nil, apperror.Validation("unknown shift %q", string(shift))
	}
	rooms, err := e.store.Rooms.ListAvailable(ctx, model.DateOf(date), shift)
	if err != nil {
		return nil, e.infra("available rooms", err)
	}
	return rooms, nil
}

// QueryByDate returns the active reservations of one date ordered by shift
// and folio.
func (e *Engine) QueryByDate(ctx context.Context, date time.Time) ([]model.Reservation, error) {
	list, err := e.store.Reservations.ListActiveByDate(ctx, model.DateOf(date))
	if err != nil {
		return nil, e.infra("query by date", err)
	}
	return list, nil
}

// QueryRange returns the active reservations dated from..to inclusive,
// ordered by date and folio.  An inverted range yields an empty slice.
func (e *Engine) QueryRange(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
	from, to = model.DateOf(from), model.DateOf(to)
	if from.After(to) {
		return []model.Reservation{}, nil
	}
	list, err := e.store.Reservations.ListActiveInRange(ctx, from, to)
	if err != nil {
		return nil, e.infra("query range", err)
	}
	return list, nil
}
