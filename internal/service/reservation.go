package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/coworking-reservation/internal/apperror"
	"github.com/iliyamo/coworking-reservation/internal/logger"
	"github.com/iliyamo/coworking-reservation/internal/model"
	"github.com/iliyamo/coworking-reservation/internal/policy"
	"github.com/iliyamo/coworking-reservation/internal/queue"
	"github.com/iliyamo/coworking-reservation/internal/repository"
)

// NewReservation is the input of CreateReservation.  Date is a calendar
// date; its time of day is ignored.
type NewReservation struct {
	EventName string
	ClientID  string
	RoomID    string
	Date      time.Time
	Shift     model.Shift
}

const msgSlotTaken = "room already booked for that date/shift"

// CreateReservation books a room for one shift of one date.  Input is
// checked in a fixed order (event name, client, room, shift, advance
// notice, Sunday) and the slot check and insert then run in a single
// transaction holding the room's row lock.
func (e *Engine) CreateReservation(ctx context.Context, in NewReservation) (*model.Reservation, error) {
	name := strings.TrimSpace(in.EventName)
	if name == "" {
		return nil, apperror.Validation("event name must not be empty")
	}
	client, err := e.GetClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, apperror.NotFound("client %s not found", normalizeID(in.ClientID))
	}
	room, err := e.GetRoom(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, apperror.NotFound("room %s not found", normalizeID(in.RoomID))
	}
	if !in.Shift.Valid() {
		return nil, apperror.Validation("unknown shift %q", string(in.Shift))
	}
	date := model.DateOf(in.Date)
	if err := e.policy.CheckAdvance(date, e.Today()); err != nil {
		return nil, err
	}
	if err := policy.CheckOpenDay(date); err != nil {
		return nil, err
	}

	now := e.clock.Now().UTC()
	res := &model.Reservation{
		EventName: name,
		ClientID:  client.ID,
		RoomID:    room.ID,
		Date:      date,
		Shift:     in.Shift,
		Status:    model.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = e.inTx(ctx, "create reservation", func(tx *sql.Tx) error {
		if _, err := e.store.Rooms.LockTx(ctx, tx, room.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperror.NotFound("room %s not found", room.ID)
			}
			return err
		}
		held, err := e.store.Reservations.ActiveFolioInSlotTx(ctx, tx, room.ID, date, in.Shift)
		if err != nil {
			return err
		}
		if held != 0 {
			return apperror.Conflict("%s", msgSlotTaken)
		}
		if err := e.store.Reservations.CreateTx(ctx, tx, res); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return apperror.Conflict("%s", msgSlotTaken)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("reservation created", logger.Action("create_reservation"), logger.Folio(res.Folio),
		logger.Client(res.ClientID), logger.Room(res.RoomID), logger.Date(res.Date), logger.Shift(string(res.Shift)))
	e.publish(ctx, queue.NewReservationEvent(queue.EventCreated, res, now))
	return res, nil
}

// EditEventName renames the event of an active reservation.  Every other
// field is preserved.
func (e *Engine) EditEventName(ctx context.Context, folio int64, newName string) (*model.Reservation, error) {
	name := strings.TrimSpace(newName)
	now := e.clock.Now().UTC()

	var res *model.Reservation
	err := e.inTx(ctx, "edit reservation", func(tx *sql.Tx) error {
		var err error
		res, err = e.lockReservation(ctx, tx, folio)
		if err != nil {
			return err
		}
		if name == "" {
			return apperror.Validation("event name must not be empty")
		}
		if !res.IsActive() {
			return apperror.InvalidState("cannot edit a cancelled reservation")
		}
		if err := e.store.Reservations.UpdateEventNameTx(ctx, tx, folio, name, now); err != nil {
			return err
		}
		res.EventName = name
		res.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("reservation updated", logger.Action("edit_reservation"), logger.Folio(folio))
	e.publish(ctx, queue.NewReservationEvent(queue.EventUpdated, res, now))
	return res, nil
}

// CancelReservation cancels an active reservation that still has the
// required lead time before its date.  The slot becomes available again.
func (e *Engine) CancelReservation(ctx context.Context, folio int64) (*model.Reservation, error) {
	now := e.clock.Now().UTC()
	today := e.Today()

	var res *model.Reservation
	err := e.inTx(ctx, "cancel reservation", func(tx *sql.Tx) error {
		var err error
		res, err = e.lockReservation(ctx, tx, folio)
		if err != nil {
			return err
		}
		if !res.IsActive() {
			return apperror.InvalidState("reservation %d is already cancelled", folio)
		}
		if err := e.policy.CheckCancellation(res.Date, today); err != nil {
			return err
		}
		if err := e.store.Reservations.CancelTx(ctx, tx, folio, now); err != nil {
			return err
		}
		res.Status = model.StatusCancelled
		res.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("reservation cancelled", logger.Action("cancel_reservation"), logger.Folio(folio),
		logger.Room(res.RoomID), logger.Date(res.Date), logger.Shift(string(res.Shift)))
	e.publish(ctx, queue.NewReservationEvent(queue.EventCancelled, res, now))
	return res, nil
}

func (e *Engine) lockReservation(ctx context.Context, tx *sql.Tx, folio int64) (*model.Reservation, error) {
	res, err := e.store.Reservations.GetForUpdateTx(ctx, tx, folio)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("reservation %d not found", folio)
	}
	return res, err
}

// GetReservation returns the reservation with folio in any status, or nil
// and no error when there is none.
func (e *Engine) GetReservation(ctx context.Context, folio int64) (*model.Reservation, error) {
	res, err := e.store.Reservations.GetByFolio(ctx, folio)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, e.infra("get reservation", err)
	}
	return res, nil
}
