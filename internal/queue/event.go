// Package queue defines the reservation lifecycle messages exchanged over
// the message broker, the publisher that emits them and the consumer that
// appends them to the audit log.
package queue

import (
	"time"

	"github.com/iliyamo/coworking-reservation/internal/model"
)

// Event types carried in ReservationEvent.Type and used as the AMQP
// message type.
const (
	EventCreated   = "reservation.created"
	EventUpdated   = "reservation.updated"
	EventCancelled = "reservation.cancelled"
)

// ReservationEventsQueue is the durable queue every lifecycle event is
// routed to.
const ReservationEventsQueue = "reservation.events"

// ReservationEvent is published after a reservation mutation commits.  It
// contains enough information for downstream consumers to log or notify
// without querying the primary database.
type ReservationEvent struct {
	Type       string `json:"type"`
	Folio      int64  `json:"folio"`
	EventName  string `json:"event_name"`
	ClientID   string `json:"client_id"`
	RoomID     string `json:"room_id"`
	Date       string `json:"date"`
	Shift      string `json:"shift"`
	Status     string `json:"status"`
	OccurredAt string `json:"occurred_at"`
}

// NewReservationEvent snapshots res as an event of the given type.
func NewReservationEvent(eventType string, res *model.Reservation, at time.Time) ReservationEvent {
	return ReservationEvent{
		Type:       eventType,
		Folio:      res.Folio,
		EventName:  res.EventName,
		ClientID:   res.ClientID,
		RoomID:     res.RoomID,
		Date:       res.Date.Format(model.DateLayout),
		Shift:      string(res.Shift),
		Status:     string(res.Status),
		OccurredAt: at.UTC().Format(time.RFC3339),
	}
}
