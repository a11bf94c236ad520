package model

import "time"

// Status is the lifecycle state of a reservation.  Reservations are
// never deleted; cancellation is recorded by moving the status to
// StatusCancelled, after which the record is read only.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusCancelled
}

// Reservation records a client's booking of a room for one shift on one
// calendar date.
//
// Fields:
//
//	Folio     – store assigned, strictly increasing, never reused.
//	EventName – free text name of the event; editable while Active.
//	ClientID  – client that owns the booking (C####).
//	RoomID    – room being booked (S####).
//	Date      – calendar date at midnight UTC; time of day is not used.
//	Shift     – booked shift of the day.
//	Status    – ACTIVE or CANCELLED.
//	CreatedAt – when the reservation was committed.
//	UpdatedAt – last edit or cancellation.
type Reservation struct {
	Folio     int64     `json:"folio"`      // reservations.folio
	EventName string    `json:"event_name"` // reservations.event_name
	ClientID  string    `json:"client_id"`  // reservations.client_id
	RoomID    string    `json:"room_id"`    // reservations.room_id
	Date      time.Time `json:"date"`       // reservations.event_date
	Shift     Shift     `json:"shift"`      // reservations.shift
	Status    Status    `json:"status"`     // reservations.status
	CreatedAt time.Time `json:"created_at"` // reservations.created_at
	UpdatedAt time.Time `json:"updated_at"` // reservations.updated_at
}

// IsActive reports whether the reservation still occupies its slot.
func (r *Reservation) IsActive() bool {
	return r.Status == StatusActive
}

// SlotKey identifies the (room, date, shift) slot held by an active
// reservation.  It is the value of the unique reservations.slot_key column.
func SlotKey(roomID string, date time.Time, shift Shift) string {
	return roomID + "|" + date.Format(DateLayout) + "|" + string(shift)
}
