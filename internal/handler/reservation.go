package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-reservation/internal/model"
	"github.com/iliyamo/coworking-reservation/internal/service"
)

// reservationResponse is the wire form of a reservation.  The date is a
// plain yyyy-mm-dd calendar date.
type reservationResponse struct {
	Folio     int64  `json:"folio"`
	EventName string `json:"event_name"`
	ClientID  string `json:"client_id"`
	RoomID    string `json:"room_id"`
	Date      string `json:"date"`
	Shift     string `json:"shift"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toResponse(r *model.Reservation) reservationResponse {
	return reservationResponse{
		Folio:     r.Folio,
		EventName: r.EventName,
		ClientID:  r.ClientID,
		RoomID:    r.RoomID,
		Date:      r.Date.Format(model.DateLayout),
		Shift:     string(r.Shift),
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toResponses(list []model.Reservation) []reservationResponse {
	out := make([]reservationResponse, 0, len(list))
	for i := range list {
		out = append(out, toResponse(&list[i]))
	}
	return out
}

type createReservationRequest struct {
	EventName string `json:"event_name"`
	ClientID  string `json:"client_id"`
	RoomID    string `json:"room_id"`
	Date      string `json:"date"`
	Shift     string `json:"shift"`
}

// CreateReservation handles POST /v1/reservations.  The date must be at
// least two days ahead and not a Sunday; a taken slot answers 409.
func (h *Handler) CreateReservation(c echo.Context) error {
	var body createReservationRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	date, err := parseDate(body.Date)
	if err != nil {
		return h.fail(c, err)
	}
	// An unknown shift is passed through so the engine reports it in its
	// own order of checks.
	shift, err := model.ParseShift(body.Shift)
	if err != nil {
		shift = model.Shift(body.Shift)
	}
	res, err := h.Engine.CreateReservation(c.Request().Context(), service.NewReservation{
		EventName: body.EventName,
		ClientID:  body.ClientID,
		RoomID:    body.RoomID,
		Date:      date,
		Shift:     shift,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, toResponse(res))
}

// ListReservations handles GET /v1/reservations?from=&to=.  Both bounds
// are inclusive; from after to yields an empty list.  With only date=
// the reservations of that day are returned in shift order.
func (h *Handler) ListReservations(c echo.Context) error {
	ctx := c.Request().Context()
	if raw := c.QueryParam("date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			return h.fail(c, err)
		}
		list, err := h.Engine.QueryByDate(ctx, date)
		if err != nil {
			return h.fail(c, err)
		}
		return c.JSON(http.StatusOK, toResponses(list))
	}

	from, err := parseDate(c.QueryParam("from"))
	if err != nil {
		return h.fail(c, err)
	}
	to, err := parseDate(c.QueryParam("to"))
	if err != nil {
		return h.fail(c, err)
	}
	list, err := h.Engine.QueryRange(ctx, from, to)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, toResponses(list))
}

// GetReservation handles GET /v1/reservations/:folio.  Cancelled
// reservations are returned too.
func (h *Handler) GetReservation(c echo.Context) error {
	folio, err := parseFolio(c.Param("folio"))
	if err != nil {
		return h.fail(c, err)
	}
	res, err := h.Engine.GetReservation(c.Request().Context(), folio)
	if err != nil {
		return h.fail(c, err)
	}
	if res == nil {
		return notFound(c, "reservation %d not found", folio)
	}
	return c.JSON(http.StatusOK, toResponse(res))
}

type updateReservationRequest struct {
	EventName string `json:"event_name"`
}

// UpdateReservation handles PATCH /v1/reservations/:folio.  Only the event
// name can change.
func (h *Handler) UpdateReservation(c echo.Context) error {
	folio, err := parseFolio(c.Param("folio"))
	if err != nil {
		return h.fail(c, err)
	}
	var body updateReservationRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	res, err := h.Engine.EditEventName(c.Request().Context(), folio, body.EventName)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(res))
}

// CancelReservation handles POST /v1/reservations/:folio/cancel.
func (h *Handler) CancelReservation(c echo.Context) error {
	folio, err := parseFolio(c.Param("folio"))
	if err != nil {
		return h.fail(c, err)
	}
	res, err := h.Engine.CancelReservation(c.Request().Context(), folio)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(res))
}
