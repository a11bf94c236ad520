package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-reservation/internal/model"
)

type createRoomRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// CreateRoom handles POST /v1/rooms.
func (h *Handler) CreateRoom(c echo.Context) error {
	var body createRoomRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	room, err := h.Engine.RegisterRoom(c.Request().Context(), body.Name, body.Capacity)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, room)
}

// ListRooms handles GET /v1/rooms.
func (h *Handler) ListRooms(c echo.Context) error {
	rooms, err := h.Engine.ListRooms(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rooms)
}

// GetRoom handles GET /v1/rooms/:id.
func (h *Handler) GetRoom(c echo.Context) error {
	room, err := h.Engine.GetRoom(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	if room == nil {
		return notFound(c, "room %s not found", c.Param("id"))
	}
	return c.JSON(http.StatusOK, room)
}

// Availability handles GET /v1/availability?date=yyyy-mm-dd&shift=M.  It
// lists the rooms free for that slot.
func (h *Handler) Availability(c echo.Context) error {
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return h.fail(c, err)
	}
	shift, err := parseShift(c.QueryParam("shift"))
	if err != nil {
		return h.fail(c, err)
	}
	rooms, err := h.Engine.AvailableRooms(c.Request().Context(), date, shift)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":  date.Format(model.DateLayout),
		"shift": shift,
		"rooms": rooms,
	})
}
