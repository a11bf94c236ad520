package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type createClientRequest struct {
	GivenNames string `json:"given_names"`
	Surnames   string `json:"surnames"`
}

// CreateClient handles POST /v1/clients.  It returns 201 with the new
// client, 400 when a name is empty and 409 when the names are taken.
func (h *Handler) CreateClient(c echo.Context) error {
	var body createClientRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	client, err := h.Engine.RegisterClient(c.Request().Context(), body.GivenNames, body.Surnames)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, client)
}

// ListClients handles GET /v1/clients, sorted by surnames then given names.
func (h *Handler) ListClients(c echo.Context) error {
	clients, err := h.Engine.ListClientsSorted(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, clients)
}

// GetClient handles GET /v1/clients/:id.
func (h *Handler) GetClient(c echo.Context) error {
	client, err := h.Engine.GetClient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	if client == nil {
		return notFound(c, "client %s not found", c.Param("id"))
	}
	return c.JSON(http.StatusOK, client)
}
