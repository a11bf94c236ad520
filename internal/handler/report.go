package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-reservation/internal/model"
	"github.com/iliyamo/coworking-reservation/internal/report"
)

// DailyReport handles GET /v1/reports/daily?date=yyyy-mm-dd&format=json.
// A missing date means today.  csv and xlsx are sent as attachments.
func (h *Handler) DailyReport(c echo.Context) error {
	date := h.Engine.Today()
	if raw := c.QueryParam("date"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return h.fail(c, err)
		}
		date = d
	}
	format := report.FormatJSON
	if raw := c.QueryParam("format"); raw != "" {
		f, err := report.ParseFormat(raw)
		if err != nil {
			return badRequest(c, err.Error())
		}
		format = f
	}

	daily, err := report.BuildDaily(c.Request().Context(), h.Engine, date)
	if err != nil {
		return h.fail(c, err)
	}
	if format == report.FormatJSON {
		return c.JSON(http.StatusOK, echo.Map{
			"date":  daily.Date.Format(model.DateLayout),
			"title": daily.Title(),
			"rows":  daily.Rows,
		})
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, format.ContentType())
	resp.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", daily.FileName(format)))
	resp.WriteHeader(http.StatusOK)
	return daily.Write(resp, format)
}
