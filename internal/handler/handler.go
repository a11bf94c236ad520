package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-reservation/internal/apperror"
	"github.com/iliyamo/coworking-reservation/internal/logger"
	"github.com/iliyamo/coworking-reservation/internal/model"
	"github.com/iliyamo/coworking-reservation/internal/service"
)

// Handler exposes the reservation engine over HTTP.  Every method assumes
// request ids and access logging were set up by middleware.
type Handler struct {
	Engine *service.Engine // all reads and writes go through the engine
	Log    *logger.Logger  // infrastructure failures are logged here
}

// New constructs a Handler and panics if the engine is nil.
func New(engine *service.Engine, log *logger.Logger) *Handler {
	if engine == nil {
		panic("nil engine passed to handler.New")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{Engine: engine, Log: log}
}

// fail writes err as {"error": message, "kind": kind} with the status of
// its kind.  Unclassified errors are reported as infrastructure failures.
// Infrastructure messages carry the failed operation and the driver text
// unchanged.
func (h *Handler) fail(c echo.Context, err error) error {
	kind := apperror.KindOf(err)
	if kind == 0 {
		kind = apperror.KindInfrastructure
	}
	if kind == apperror.KindInfrastructure {
		h.Log.Error("request failed", logger.F("PATH", c.Path()), logger.Error(err))
	}
	return c.JSON(kind.HTTPStatus(), echo.Map{
		"error": apperror.Message(err),
		"kind":  kind.String(),
	})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "kind": apperror.KindValidation.String()})
}

func notFound(c echo.Context, format string, args ...any) error {
	return c.JSON(http.StatusNotFound, echo.Map{
		"error": apperror.Message(apperror.NotFound(format, args...)),
		"kind":  apperror.KindNotFound.String(),
	})
}

// parseDate reads a yyyy-mm-dd calendar date.
func parseDate(raw string) (time.Time, error) {
	d, err := time.Parse(model.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperror.Validation("invalid date %q (use yyyy-mm-dd)", raw)
	}
	return d, nil
}

func parseShift(raw string) (model.Shift, error) {
	s, err := model.ParseShift(raw)
	if err != nil {
		return "", apperror.Validation("%s", err.Error())
	}
	return s, nil
}

func parseFolio(raw string) (int64, error) {
	folio, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || folio <= 0 {
		return 0, apperror.Validation("invalid folio %q", raw)
	}
	return folio, nil
}
