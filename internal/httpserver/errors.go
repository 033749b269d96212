package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/gypsum_shop/internal/service"
	"github.com/Skotchmaster/gypsum_shop/internal/transport"
)

// fail logs err under "<op>_error" and converts service sentinels into
// HTTP statuses. Unknown errors become an opaque 500.
func fail(l *slog.Logger, op string, err error) error {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrPaymentInitiationFailed), errors.Is(err, service.ErrPaymentConfirmationFailed):
		status, msg = http.StatusBadGateway, err.Error()
	}

	if status >= http.StatusInternalServerError {
		l.Error(op+"_error", "status", status, "error", err)
	} else {
		l.Warn(op+"_error", "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func badID(l *slog.Logger, op string, err error) error {
	l.Warn(op+"_error", "status", http.StatusBadRequest, "reason", "id is not a positive integer", "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, "id is not a positive integer")
}

func bindAndValidate(c echo.Context, l *slog.Logger, op string, req any) error {
	if err := c.Bind(req); err != nil {
		l.Warn(op+"_error", "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		msg := transport.Describe(err)
		l.Warn(op+"_error", "status", http.StatusBadRequest, "reason", msg)
		return echo.NewHTTPError(http.StatusBadRequest, msg)
	}
	return nil
}
