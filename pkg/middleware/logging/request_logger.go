package loggingmw

import (
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/gypsum_shop/pkg/logging"
)

// RequestLogger puts a request-scoped logger into the request context and
// writes one "request completed" line per request. Named routes are logged
// as "route" together with their path params, so order and product ids show
// up on every line of the request.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = req.Header.Get(echo.HeaderXRequestID)
			}

			attrs := []any{
				"method", req.Method,
				"path", c.Path(),
				"url", req.URL.Path,
				"remote_ip", c.RealIP(),
			}
			if rid != "" {
				attrs = append(attrs, "request_id", rid)
			}
			if name := routeName(c); name != "" {
				attrs = append(attrs, "route", name)
			}
			if params := pathParams(c); len(params) > 0 {
				attrs = append(attrs, slog.Group("params", params...))
			}
			l := base.With(attrs...)

			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			res := c.Response()
			done := []any{"status", res.Status, "duration_ms", time.Since(start).Milliseconds()}
			switch {
			case res.Status >= 500:
				if err != nil {
					done = append(done, "error", err.Error())
				}
				l.Error("request completed", done...)
			case res.Status >= 400:
				if err != nil {
					done = append(done, "error", err.Error())
				}
				l.Warn("request completed", done...)
			default:
				l.Info("request completed", append(done, "bytes", res.Size)...)
			}
			return nil
		}
	}
}

// routeName returns the name given to the matched route. Echo's generated
// names (the handler's package path) are skipped.
func routeName(c echo.Context) string {
	method, path := c.Request().Method, c.Path()
	if path == "" {
		return ""
	}
	for _, r := range c.Echo().Routes() {
		if r.Method == method && r.Path == path {
			if strings.Contains(r.Name, "/") {
				return ""
			}
			return r.Name
		}
	}
	return ""
}

func pathParams(c echo.Context) []any {
	names := c.ParamNames()
	out := make([]any, 0, len(names)*2)
	for _, n := range names {
		if v := c.Param(n); v != "" {
			out = append(out, n, v)
		}
	}
	return out
}
