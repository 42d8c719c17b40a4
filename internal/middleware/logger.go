package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
)

// RequestLogger emits one structured log line per request with
// method, path, status, latency and the authenticated actor when
// present.  Handler errors are attached to the line and passed
// through untouched.
func RequestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            req := c.Request()

            err := next(c)

            evt := logger.Info()
            if err != nil {
                evt = logger.Error().Err(err)
            }
            evt.
                Str("method", req.Method).
                Str("path", req.URL.Path).
                Int("status", c.Response().Status).
                Dur("latency", time.Since(start)).
                Str("remote_ip", c.RealIP()).
                Str("actor", userID(c)).
                Msg("request")

            return err
        }
    }
}
