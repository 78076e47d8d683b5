package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"depotapi/internal/logger"
)

// LoggerLocalKey is the key under which the request-scoped logger is stored in Fiber's context locals.
const LoggerLocalKey = "logger"

// Logger is a middleware that logs each HTTP request as one structured entry.
// Fields:
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
//
// Handlers can fetch a logger already carrying request_id with FromCtx.
func Logger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		rid, _ := c.Locals(RequestIDLocalKey).(string)
		c.Locals(LoggerLocalKey, log.With("request_id", rid))

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		fields := []any{
			"request_id", rid,
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", float64(time.Since(start).Microseconds()) / 1000,
		}
		if status >= fiber.StatusInternalServerError {
			log.Warnw("request", fields...)
		} else {
			log.Infow("request", fields...)
		}
		return err
	}
}

// FromCtx returns the request-scoped logger, or a no-op logger outside of the Logger middleware.
func FromCtx(c *fiber.Ctx) *logger.Logger {
	if l, ok := c.Locals(LoggerLocalKey).(*logger.Logger); ok {
		return l
	}
	return logger.NewNop()
}
