package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader carries the request id in and out
const RequestIDHeader = "X-Request-Id"

// RequestLogger ensures every request has a request id, echoes it back, puts a
// logger carrying it on the user context, and logs one line per request.
// API requests also log the version chosen by VersionMiddleware.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(RequestIDHeader)
		if strings.TrimSpace(rid) == "" {
			rid = uuid.NewString()
		}

		c.Locals("requestId", rid)
		c.Set(RequestIDHeader, rid)

		logger := log.With().Str("request_id", rid).Logger()
		c.SetUserContext(logger.WithContext(c.UserContext()))

		start := time.Now()
		err := c.Next()
		if err != nil {
			// Run the error handler now so the logged status is the one sent
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		var event *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			event = logger.Error()
		case status >= fiber.StatusBadRequest:
			event = logger.Warn()
		default:
			event = logger.Info()
		}
		if path := c.Path(); path == "/api" || strings.HasPrefix(path, "/api/") {
			event = event.Str("api_version", APIVersion(c))
		}
		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")

		return nil
	}
}

// RequestID returns the id assigned by RequestLogger
func RequestID(c *fiber.Ctx) string {
	rid, _ := c.Locals("requestId").(string)
	return rid
}
