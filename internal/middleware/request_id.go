package middleware

import (
	"crypto/rand"
	"time"

	"cbt-question-gen/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDLocal  = "request_id"
)

// RequestID assigns each request a ULID, or keeps a well-formed one sent by
// the caller, and exposes it in the response header and the user context.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if _, err := ulid.ParseStrict(id); err != nil {
			id = newRequestID()
		}
		c.Locals(requestIDLocal, id)
		c.Set(RequestIDHeader, id)
		c.SetUserContext(logger.ContextWithRequestID(c.UserContext(), id))
		return c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID.
func GetRequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDLocal).(string)
	return id
}

func newRequestID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
