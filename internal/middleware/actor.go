package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ActorHeader carries the acting user's ID on requests that have one.
const ActorHeader = "X-User-ID"

// ActorID returns the acting user's ID from the request header, or nil when
// the header is absent or malformed. Role checks are skipped for requests
// without an actor.
func ActorID(c *gin.Context) *uuid.UUID {
	raw := c.GetHeader(ActorHeader)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
