package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestActorID(t *testing.T) {
	makeContext := func(header string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/", nil)
		if header != "" {
			c.Request.Header.Set(ActorHeader, header)
		}
		return c
	}

	id := uuid.New()
	if got := ActorID(makeContext(id.String())); got == nil || *got != id {
		t.Errorf("ActorID = %v, expected %s", got, id)
	}
	if got := ActorID(makeContext("")); got != nil {
		t.Errorf("missing header should yield nil, got %v", got)
	}
	if got := ActorID(makeContext("not-a-uuid")); got != nil {
		t.Errorf("malformed header should yield nil, got %v", got)
	}
}
