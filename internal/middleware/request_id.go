package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-Id"
	ctxRequestID    = "request_id"
)

// RequestID tags every request with an id, honoring one already assigned
// by a proxy in front of the API.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(ctxRequestID, id)
		c.Writer.Header().Set(headerRequestID, id)

		c.Next()
	}
}

// RequestIDFrom returns the id assigned to the current request.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}
