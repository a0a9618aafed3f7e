package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-chatbot/internal/transport/http/response"
)

type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// RateLimit keys requests by scope and client IP. A nil limiter lets every
// request through.
func RateLimit(limiter Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		if !limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP()) {
			response.Abort(c, http.StatusTooManyRequests, response.CodeTooManyRequests, "too many requests, slow down")
			return
		}
		c.Next()
	}
}
