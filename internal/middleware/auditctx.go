package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/pirouette/studio/internal/auditctx"
)

// AuditContext records the client address and user agent on the request
// context for audit entries written further down.
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auditctx.With(c.Request.Context(), auditctx.Client{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
