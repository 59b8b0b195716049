package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	iauth "github.com/pirouette/studio/internal/auth"
	"github.com/pirouette/studio/internal/middleware"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// sessionResult returns the validation result stored by middleware.RequireSession.
func sessionResult(c *gin.Context) (iauth.Result, bool) {
	value, ok := c.Get(middleware.CtxResultKey)
	if !ok {
		return iauth.Result{}, false
	}
	result, ok := value.(iauth.Result)
	return result, ok && result.IsValid && result.User != nil
}
