package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pirouette/studio/pkg/crypto"
	"github.com/pirouette/studio/pkg/errors"
	"github.com/pirouette/studio/pkg/logger"
	"github.com/pirouette/studio/pkg/response"
)

const (
	// CSRFCookieName is the cookie used to transport the CSRF token to clients.
	CSRFCookieName = "studio_csrf"
	// CSRFHeaderName is the header clients must present for unsafe HTTP methods.
	CSRFHeaderName = "X-CSRF-Token"

	csrfTokenLength = 48
	csrfTokenTTL    = 12 * time.Hour
)

// CSRFOptions configures the token cookie. Domain should match the session
// cookies. Exempt lists route paths (as registered) that skip the check.
type CSRFOptions struct {
	Secure bool
	Domain string
	Exempt []string
}

type csrfGuard struct {
	opts   CSRFOptions
	exempt map[string]struct{}
	log    *zap.Logger
}

// CSRF implements the double-submit-cookie pattern for cookie-authenticated
// browsers. Safe methods receive a token via cookie and header; mutating
// requests must echo it in X-CSRF-Token. Requests authenticated with a bearer
// token carry no ambient credentials and are exempt.
func CSRF(opts CSRFOptions) gin.HandlerFunc {
	guard := &csrfGuard{
		opts:   opts,
		exempt: make(map[string]struct{}, len(opts.Exempt)),
		log:    logger.WithModule("csrf"),
	}
	for _, path := range opts.Exempt {
		guard.exempt[path] = struct{}{}
	}
	return guard.handle
}

func (g *csrfGuard) handle(c *gin.Context) {
	if c.Request.Method == http.MethodOptions {
		c.Next()
		return
	}
	if _, ok := bearerToken(c.GetHeader("Authorization")); ok {
		c.Next()
		return
	}
	if _, ok := g.exempt[c.FullPath()]; ok {
		c.Next()
		return
	}

	token, issued, err := g.token(c)
	if err != nil {
		g.log.Error("issue csrf token", zap.Error(err))
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		c.Abort()
		return
	}

	switch c.Request.Method {
	case http.MethodGet, http.MethodHead:
		c.Header(CSRFHeaderName, token)
	default:
		if !crypto.EqualTokens(token, strings.TrimSpace(c.GetHeader(CSRFHeaderName))) {
			g.log.Warn("csrf validation failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Bool("cookie_issued", issued),
			)
			response.Error(c, errors.ErrCSRFInvalid)
			c.Abort()
			return
		}
	}

	c.Next()
}

// token returns the caller's existing token or issues a fresh cookie.
func (g *csrfGuard) token(c *gin.Context) (string, bool, error) {
	if existing, err := c.Cookie(CSRFCookieName); err == nil && existing != "" {
		return existing, false, nil
	}

	token, err := crypto.GenerateToken(csrfTokenLength)
	if err != nil {
		return "", false, err
	}
	// Not HttpOnly: clients echo the value in X-CSRF-Token.
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		Domain:   g.opts.Domain,
		Secure:   g.opts.Secure || c.Request.TLS != nil,
		HttpOnly: false,
		MaxAge:   int(csrfTokenTTL / time.Second),
		SameSite: http.SameSiteStrictMode,
	})
	return token, true, nil
}
