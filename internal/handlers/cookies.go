package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pirouette/studio/internal/middleware"
	"github.com/pirouette/studio/internal/models"
)

// CookieOptions controls the attributes of the session cookies.
type CookieOptions struct {
	Secure bool
	Domain string
}

var sessionCookieNames = []string{
	middleware.SessionCookieName,
	middleware.UserIDCookieName,
	middleware.UserRoleCookieName,
}

func (o CookieOptions) set(c *gin.Context, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   o.Domain,
		MaxAge:   maxAge,
		Secure:   o.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// setSessionCookies issues the three session cookies for a freshly started session.
func (o CookieOptions) setSessionCookies(c *gin.Context, session *models.Session, now time.Time) {
	maxAge := int(session.ExpiresAt.Sub(now).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	o.set(c, middleware.SessionCookieName, session.ID, maxAge)
	o.set(c, middleware.UserIDCookieName, session.UserID, maxAge)
	o.set(c, middleware.UserRoleCookieName, session.Role, maxAge)
}

// clearSessionCookies expires every session cookie on the client.
func (o CookieOptions) clearSessionCookies(c *gin.Context) {
	for _, name := range sessionCookieNames {
		o.set(c, name, "", -1)
	}
}
