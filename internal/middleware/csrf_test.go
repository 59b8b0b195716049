package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newCSRFRouter() *gin.Engine {
	r := gin.New()
	r.Use(CSRF(CSRFOptions{}))
	r.GET("/auth/me", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/auth/logout", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func issueCSRFToken(t *testing.T, r *gin.Engine) (*http.Cookie, string) {
	t.Helper()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	require.Equal(t, http.StatusOK, w.Code)

	resp := w.Result()
	defer resp.Body.Close()

	var csrfCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == CSRFCookieName {
			csrfCookie = c
		}
	}
	require.NotNil(t, csrfCookie)
	require.False(t, csrfCookie.HttpOnly)
	return csrfCookie, resp.Header.Get(CSRFHeaderName)
}

func TestCSRFIssuesTokenOnSafeMethod(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cookie, header := issueCSRFToken(t, newCSRFRouter())
	require.NotEmpty(t, cookie.Value)
	require.Equal(t, cookie.Value, header)
}

func TestCSRFAcceptsValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newCSRFRouter()
	cookie, token := issueCSRFToken(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	req.Header.Set(CSRFHeaderName, token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestCSRFFailsWithMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	newCSRFRouter().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestCSRFSkipsBearerRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer maintenance")
	newCSRFRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestCSRFRejectsMismatchedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newCSRFRouter()
	r.DELETE("/auth/logout", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	cookie, _ := issueCSRFToken(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/auth/logout", nil)
	req.AddCookie(cookie)
	req.Header.Set(CSRFHeaderName, "forged")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestCSRFCookieHonoursOptions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CSRF(CSRFOptions{Secure: true, Domain: "studio.example.com"}))
	r.GET("/auth/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.True(t, cookies[0].Secure)
	require.Equal(t, "studio.example.com", cookies[0].Domain)
	require.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
}

func TestCSRFSkipsExemptRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CSRF(CSRFOptions{Exempt: []string{"/auth/logout"}}))
	r.POST("/auth/logout", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Result().Cookies())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	require.Equal(t, http.StatusForbidden, w.Code)
}
