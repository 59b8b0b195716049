package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pirouette/studio/internal/api"
	"github.com/pirouette/studio/internal/app"
	iauth "github.com/pirouette/studio/internal/auth"
	sharedtestutil "github.com/pirouette/studio/internal/database/testutil"
	"github.com/pirouette/studio/internal/handlers"
	"github.com/pirouette/studio/internal/middleware"
	"github.com/pirouette/studio/internal/models"
)

// DefaultPassword is the password given to users created by CreateUser.
const DefaultPassword = "pas-de-bourree-7"

// MaintenanceToken is the bearer token accepted by the maintenance routes.
const MaintenanceToken = "test-maintenance-token"

// Clock is a settable time source shared by the auth core and handlers.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
	Stack  *app.AuthStack
	Clock  *Clock
	Config *app.Config
}

// Option adjusts the configuration before the router is built.
type Option func(*app.Config)

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())
	clock := &Clock{current: time.Date(2024, time.June, 3, 18, 0, 0, 0, time.UTC)}

	cfg := &app.Config{
		Server: app.ServerConfig{Environment: "test"},
		Auth: app.AuthConfig{
			Session:          app.SessionSettings{TTL: 24 * time.Hour, Retention: 30 * 24 * time.Hour},
			MaintenanceToken: MaintenanceToken,
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	stack, err := app.NewAuthStack(db, cfg.Auth, clock.Now)
	require.NoError(t, err)

	router, err := api.NewRouter(db, cfg, stack, nil, handlers.WithClock(clock.Now))
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Router: router,
		Stack:  stack,
		Clock:  clock,
		Config: cfg,
	}
}

// CreateUser inserts an active user holding roles, with DefaultPassword.
func (e *Env) CreateUser(roles ...string) *models.User {
	e.T.Helper()

	user, err := e.Stack.Users.CreateUser(context.Background(), iauth.NewUserInput{
		Email:      "dancer-" + uuid.NewString() + "@studio.test",
		Password:   DefaultPassword,
		FullName:   "Test Dancer",
		IsVerified: true,
		Roles:      roles,
	})
	require.NoError(e.T, err)
	return user
}

// StartSession opens a session directly through the lifecycle manager.
func (e *Env) StartSession(user *models.User, role string) *models.Session {
	e.T.Helper()

	session, err := e.Stack.Lifecycle.StartSession(context.Background(), user.ID, role, iauth.SessionMetadata{})
	require.NoError(e.T, err)
	return session
}

// SessionCookies returns the cookies a browser would present for session.
func SessionCookies(session *models.Session) []*http.Cookie {
	return []*http.Cookie{
		{Name: middleware.SessionCookieName, Value: session.ID},
		{Name: middleware.UserIDCookieName, Value: session.UserID},
		{Name: middleware.UserRoleCookieName, Value: session.Role},
	}
}

// Login posts credentials to /auth/login and returns the recorder.
func (e *Env) Login(email, password, role string) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.Request(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
		"role":     role,
	})
}

// Request executes an HTTP request against the test router, JSON encoding body
// and attaching cookies.
func (e *Env) Request(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.RequestWithHeaders(method, path, body, nil, cookies...)
}

// RequestWithHeaders is Request with extra headers.
func (e *Env) RequestWithHeaders(method, path string, body any, header http.Header, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.T.Helper()

	buf := bytes.NewBuffer(nil)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// DecodeBody parses a JSON response body into a generic map.
func DecodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// ResponseCookie returns the Set-Cookie entry named name, or nil.
func ResponseCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}
