package app

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pirouette/studio/internal/auth"
	"github.com/pirouette/studio/internal/services"
)

// AuthStack bundles the session core shared by the HTTP server and the CLI.
type AuthStack struct {
	Audit     *services.AuditService
	Sessions  *auth.SessionStore
	Users     *auth.UserDirectory
	Validator *auth.Validator
	Lifecycle *auth.Lifecycle
}

// NewAuthStack wires the session store, validator, lifecycle manager and
// audit logger over db. A nil clock uses time.Now.
func NewAuthStack(db *gorm.DB, cfg AuthConfig, clock func() time.Time) (*AuthStack, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}

	storeCfg := cfg.StoreConfig()
	storeCfg.Clock = clock
	sessions, err := auth.NewSessionStore(db, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("initialise session store: %w", err)
	}

	users, err := auth.NewUserDirectory(db, clock)
	if err != nil {
		return nil, fmt.Errorf("initialise user directory: %w", err)
	}

	validator, err := auth.NewValidator(sessions, users, clock)
	if err != nil {
		return nil, fmt.Errorf("initialise session validator: %w", err)
	}

	lifecycleCfg := cfg.LifecycleConfig(audit)
	lifecycleCfg.Clock = clock
	lifecycle, err := auth.NewLifecycle(sessions, lifecycleCfg)
	if err != nil {
		return nil, fmt.Errorf("initialise session lifecycle: %w", err)
	}

	return &AuthStack{
		Audit:     audit,
		Sessions:  sessions,
		Users:     users,
		Validator: validator,
		Lifecycle: lifecycle,
	}, nil
}
