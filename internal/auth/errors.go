package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrSessionNotFound indicates that no session row matches the identifier.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrUserNotFound is returned by user lookups for missing or deactivated accounts.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrInvalidCredentials is returned when an email/password pair does not match.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrRoleNotGranted is returned when a user signs in under a role they do not hold.
	ErrRoleNotGranted = errors.New("auth: role not granted")
	// ErrNoRoleConflict is returned when conflict resolution is requested for a session without one.
	ErrNoRoleConflict = errors.New("auth: no role conflict")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("auth: email already registered")
)

// PersistenceError wraps a failure of the underlying session or user storage.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("auth: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistenceError reports whether err (or anything it wraps) is a storage failure.
func IsPersistenceError(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") || strings.Contains(lower, "duplicate")
}
