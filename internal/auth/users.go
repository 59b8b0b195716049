package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pirouette/studio/internal/models"
	"github.com/pirouette/studio/pkg/crypto"
)

// UserLookup resolves session owners. Missing and deactivated accounts both
// yield ErrUserNotFound.
type UserLookup interface {
	FindActiveUser(ctx context.Context, id string) (*models.User, error)
}

// NewUserInput captures the details required to register a studio account.
type NewUserInput struct {
	Email      string
	Password   string
	FullName   string
	IsVerified bool
	Roles      []string
}

// UserDirectory is the gorm-backed account store used by login and validation.
type UserDirectory struct {
	db  *gorm.DB
	now func() time.Time
}

// NewUserDirectory constructs a directory backed by db.
func NewUserDirectory(db *gorm.DB, clock func() time.Time) (*UserDirectory, error) {
	if db == nil {
		return nil, errors.New("user directory: db is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &UserDirectory{db: db, now: clock}, nil
}

// FindActiveUser loads an active account with its granted roles.
func (d *UserDirectory) FindActiveUser(ctx context.Context, id string) (*models.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrUserNotFound
	}

	var user models.User
	err := d.db.WithContext(ctx).Preload("Roles").Take(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, persistenceError("find user", err)
	}
	if !user.IsActive {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

// Authenticate verifies an email/password pair and that the account may sign in as role.
func (d *UserDirectory) Authenticate(ctx context.Context, email, password, role string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	err := d.db.WithContext(ctx).Preload("Roles").Take(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, persistenceError("find user by email", err)
	}

	if !user.IsActive || !crypto.VerifyPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.HasRole(role) {
		return nil, ErrRoleNotGranted
	}
	return &user, nil
}

// RecordLogin stamps the account's last login time.
func (d *UserDirectory) RecordLogin(ctx context.Context, userID string) error {
	err := d.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login_at", d.now().UTC()).Error
	return persistenceError("record login", err)
}

// CreateUser registers an account with a hashed password and the requested roles.
func (d *UserDirectory) CreateUser(ctx context.Context, input NewUserInput) (*models.User, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, errors.New("user directory: email and password are required")
	}

	roles := make([]models.UserRole, 0, len(input.Roles))
	for _, raw := range input.Roles {
		role := models.NormalizeRole(raw)
		if role == "" {
			return nil, fmt.Errorf("user directory: unknown role %q", raw)
		}
		roles = append(roles, models.UserRole{Role: role})
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user directory: hash password: %w", err)
	}

	user := &models.User{
		Email:      email,
		Password:   hashed,
		FullName:   strings.TrimSpace(input.FullName),
		IsVerified: input.IsVerified,
		IsActive:   true,
		Roles:      roles,
	}
	if err := d.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, persistenceError("create user", err)
	}
	return user, nil
}

// GrantRole adds role to the user. Granting a role twice is a no-op.
func (d *UserDirectory) GrantRole(ctx context.Context, userID, role string) error {
	normalized := models.NormalizeRole(role)
	if normalized == "" {
		return fmt.Errorf("user directory: unknown role %q", role)
	}

	var count int64
	if err := d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return persistenceError("find user", err)
	}
	if count == 0 {
		return ErrUserNotFound
	}

	err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserRole{UserID: userID, Role: normalized}).Error
	return persistenceError("grant role", err)
}

// FindByEmail loads an account by email, including deactivated ones.
func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := d.db.WithContext(ctx).Preload("Roles").Take(&user, "email = ?", normalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, persistenceError("find user by email", err)
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
