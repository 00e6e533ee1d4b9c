package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 3-50 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,50}$`)

// Password length bounds enforced at sign-up.
const (
	minPasswordLength = 6
	maxPasswordLength = 100
)

// IsValidUsername checks if a username meets format requirements.
// Usernames must be 3-50 characters, alphanumeric with dots, hyphens, underscores.
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleViewer can read the culvert registry but never mutate it.
	// Default for self-service sign-up.
	RoleViewer Role = "VIEWER"

	// RoleEngineer performs field inspections: creates and updates culvert
	// records. Cannot manage accounts or read the audit trail.
	RoleEngineer Role = "ENGINEER"

	// RoleAdmin has full control: registry mutations, account management,
	// audit access. Only an admin may create privileged accounts.
	RoleAdmin Role = "ADMIN"
)

// ValidRoles is the closed set of roles a principal may hold.
var ValidRoles = []Role{RoleViewer, RoleEngineer, RoleAdmin}

// IsValidRole returns true if the role is a member of the closed role set.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// IsPrivileged returns true for roles that may only be assigned by an admin.
// Self-service sign-up is limited to VIEWER.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleEngineer
}

// User represents an authenticated principal record.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	PasswordHash string     `json:"-"` // never serialised
	Role         Role       `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"` // nil until first successful sign-in
}

// ValidationError reports a malformed input field at the API boundary.
// It is recoverable: the caller can retry with corrected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Sentinel errors for auth operations.
var (
	// ErrInvalidCredentials is returned for both unknown usernames and wrong
	// passwords, so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUserNotFound      = errors.New("user not found")
	ErrUsernameExists    = errors.New("username already exists")
	ErrEmailExists       = errors.New("email already exists")
	ErrTokenExpired      = errors.New("token has expired")
	ErrTokenInvalid      = errors.New("invalid token")
	ErrForbidden         = errors.New("insufficient permissions")
	ErrCorruptCredential = errors.New("stored credential is corrupt")
)
