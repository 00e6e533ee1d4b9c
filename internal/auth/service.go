package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
)

// Session is the result of a successful sign-up or sign-in.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// SignUpInput carries the fields required to register a principal.
type SignUpInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     Role   `json:"role"`
}

// Service is the authentication core. It orchestrates sign-up, sign-in,
// token validation/refresh, and current-principal lookup against the
// credential store and the token manager.
type Service struct {
	users  UserRepository
	tokens *TokenManager
	logger *slog.Logger
}

// NewService creates the authentication core.
func NewService(users UserRepository, tokens *TokenManager, logger *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger}
}

// SignUp validates the input, enforces the role-assignment policy, creates
// the principal, and issues a token for it.
//
// Policy: privileged roles (ADMIN, ENGINEER) may only be assigned when the
// caller already presents a valid ADMIN token. Self-service sign-up is
// limited to VIEWER. Duplicate usernames/emails surface as ErrUsernameExists
// or ErrEmailExists; the store's uniqueness constraints are the guard, so
// concurrent duplicate sign-ups resolve to exactly one success.
func (s *Service) SignUp(ctx context.Context, in SignUpInput, caller *Claims) (*Session, error) {
	if err := validateSignUp(in); err != nil {
		return nil, err
	}

	if in.Role.IsPrivileged() {
		if caller == nil || caller.Role != RoleAdmin {
			return nil, fmt.Errorf("%w: role %s requires an admin caller", ErrForbidden, in.Role)
		}
	}

	// Fast-path duplicate checks for friendlier errors. The UNIQUE
	// constraints below remain the actual guarantee.
	if taken, err := s.users.ExistsByUsername(ctx, in.Username); err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	} else if taken {
		return nil, ErrUsernameExists
	}
	if taken, err := s.users.ExistsByEmail(ctx, in.Email); err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	} else if taken {
		return nil, ErrEmailExists
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Username:     in.Username,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("principal created",
		"user_id", user.ID,
		"username", user.Username,
		"role", user.Role,
	)

	return &Session{Token: token, User: user}, nil
}

// SignIn verifies the credentials and issues a token.
//
// Unknown usernames and wrong passwords both return ErrInvalidCredentials
// so the response cannot be used to enumerate accounts. A corrupt stored
// hash is logged but reported to the caller the same way. On success the
// principal's last-login timestamp is updated.
func (s *Service) SignIn(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unreadable",
			"user_id", user.ID,
			"error", err,
		)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("recording sign-in: %w", err)
	}
	user.LastLoginAt = &now

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	return &Session{Token: token, User: user}, nil
}

// TokenLifetime returns the configured token lifetime.
func (s *Service) TokenLifetime() time.Duration {
	return s.tokens.Lifetime()
}

// Validate checks a token and returns its claims. It never mutates state.
func (s *Service) Validate(raw string) (*Claims, error) {
	return s.tokens.Verify(raw)
}

// Refresh exchanges a token within its refresh grace window for a new one.
func (s *Service) Refresh(raw string) (string, error) {
	return s.tokens.Refresh(raw)
}

// CurrentUser resolves a token to its principal record. A token can outlive
// its principal (stateless tokens reference identities by ID), in which
// case ErrUserNotFound is returned even though the signature verifies.
func (s *Service) CurrentUser(ctx context.Context, raw string) (*User, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, claims.Subject)
}

// Logout acknowledges a sign-out. Tokens are stateless and not tracked
// server-side, so the token stays cryptographically valid until expiry;
// all this can do is confirm the token was genuine so the caller can
// discard it (and the API layer can audit the event). True revocation
// would require a denylist consulted during Verify.
func (s *Service) Logout(raw string) (*Claims, error) {
	return s.tokens.Verify(raw)
}

// validateSignUp applies the boundary validation rules for registration.
func validateSignUp(in SignUpInput) error {
	if strings.TrimSpace(in.Username) == "" {
		return &ValidationError{Field: "username", Reason: "must not be blank"}
	}
	if !IsValidUsername(in.Username) {
		return &ValidationError{Field: "username", Reason: "must be 3-50 characters (letters, digits, dots, hyphens, underscores)"}
	}
	if len(in.Password) < minPasswordLength || len(in.Password) > maxPasswordLength {
		return &ValidationError{Field: "password", Reason: fmt.Sprintf("must be %d-%d characters", minPasswordLength, maxPasswordLength)}
	}
	if strings.TrimSpace(in.Password) == "" {
		return &ValidationError{Field: "password", Reason: "must not be blank"}
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return &ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	if strings.TrimSpace(in.Phone) == "" {
		return &ValidationError{Field: "phone", Reason: "must not be blank"}
	}
	if in.Role == "" {
		return &ValidationError{Field: "role", Reason: "must not be blank"}
	}
	if !IsValidRole(in.Role) {
		return &ValidationError{Field: "role", Reason: "must be one of VIEWER, ENGINEER, ADMIN"}
	}
	return nil
}
