package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/nextplay/nextplay-auth/internal/apperr"
	"github.com/nextplay/nextplay-auth/internal/identity"
)

const minPasswordLength = 6

// Client-facing messages.
const (
	msgRegisterMissing    = "username, email and password are required"
	msgWeakPassword       = "password must be at least 6 characters"
	msgCredentialInUse    = "email or username already in use"
	msgRegisterFailed     = "failed to register user"
	msgLoginMissing       = "email and password are required"
	msgInvalidCredentials = "invalid credentials"
	msgLoginFailed        = "failed to log in"
	msgUserNotFound       = "user not found"
	msgFetchUserFailed    = "failed to fetch user"
)

// RegisterInput is the registration payload.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Validate checks presence first, then password strength.
func (in RegisterInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required),
		validation.Field(&in.Email, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
	if err != nil {
		return apperr.Validation(msgRegisterMissing)
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return apperr.Validation(msgWeakPassword)
	}
	return nil
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string
	Password string
}

func (in LoginInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
	if err != nil {
		return apperr.Validation(msgLoginMissing)
	}
	return nil
}

// Session is the result of a successful register or login.
type Session struct {
	User  identity.Profile
	Token string
}

// Service orchestrates credential checks, hashing, persistence and token issuance.
type Service struct {
	users  identity.Repository
	tokens *TokenService
	hasher Hasher
	logger *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewService wires the auth service. All dependencies are created once at startup.
func NewService(users identity.Repository, tokens *TokenService, hasher Hasher, logger *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, hasher: hasher, logger: logger}
}

// Register creates an account and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	if err := in.Validate(); err != nil {
		return Session{}, err
	}

	_, err := s.users.FindByEmailOrUsername(ctx, in.Email, in.Username)
	switch {
	case err == nil:
		return Session{}, apperr.Conflict(msgCredentialInUse)
	case !errors.Is(err, identity.ErrNotFound):
		return Session{}, apperr.Internal(msgRegisterFailed, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, apperr.Internal(msgRegisterFailed, err)
	}

	user, err := s.users.Create(ctx, identity.NewUser{Username: in.Username, Email: in.Email, PasswordHash: hash})
	if err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, identity.ErrConflict) {
			return Session{}, apperr.Conflict(msgCredentialInUse)
		}
		return Session{}, apperr.Internal(msgRegisterFailed, err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, apperr.Internal(msgRegisterFailed, err)
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return Session{User: user, Token: token}, nil
}

// Login checks credentials. Unknown email and wrong password produce the same error.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	if err := in.Validate(); err != nil {
		return Session{}, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, identity.ErrNotFound) {
		// Spend the same bcrypt time as a real comparison.
		_, _ = s.hasher.Compare(s.dummy(), in.Password)
		return Session{}, apperr.Auth(msgInvalidCredentials)
	}
	if err != nil {
		return Session{}, apperr.Internal(msgLoginFailed, err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, in.Password)
	if err != nil {
		return Session{}, apperr.Internal(msgLoginFailed, err)
	}
	if !ok {
		return Session{}, apperr.Auth(msgInvalidCredentials)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, apperr.Internal(msgLoginFailed, err)
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return Session{User: user.Profile(), Token: token}, nil
}

// CurrentUser loads the profile for an id that already passed token verification.
func (s *Service) CurrentUser(ctx context.Context, userID string) (identity.Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, identity.ErrNotFound) {
		return identity.Profile{}, apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return identity.Profile{}, apperr.Internal(msgFetchUserFailed, err)
	}
	return user, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("nextplay-dummy-password")
		if err != nil {
			s.logger.Warn("dummy hash unavailable", slog.Any("error", err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
