package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenErrorKind tells a caller why a bearer token was rejected.
type TokenErrorKind uint8

const (
	TokenMissing TokenErrorKind = iota + 1
	TokenMalformed
	TokenExpired
	TokenInvalid
)

func (k TokenErrorKind) String() string {
	switch k {
	case TokenMissing:
		return "missing token"
	case TokenMalformed:
		return "malformed token"
	case TokenExpired:
		return "token expired"
	default:
		return "invalid token"
	}
}

// TokenError is returned by TokenService.Verify. Its message is safe to send
// to clients.
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string { return e.Kind.String() }

func (e *TokenError) Unwrap() error { return e.Err }

// Claims is the JWT payload. ID (jti) is random so two tokens for the same
// user never collide, even within one second.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens under a single secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source used for iat, exp and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService returns a TokenService. secret and ttl are fixed for its lifetime.
func NewTokenService(secret []byte, ttl time.Duration, opts ...TokenOption) *TokenService {
	s := &TokenService{secret: append([]byte(nil), secret...), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a token for userID that expires after the configured TTL.
func (s *TokenService) Issue(userID string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature and expiry and returns the embedded user id. Any
// failure is a *TokenError.
func (s *TokenService) Verify(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", &TokenError{Kind: TokenMissing}
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", &TokenError{Kind: TokenMalformed, Err: err}
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", &TokenError{Kind: TokenExpired, Err: err}
		default:
			return "", &TokenError{Kind: TokenInvalid, Err: err}
		}
	}
	if claims.UserID == "" {
		return "", &TokenError{Kind: TokenInvalid, Err: errors.New("userId claim is empty")}
	}
	return claims.UserID, nil
}

type userIDKey struct{}

// WithUserID returns a context carrying the verified user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFrom returns the verified user id stored by WithUserID.
func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}
