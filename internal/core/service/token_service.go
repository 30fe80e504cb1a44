package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taskboard/tracker/internal/core/domain"
)

// DefaultTokenTTL is the lifetime of an issued bearer token.
const DefaultTokenTTL = time.Hour

const tokenIssuer = "tracker-api"

var ErrMissingSecret = errors.New("token signing secret is empty")

// Claims is the JWT payload: the user id travels in "sub", the flat role in
// "role". The "jti" is unique per token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens with a process-wide
// secret. It holds no per-session state.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for userID with the configured TTL.
func (s *TokenService) Issue(userID, role string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm and expiry, and returns the identity the
// token was issued for. Every failure is a *domain.TokenError.
func (s *TokenService) Verify(token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, &domain.TokenError{Reason: domain.TokenMissing}
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return domain.Identity{}, &domain.TokenError{Reason: classifyTokenError(err), Err: err}
	}

	if claims.Subject == "" || claims.Role == "" {
		return domain.Identity{}, &domain.TokenError{Reason: domain.TokenClaims}
	}

	return domain.Identity{UserID: claims.Subject, Role: claims.Role}, nil
}

func classifyTokenError(err error) domain.TokenReason {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.TokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return domain.TokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.TokenSignature
	default:
		return domain.TokenClaims
	}
}
