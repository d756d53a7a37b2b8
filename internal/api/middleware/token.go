package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/cardstock/internal/platform/logger"
)

// Token verification errors.
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf claim in the future)
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")
)

// minSecretLength matches the auth.jwt_secret validation rule.
const minSecretLength = 32

// Claims are the token claims cardstock reads. Tokens are issued by the
// identity provider; the user id travels in "uid" with "sub" as a fallback.
type Claims struct {
	UserID uuid.UUID `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier checks bearer tokens and returns the user they were issued for.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (uuid.UUID, error)
}

// HMACVerifier verifies HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	secret    []byte
	clockSkew time.Duration
	timeFunc  func() time.Time
}

var _ TokenVerifier = (*HMACVerifier)(nil)

// NewHMACVerifier creates a verifier for secret.
func NewHMACVerifier(secret string) (*HMACVerifier, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	return &HMACVerifier{
		secret:    []byte(secret),
		clockSkew: 2 * time.Minute,
		timeFunc:  time.Now,
	}, nil
}

// Sign issues a token for userID valid for ttl. It exists for local
// development and tests; production tokens come from the identity provider.
func (v *HMACVerifier) Sign(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := v.timeFunc()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token with HMAC-SHA256: %w", err)
	}
	return signed, nil
}

// Verify implements TokenVerifier.
func (v *HMACVerifier) Verify(ctx context.Context, tokenString string) (uuid.UUID, error) {
	log := logger.FromContext(ctx)

	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithTimeFunc(v.timeFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("token validation failed: token expired")
			return uuid.Nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			log.Debug("token validation failed: token not yet valid")
			return uuid.Nil, ErrTokenNotYetValid
		default:
			log.Debug("token validation failed",
				"error", err,
				"error_type", fmt.Sprintf("%T", err))
			return uuid.Nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	userID := claims.UserID
	if userID == uuid.Nil {
		if userID, err = uuid.Parse(claims.Subject); err != nil {
			log.Debug("token validation failed: no user id in claims")
			return uuid.Nil, ErrInvalidToken
		}
	}
	return userID, nil
}
