package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tasktrack/tasktrack/internal/shared"
)

// Claims embeds the registered claims and the user identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
}

// TokenManager signs and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a manager. A nil clock means time.Now.
func NewTokenManager(secret []byte, now func() time.Time) *TokenManager {
	if now == nil {
		now = time.Now
	}
	return &TokenManager{secret: secret, ttl: TokenTTL, now: now}
}

// Issue mints a token for userID valid for TokenTTL from the issued-at second.
func (m *TokenManager) Issue(userID string) (string, Claims, error) {
	if userID == "" {
		return "", Claims{}, errors.New("auth: issue token: empty user id")
	}
	issuedAt := m.now().UTC().Truncate(time.Second)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(m.ttl)),
		},
		UserID: userID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies signature and expiry and returns the claims. Every failure wraps
// shared.ErrInvalidToken together with the jwt cause.
func (m *TokenManager) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, shared.ErrInvalidToken
	}
	return claims, nil
}
