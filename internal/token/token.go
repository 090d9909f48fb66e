// Package token issues and verifies the signed, time-limited access tokens
// that carry a user identity and role between requests. Tokens are
// self-contained; there is no server-side session state and no revocation.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront/internal/model"
)

var (
	// ErrExpired means the token was well-formed and correctly signed but
	// its expiry has passed.
	ErrExpired = errors.New("token expired")
	// ErrInvalid covers everything else: bad signature, malformed token,
	// missing or unusable claims.
	ErrInvalid = errors.New("invalid token")
)

// Claims is the identity payload embedded in every issued token.
type Claims struct {
	UserID int64      `json:"user_id"`
	Role   model.Role `json:"user_role"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens with a single symmetric key configured
// at startup.
type Manager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time // overridable in tests
}

func NewManager(secret, algorithm string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("signing secret must not be empty")
	}
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not symmetric", algorithm)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	return &Manager{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue creates a signed token for the given user expiring after the
// configured TTL.
func (m *Manager) Issue(userID int64, role model.Role) (string, error) {
	now := m.now().UTC()

	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the embedded claims.
// It does not consult any store; callers must still confirm the subject
// exists before trusting the identity.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if claims.UserID == 0 || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: missing identity claims", ErrInvalid)
	}

	return claims, nil
}
