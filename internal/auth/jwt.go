// Package auth issues and verifies the signed session tokens that gate the
// ledger API, and generates the placeholder credentials stored for each
// allow-listed user.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnknownUser is returned when a token is requested for a name
	// outside the allow-list.
	ErrUnknownUser = errors.New("user is not recognized")

	// ErrMissingToken is returned when no token was supplied at all.
	ErrMissingToken = errors.New("authorization token required")

	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid is returned for a malformed token or a bad signature.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the session token payload: the allow-listed username plus the
// registered expiry claim.
type Claims struct {
	User string `json:"user"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies session tokens for a closed set of users.
//
// Tokens are stateless: validity is fully determined by the HMAC signature
// and the expiry claim. Verification deliberately does not re-check the
// allow-list, so a token issued for a since-removed user stays valid until
// it expires.
type TokenManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	allowed       map[string]bool
}

// NewTokenManager creates a token manager signing with the given secret.
// secretKey must be non-empty; it is required startup configuration, not a
// compiled-in constant. tokenDuration is how long issued tokens stay valid.
func NewTokenManager(secretKey string, tokenDuration time.Duration, allowedUsers []string) (*TokenManager, error) {
	if secretKey == "" {
		return nil, errors.New("token secret key must be configured")
	}

	allowed := make(map[string]bool, len(allowedUsers))
	for _, name := range allowedUsers {
		allowed[name] = true
	}

	return &TokenManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		allowed:       allowed,
	}, nil
}

// Issue creates a signed token asserting the given username. Fails with
// ErrUnknownUser unless the name is allow-listed.
func (m *TokenManager) Issue(username string) (string, error) {
	if !m.allowed[username] {
		return "", ErrUnknownUser
	}

	claims := &Claims{
		User: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenDuration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a token, returning the embedded username.
// Distinguishes a missing token, an expired one, and everything else.
func (m *TokenManager) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.User == "" {
		return "", ErrTokenInvalid
	}

	return claims.User, nil
}
