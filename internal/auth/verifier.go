// Package auth verifies bearer credentials and carries the
// authenticated identity through request contexts.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dukerupert/ladle/internal/apperr"
)

// TokenVerifier resolves a bearer token to a uid.
type TokenVerifier interface {
	Verify(token string) (uid string, err error)
}

// Verifier validates HMAC-signed JWTs issued by the identity provider.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for tokens signed with secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks the token signature and expiry and returns the subject
// uid. Any failure is an unauthorized error.
func (v *Verifier) Verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", apperr.Unauthorized("invalid token")
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", apperr.Unauthorized("token has no subject")
	}
	return sub, nil
}
