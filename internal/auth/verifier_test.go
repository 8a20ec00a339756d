package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dukerupert/ladle/internal/apperr"
)

func issueToken(t *testing.T, secret, uid string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uid,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	v := NewVerifier("test-secret")
	token := issueToken(t, "test-secret", "user-1", time.Hour)

	uid, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid != "user-1" {
		t.Errorf("uid = %q, want %q", uid, "user-1")
	}
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	v := NewVerifier("test-secret")
	token := issueToken(t, "other-secret", "user-1", time.Hour)

	_, err := v.Verify(token)
	if err == nil {
		t.Fatal("expected error for bad signature")
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.KindUnauthorized {
		t.Errorf("expected unauthorized error, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	v := NewVerifier("test-secret")
	token := issueToken(t, "test-secret", "user-1", -time.Minute)

	if _, err := v.Verify(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	v := NewVerifier("test-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := v.Verify(signed); err == nil {
		t.Fatal("expected error for missing subject")
	}
}

func TestUIDRoundTrip(t *testing.T) {
	ctx := WithUID(t.Context(), "user-9")
	if got := UID(ctx); got != "user-9" {
		t.Errorf("UID = %q, want %q", got, "user-9")
	}
	if got := UID(t.Context()); got != "" {
		t.Errorf("UID on bare context = %q, want empty", got)
	}
}
