package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	raw, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	userID, err := tokens.Verify(raw)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}
}

func TestVerifyRejects(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	otherKey, err := NewTokens("other-secret", time.Hour).Issue("user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	expiredIssuer := NewTokens("test-secret", time.Minute)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := map[string]string{
		"garbage":    "not-a-token",
		"other key":  otherKey,
		"expired":    expired,
		"no subject": noSubject,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := tokens.Verify(raw); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestIssueRequiresUser(t *testing.T) {
	if _, err := NewTokens("s", time.Hour).Issue("  "); err == nil {
		t.Fatal("expected error for empty user id")
	}
}
