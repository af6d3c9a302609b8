package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestMaker(secret string, now *time.Time) *TokenMaker {
	tm := NewTokenMaker(secret, time.Hour)
	tm.now = func() time.Time { return *now }
	return tm
}

func TestTokenMaker_IssueParse(t *testing.T) {
	now := time.Now()
	tm := newTestMaker("test-secret", &now)

	for _, user := range []string{"ana", ""} {
		tok, err := tm.Issue(user)
		if err != nil {
			t.Fatalf("issue %q: %v", user, err)
		}

		c, err := tm.Parse(tok)
		if err != nil {
			t.Fatalf("parse %q: %v", user, err)
		}
		if c.User != user {
			t.Fatalf("user=%q want=%q", c.User, user)
		}
		if got := c.ExpiresAt.Time.Sub(c.IssuedAt.Time); got != time.Hour {
			t.Fatalf("ttl=%v want 1h", got)
		}
	}
}

func TestTokenMaker_Rejects(t *testing.T) {
	now := time.Now()
	tm := newTestMaker("test-secret", &now)

	good, err := tm.Issue("ana")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	bob, err := tm.Issue("bob")
	if err != nil {
		t.Fatalf("issue bob: %v", err)
	}
	gp, bp := strings.Split(good, "."), strings.Split(bob, ".")
	tampered := bp[0] + "." + bp[1] + "." + gp[2]

	other, err := newTestMaker("other-secret", &now).Issue("ana")
	if err != nil {
		t.Fatalf("issue other: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{User: "ana"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "different key", token: other},
		{name: "malformed", token: "not.a.token"},
		{name: "empty", token: ""},
		{name: "tampered", token: tampered},
		{name: "alg none", token: none},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tm.Parse(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("want ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestTokenMaker_Expiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tm := newTestMaker("test-secret", &now)

	tok, err := tm.Issue("ana")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	now = now.Add(59 * time.Minute)
	if _, err := tm.Parse(tok); err != nil {
		t.Fatalf("parse before expiry: %v", err)
	}

	now = now.Add(2 * time.Minute)
	_, err = tm.Parse(tok)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken after expiry, got %v", err)
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired cause, got %v", err)
	}
}
