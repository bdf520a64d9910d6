package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSessionSecret = "test-secret-at-least-16-chars!!"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSessionSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func signClaims(t *testing.T, method jwt.SigningMethod, key any, c jwt.RegisteredClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, c).SignedString(key)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	return signed
}

func TestNewTokenService(t *testing.T) {
	if _, err := NewTokenService("short", 0); err == nil {
		t.Error("secret shorter than 16 characters was accepted")
	}

	ts, err := NewTokenService("this-is-16-chars", 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	if ts.TTL() != DefaultSessionTTL {
		t.Errorf("TTL() = %v, want %v", ts.TTL(), DefaultSessionTTL)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("583231")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("token %q is not a compact JWT", token)
	}

	subject, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if subject != "583231" {
		t.Errorf("subject = %q, want %q", subject, "583231")
	}
}

func TestGenerate_RejectsNonNumericSubject(t *testing.T) {
	ts := newTestTokenService(t)

	for _, subject := range []string{"", "alice", "-4", "0"} {
		if _, err := ts.Generate(subject); err == nil {
			t.Errorf("Generate(%q) succeeded, want error", subject)
		}
	}
}

func TestSessionExpiresAfterTTL(t *testing.T) {
	ts := newTestTokenService(t)
	issued := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return issued }

	token, err := ts.Generate("42")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	ts.now = func() time.Time { return issued.Add(59 * time.Minute) }
	if _, err := ts.Validate(token); err != nil {
		t.Errorf("Validate before expiry: %v", err)
	}

	ts.now = func() time.Time { return issued.Add(61 * time.Minute) }
	_, err = ts.Validate(token)
	if !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Validate after expiry = %v, want ErrInvalidSession", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	ts := newTestTokenService(t)
	good, _ := ts.Generate("42")
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	other, _ := NewTokenService("another-secret-of-32-characters!", 0)
	otherToken, _ := other.Generate("42")

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt.token"},
		{"tampered signature", good[:len(good)-3] + "xxx"},
		{"different secret", otherToken},
		{"foreign issuer", signClaims(t, jwt.SigningMethodHS256, ts.secret, jwt.RegisteredClaims{
			Subject: "42", Issuer: "someone-else", ExpiresAt: exp,
		})},
		{"no expiry", signClaims(t, jwt.SigningMethodHS256, ts.secret, jwt.RegisteredClaims{
			Subject: "42", Issuer: sessionIssuer,
		})},
		{"non-numeric subject", signClaims(t, jwt.SigningMethodHS256, ts.secret, jwt.RegisteredClaims{
			Subject: "alice", Issuer: sessionIssuer, ExpiresAt: exp,
		})},
		{"HS512", signClaims(t, jwt.SigningMethodHS512, ts.secret, jwt.RegisteredClaims{
			Subject: "42", Issuer: sessionIssuer, ExpiresAt: exp,
		})},
		{"alg none", signClaims(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.RegisteredClaims{
			Subject: "42", Issuer: sessionIssuer, ExpiresAt: exp,
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, err := ts.Validate(tt.token)
			if !errors.Is(err, ErrInvalidSession) {
				t.Errorf("Validate() = (%q, %v), want ErrInvalidSession", subject, err)
			}
		})
	}
}
