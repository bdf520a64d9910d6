// Package auth holds the credentials this service issues or signs:
//
//   - the session JWT (HS256) set as an HttpOnly "token" cookie after the
//     OAuth handshake, whose subject is the caller's GitHub user id
//   - the GitHub App assertion (RS256) exchanged for installation tokens
//   - the OAuth provider that trades a code for a user token set and
//     refreshes expiring tokens
//
// A session token looks like
//
//	HEADER.PAYLOAD.SIGNATURE
//	{"alg":"HS256","typ":"JWT"}.{"iss":"the-issue-is","sub":"42","iat":...,"exp":...}.HMAC
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionIssuer = "the-issue-is"

// DefaultSessionTTL is the session lifetime when none is configured.
const DefaultSessionTTL = 24 * time.Hour

// ErrInvalidSession wraps every reason a session token is refused.
var ErrInvalidSession = errors.New("auth: invalid session token")

// TokenService issues and verifies session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService signing with secret, which must
// be at least 16 characters. A ttl of zero selects DefaultSessionTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of issued tokens. The session cookie uses the same
// value as its Max-Age.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate signs a session token for subject, a GitHub user id in decimal.
func (s *TokenService) Generate(subject string) (string, error) {
	if !validSubject(subject) {
		return "", fmt.Errorf("auth: session subject %q is not a GitHub user id", subject)
	}

	now := s.now()
	c := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session: %w", err)
	}
	return signed, nil
}

// Validate verifies a session token and returns its subject. Only HS256
// tokens from this issuer with an expiry are accepted; "alg":"none" and
// RS256 tokens are refused before the key is consulted.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: expired", ErrInvalidSession)
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	if !validSubject(c.Subject) {
		return "", fmt.Errorf("%w: subject %q is not a GitHub user id", ErrInvalidSession, c.Subject)
	}
	return c.Subject, nil
}

func validSubject(subject string) bool {
	id, err := strconv.ParseInt(subject, 10, 64)
	return err == nil && id > 0
}
