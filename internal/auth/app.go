package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/github"
)

// appAssertionLifetime is the validity window GitHub allows for App JWTs.
const appAssertionLifetime = 10 * time.Minute

// AppSigner signs the short-lived RS256 JWT that identifies the GitHub App.
// The assertion is only accepted by the installation-token endpoint.
type AppSigner struct {
	appID string
	key   *rsa.PrivateKey
	now   func() time.Time
}

// NewAppSigner parses a PEM-encoded RSA private key (PKCS#1 or PKCS#8).
func NewAppSigner(appID string, privateKeyPEM []byte) (*AppSigner, error) {
	if _, err := strconv.ParseInt(appID, 10, 64); err != nil {
		return nil, fmt.Errorf("auth: GitHub App id %q is not numeric", appID)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("auth: parsing GitHub App private key: %w", err)
	}
	return &AppSigner{appID: appID, key: key, now: time.Now}, nil
}

// NewAppSignerFromFile reads the private key from path.
func NewAppSignerFromFile(appID, path string) (*AppSigner, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("auth: reading GitHub App private key: %w", err)
	}
	return NewAppSigner(appID, pem)
}

// Sign returns a fresh App assertion. iat and exp are whole seconds and
// exactly appAssertionLifetime apart; iss is the App id.
func (s *AppSigner) Sign() (github.AppAssertion, error) {
	if s == nil || s.key == nil {
		return "", errors.New("auth: App signer is not configured")
	}
	issuedAt := s.now().Truncate(time.Second)

	c := jwt.RegisteredClaims{
		Issuer:    s.appID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(appAssertionLifetime)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, c).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("auth: signing App assertion: %w", err)
	}
	return github.AppAssertion(signed), nil
}
