// Package secret seals OAuth tokens before they are written to the database.
//
// Tokens are encrypted with NaCl secretbox (XSalsa20-Poly1305). The 32-byte
// key is derived from the server secret with HKDF-SHA256, so no extra key
// material has to be configured. Sealed values are text:
//
//	sealed:v1:<base64url(nonce || box)>
//
// Values without the prefix are treated as plaintext and returned as-is by
// Open. Rows written before sealing was enabled stay readable.
package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	prefix    = "sealed:v1:"
	keySize   = 32
	nonceSize = 24
	hkdfInfo  = "the-issue-is/oauth-token-seal"
)

// Sealer encrypts and decrypts short secrets.
type Sealer struct {
	key    [keySize]byte
	random io.Reader
}

// NewSealer derives a sealing key from secret.
func NewSealer(secret string) (*Sealer, error) {
	if len(secret) < 16 {
		return nil, errors.New("secret: sealing secret must be at least 16 characters")
	}

	s := &Sealer{random: rand.Reader}
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, s.key[:]); err != nil {
		return nil, fmt.Errorf("secret: deriving key: %w", err)
	}
	return s, nil
}

// Seal encrypts plaintext. The empty string is returned unchanged.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(s.random, nonce[:]); err != nil {
		return "", fmt.Errorf("secret: reading nonce: %w", err)
	}

	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return prefix + base64.RawURLEncoding.EncodeToString(box), nil
}

// Open reverses Seal. Unprefixed values are returned as-is.
func (s *Sealer) Open(value string) (string, error) {
	if !strings.HasPrefix(value, prefix) {
		return value, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, prefix))
	if err != nil {
		return "", fmt.Errorf("secret: decoding sealed value: %w", err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", errors.New("secret: sealed value too short")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", errors.New("secret: sealed value failed authentication")
	}
	return string(plain), nil
}
