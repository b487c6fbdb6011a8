// Package secrets seals external credentials before they are persisted.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrNoKey is returned when sealing is attempted without a configured key.
	ErrNoKey = errors.New("secrets: credential key not configured")
	// ErrMalformed is returned for ciphertext that cannot be opened.
	ErrMalformed = errors.New("secrets: malformed ciphertext")
)

// Sealer encrypts credentials with XChaCha20-Poly1305. The tenant id is bound
// as additional data so a ciphertext copied into another tenant's row will
// not open.
type Sealer struct {
	key []byte
}

// NewSealer decodes a base64 32 byte key. An empty key yields a Sealer that
// refuses to seal.
func NewSealer(encodedKey string) (*Sealer, error) {
	if encodedKey == "" {
		return &Sealer{}, nil
	}
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode credential key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("credential key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &Sealer{key: key}, nil
}

// Enabled reports whether a key is configured.
func (s *Sealer) Enabled() bool {
	return s != nil && len(s.key) > 0
}

// Seal returns nonce || ciphertext.
func (s *Sealer) Seal(tenantID uuid.UUID, plaintext string) ([]byte, error) {
	if !s.Enabled() {
		return nil, ErrNoKey
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, []byte(plaintext), tenantID[:]), nil
}

// Open reverses Seal for the same tenant.
func (s *Sealer) Open(tenantID uuid.UUID, sealed []byte) (string, error) {
	if !s.Enabled() {
		return "", ErrNoKey
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return "", ErrMalformed
	}
	nonce, ct := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	pt, err := aead.Open(nil, nonce, ct, tenantID[:])
	if err != nil {
		return "", ErrMalformed
	}
	return string(pt), nil
}

// GenerateKey returns a new base64 encoded key suitable for secrets.credential_key.
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
