// Package crypto encrypts note content at rest.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// envelopePrefix marks ciphertext produced by this package. Rows
// written before encryption was enabled carry raw plaintext.
const envelopePrefix = "enc:v1:"

// ContentCipher seals and opens note content with a key derived from
// the configured passphrase. A nil cipher (empty passphrase) passes
// content through unchanged.
type ContentCipher struct {
	key []byte
}

// NewContentCipher derives the encryption key from the passphrase.
// Returns nil when the passphrase is empty, disabling encryption.
func NewContentCipher(passphrase string) *ContentCipher {
	if passphrase == "" {
		return nil
	}
	sum := sha256.Sum256([]byte(passphrase))
	return &ContentCipher{key: sum[:]}
}

// Seal encrypts the content into the envelope format. Empty content is
// stored as-is.
func (c *ContentCipher) Seal(plaintext string) (string, error) {
	if c == nil || plaintext == "" {
		return plaintext, nil
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return envelopePrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts envelope-format content. Values without the envelope
// prefix, or that fail to decrypt, are returned unchanged: legacy rows
// predate encryption and are tolerated.
func (c *ContentCipher) Open(stored string) string {
	if c == nil || !strings.HasPrefix(stored, envelopePrefix) {
		return stored
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, envelopePrefix))
	if err != nil {
		return stored
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return stored
	}

	if len(raw) < aead.NonceSize() {
		return stored
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return stored
	}

	return string(plaintext)
}
