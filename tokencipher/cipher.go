// Package tokencipher seals Facebook access tokens so they can leave the service
// and come back later. Sealed values are opaque strings; only a process holding
// the same secret can open them.
package tokencipher

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/jrsteele09/go-fb-ads-gateway/internal/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	sealedPrefix = "v1."
	version      = byte(1)

	// MinSecretLength is the shortest secret New accepts.
	MinSecretLength = 16

	// plaintext is padded to a multiple of this many bytes before sealing
	padBlock = 64

	keyInfo = "fb-ads-gateway token cipher v1"
)

// Cipher is XChaCha20-Poly1305 keyed from a process-wide secret via HKDF-SHA256.
// It is immutable after New and safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

func New(secret []byte) (*Cipher, error) {
	secret = bytes.TrimSpace(secret)
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("[tokencipher New] secret must be at least %d bytes", MinSecretLength)
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("[tokencipher New] derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("[tokencipher New] create aead: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Seal encrypts plaintext. Only the padded length is observable in the output.
func (c *Cipher) Seal(plaintext []byte) (string, error) {
	padded := pad(plaintext)
	defer wipe(padded)

	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(padded)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("[tokencipher Seal] nonce generation failed: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, padded, []byte{version})
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Any failure, whether malformed input, a different key or
// tampering, returns errors.ErrInvalidCredential and nothing about the cause.
func (c *Cipher) Open(sealed string) ([]byte, error) {
	if !strings.HasPrefix(sealed, sealedPrefix) {
		return nil, apperrors.ErrInvalidCredential
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
	if err != nil {
		return nil, apperrors.ErrInvalidCredential
	}
	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize+c.aead.Overhead() {
		return nil, apperrors.ErrInvalidCredential
	}

	padded, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], []byte{version})
	if err != nil {
		return nil, apperrors.ErrInvalidCredential
	}
	plaintext, ok := unpad(padded)
	if !ok {
		wipe(padded)
		return nil, apperrors.ErrInvalidCredential
	}
	return plaintext, nil
}

// pad applies ISO/IEC 7816-4 padding: 0x80 then zeros up to the next padBlock.
func pad(b []byte) []byte {
	n := (len(b)/padBlock + 1) * padBlock
	out := make([]byte, n)
	copy(out, b)
	out[len(b)] = 0x80
	return out
}

func unpad(b []byte) ([]byte, bool) {
	i := len(b) - 1
	for i >= 0 && b[i] == 0 {
		i--
	}
	if i < 0 || b[i] != 0x80 {
		return nil, false
	}
	return b[:i], true
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
