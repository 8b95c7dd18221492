// Package crypto seals stored credentials with XChaCha20-Poly1305.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var (
	ErrKeyTooShort = errors.New("credential key must be at least 16 characters")
	ErrMalformed   = errors.New("sealed value is malformed")
)

const minPassphraseLen = 16

var hkdfInfo = []byte("kscst credential sealing v1")

// ParseKey turns the configured key into 32 bytes. A hex or base64 value of
// exactly 32 bytes is used as is; any other string of at least 16 characters
// is stretched with HKDF-SHA256.
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)

	if b, err := hex.DecodeString(raw); err == nil && len(b) == chacha20poly1305.KeySize {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil && len(b) == chacha20poly1305.KeySize {
		return b, nil
	}
	if len(raw) < minPassphraseLen {
		return nil, ErrKeyTooShort
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(raw), nil, hkdfInfo), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// Sealer implements ports.CredentialSealer. Output is base64url of
// nonce || ciphertext. The associated data binds a sealed value to its
// owner: Open fails unless it is given the same bytes Seal was.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer returns a Sealer for a 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// NewSealerFromString parses raw with ParseKey and returns a Sealer.
func NewSealerFromString(raw string) (*Sealer, error) {
	key, err := ParseKey(raw)
	if err != nil {
		return nil, err
	}
	return NewSealer(key)
}

func (s *Sealer) Seal(plaintext, associated []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, plaintext, associated)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (s *Sealer) Open(sealed string, associated []byte) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw) < s.aead.NonceSize()+s.aead.Overhead() {
		return nil, ErrMalformed
	}

	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, associated)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return plaintext, nil
}
