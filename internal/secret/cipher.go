// Package secret seals vault documents at rest with AES-GCM.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrKeySize is returned when the encryption key is empty.
	ErrKeySize = errors.New("encryption key must be 16, 24, or 32 bytes for AES")
	// ErrCiphertext is returned when a sealed value is shorter than its nonce.
	ErrCiphertext = errors.New("ciphertext too short")
)

// KeyBytes returns the key as bytes. 16, 24 and 32 byte keys are used as-is;
// longer keys are truncated to 32 and shorter ones zero-padded to 32.
func KeyBytes(key string) ([]byte, error) {
	b := []byte(key)
	switch len(b) {
	case 16, 24, 32:
		return b, nil
	case 0:
		return nil, ErrKeySize
	default:
		if len(b) > 32 {
			return b[:32], nil
		}
		padded := make([]byte, 32)
		copy(padded, b)
		return padded, nil
	}
}

// Cipher seals and opens byte payloads. It is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a configured key string.
func NewCipher(key string) (*Cipher, error) {
	kb, err := KeyBytes(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(kb)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Seal encrypts plaintext and returns base64(nonce || ciphertext).
func (c *Cipher) Seal(plaintext []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(c.aead.Seal(nonce, nonce, plaintext, nil)), nil
}

// Open reverses Seal.
func (c *Cipher) Open(sealed string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, err
	}
	n := c.aead.NonceSize()
	if len(raw) < n {
		return nil, ErrCiphertext
	}
	return c.aead.Open(nil, raw[:n], raw[n:], nil)
}
