// Package cryptox provides token sealing and random token generation for
// credentials that must never be stored in plaintext.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
)

// Cipher seals and opens short secrets (upstream access/refresh tokens)
// using AES-256-GCM. The key is derived once from arbitrary key material and
// injected where needed; there is no process-global key state.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives a 32-byte AES-256 key from the given key material via
// SHA-256 and returns a ready-to-use Cipher.
func NewCipher(keyMaterial []byte) (*Cipher, error) {
	if len(keyMaterial) == 0 {
		return nil, fmt.Errorf("cryptox: empty key material")
	}

	key := sha256.Sum256(keyMaterial)

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("cryptox: create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Seal encrypts a plaintext token. The output is base64url of
// [nonce][ciphertext][auth tag], with a random nonce per call.
func (c *Cipher) Seal(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("cryptox: generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal. It fails if the ciphertext was
// tampered with or was sealed under a different key.
func (c *Cipher) Open(sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("cryptox: decode sealed value: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("cryptox: sealed value too short")
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("cryptox: decryption failed: %w", err)
	}

	return string(plaintext), nil
}
