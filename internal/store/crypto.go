package store

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// Cryptor provides optional at-rest encryption for a store adapter,
// keyed by API_STORE_ENCRYPTION_KEY. The passphrase is stretched into
// a 32-byte secretbox key via HKDF-SHA256 rather than used directly,
// so operators can configure a human-typed passphrase of any length.
type Cryptor struct {
	key [32]byte
}

// NewCryptor derives a secretbox key from passphrase. Returns nil,
// nil when passphrase is empty — callers treat a nil *Cryptor as
// "encryption disabled".
func NewCryptor(passphrase string) (*Cryptor, error) {
	if passphrase == "" {
		return nil, nil
	}

	kdf := hkdf.New(sha256.New, []byte(passphrase), nil, []byte("dicehall-store-snapshot-v1"))
	var key [32]byte
	if _, err := io.ReadFull(kdf, key[:]); err != nil {
		return nil, fmt.Errorf("derive encryption key: %w", err)
	}
	return &Cryptor{key: key}, nil
}

// Encrypt seals plaintext behind a random nonce prefix.
func (c *Cryptor) Encrypt(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	out := make([]byte, 0, nonceSize+len(plaintext)+secretbox.Overhead)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plaintext, &nonce, &c.key), nil
}

// Decrypt opens ciphertext produced by Encrypt.
func (c *Cryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], ciphertext[:nonceSize])

	plaintext, ok := secretbox.Open(nil, ciphertext[nonceSize:], &nonce, &c.key)
	if !ok {
		return nil, fmt.Errorf("decryption failed: wrong key or corrupted snapshot")
	}
	return plaintext, nil
}
