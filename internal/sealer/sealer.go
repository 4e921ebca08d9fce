// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package sealer provides the key derivation and authenticated encryption
// primitives behind the vault. Keys are derived from a passphrase with
// argon2id; payloads are sealed with XChaCha20-Poly1305. Because the cipher
// is authenticated, a failed Open is the passphrase check: there is no
// separately stored verifier that could leak information about the vault.
package sealer

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrAuthFailed is returned by Open when the key does not match the
// ciphertext. The message is deliberately fixed.
var ErrAuthFailed = errors.New("authentication failed")

// KeySize is the derived key length in bytes.
const KeySize = chacha20poly1305.KeySize

// SaltSize is the salt length in bytes used for key derivation.
const SaltSize = 16

// Params holds the argon2id cost parameters. They are persisted alongside
// the sealed payload so older vaults keep unlocking after defaults change.
type Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultParams returns the argon2id costs used for new vaults.
// Values follow the RFC 9106 low-memory recommendation.
func DefaultParams() Params {
	return Params{Time: 3, MemoryKiB: 64 * 1024, Threads: 4}
}

// Valid reports whether the parameters are usable for derivation.
func (p Params) Valid() bool {
	return p.Time > 0 && p.MemoryKiB > 0 && p.Threads > 0
}

// NewSalt returns a fresh random salt for key derivation.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives a KeySize-byte key from the passphrase and salt. The
// derivation runs synchronously; argon2id with the default parameters takes
// a noticeable fraction of a second on purpose.
func DeriveKey(passphrase, salt []byte, p Params) []byte {
	return argon2.IDKey(passphrase, salt, p.Time, p.MemoryKiB, p.Threads, KeySize)
}

// Seal encrypts plaintext under key with a fresh random nonce and returns
// the nonce and ciphertext separately.
func Seal(key, plaintext []byte) (nonce, ciphertext []byte, err error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	nonce = make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, aead.Seal(nil, nonce, plaintext, nil), nil
}

// Open decrypts ciphertext under key. A wrong key (or tampered payload)
// yields ErrAuthFailed.
func Open(key, nonce, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, ErrAuthFailed
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// Zero overwrites b in place. Used to drop key material and decrypted
// payloads as soon as they are no longer needed.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
