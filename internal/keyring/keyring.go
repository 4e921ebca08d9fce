// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package keyring optionally caches vault passphrases in the operating
// system keyring (Keychain on macOS, secret-service on Linux, Credential
// Manager on Windows). It is a convenience layer: the vault stays sealed on
// disk either way, and the feature is off unless enabled in the config.
package keyring

import (
	"errors"

	gokeyring "github.com/zalando/go-keyring"
)

// DefaultService is the keyring service name used when the config does not
// override it.
const DefaultService = "latchkey"

// ErrNotFound is returned by Get when no passphrase is cached for the vault.
var ErrNotFound = errors.New("no cached passphrase")

// Get returns the cached passphrase for the named vault.
func Get(service, vaultName string) ([]byte, error) {
	if service == "" {
		service = DefaultService
	}
	secret, err := gokeyring.Get(service, vaultName)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []byte(secret), nil
}

// Set caches the passphrase for the named vault, replacing any previous one.
func Set(service, vaultName string, passphrase []byte) error {
	if service == "" {
		service = DefaultService
	}
	return gokeyring.Set(service, vaultName, string(passphrase))
}

// Delete drops the cached passphrase for the named vault. Deleting a
// passphrase that was never cached is not an error.
func Delete(service, vaultName string) error {
	if service == "" {
		service = DefaultService
	}
	err := gokeyring.Delete(service, vaultName)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return nil
	}
	return err
}
