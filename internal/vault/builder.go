// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import "github.com/latchkey-dev/latchkey/internal/sealer"

// CredState is the sealed marker interface for builder credential states.
type CredState interface{ isCredState() }

// MissingPassphrase marks a builder whose master passphrase is not set yet.
// Build is not defined for this instantiation, so a vault that could never
// be unlocked cannot be constructed.
type MissingPassphrase struct{}

func (MissingPassphrase) isCredState() {}

// PassphraseSet marks a builder that has a master passphrase.
type PassphraseSet struct{}

func (PassphraseSet) isCredState() {}

// Builder assembles a vault before sealing it. Like Vault, its credential
// state lives in the type: WithPassphrase moves a builder from
// MissingPassphrase to PassphraseSet, and only the latter can Build.
type Builder[C CredState] struct {
	name       string
	passphrase []byte
	entries    map[string][]byte
	params     sealer.Params
}

// NewBuilder starts a builder with no passphrase and no entries.
func NewBuilder(name string) Builder[MissingPassphrase] {
	return Builder[MissingPassphrase]{
		name:    name,
		entries: make(map[string][]byte),
		params:  sealer.DefaultParams(),
	}
}

// WithEntry adds an entry. Available in either credential state. The
// receiver's entry map is copied so earlier builder values stay usable.
func (b Builder[C]) WithEntry(name string, value []byte) Builder[C] {
	entries := make(map[string][]byte, len(b.entries)+1)
	for k, v := range b.entries {
		entries[k] = v
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	entries[name] = buf
	b.entries = entries
	return b
}

// WithParams overrides the KDF cost parameters for the built vault.
func (b Builder[C]) WithParams(p sealer.Params) Builder[C] {
	b.params = p
	return b
}

// WithPassphrase sets the master passphrase. It is defined only for builders
// that do not have one yet; setting it twice does not compile.
func WithPassphrase(b Builder[MissingPassphrase], passphrase []byte) Builder[PassphraseSet] {
	buf := make([]byte, len(passphrase))
	copy(buf, passphrase)
	return Builder[PassphraseSet]{
		name:       b.name,
		passphrase: buf,
		entries:    b.entries,
		params:     b.params,
	}
}

// Build seals the collected entries under the passphrase and returns a
// locked vault. Only defined once the passphrase is set. Build consumes the
// builder: the held passphrase is wiped, so build each builder value once.
func Build(b Builder[PassphraseSet]) (Vault[Locked], error) {
	params := b.params
	if !params.Valid() {
		params = sealer.DefaultParams()
	}
	salt, err := sealer.NewSalt()
	if err != nil {
		return Vault[Locked]{}, err
	}
	key := sealer.DeriveKey(b.passphrase, salt, params)
	defer sealer.Zero(key)
	defer sealer.Zero(b.passphrase)

	payload, err := encodeEntries(b.entries)
	if err != nil {
		return Vault[Locked]{}, err
	}
	nonce, ciphertext, err := sealer.Seal(key, payload)
	sealer.Zero(payload)
	if err != nil {
		return Vault[Locked]{}, err
	}
	return Vault[Locked]{name: b.name, salt: salt, params: params, nonce: nonce, ciphertext: ciphertext}, nil
}
