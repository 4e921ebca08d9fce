// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/latchkey-dev/latchkey/internal/model"
	"github.com/latchkey-dev/latchkey/internal/sealer"
	"github.com/latchkey-dev/latchkey/internal/security"
)

// ErrBadPassphrase is returned by Unlock when the passphrase does not open
// the vault. The message is fixed and carries no detail about the vault or
// how close the attempt was.
var ErrBadPassphrase = errors.New("incorrect passphrase")

// LockState is the sealed marker interface for the two lock states. Only
// Locked and Unlocked implement it; the unexported method keeps outside
// packages from inventing new states.
type LockState interface{ isLockState() }

// Locked marks a vault whose entries are sealed. It has no runtime
// representation inside the vault value.
type Locked struct{}

func (Locked) isLockState() {}

// Unlocked marks a vault whose entries are readable and writable.
type Unlocked struct{}

func (Unlocked) isLockState() {}

// Vault is the single generic definition shared by both states. For S ==
// Locked only the sealed fields are populated; key and entries are set
// exclusively on values produced by Unlock.
type Vault[S LockState] struct {
	name   string
	salt   []byte
	params sealer.Params

	nonce      []byte
	ciphertext []byte

	key     []byte
	entries map[string][]byte
}

// Name returns the vault's name. Available in both states.
func (v Vault[S]) Name() string { return v.name }

// New creates an empty vault sealed under the given passphrase. Invalid
// params fall back to the defaults.
func New(name string, passphrase []byte, params sealer.Params) (Vault[Locked], error) {
	if !params.Valid() {
		params = sealer.DefaultParams()
	}
	salt, err := sealer.NewSalt()
	if err != nil {
		return Vault[Locked]{}, err
	}
	key := sealer.DeriveKey(passphrase, salt, params)
	defer sealer.Zero(key)

	payload, err := encodeEntries(nil)
	if err != nil {
		return Vault[Locked]{}, err
	}
	nonce, ciphertext, err := sealer.Seal(key, payload)
	if err != nil {
		return Vault[Locked]{}, err
	}
	return Vault[Locked]{name: name, salt: salt, params: params, nonce: nonce, ciphertext: ciphertext}, nil
}

// FromRecord reconstructs a locked vault from its persisted form.
func FromRecord(rec *model.VaultRecord) Vault[Locked] {
	return Vault[Locked]{
		name: rec.Name,
		salt: rec.Salt,
		params: sealer.Params{
			Time:      rec.KDFTime,
			MemoryKiB: rec.KDFMemoryKiB,
			Threads:   rec.KDFThreads,
		},
		nonce:      rec.Nonce,
		ciphertext: rec.Ciphertext,
	}
}

// Snapshot returns the persisted form of a locked vault. It is defined only
// for the Locked instantiation: an unlocked vault has no serializable form.
func Snapshot(v Vault[Locked]) *model.VaultRecord {
	return &model.VaultRecord{
		Name:         v.name,
		Salt:         v.salt,
		KDFTime:      v.params.Time,
		KDFMemoryKiB: v.params.MemoryKiB,
		KDFThreads:   v.params.Threads,
		Nonce:        v.nonce,
		Ciphertext:   v.ciphertext,
		UpdatedAt:    time.Now().UTC(),
	}
}

// Unlock derives the key from the passphrase and opens the vault. On failure
// it returns ErrBadPassphrase and the caller retains its locked value for
// another attempt. The derivation is intentionally slow and runs to
// completion; it is not cancellable mid-operation.
func Unlock(v Vault[Locked], passphrase []byte) (Vault[Unlocked], error) {
	key := sealer.DeriveKey(passphrase, v.salt, v.params)
	payload, err := sealer.Open(key, v.nonce, v.ciphertext)
	if err != nil {
		sealer.Zero(key)
		return Vault[Unlocked]{}, ErrBadPassphrase
	}
	entries, err := decodeEntries(payload)
	sealer.Zero(payload)
	if err != nil {
		sealer.Zero(key)
		return Vault[Unlocked]{}, fmt.Errorf("corrupt vault payload: %w", err)
	}
	return Vault[Unlocked]{name: v.name, salt: v.salt, params: v.params, key: key, entries: entries}, nil
}

// Lock reseals the entries under the held key with a fresh nonce, wipes the
// decrypted material from the consumed value, and returns a locked vault.
// Calling Lock on an already-locked value does not compile.
func Lock(v *Vault[Unlocked]) (Vault[Locked], error) {
	payload, err := encodeEntries(v.entries)
	if err != nil {
		return Vault[Locked]{}, err
	}
	nonce, ciphertext, err := sealer.Seal(v.key, payload)
	sealer.Zero(payload)
	if err != nil {
		return Vault[Locked]{}, err
	}
	locked := Vault[Locked]{name: v.name, salt: v.salt, params: v.params, nonce: nonce, ciphertext: ciphertext}
	wipe(v)
	return locked, nil
}

// Get returns the secret stored under name, or false if absent.
func Get(v *Vault[Unlocked], name string) (security.Secret, bool) {
	b, ok := v.entries[name]
	if !ok {
		return security.Secret{}, false
	}
	return security.FromBytes(b), true
}

// Set stores value under name, replacing (and wiping) any previous value.
func Set(v *Vault[Unlocked], name string, value []byte) {
	if v.entries == nil {
		v.entries = make(map[string][]byte)
	}
	if old, ok := v.entries[name]; ok {
		sealer.Zero(old)
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	v.entries[name] = buf
}

// Delete removes the entry under name and reports whether it existed.
func Delete(v *Vault[Unlocked], name string) bool {
	b, ok := v.entries[name]
	if !ok {
		return false
	}
	sealer.Zero(b)
	delete(v.entries, name)
	return true
}

// Names returns the sorted entry names.
func Names(v *Vault[Unlocked]) []string {
	names := make([]string, 0, len(v.entries))
	for name := range v.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored entries.
func Len(v *Vault[Unlocked]) int { return len(v.entries) }

// Rekey changes the master passphrase: a fresh salt is generated and the
// held key replaced. The change becomes durable on the next Lock + save.
func Rekey(v *Vault[Unlocked], newPassphrase []byte, params sealer.Params) error {
	if !params.Valid() {
		params = sealer.DefaultParams()
	}
	salt, err := sealer.NewSalt()
	if err != nil {
		return err
	}
	key := sealer.DeriveKey(newPassphrase, salt, params)
	sealer.Zero(v.key)
	v.key = key
	v.salt = salt
	v.params = params
	return nil
}

// wipe zeroes the decrypted entries and key of a consumed unlocked value.
func wipe(v *Vault[Unlocked]) {
	for _, b := range v.entries {
		sealer.Zero(b)
	}
	v.entries = nil
	sealer.Zero(v.key)
	v.key = nil
}

// entriesPayload is the sealed JSON shape of the entry map.
type entriesPayload map[string]string

func encodeEntries(entries map[string][]byte) ([]byte, error) {
	payload := make(entriesPayload, len(entries))
	for name, value := range entries {
		payload[name] = string(value)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode vault payload: %w", err)
	}
	return b, nil
}

func decodeEntries(b []byte) (map[string][]byte, error) {
	var payload entriesPayload
	if err := json.Unmarshal(b, &payload); err != nil {
		return nil, err
	}
	entries := make(map[string][]byte, len(payload))
	for name, value := range payload {
		entries[name] = []byte(value)
	}
	return entries, nil
}
