// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"errors"
	"testing"

	"github.com/latchkey-dev/latchkey/internal/sealer"
)

// testParams keeps argon2id cheap enough for CI.
func testParams() sealer.Params {
	return sealer.Params{Time: 1, MemoryKiB: 64, Threads: 1}
}

func TestUnlockWithCorrectPassphrase(t *testing.T) {
	locked, err := New("personal", []byte("Master Password"), testParams())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	unlocked, err := Unlock(locked, []byte("Master Password"))
	if err != nil {
		t.Fatalf("Unlock with correct passphrase failed: %v", err)
	}
	if unlocked.Name() != "personal" {
		t.Fatalf("unexpected vault name: %q", unlocked.Name())
	}
}

func TestUnlockWithWrongPassphraseFails(t *testing.T) {
	locked, err := New("personal", []byte("Master Password"), testParams())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, err = Unlock(locked, []byte("wrong"))
	if !errors.Is(err, ErrBadPassphrase) {
		t.Fatalf("expected ErrBadPassphrase, got %v", err)
	}
	// The fixed error message must not leak anything about the vault.
	if err.Error() != "incorrect passphrase" {
		t.Fatalf("unexpected error message: %q", err.Error())
	}

	// The caller still holds the locked value and may retry.
	if _, err := Unlock(locked, []byte("Master Password")); err != nil {
		t.Fatalf("retry with correct passphrase failed: %v", err)
	}
}

// The scenario from the project brief: create with "hunter2", store a secret,
// lock, unlock again, and read it back.
func TestSetLockUnlockGetRoundTrip(t *testing.T) {
	locked, err := New("personal", []byte("hunter2"), testParams())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	unlocked, err := Unlock(locked, []byte("hunter2"))
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	Set(&unlocked, "email", []byte("p@ss"))

	relocked, err := Lock(&unlocked)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	// The consumed unlocked value holds no plaintext anymore.
	if Len(&unlocked) != 0 {
		t.Fatalf("consumed unlocked vault still holds %d entries", Len(&unlocked))
	}

	again, err := Unlock(relocked, []byte("hunter2"))
	if err != nil {
		t.Fatalf("second Unlock failed: %v", err)
	}
	got, ok := Get(&again, "email")
	if !ok {
		t.Fatalf("entry %q missing after round trip", "email")
	}
	if string(got.Bytes()) != "p@ss" {
		t.Fatalf("unexpected secret after round trip: %q", got.Bytes())
	}
}

func TestGetAbsentEntry(t *testing.T) {
	locked, _ := New("personal", []byte("hunter2"), testParams())
	unlocked, err := Unlock(locked, []byte("hunter2"))
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if _, ok := Get(&unlocked, "no-such-entry"); ok {
		t.Fatalf("Get reported a value for an absent entry")
	}
}

func TestSetOverwritesAndDeleteRemoves(t *testing.T) {
	locked, _ := New("personal", []byte("hunter2"), testParams())
	unlocked, err := Unlock(locked, []byte("hunter2"))
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	Set(&unlocked, "email", []byte("first"))
	Set(&unlocked, "email", []byte("second"))
	got, _ := Get(&unlocked, "email")
	if string(got.Bytes()) != "second" {
		t.Fatalf("overwrite failed: %q", got.Bytes())
	}

	Set(&unlocked, "bank", []byte("Wasps456"))
	names := Names(&unlocked)
	if len(names) != 2 || names[0] != "bank" || names[1] != "email" {
		t.Fatalf("unexpected sorted names: %v", names)
	}

	if !Delete(&unlocked, "email") {
		t.Fatalf("Delete reported a present entry as absent")
	}
	if Delete(&unlocked, "email") {
		t.Fatalf("Delete reported an absent entry as present")
	}
	if Len(&unlocked) != 1 {
		t.Fatalf("expected 1 entry, got %d", Len(&unlocked))
	}
}

func TestSnapshotFromRecordRoundTrip(t *testing.T) {
	locked, _ := New("work", []byte("hunter2"), testParams())
	unlocked, err := Unlock(locked, []byte("hunter2"))
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	Set(&unlocked, "vpn", []byte("Hornets789"))
	relocked, err := Lock(&unlocked)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	rec := Snapshot(relocked)
	if rec.Name != "work" || len(rec.Salt) == 0 || len(rec.Ciphertext) == 0 {
		t.Fatalf("incomplete record: %+v", rec)
	}
	if rec.KDFTime != 1 || rec.KDFMemoryKiB != 64 || rec.KDFThreads != 1 {
		t.Fatalf("KDF params not persisted: %+v", rec)
	}

	loaded := FromRecord(rec)
	again, err := Unlock(loaded, []byte("hunter2"))
	if err != nil {
		t.Fatalf("Unlock of loaded vault failed: %v", err)
	}
	got, ok := Get(&again, "vpn")
	if !ok || string(got.Bytes()) != "Hornets789" {
		t.Fatalf("entry lost across snapshot/load: %v %q", ok, got.Bytes())
	}
}

func TestRekey(t *testing.T) {
	locked, _ := New("personal", []byte("old pass"), testParams())
	unlocked, err := Unlock(locked, []byte("old pass"))
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	Set(&unlocked, "email", []byte("p@ss"))

	if err := Rekey(&unlocked, []byte("new pass"), testParams()); err != nil {
		t.Fatalf("Rekey failed: %v", err)
	}
	relocked, err := Lock(&unlocked)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	if _, err := Unlock(relocked, []byte("old pass")); !errors.Is(err, ErrBadPassphrase) {
		t.Fatalf("old passphrase still unlocks after rekey: %v", err)
	}
	again, err := Unlock(relocked, []byte("new pass"))
	if err != nil {
		t.Fatalf("new passphrase does not unlock: %v", err)
	}
	if got, ok := Get(&again, "email"); !ok || string(got.Bytes()) != "p@ss" {
		t.Fatalf("entry lost across rekey")
	}
}

func TestFreshVaultsDifferEvenWithSamePassphrase(t *testing.T) {
	a, _ := New("a", []byte("hunter2"), testParams())
	b, _ := New("b", []byte("hunter2"), testParams())
	ra, rb := Snapshot(a), Snapshot(b)
	if string(ra.Salt) == string(rb.Salt) {
		t.Fatalf("two fresh vaults share a salt")
	}
	if string(ra.Ciphertext) == string(rb.Ciphertext) {
		t.Fatalf("two fresh vaults share ciphertext")
	}
}

// Note on the negative cases: Lock(lockedVault), Get(&lockedVault, ...) and
// Set(&lockedVault, ...) are type errors; Vault[Locked] does not satisfy the
// parameter type *Vault[Unlocked]. That rejection happens at compile time,
// which is the point of the typestate encoding, so there is no runtime test
// for it here.
