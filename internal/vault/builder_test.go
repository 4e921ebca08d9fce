// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"errors"
	"testing"
)

func TestBuilderBuildsUnlockableVault(t *testing.T) {
	b := NewBuilder("personal").
		WithParams(testParams()).
		WithEntry("test@example.com", []byte("Bees123")).
		WithEntry("person@social.com", []byte("Wasps456"))

	locked, err := Build(WithPassphrase(b, []byte("Hunter2")))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	unlocked, err := Unlock(locked, []byte("Hunter2"))
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if Len(&unlocked) != 2 {
		t.Fatalf("expected 2 entries, got %d", Len(&unlocked))
	}
	got, ok := Get(&unlocked, "test@example.com")
	if !ok || string(got.Bytes()) != "Bees123" {
		t.Fatalf("builder entry missing or wrong: %v %q", ok, got.Bytes())
	}
}

func TestBuilderEntryAfterPassphrase(t *testing.T) {
	// WithEntry stays available after the passphrase transition.
	b := WithPassphrase(NewBuilder("personal").WithParams(testParams()), []byte("Hunter2")).
		WithEntry("me@news.biz", []byte("Hornets789"))

	locked, err := Build(b)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	unlocked, err := Unlock(locked, []byte("Hunter2"))
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if _, ok := Get(&unlocked, "me@news.biz"); !ok {
		t.Fatalf("entry added after passphrase transition is missing")
	}
}

func TestBuilderCopiesDoNotAlias(t *testing.T) {
	base := NewBuilder("personal").WithParams(testParams())
	one := base.WithEntry("only-in-one", []byte("a"))
	two := base.WithEntry("only-in-two", []byte("b"))

	lockedOne, err := Build(WithPassphrase(one, []byte("pw")))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	u, err := Unlock(lockedOne, []byte("pw"))
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if _, ok := Get(&u, "only-in-two"); ok {
		t.Fatalf("builder values share entry state")
	}
	_ = two
}

func TestBuilderWrongPassphraseStillFails(t *testing.T) {
	locked, err := Build(WithPassphrase(NewBuilder("x").WithParams(testParams()), []byte("right")))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := Unlock(locked, []byte("wrong")); !errors.Is(err, ErrBadPassphrase) {
		t.Fatalf("expected ErrBadPassphrase, got %v", err)
	}
}

// Build(NewBuilder("x")) does not compile: Builder[MissingPassphrase] is not
// a Builder[PassphraseSet]. The missing-passphrase case is rejected by the
// type checker rather than tested at runtime.
