// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"testing"
	"time"

	"github.com/latchkey-dev/latchkey/internal/model"
)

// WithTestStore initializes an in-memory sqlite Store for the duration of the
// provided function and restores package-level globals afterwards.
func WithTestStore(t *testing.T, fn func(s *SqliteStore)) {
	t.Helper()

	prevStore := store

	// Initialize in-memory sqlite DB for this test
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	if err := InitDB("sqlite", dsn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	s, ok := store.(*SqliteStore)
	if !ok {
		t.Fatalf("store is not *SqliteStore")
	}

	defer func() {
		_ = s.db.Close()
		store = prevStore
	}()

	fn(s)
}

// testRecord builds a minimal valid vault record. The ciphertext is opaque
// to the store, so any bytes will do here.
func testRecord(name string) *model.VaultRecord {
	return &model.VaultRecord{
		Name:         name,
		Salt:         []byte("0123456789abcdef"),
		KDFTime:      1,
		KDFMemoryKiB: 64,
		KDFThreads:   1,
		Nonce:        []byte("nonce-nonce-nonce-nonce!"),
		Ciphertext:   []byte("sealed payload for " + name),
		UpdatedAt:    time.Now().UTC(),
	}
}
