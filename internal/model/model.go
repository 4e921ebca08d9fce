// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import "time"

// VaultRecord is the persisted form of a locked vault. Everything in it is
// safe to store and back up: the ciphertext is sealed under a key derived
// from the master passphrase, and the KDF parameters travel with the record
// so old vaults keep unlocking after the defaults change.
type VaultRecord struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Salt         []byte    `json:"salt"`
	KDFTime      uint32    `json:"kdf_time"`
	KDFMemoryKiB uint32    `json:"kdf_memory_kib"`
	KDFThreads   uint8     `json:"kdf_threads"`
	Nonce        []byte    `json:"nonce"`
	Ciphertext   []byte    `json:"ciphertext"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuditLogEntry records a single vault operation (creation, unlock attempts,
// entry changes). Details never contain secret material.
type AuditLogEntry struct {
	ID        int    `json:"id"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

// BackupData is the on-disk shape of a full database backup.
type BackupData struct {
	// SchemaVersion helps in handling migrations during restore.
	SchemaVersion int `json:"schema_version"`

	// Data from each table.
	Vaults          []VaultRecord   `json:"vaults"`
	AuditLogEntries []AuditLogEntry `json:"audit_log_entries"`
}
