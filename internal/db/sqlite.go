// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// This file contains the SQLite implementation of the database store.
package db

import (
	"database/sql"
	"fmt"

	"github.com/latchkey-dev/latchkey/internal/model"
	"github.com/uptrace/bun"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SqliteStore is the SQLite implementation of the Store interface.
type SqliteStore struct {
	db  *sql.DB
	bun *bun.DB
}

// GetVault retrieves a vault record by name.
func (s *SqliteStore) GetVault(name string) (*model.VaultRecord, error) {
	return GetVaultBun(s.bun, name)
}

// SaveVault inserts or updates a vault record.
func (s *SqliteStore) SaveVault(rec *model.VaultRecord) error {
	return SaveVaultBun(s.bun, rec)
}

// DeleteVault removes a vault by name.
func (s *SqliteStore) DeleteVault(name string) error {
	err := DeleteVaultBun(s.bun, name)
	if err == nil {
		_ = s.LogAction("DELETE_VAULT", fmt.Sprintf("vault: %s", name))
	}
	return err
}

// RenameVault changes a vault's name.
func (s *SqliteStore) RenameVault(oldName, newName string) error {
	err := RenameVaultBun(s.bun, oldName, newName)
	if err == nil {
		_ = s.LogAction("RENAME_VAULT", fmt.Sprintf("vault: %s -> %s", oldName, newName))
	}
	return err
}

// ListVaults retrieves all vault records.
func (s *SqliteStore) ListVaults() ([]model.VaultRecord, error) {
	return ListVaultsBun(s.bun)
}

// GetAllAuditLogEntries retrieves all audit log entries, most recent first.
func (s *SqliteStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	return GetAllAuditLogEntriesBun(s.bun)
}

// LogAction records an audit trail event.
func (s *SqliteStore) LogAction(action string, details string) error {
	return LogActionBun(s.bun, action, details)
}

// ExportDataForBackup retrieves all data for a backup.
func (s *SqliteStore) ExportDataForBackup() (*model.BackupData, error) {
	return ExportDataForBackupBun(s.bun)
}

// ImportDataFromBackup restores the database destructively from a backup.
func (s *SqliteStore) ImportDataFromBackup(backup *model.BackupData) error {
	return ImportDataFromBackupBun(s.bun, backup, true)
}

// IntegrateDataFromBackup merges a backup without touching existing rows.
func (s *SqliteStore) IntegrateDataFromBackup(backup *model.BackupData) error {
	return ImportDataFromBackupBun(s.bun, backup, false)
}
