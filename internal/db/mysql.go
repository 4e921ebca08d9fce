// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// This file contains the MySQL implementation of the database store.
package db

import (
	"database/sql"
	"fmt"

	"github.com/latchkey-dev/latchkey/internal/model"
	"github.com/uptrace/bun"
	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySQLStore is the MySQL implementation of the Store interface.
type MySQLStore struct {
	db  *sql.DB
	bun *bun.DB
}

// GetVault retrieves a vault record by name.
func (s *MySQLStore) GetVault(name string) (*model.VaultRecord, error) {
	return GetVaultBun(s.bun, name)
}

// SaveVault inserts or updates a vault record.
func (s *MySQLStore) SaveVault(rec *model.VaultRecord) error {
	return SaveVaultBun(s.bun, rec)
}

// DeleteVault removes a vault by name.
func (s *MySQLStore) DeleteVault(name string) error {
	err := DeleteVaultBun(s.bun, name)
	if err == nil {
		_ = s.LogAction("DELETE_VAULT", fmt.Sprintf("vault: %s", name))
	}
	return err
}

// RenameVault changes a vault's name.
func (s *MySQLStore) RenameVault(oldName, newName string) error {
	err := RenameVaultBun(s.bun, oldName, newName)
	if err == nil {
		_ = s.LogAction("RENAME_VAULT", fmt.Sprintf("vault: %s -> %s", oldName, newName))
	}
	return err
}

// ListVaults retrieves all vault records.
func (s *MySQLStore) ListVaults() ([]model.VaultRecord, error) {
	return ListVaultsBun(s.bun)
}

// GetAllAuditLogEntries retrieves all audit log entries, most recent first.
func (s *MySQLStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	return GetAllAuditLogEntriesBun(s.bun)
}

// LogAction records an audit trail event.
func (s *MySQLStore) LogAction(action string, details string) error {
	return LogActionBun(s.bun, action, details)
}

// ExportDataForBackup retrieves all data for a backup.
func (s *MySQLStore) ExportDataForBackup() (*model.BackupData, error) {
	return ExportDataForBackupBun(s.bun)
}

// ImportDataFromBackup restores the database destructively from a backup.
func (s *MySQLStore) ImportDataFromBackup(backup *model.BackupData) error {
	return ImportDataFromBackupBun(s.bun, backup, true)
}

// IntegrateDataFromBackup merges a backup without touching existing rows.
func (s *MySQLStore) IntegrateDataFromBackup(backup *model.BackupData) error {
	return ImportDataFromBackupBun(s.bun, backup, false)
}
