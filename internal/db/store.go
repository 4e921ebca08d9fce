// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "github.com/latchkey-dev/latchkey/internal/model"

// Store defines the interface for all database operations in Latchkey.
// This allows for multiple database backends to be implemented.
type Store interface {
	// Vault methods
	GetVault(name string) (*model.VaultRecord, error)
	SaveVault(rec *model.VaultRecord) error
	DeleteVault(name string) error
	RenameVault(oldName, newName string) error
	ListVaults() ([]model.VaultRecord, error)

	// Audit Log methods
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)
	LogAction(action string, details string) error

	// Backup methods
	ExportDataForBackup() (*model.BackupData, error)
	ImportDataFromBackup(backup *model.BackupData) error
	IntegrateDataFromBackup(backup *model.BackupData) error
}
