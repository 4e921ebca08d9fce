// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"os/user"
	"strings"
	"time"

	"github.com/latchkey-dev/latchkey/internal/model"
	"github.com/uptrace/bun"
)

// VaultModel maps the `vaults` table for Bun queries.
type VaultModel struct {
	bun.BaseModel `bun:"table:vaults"`
	ID            int       `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name"`
	Salt          []byte    `bun:"salt"`
	KDFTime       uint32    `bun:"kdf_time"`
	KDFMemoryKiB  uint32    `bun:"kdf_memory_kib"`
	KDFThreads    uint8     `bun:"kdf_threads"`
	Nonce         []byte    `bun:"nonce"`
	Ciphertext    []byte    `bun:"ciphertext"`
	UpdatedAt     time.Time `bun:"updated_at"`
}

// AuditLogModel maps the audit_log table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int    `bun:"id,pk,autoincrement"`
	Timestamp     string `bun:"timestamp"`
	Username      string `bun:"username"`
	Action        string `bun:"action"`
	Details       string `bun:"details"`
}

func vaultModelToRecord(m VaultModel) model.VaultRecord {
	return model.VaultRecord{
		ID:           m.ID,
		Name:         m.Name,
		Salt:         m.Salt,
		KDFTime:      m.KDFTime,
		KDFMemoryKiB: m.KDFMemoryKiB,
		KDFThreads:   m.KDFThreads,
		Nonce:        m.Nonce,
		Ciphertext:   m.Ciphertext,
		UpdatedAt:    m.UpdatedAt,
	}
}

func vaultRecordToModel(rec *model.VaultRecord) VaultModel {
	return VaultModel{
		ID:           rec.ID,
		Name:         rec.Name,
		Salt:         rec.Salt,
		KDFTime:      rec.KDFTime,
		KDFMemoryKiB: rec.KDFMemoryKiB,
		KDFThreads:   rec.KDFThreads,
		Nonce:        rec.Nonce,
		Ciphertext:   rec.Ciphertext,
		UpdatedAt:    rec.UpdatedAt,
	}
}

// execRawProvider is a small interface used to accept either *bun.DB or *bun.Tx
// since both expose NewRaw(...).* methods returning *bun.RawQuery.
type execRawProvider interface {
	NewRaw(query string, args ...interface{}) *bun.RawQuery
}

// ExecRaw executes a raw SQL statement using the provided Bun DB or transaction.
func ExecRaw(ctx context.Context, exec execRawProvider, query string, args ...interface{}) (sql.Result, error) {
	return exec.NewRaw(query, args...).Exec(ctx)
}

// WithTx runs fn inside a Bun transaction, rolling back on error.
func WithTx(ctx context.Context, bdb *bun.DB, fn func(ctx context.Context, tx bun.Tx) error) error {
	tx, err := bdb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// GetVaultBun returns the vault record with the given name, or ErrNotFound.
func GetVaultBun(bdb *bun.DB, name string) (*model.VaultRecord, error) {
	ctx := context.Background()

	var m VaultModel
	err := bdb.NewSelect().Model(&m).Where("name = ?", name).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec := vaultModelToRecord(m)
	return &rec, nil
}

// SaveVaultBun inserts the record, or updates the existing row with the same
// name, within a single transaction.
func SaveVaultBun(bdb *bun.DB, rec *model.VaultRecord) error {
	ctx := context.Background()
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		var existing VaultModel
		err := tx.NewSelect().Model(&existing).Where("name = ?", rec.Name).Limit(1).Scan(ctx)
		switch {
		case err == sql.ErrNoRows:
			m := vaultRecordToModel(rec)
			m.ID = 0
			if _, err := tx.NewInsert().Model(&m).Exec(ctx); err != nil {
				return MapDBError(err)
			}
			return nil
		case err != nil:
			return err
		default:
			m := vaultRecordToModel(rec)
			m.ID = existing.ID
			if _, err := tx.NewUpdate().Model(&m).WherePK().Exec(ctx); err != nil {
				return MapDBError(err)
			}
			return nil
		}
	})
}

// DeleteVaultBun removes the vault with the given name, or ErrNotFound.
func DeleteVaultBun(bdb *bun.DB, name string) error {
	ctx := context.Background()
	res, err := bdb.NewDelete().Model((*VaultModel)(nil)).Where("name = ?", name).Exec(ctx)
	if err != nil {
		return MapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// RenameVaultBun changes a vault's name. Renaming to an existing name is
// ErrDuplicate; renaming a missing vault is ErrNotFound.
func RenameVaultBun(bdb *bun.DB, oldName, newName string) error {
	ctx := context.Background()
	res, err := bdb.NewUpdate().Model((*VaultModel)(nil)).
		Set("name = ?", newName).
		Where("name = ?", oldName).
		Exec(ctx)
	if err != nil {
		return MapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListVaultsBun returns all vault records sorted by name.
func ListVaultsBun(bdb *bun.DB) ([]model.VaultRecord, error) {
	ctx := context.Background()

	var ms []VaultModel
	if err := bdb.NewSelect().Model(&ms).Order("name ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.VaultRecord, 0, len(ms))
	for _, m := range ms {
		out = append(out, vaultModelToRecord(m))
	}
	return out, nil
}

// GetAllAuditLogEntriesBun returns audit entries, most recent first.
func GetAllAuditLogEntriesBun(bdb *bun.DB) ([]model.AuditLogEntry, error) {
	ctx := context.Background()

	var ms []AuditLogModel
	if err := bdb.NewSelect().Model(&ms).Order("id DESC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.AuditLogEntry, 0, len(ms))
	for _, m := range ms {
		out = append(out, model.AuditLogEntry{
			ID:        m.ID,
			Timestamp: m.Timestamp,
			Username:  m.Username,
			Action:    m.Action,
			Details:   m.Details,
		})
	}
	return out, nil
}

// LogActionBun inserts an audit log entry with the current OS user.
func LogActionBun(bdb *bun.DB, action string, details string) error {
	ctx := context.Background()
	curUser, err := user.Current()
	username := "unknown"
	if err == nil {
		if parts := strings.Split(curUser.Username, `\`); len(parts) > 1 {
			username = parts[1]
		} else {
			username = curUser.Username
		}
	}
	m := AuditLogModel{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Username:  username,
		Action:    action,
		Details:   details,
	}
	_, err = bdb.NewInsert().Model(&m).Exec(ctx)
	return MapDBError(err)
}

// ExportDataForBackupBun exports all tables' data into a model.BackupData
// using a Bun transaction.
func ExportDataForBackupBun(bdb *bun.DB) (*model.BackupData, error) {
	ctx := context.Background()
	var backup *model.BackupData
	err := WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		backup = &model.BackupData{SchemaVersion: 1}

		var vaults []VaultModel
		if err := tx.NewSelect().Model(&vaults).Order("name ASC").Scan(ctx); err != nil {
			return err
		}
		for _, m := range vaults {
			backup.Vaults = append(backup.Vaults, vaultModelToRecord(m))
		}

		var logs []AuditLogModel
		if err := tx.NewSelect().Model(&logs).Order("id ASC").Scan(ctx); err != nil {
			return err
		}
		for _, m := range logs {
			backup.AuditLogEntries = append(backup.AuditLogEntries, model.AuditLogEntry{
				ID:        m.ID,
				Timestamp: m.Timestamp,
				Username:  m.Username,
				Action:    m.Action,
				Details:   m.Details,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return backup, nil
}

// ImportDataFromBackupBun restores all tables from a backup inside a single
// transaction. When full is true existing rows are wiped first; otherwise
// rows whose vault name already exists are skipped.
func ImportDataFromBackupBun(bdb *bun.DB, backup *model.BackupData, full bool) error {
	if backup == nil {
		return fmt.Errorf("nil backup data")
	}
	ctx := context.Background()
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		if full {
			if _, err := ExecRaw(ctx, tx, "DELETE FROM vaults"); err != nil {
				return fmt.Errorf("failed to clear vaults: %w", err)
			}
			if _, err := ExecRaw(ctx, tx, "DELETE FROM audit_log"); err != nil {
				return fmt.Errorf("failed to clear audit_log: %w", err)
			}
		}

		for i := range backup.Vaults {
			rec := backup.Vaults[i]
			if !full {
				var existing VaultModel
				err := tx.NewSelect().Model(&existing).Where("name = ?", rec.Name).Limit(1).Scan(ctx)
				if err == nil {
					continue
				}
				if err != sql.ErrNoRows {
					return err
				}
			}
			m := vaultRecordToModel(&rec)
			m.ID = 0
			if _, err := tx.NewInsert().Model(&m).Exec(ctx); err != nil {
				return MapDBError(err)
			}
		}

		if full {
			for _, e := range backup.AuditLogEntries {
				m := AuditLogModel{
					Timestamp: e.Timestamp,
					Username:  e.Username,
					Action:    e.Action,
					Details:   e.Details,
				}
				if _, err := tx.NewInsert().Model(&m).Exec(ctx); err != nil {
					return MapDBError(err)
				}
			}
		}
		return nil
	})
}
