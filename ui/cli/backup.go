// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// backup.go implements the backup, restore and db-maintain commands. Backups
// are zstd-compressed JSON documents containing every vault record (still
// sealed) and the audit log.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"github.com/latchkey-dev/latchkey/internal/db"
	"github.com/latchkey-dev/latchkey/internal/i18n"
	"github.com/latchkey-dev/latchkey/internal/model"
)

var backupCmd = &cobra.Command{
	Use:     "backup <file>",
	Short:   "Write a compressed backup of all vaults and the audit log",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		data, err := db.ExportDataForBackup()
		if err != nil {
			return fmt.Errorf("could not export data: %w", err)
		}
		if err := writeCompressedBackup(path, data); err != nil {
			return err
		}
		_ = db.LogAction("BACKUP", "file: "+path)

		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.backup.written", len(data.Vaults), path))
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:     "restore <file>",
	Short:   "Restore vaults from a backup file",
	Long:    "Restore vaults from a backup file.\n\nBy default existing data is kept and backup records are merged in\n(existing vaults win on name conflicts). With --full the database is\nwiped and replaced by the backup contents.",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		data, err := readCompressedBackup(path)
		if err != nil {
			return err
		}

		full, _ := cmd.Flags().GetBool("full")
		if full {
			force, _ := cmd.Flags().GetBool("force")
			if !force && !confirm(cmd, i18n.T("cli.restore.confirm_full")) {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.rm_vault.aborted"))
				return nil
			}
			if err := db.ImportDataFromBackup(data); err != nil {
				return fmt.Errorf("could not restore backup: %w", err)
			}
		} else {
			if err := db.IntegrateDataFromBackup(data); err != nil {
				return fmt.Errorf("could not integrate backup: %w", err)
			}
		}
		_ = db.LogAction("RESTORE", "file: "+path)

		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.restore.done", len(data.Vaults), path))
		return nil
	},
}

var dbMaintainCmd = &cobra.Command{
	Use:     "db-maintain",
	Short:   "Run database maintenance (vacuum, optimize, integrity check)",
	Args:    cobra.NoArgs,
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.RunDBMaintenance(appConfig.Database.Type, appConfig.Database.Dsn); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.maintain.done"))
		return nil
	},
}

// writeCompressedBackup marshals the backup as JSON and writes it through a
// zstd encoder. The file is created with owner-only permissions because the
// payload, while sealed, still reveals vault names and metadata.
func writeCompressedBackup(path string, data *model.BackupData) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("could not create backup file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("could not create compressor: %w", err)
	}

	if err := json.NewEncoder(enc).Encode(data); err != nil {
		_ = enc.Close()
		return fmt.Errorf("could not encode backup: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("could not finish compression: %w", err)
	}
	return f.Close()
}

// readCompressedBackup reads a zstd-compressed JSON backup from disk.
func readCompressedBackup(path string) (*model.BackupData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open backup file: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("could not create decompressor: %w", err)
	}
	defer dec.Close()

	var data model.BackupData
	if err := json.NewDecoder(dec.IOReadCloser()).Decode(&data); err != nil {
		return nil, fmt.Errorf("could not decode backup: %w", err)
	}
	if data.SchemaVersion == 0 {
		return nil, errors.New(i18n.T("cli.restore.invalid"))
	}
	return &data, nil
}

func init() {
	restoreCmd.Flags().Bool("full", false, "Replace the entire database with the backup contents")
	restoreCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt for --full")
}
