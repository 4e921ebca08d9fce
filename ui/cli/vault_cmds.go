// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// vault_cmds.go defines the CLI commands that operate on vaults and their
// entries: init, set, get, rm, list, vaults, rm-vault, rename,
// change-passphrase, forget, generate, open and audit.

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/latchkey-dev/latchkey/internal/db"
	"github.com/latchkey-dev/latchkey/internal/i18n"
	"github.com/latchkey-dev/latchkey/internal/keyring"
	"github.com/latchkey-dev/latchkey/internal/sealer"
	"github.com/latchkey-dev/latchkey/internal/secretgen"
	"github.com/latchkey-dev/latchkey/internal/state"
	"github.com/latchkey-dev/latchkey/internal/tui"
	"github.com/latchkey-dev/latchkey/internal/vault"
)

var initCmd = &cobra.Command{
	Use:     "init <vault>",
	Short:   "Create a new vault sealed with a master passphrase",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		// SaveVault upserts, so an existence check has to happen first or
		// init would silently overwrite a vault.
		if _, err := db.GetVault(name); err == nil {
			return errors.New(i18n.T("cli.init.exists", name))
		} else if !errors.Is(err, db.ErrNotFound) {
			return err
		}

		pass, err := promptNewPassphrase(name)
		if err != nil {
			return err
		}
		defer sealer.Zero(pass)

		locked, err := vault.New(name, pass, kdfParams())
		if err != nil {
			return err
		}
		if err := db.SaveVault(vault.Snapshot(locked)); err != nil {
			return err
		}
		_ = db.LogAction("CREATE_VAULT", entryDetails(name, ""))

		state.PassphraseCache.Set(pass)

		if appConfig.Keyring.Enabled {
			if err := keyring.Set(appConfig.Keyring.Service, name, pass); err != nil {
				log.Warnf("could not store passphrase in keyring: %v", err)
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.init.created", name))
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:     "set <vault> <entry>",
	Short:   "Store a secret in a vault",
	Args:    cobra.ExactArgs(2),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultName, entryName := args[0], args[1]

		value, err := resolveEntryValue(cmd, entryName)
		if err != nil {
			return err
		}
		defer sealer.Zero(value)

		unlocked, err := unlockVault(vaultName)
		if err != nil {
			return err
		}

		vault.Set(&unlocked, entryName, value)
		_ = db.LogAction("SET_ENTRY", entryDetails(vaultName, entryName))

		if err := lockAndSave(&unlocked); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.set.saved", entryName, vaultName))
		return nil
	},
}

// resolveEntryValue picks the secret value for `set`: --value, --generate, or
// an interactive prompt, in that order.
func resolveEntryValue(cmd *cobra.Command, entryName string) ([]byte, error) {
	if cmd.Flags().Changed("value") {
		v, err := cmd.Flags().GetString("value")
		if err != nil {
			return nil, err
		}
		return []byte(v), nil
	}
	if generate, _ := cmd.Flags().GetBool("generate"); generate {
		length, _ := cmd.Flags().GetInt("length")
		value, err := secretgen.Generate(length, generateCharset(cmd))
		if err != nil {
			return nil, err
		}
		return value, nil
	}
	return promptSecret(i18n.T("prompt.entry_value", entryName))
}

var getCmd = &cobra.Command{
	Use:     "get <vault> <entry>",
	Short:   "Retrieve a secret from a vault",
	Args:    cobra.ExactArgs(2),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultName, entryName := args[0], args[1]

		unlocked, err := unlockVault(vaultName)
		if err != nil {
			return err
		}
		// Nothing is modified, so the resealed vault is not written back.
		defer func() { _, _ = vault.Lock(&unlocked) }()

		secret, ok := vault.Get(&unlocked, entryName)
		if !ok {
			return errors.New(i18n.T("cli.get.not_found", entryName, vaultName))
		}
		_ = db.LogAction("GET_ENTRY", entryDetails(vaultName, entryName))

		value := secret.Bytes()
		defer sealer.Zero(value)

		if copyFlag, _ := cmd.Flags().GetBool("copy"); copyFlag {
			if err := clipboard.WriteAll(string(value)); err != nil {
				return fmt.Errorf("could not copy to clipboard: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.get.copied", entryName))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(value))
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <vault> <entry>",
	Short:   "Remove a secret from a vault",
	Args:    cobra.ExactArgs(2),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultName, entryName := args[0], args[1]

		unlocked, err := unlockVault(vaultName)
		if err != nil {
			return err
		}

		if !vault.Delete(&unlocked, entryName) {
			_, _ = vault.Lock(&unlocked)
			return errors.New(i18n.T("cli.get.not_found", entryName, vaultName))
		}
		_ = db.LogAction("DELETE_ENTRY", entryDetails(vaultName, entryName))

		if err := lockAndSave(&unlocked); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.rm.removed", entryName, vaultName))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list <vault>",
	Short:   "List the entry names in a vault",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultName := args[0]

		unlocked, err := unlockVault(vaultName)
		if err != nil {
			return err
		}
		defer func() { _, _ = vault.Lock(&unlocked) }()

		names := vault.Names(&unlocked)
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.list.empty", vaultName))
			return nil
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var vaultsCmd = &cobra.Command{
	Use:     "vaults",
	Short:   "List all vaults",
	Args:    cobra.NoArgs,
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := db.ListVaults()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.vaults.none"))
			return nil
		}
		for _, rec := range records {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", rec.Name, rec.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var rmVaultCmd = &cobra.Command{
	Use:     "rm-vault <vault>",
	Short:   "Delete a vault and all its secrets",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		force, _ := cmd.Flags().GetBool("force")
		if !force && !confirm(cmd, i18n.T("cli.rm_vault.confirm", name)) {
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.rm_vault.aborted"))
			return nil
		}

		if err := db.DeleteVault(name); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return errors.New(i18n.T("errors.vault_not_found", name))
			}
			return err
		}
		if err := keyring.Delete(appConfig.Keyring.Service, name); err != nil {
			log.Debugf("keyring cleanup for %s: %v", name, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.rm_vault.removed", name))
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:     "rename <old> <new>",
	Short:   "Rename a vault",
	Args:    cobra.ExactArgs(2),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		oldName, newName := args[0], args[1]

		if err := db.RenameVault(oldName, newName); err != nil {
			switch {
			case errors.Is(err, db.ErrNotFound):
				return errors.New(i18n.T("errors.vault_not_found", oldName))
			case errors.Is(err, db.ErrDuplicate):
				return errors.New(i18n.T("cli.init.exists", newName))
			}
			return err
		}

		// Migrate any cached keyring passphrase to the new name.
		if pass, err := keyring.Get(appConfig.Keyring.Service, oldName); err == nil {
			if err := keyring.Set(appConfig.Keyring.Service, newName, pass); err == nil {
				_ = keyring.Delete(appConfig.Keyring.Service, oldName)
			}
			sealer.Zero(pass)
		}

		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.rename.renamed", oldName, newName))
		return nil
	},
}

var changePassphraseCmd = &cobra.Command{
	Use:     "change-passphrase <vault>",
	Short:   "Re-encrypt a vault under a new master passphrase",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultName := args[0]

		unlocked, err := unlockVault(vaultName)
		if err != nil {
			return err
		}

		var newPass []byte
		if cmd.Flags().Changed("new-passphrase") {
			v, _ := cmd.Flags().GetString("new-passphrase")
			newPass = []byte(v)
		} else {
			// The old passphrase may sit in the flag or cache; never reuse
			// it for the new one.
			passphrase = ""
			state.PassphraseCache.Clear()
			newPass, err = promptNewPassphrase(vaultName)
			if err != nil {
				_, _ = vault.Lock(&unlocked)
				return err
			}
		}
		defer sealer.Zero(newPass)

		if err := vault.Rekey(&unlocked, newPass, kdfParams()); err != nil {
			_, _ = vault.Lock(&unlocked)
			return err
		}
		if err := lockAndSave(&unlocked); err != nil {
			return err
		}
		_ = db.LogAction("REKEY", entryDetails(vaultName, ""))

		// The cached passphrase no longer opens the vault; replace it.
		state.PassphraseCache.Set(newPass)

		if appConfig.Keyring.Enabled {
			if err := keyring.Set(appConfig.Keyring.Service, vaultName, newPass); err != nil {
				log.Warnf("could not update keyring: %v", err)
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.passwd.changed", vaultName))
		return nil
	},
}

var forgetCmd = &cobra.Command{
	Use:     "forget <vault>",
	Short:   "Remove a cached passphrase from the OS keyring",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		state.PassphraseCache.Clear()
		if err := keyring.Delete(appConfig.Keyring.Service, name); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.forget.done", name))
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random secret",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		length, _ := cmd.Flags().GetInt("length")
		value, err := secretgen.Generate(length, generateCharset(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(value))
		sealer.Zero(value)
		return nil
	},
}

// generateCharset builds the secretgen charset mask from the command's
// --no-* flags.
func generateCharset(cmd *cobra.Command) int {
	charset := secretgen.All
	if v, _ := cmd.Flags().GetBool("no-symbols"); v {
		charset &^= secretgen.Symbols
	}
	if v, _ := cmd.Flags().GetBool("no-digits"); v {
		charset &^= secretgen.Digits
	}
	if v, _ := cmd.Flags().GetBool("no-upper"); v {
		charset &^= secretgen.Upper
	}
	return charset
}

var openCmd = &cobra.Command{
	Use:     "open <vault>",
	Short:   "Browse a vault interactively",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := tui.Run(name); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return errors.New(i18n.T("errors.vault_not_found", name))
			}
			return err
		}
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:     "audit",
	Short:   "Show the audit log",
	Args:    cobra.NoArgs,
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := db.GetAllAuditLogEntries()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.audit.empty"))
			return nil
		}
		for _, e := range entries {
			details := e.Details
			if details != "" {
				details = " (" + details + ")"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-12s %s%s\n",
				e.Timestamp, e.Username, e.Action, details)
		}
		return nil
	},
}

func init() {
	setCmd.Flags().String("value", "", "Secret value (prompts when omitted)")
	setCmd.Flags().Bool("generate", false, "Generate a random secret instead of prompting")
	setCmd.Flags().Int("length", secretgen.DefaultLength, "Length of a generated secret")
	setCmd.Flags().Bool("no-symbols", false, "Exclude symbols from generated secrets")
	setCmd.Flags().Bool("no-digits", false, "Exclude digits from generated secrets")
	setCmd.Flags().Bool("no-upper", false, "Exclude uppercase letters from generated secrets")

	getCmd.Flags().BoolP("copy", "c", false, "Copy the secret to the clipboard instead of printing it")

	rmVaultCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")

	changePassphraseCmd.Flags().String("new-passphrase", "", "New master passphrase (prompts when omitted)")

	generateCmd.Flags().IntP("length", "l", secretgen.DefaultLength, "Length of the generated secret")
	generateCmd.Flags().Bool("no-symbols", false, "Exclude symbols")
	generateCmd.Flags().Bool("no-digits", false, "Exclude digits")
	generateCmd.Flags().Bool("no-upper", false, "Exclude uppercase letters")
}

// entryDetails formats the audit detail string for vault/entry actions.
func entryDetails(vaultName, entryName string) string {
	var b strings.Builder
	b.WriteString("vault: ")
	b.WriteString(vaultName)
	if entryName != "" {
		b.WriteString(", entry: ")
		b.WriteString(entryName)
	}
	return b.String()
}
