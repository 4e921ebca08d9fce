// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for Latchkey using the
// Cobra library. It defines the root command, subcommands (init, set, get,
// backup, ...), flags, and the main entry point for execution.

package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"sort"
	"strings"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/latchkey-dev/latchkey/buildvars"
	"github.com/latchkey-dev/latchkey/internal/config"
	"github.com/latchkey-dev/latchkey/internal/db"
	"github.com/latchkey-dev/latchkey/internal/i18n"
	"github.com/latchkey-dev/latchkey/internal/keyring"
	"github.com/latchkey-dev/latchkey/internal/logging"
	"github.com/latchkey-dev/latchkey/internal/sealer"
	"github.com/latchkey-dev/latchkey/internal/state"
	"github.com/latchkey-dev/latchkey/internal/tui"
	"github.com/latchkey-dev/latchkey/internal/vault"
)

var cfgFile string
var passphrase string // --passphrase flag for non-interactive use
var verbose bool

var appConfig config.Config

// setupDefaultServices loads the configuration, initializes i18n and the
// database, and wires logging. It runs as PreRunE on every command that
// touches the vault store.
func setupDefaultServices(cmd *cobra.Command, args []string) error {
	optionalConfigPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	defaults := map[string]any{
		"database.type":   "sqlite",
		"database.dsn":    "./latchkey.db",
		"language":        "en",
		"keyring.enabled": false,
		"keyring.service": keyring.DefaultService,
		"kdf.time":        sealer.DefaultParams().Time,
		"kdf.memory_kib":  sealer.DefaultParams().MemoryKiB,
		"kdf.threads":     sealer.DefaultParams().Threads,
	}

	appConfig, err = config.LoadConfig[config.Config](cmd, defaults, optionalConfigPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	// Post-process config to ensure critical values are not empty, falling
	// back to defaults. This handles config files with empty values.
	if appConfig.Database.Type == "" {
		appConfig.Database.Type = defaults["database.type"].(string)
	}
	if appConfig.Database.Dsn == "" {
		appConfig.Database.Dsn = defaults["database.dsn"].(string)
	}
	if appConfig.Language == "" {
		appConfig.Language = defaults["language"].(string)
	}

	i18n.Init(appConfig.Language)
	logging.SetDebug(verbose)
	db.SetDebug(verbose)

	// Initialize the database if not already initialized by tests or
	// earlier setup.
	if !db.IsInitialized() {
		if _, err := db.New(appConfig.Database.Type, appConfig.Database.Dsn); err != nil {
			return errors.New(i18n.T("config.error_init_db", err))
		}
	}

	return nil
}

// Execute runs the CLI entrypoint. The root main package should call this
// function and handle process exit.
func Execute() error {
	defer state.PassphraseCache.Clear()

	return NewRootCmd().Execute()
}

func applyDefaultFlags(cmd *cobra.Command) {
	// Avoid redefining flags if they already exist (NewRootCmd may be
	// called multiple times in tests). pflag panics on duplicates.
	if cmd.PersistentFlags().Lookup("config") == nil {
		cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to an explicit config file")
	}
	if cmd.PersistentFlags().Lookup("database.type") == nil {
		cmd.PersistentFlags().String("database.type", "sqlite", "Database type (sqlite, postgres, mysql)")
	}
	if cmd.PersistentFlags().Lookup("database.dsn") == nil {
		cmd.PersistentFlags().String("database.dsn", "./latchkey.db", "Database connection string (DSN)")
	}
	if cmd.PersistentFlags().Lookup("passphrase") == nil {
		cmd.PersistentFlags().StringVar(&passphrase, "passphrase", "", "Master passphrase (prompts when omitted; intended for scripts)")
	}
	if cmd.PersistentFlags().Lookup("verbose") == nil {
		cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	}
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only proceed if the user has explicitly set the --config flag.
	if cmd.Flags().Changed("config") {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return nil, fmt.Errorf("could not read --config flag: %w", err)
		}
		if path == "" {
			return nil, nil
		}
		// Make sure the user-provided file exists to avoid unwanted behavior.
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		return &path, nil
	}
	return nil, nil
}

// NewRootCmd creates and configures a new root cobra command. This function
// is used for the main application as well as fresh instances for isolated
// testing.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "latchkey",
		Short:         "A password vault whose lock state lives in the type system",
		Long:          "Latchkey stores secrets in vaults that are sealed with a master passphrase.\nA vault is either locked or unlocked, and the distinction is a compile-time\ntype, not a runtime flag: code that reads secrets from a locked vault does\nnot build.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		// A bare vault name opens the interactive browser.
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			if err := setupDefaultServices(cmd, args); err != nil {
				return err
			}
			if err := tui.Run(args[0]); err != nil {
				if errors.Is(err, db.ErrNotFound) {
					return errors.New(i18n.T("errors.vault_not_found", args[0]))
				}
				return err
			}
			return nil
		},
	}
	applyDefaultFlags(cmd)

	cmd.AddCommand(
		initCmd,
		setCmd,
		getCmd,
		rmCmd,
		listCmd,
		vaultsCmd,
		rmVaultCmd,
		renameCmd,
		changePassphraseCmd,
		forgetCmd,
		generateCmd,
		openCmd,
		auditCmd,
		backupCmd,
		restoreCmd,
		dbMaintainCmd,
		langCmd,
		newVersionCmd(),
	)
	return cmd
}

// langCmd shows or changes the display language. A change is persisted to
// the user config file so it survives the process.
var langCmd = &cobra.Command{
	Use:     "lang [tag]",
	Short:   "Show or set the display language",
	Args:    cobra.MaximumNArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		available := i18n.AvailableLocales()

		if len(args) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.lang.current", i18n.GetLang()))
			tags := make([]string, 0, len(available))
			for tag := range available {
				tags = append(tags, tag)
			}
			sort.Strings(tags)
			for _, tag := range tags {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\t%s\n", tag, available[tag])
			}
			return nil
		}

		tag := args[0]
		if _, ok := available[tag]; !ok {
			return errors.New(i18n.T("cli.lang.unknown", tag))
		}
		i18n.SetLang(tag)
		appConfig.Language = tag
		if err := config.WriteConfigFile(&appConfig, false); err != nil {
			return fmt.Errorf("could not persist language choice: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.lang.set", tag))
		return nil
	},
}

// kdfParams returns the configured argon2id costs, falling back to the
// defaults for missing values.
func kdfParams() sealer.Params {
	p := sealer.Params{
		Time:      appConfig.KDF.Time,
		MemoryKiB: appConfig.KDF.MemoryKiB,
		Threads:   appConfig.KDF.Threads,
	}
	if !p.Valid() {
		return sealer.DefaultParams()
	}
	return p
}

// promptSecret reads a line from the terminal without echo.
func promptSecret(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New(i18n.T("prompt.error_no_terminal"))
	}
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("could not read input: %w", err)
	}
	return b, nil
}

// resolvePassphrase obtains the passphrase for a vault: the --passphrase
// flag wins, then the in-process cache, then the OS keyring (when enabled),
// then an interactive prompt.
func resolvePassphrase(vaultName string) ([]byte, error) {
	if passphrase != "" {
		return []byte(passphrase), nil
	}
	if cached := state.PassphraseCache.Get(); cached != nil {
		return cached, nil
	}
	if appConfig.Keyring.Enabled {
		if pass, err := keyring.Get(appConfig.Keyring.Service, vaultName); err == nil {
			return pass, nil
		} else if !errors.Is(err, keyring.ErrNotFound) {
			log.Warnf("keyring lookup failed: %v", err)
		}
	}
	return promptSecret(i18n.T("prompt.passphrase", vaultName))
}

// promptNewPassphrase obtains a fresh passphrase, confirming it when read
// interactively.
func promptNewPassphrase(vaultName string) ([]byte, error) {
	if passphrase != "" {
		return []byte(passphrase), nil
	}
	first, err := promptSecret(i18n.T("prompt.new_passphrase", vaultName))
	if err != nil {
		return nil, err
	}
	second, err := promptSecret(i18n.T("prompt.confirm_passphrase"))
	if err != nil {
		return nil, err
	}
	if string(first) != string(second) {
		sealer.Zero(first)
		sealer.Zero(second)
		return nil, errors.New(i18n.T("prompt.error_mismatch"))
	}
	sealer.Zero(second)
	return first, nil
}

// unlockVault loads the named vault and unlocks it with the resolved
// passphrase. Attempts are recorded in the audit log; the fixed failure
// message does not reveal whether the vault even has that entry.
func unlockVault(vaultName string) (vault.Vault[vault.Unlocked], error) {
	rec, err := db.GetVault(vaultName)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return vault.Vault[vault.Unlocked]{}, errors.New(i18n.T("errors.vault_not_found", vaultName))
		}
		return vault.Vault[vault.Unlocked]{}, err
	}

	pass, err := resolvePassphrase(vaultName)
	if err != nil {
		return vault.Vault[vault.Unlocked]{}, err
	}
	defer sealer.Zero(pass)

	unlocked, err := vault.Unlock(vault.FromRecord(rec), pass)
	if err != nil {
		if errors.Is(err, vault.ErrBadPassphrase) {
			_ = db.LogAction("UNLOCK_FAIL", entryDetails(vaultName, ""))
			return vault.Vault[vault.Unlocked]{}, errors.New(i18n.T("unlock.failed"))
		}
		return vault.Vault[vault.Unlocked]{}, err
	}
	_ = db.LogAction("UNLOCK", entryDetails(vaultName, ""))

	// Later commands in this process reuse the passphrase without prompting.
	state.PassphraseCache.Set(pass)

	if appConfig.Keyring.Enabled {
		if err := keyring.Set(appConfig.Keyring.Service, vaultName, pass); err != nil {
			log.Warnf("could not cache passphrase in keyring: %v", err)
		}
	}
	return unlocked, nil
}

// lockAndSave reseals an unlocked vault and persists it.
func lockAndSave(unlocked *vault.Vault[vault.Unlocked]) error {
	locked, err := vault.Lock(unlocked)
	if err != nil {
		return err
	}
	return db.SaveVault(vault.Snapshot(locked))
}

// resolveVersion prefers linker-set values and falls back to Go build info.
func resolveVersion() (string, string, string) {
	resolvedVersion := buildvars.VersionOrDefault("dev")
	resolvedCommit := buildvars.Commit
	resolvedDate := buildvars.Date
	if info, ok := debug.ReadBuildInfo(); ok {
		if resolvedVersion == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if resolvedCommit == "" && len(s.Value) >= 7 {
					resolvedCommit = s.Value[:7]
				}
			case "vcs.time":
				if resolvedDate == "" {
					resolvedDate = s.Value
				}
			}
		}
	}
	return resolvedVersion, resolvedCommit, resolvedDate
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			v, commit, date := resolveVersion()
			out := fmt.Sprintf("latchkey %s", v)
			if commit != "" && commit != "dev" {
				out += fmt.Sprintf(" (%s)", commit)
			}
			if date != "" {
				out += fmt.Sprintf(" built %s", date)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
		},
	}
}

// confirm reads a yes/no answer from stdin for destructive operations.
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt+" [y/N]: ")
	var answer string
	_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
