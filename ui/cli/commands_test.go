// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/latchkey-dev/latchkey/internal/db"
	"github.com/latchkey-dev/latchkey/internal/i18n"
	"github.com/latchkey-dev/latchkey/internal/state"
)

// setupTestCLI points the package-level store at a fresh in-memory SQLite
// database and resets cached passphrase state between tests.
func setupTestCLI(t *testing.T) {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	if _, err := db.New("sqlite", dsn); err != nil {
		t.Fatalf("db.New: %v", err)
	}

	passphrase = ""
	state.PassphraseCache.Clear()
	t.Cleanup(state.PassphraseCache.Clear)
}

// runCLI executes the root command with the given args plus flags that keep
// the run hermetic, returning combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestInitSetGetRoundTrip(t *testing.T) {
	setupTestCLI(t)

	if _, err := runCLI(t, "init", "personal", "--passphrase", "hunter2"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := runCLI(t, "set", "personal", "email", "--passphrase", "hunter2", "--value", "p@ssw0rd!"); err != nil {
		t.Fatalf("set: %v", err)
	}

	out, err := runCLI(t, "get", "personal", "email", "--passphrase", "hunter2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if strings.TrimSpace(out) != "p@ssw0rd!" {
		t.Fatalf("get returned %q, want %q", strings.TrimSpace(out), "p@ssw0rd!")
	}
}

func TestInitRefusesExistingVault(t *testing.T) {
	setupTestCLI(t)

	if _, err := runCLI(t, "init", "personal", "--passphrase", "hunter2"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := runCLI(t, "init", "personal", "--passphrase", "other"); err == nil {
		t.Fatal("expected error when re-initializing an existing vault")
	}

	// The original passphrase must still open the vault.
	if _, err := runCLI(t, "list", "personal", "--passphrase", "hunter2"); err != nil {
		t.Fatalf("list after failed re-init: %v", err)
	}
}

func TestGetWithWrongPassphraseFails(t *testing.T) {
	setupTestCLI(t)

	if _, err := runCLI(t, "init", "personal", "--passphrase", "hunter2"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := runCLI(t, "set", "personal", "email", "--passphrase", "hunter2", "--value", "x"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, err := runCLI(t, "get", "personal", "email", "--passphrase", "*******"); err == nil {
		t.Fatal("expected auth failure with wrong passphrase")
	}
	// The correct passphrase still works afterwards.
	if _, err := runCLI(t, "get", "personal", "email", "--passphrase", "hunter2"); err != nil {
		t.Fatalf("get after failed attempt: %v", err)
	}
}

func TestGetUnknownEntry(t *testing.T) {
	setupTestCLI(t)

	if _, err := runCLI(t, "init", "personal", "--passphrase", "hunter2"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := runCLI(t, "get", "personal", "nope", "--passphrase", "hunter2"); err == nil {
		t.Fatal("expected error for unknown entry")
	}
}

func TestGetUnknownVault(t *testing.T) {
	setupTestCLI(t)

	if _, err := runCLI(t, "get", "ghost", "email", "--passphrase", "hunter2"); err == nil {
		t.Fatal("expected error for unknown vault")
	}
}

func TestRmEntry(t *testing.T) {
	setupTestCLI(t)

	if _, err := runCLI(t, "init", "personal", "--passphrase", "hunter2"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := runCLI(t, "set", "personal", "email", "--passphrase", "hunter2", "--value", "x"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := runCLI(t, "rm", "personal", "email", "--passphrase", "hunter2"); err != nil {
		t.Fatalf("rm: %v", err)
	}
	if _, err := runCLI(t, "get", "personal", "email", "--passphrase", "hunter2"); err == nil {
		t.Fatal("expected entry to be gone after rm")
	}
	if _, err := runCLI(t, "rm", "personal", "email", "--passphrase", "hunter2"); err == nil {
		t.Fatal("expected error removing a missing entry")
	}
}

func TestListEntriesSorted(t *testing.T) {
	setupTestCLI(t)

	if _, err := runCLI(t, "init", "personal", "--passphrase", "hunter2"); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := runCLI(t, "set", "personal", name, "--passphrase", "hunter2", "--value", "v"); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}

	out, err := runCLI(t, "list", "personal", "--passphrase", "hunter2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{"alpha", "mid", "zeta"}
	if len(lines) != len(want) {
		t.Fatalf("got %d entries, want %d: %q", len(lines), len(want), out)
	}
	for i, name := range want {
		if lines[i] != name {
			t.Fatalf("entry %d = %q, want %q", i, lines[i], name)
		}
	}
}

func TestVaultsAndRmVault(t *testing.T) {
	setupTestCLI(t)

	for _, name := range []string{"work", "personal"} {
		if _, err := runCLI(t, "init", name, "--passphrase", "hunter2"); err != nil {
			t.Fatalf("init %s: %v", name, err)
		}
	}

	out, err := runCLI(t, "vaults")
	if err != nil {
		t.Fatalf("vaults: %v", err)
	}
	if !strings.Contains(out, "work") || !strings.Contains(out, "personal") {
		t.Fatalf("vaults output missing names: %q", out)
	}

	if _, err := runCLI(t, "rm-vault", "work", "--force"); err != nil {
		t.Fatalf("rm-vault: %v", err)
	}
	out, err = runCLI(t, "vaults")
	if err != nil {
		t.Fatalf("vaults after rm-vault: %v", err)
	}
	if strings.Contains(out, "work") {
		t.Fatalf("vault still listed after rm-vault: %q", out)
	}

	if _, err := runCLI(t, "rm-vault", "work", "--force"); err == nil {
		t.Fatal("expected error removing a missing vault")
	}
}

func TestRenameVault(t *testing.T) {
	setupTestCLI(t)

	if _, err := runCLI(t, "init", "personal", "--passphrase", "hunter2"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := runCLI(t, "set", "personal", "email", "--passphrase", "hunter2", "--value", "x"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := runCLI(t, "rename", "personal", "private"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	// The data moved with the name.
	if _, err := runCLI(t, "get", "private", "email", "--passphrase", "hunter2"); err != nil {
		t.Fatalf("get after rename: %v", err)
	}
	if _, err := runCLI(t, "get", "personal", "email", "--passphrase", "hunter2"); err == nil {
		t.Fatal("old vault name still resolves after rename")
	}
}

func TestChangePassphrase(t *testing.T) {
	setupTestCLI(t)

	if _, err := runCLI(t, "init", "personal", "--passphrase", "old-pass"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := runCLI(t, "set", "personal", "email", "--passphrase", "old-pass", "--value", "x"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, err := runCLI(t, "change-passphrase", "personal", "--passphrase", "old-pass", "--new-passphrase", "new-pass"); err != nil {
		t.Fatalf("change-passphrase: %v", err)
	}

	if _, err := runCLI(t, "get", "personal", "email", "--passphrase", "old-pass"); err == nil {
		t.Fatal("old passphrase still opens the vault after re-key")
	}
	out, err := runCLI(t, "get", "personal", "email", "--passphrase", "new-pass")
	if err != nil {
		t.Fatalf("get with new passphrase: %v", err)
	}
	if strings.TrimSpace(out) != "x" {
		t.Fatalf("secret = %q, want %q", strings.TrimSpace(out), "x")
	}
}

func TestGenerateRespectsLengthAndCharset(t *testing.T) {
	setupTestCLI(t)

	out, err := runCLI(t, "generate", "--length", "32", "--no-symbols")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	secret := strings.TrimSpace(out)
	if len(secret) != 32 {
		t.Fatalf("generated secret has length %d, want 32", len(secret))
	}
	if strings.ContainsAny(secret, "!@#$%^&*()-_=+[]{}:,.?/") {
		t.Fatalf("generated secret contains symbols despite --no-symbols: %q", secret)
	}
}

func TestAuditRecordsVaultActivity(t *testing.T) {
	setupTestCLI(t)

	if _, err := runCLI(t, "init", "personal", "--passphrase", "hunter2"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := runCLI(t, "set", "personal", "email", "--passphrase", "hunter2", "--value", "x"); err != nil {
		t.Fatalf("set: %v", err)
	}

	out, err := runCLI(t, "audit")
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	for _, action := range []string{"CREATE_VAULT", "UNLOCK", "SET_ENTRY"} {
		if !strings.Contains(out, action) {
			t.Fatalf("audit output missing %s: %q", action, out)
		}
	}
}

func TestBackupAndRestore(t *testing.T) {
	setupTestCLI(t)

	if _, err := runCLI(t, "init", "personal", "--passphrase", "hunter2"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := runCLI(t, "set", "personal", "email", "--passphrase", "hunter2", "--value", "p@ss"); err != nil {
		t.Fatalf("set: %v", err)
	}

	path := filepath.Join(t.TempDir(), "latchkey.backup")
	if _, err := runCLI(t, "backup", path); err != nil {
		t.Fatalf("backup: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("backup file missing: %v", err)
	}

	// Wipe the vault, then restore from the backup.
	if _, err := runCLI(t, "rm-vault", "personal", "--force"); err != nil {
		t.Fatalf("rm-vault: %v", err)
	}
	if _, err := runCLI(t, "restore", path); err != nil {
		t.Fatalf("restore: %v", err)
	}

	out, err := runCLI(t, "get", "personal", "email", "--passphrase", "hunter2")
	if err != nil {
		t.Fatalf("get after restore: %v", err)
	}
	if strings.TrimSpace(out) != "p@ss" {
		t.Fatalf("restored secret = %q, want %q", strings.TrimSpace(out), "p@ss")
	}
}

func TestRestoreIntegrateKeepsExistingVaults(t *testing.T) {
	setupTestCLI(t)

	if _, err := runCLI(t, "init", "personal", "--passphrase", "hunter2"); err != nil {
		t.Fatalf("init: %v", err)
	}
	path := filepath.Join(t.TempDir(), "latchkey.backup")
	if _, err := runCLI(t, "backup", path); err != nil {
		t.Fatalf("backup: %v", err)
	}

	if _, err := runCLI(t, "init", "work", "--passphrase", "hunter2"); err != nil {
		t.Fatalf("init work: %v", err)
	}
	if _, err := runCLI(t, "restore", path); err != nil {
		t.Fatalf("restore: %v", err)
	}

	out, err := runCLI(t, "vaults")
	if err != nil {
		t.Fatalf("vaults: %v", err)
	}
	if !strings.Contains(out, "personal") || !strings.Contains(out, "work") {
		t.Fatalf("integrate lost a vault: %q", out)
	}
}

func TestPassphraseCachedWithinProcess(t *testing.T) {
	setupTestCLI(t)

	if _, err := runCLI(t, "init", "personal", "--passphrase", "hunter2"); err != nil {
		t.Fatalf("init: %v", err)
	}

	// init cached the passphrase, so later commands in the same process
	// need neither the flag nor a terminal.
	if _, err := runCLI(t, "set", "personal", "email", "--value", "p@ss"); err != nil {
		t.Fatalf("set without passphrase flag: %v", err)
	}
	out, err := runCLI(t, "get", "personal", "email")
	if err != nil {
		t.Fatalf("get without passphrase flag: %v", err)
	}
	if strings.TrimSpace(out) != "p@ss" {
		t.Fatalf("secret = %q, want %q", strings.TrimSpace(out), "p@ss")
	}

	// After a re-key the cache holds the new passphrase.
	if _, err := runCLI(t, "change-passphrase", "personal", "--new-passphrase", "new-pass"); err != nil {
		t.Fatalf("change-passphrase: %v", err)
	}
	if _, err := runCLI(t, "get", "personal", "email"); err != nil {
		t.Fatalf("get after re-key: %v", err)
	}
}

func TestLangPersistsChoice(t *testing.T) {
	setupTestCLI(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Cleanup(func() { i18n.SetLang("en") })

	out, err := runCLI(t, "lang")
	if err != nil {
		t.Fatalf("lang: %v", err)
	}
	if !strings.Contains(out, "en") || !strings.Contains(out, "de") {
		t.Fatalf("lang output missing locales: %q", out)
	}

	if _, err := runCLI(t, "lang", "de"); err != nil {
		t.Fatalf("lang de: %v", err)
	}
	path := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "latchkey", "latchkey.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if !strings.Contains(string(data), "language: de") {
		t.Fatalf("language not persisted: %q", data)
	}

	if _, err := runCLI(t, "lang", "tlh"); err == nil {
		t.Fatal("expected error for unknown language tag")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "latchkey") {
		t.Fatalf("unexpected version output: %q", out)
	}
}
