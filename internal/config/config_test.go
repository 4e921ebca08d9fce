// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"os"
	"testing"

	"github.com/spf13/cobra"
)

func testCmd() *cobra.Command {
	return &cobra.Command{Use: "test", Run: func(cmd *cobra.Command, args []string) {}}
}

func TestLoadConfigDefaults(t *testing.T) {
	defaults := map[string]any{
		"database.type": "sqlite",
		"database.dsn":  "./latchkey.db",
		"language":      "en",
	}

	c, err := LoadConfig[Config](testCmd(), defaults, nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if c.Database.Type != "sqlite" {
		t.Fatalf("expected default database type sqlite, got %q", c.Database.Type)
	}
	if c.Database.Dsn != "./latchkey.db" {
		t.Fatalf("expected default dsn, got %q", c.Database.Dsn)
	}
	if c.Language != "en" {
		t.Fatalf("expected default language en, got %q", c.Language)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	if err := os.Setenv("LATCHKEY_DATABASE_TYPE", "postgres"); err != nil {
		t.Fatalf("Setenv failed: %v", err)
	}
	defer func() { _ = os.Unsetenv("LATCHKEY_DATABASE_TYPE") }()

	defaults := map[string]any{"database.type": "sqlite"}
	c, err := LoadConfig[Config](testCmd(), defaults, nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if c.Database.Type != "postgres" {
		t.Fatalf("env override not applied, got %q", c.Database.Type)
	}
}

func TestLoadConfigFlagOverride(t *testing.T) {
	cmd := testCmd()
	cmd.Flags().String("database.dsn", "", "")
	if err := cmd.Flags().Set("database.dsn", "/tmp/other.db"); err != nil {
		t.Fatalf("flag set failed: %v", err)
	}

	defaults := map[string]any{"database.dsn": "./latchkey.db"}
	c, err := LoadConfig[Config](cmd, defaults, nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if c.Database.Dsn != "/tmp/other.db" {
		t.Fatalf("flag override not applied, got %q", c.Database.Dsn)
	}
}

func TestWriteConfigFileRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var c Config
	c.Database.Type = "sqlite"
	c.Database.Dsn = "./latchkey.db"
	c.Language = "de"
	if err := WriteConfigFile(&c, false); err != nil {
		t.Fatalf("WriteConfigFile failed: %v", err)
	}

	path, err := getConfigPath(false)
	if err != nil {
		t.Fatalf("getConfigPath failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := LoadConfig[Config](testCmd(), nil, nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if got.Language != "de" || got.Database.Type != "sqlite" {
		t.Fatalf("written config not read back: %+v", got)
	}
}

func TestLoadConfigExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/latchkey.yaml"
	content := "database:\n  type: mysql\n  dsn: user@tcp(localhost)/latchkey\nlanguage: de\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	c, err := LoadConfig[Config](testCmd(), nil, &path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if c.Database.Type != "mysql" || c.Language != "de" {
		t.Fatalf("config file not loaded: %+v", c)
	}
}
