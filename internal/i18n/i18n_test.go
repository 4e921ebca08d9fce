// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package i18n

import (
	"strings"
	"testing"
)

func TestInitAndGetLang(t *testing.T) {
	Init("en")
	if GetLang() != "en" {
		t.Fatalf("expected lang 'en', got %q", GetLang())
	}

	av := AvailableLocales()
	for _, tag := range []string{"en", "de"} {
		if _, ok := av[tag]; !ok {
			t.Fatalf("expected locale %q to be available", tag)
		}
	}
}

func TestTWithTemplateArgs(t *testing.T) {
	Init("en")

	got := T("errors.vault_not_found", "personal")
	if !strings.Contains(got, "personal") {
		t.Fatalf("template arg not substituted: %q", got)
	}

	got = T("cli.set.saved", "email", "personal")
	if !strings.Contains(got, "email") || !strings.Contains(got, "personal") {
		t.Fatalf("both template args expected in %q", got)
	}
}

func TestTUnknownKeyFallsBackToID(t *testing.T) {
	Init("en")
	if got := T("no.such.key"); got != "no.such.key" {
		t.Fatalf("expected key fallback, got %q", got)
	}
}

func TestSetLangSwitchesLocale(t *testing.T) {
	Init("en")
	en := T("cli.rm_vault.aborted")

	SetLang("de")
	de := T("cli.rm_vault.aborted")
	if en == de {
		t.Fatalf("expected different translations, got %q for both", en)
	}

	SetLang("en")
	if got := T("cli.rm_vault.aborted"); got != en {
		t.Fatalf("switching back to en gave %q, want %q", got, en)
	}
}
