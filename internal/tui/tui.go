// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/latchkey-dev/latchkey/internal/db"
	"github.com/latchkey-dev/latchkey/internal/vault"
)

// view identifies which sub-view currently owns input.
type view int

const (
	viewUnlock view = iota
	viewEntries
)

// rootModel drives the whole TUI session for a single vault. It owns the
// vault value exclusively; no other goroutine touches it.
type rootModel struct {
	currentView view
	unlock      unlockModel
	entries     entriesModel

	vaultName string
	locked    vault.Vault[vault.Locked]
	width     int
	height    int
	err       error
}

// Run opens the TUI for the named vault. It loads the locked vault from the
// database, prompts for the passphrase, and saves the resealed vault when
// the user quits.
func Run(vaultName string) error {
	rec, err := db.GetVault(vaultName)
	if err != nil {
		return err
	}

	m := rootModel{
		currentView: viewUnlock,
		vaultName:   vaultName,
		locked:      vault.FromRecord(rec),
		unlock:      newUnlockModel(vaultName),
	}

	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	if fm, ok := final.(rootModel); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

func (m rootModel) Init() tea.Cmd {
	return m.unlock.Init()
}

func (m rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.entries.setSize(msg.Width, msg.Height)
	case unlockedMsg:
		// The unlock view consumed the locked value and produced an
		// unlocked one; switch to the entries view.
		m.currentView = viewEntries
		m.entries = newEntriesModel(m.vaultName, msg.unlocked)
		m.entries.setSize(m.width, m.height)
		return m, nil
	case quitMsg:
		m.err = msg.err
		return m, tea.Quit
	}

	switch m.currentView {
	case viewUnlock:
		var cmd tea.Cmd
		m.unlock, cmd = m.unlock.update(msg, &m.locked)
		return m, cmd
	default:
		var cmd tea.Cmd
		m.entries, cmd = m.entries.update(msg)
		return m, cmd
	}
}

func (m rootModel) View() string {
	switch m.currentView {
	case viewUnlock:
		return m.unlock.view()
	default:
		return m.entries.view()
	}
}

// unlockedMsg carries the freshly unlocked vault from the unlock view.
type unlockedMsg struct {
	unlocked vault.Vault[vault.Unlocked]
}

// quitMsg ends the program, optionally with a fatal error.
type quitMsg struct {
	err error
}

// saveLocked persists a locked vault. Used by the entries view on quit.
func saveLocked(locked vault.Vault[vault.Locked]) error {
	return db.SaveVault(vault.Snapshot(locked))
}
