// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/latchkey-dev/latchkey/internal/db"
	"github.com/latchkey-dev/latchkey/internal/i18n"
	"github.com/latchkey-dev/latchkey/internal/sealer"
	"github.com/latchkey-dev/latchkey/internal/state"
	"github.com/latchkey-dev/latchkey/internal/vault"
)

// maxUnlockAttempts is how many bad passphrases the prompt tolerates before
// giving up.
const maxUnlockAttempts = 3

// unlockModel prompts for the master passphrase and attempts the unlock.
type unlockModel struct {
	vaultName string
	input     textinput.Model
	attempts  int
	errMsg    string
	busy      bool
}

func newUnlockModel(vaultName string) unlockModel {
	ti := textinput.New()
	ti.Placeholder = i18n.T("tui.unlock.placeholder")
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 256
	ti.Focus()
	return unlockModel{vaultName: vaultName, input: ti}
}

func (m unlockModel) Init() tea.Cmd {
	return textinput.Blink
}

// unlockFailedMsg reports a failed attempt so the view can show feedback.
type unlockFailedMsg struct{ err error }

// tryUnlock runs the slow key derivation off the update loop. The locked
// value is copied into the closure; on failure the caller's copy is still
// valid for the next attempt.
func tryUnlock(locked vault.Vault[vault.Locked], passphrase []byte) tea.Cmd {
	return func() tea.Msg {
		unlocked, err := vault.Unlock(locked, passphrase)
		if err != nil {
			sealer.Zero(passphrase)
			_ = db.LogAction("UNLOCK_FAIL", "vault: "+locked.Name())
			return unlockFailedMsg{err: err}
		}
		state.PassphraseCache.Set(passphrase)
		sealer.Zero(passphrase)
		_ = db.LogAction("UNLOCK", "vault: "+locked.Name())
		return unlockedMsg{unlocked: unlocked}
	}
}

func (m unlockModel) update(msg tea.Msg, locked *vault.Vault[vault.Locked]) (unlockModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, func() tea.Msg { return quitMsg{} }
		case "enter":
			if m.busy {
				return m, nil
			}
			pass := []byte(m.input.Value())
			m.input.SetValue("")
			m.busy = true
			m.errMsg = ""
			return m, tryUnlock(*locked, pass)
		}
	case unlockFailedMsg:
		m.busy = false
		m.attempts++
		if errors.Is(msg.err, vault.ErrBadPassphrase) {
			if m.attempts >= maxUnlockAttempts {
				err := errors.New(i18n.T("tui.unlock.too_many"))
				return m, func() tea.Msg { return quitMsg{err: err} }
			}
			m.errMsg = i18n.T("tui.unlock.failed")
		} else {
			m.errMsg = msg.err.Error()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m unlockModel) view() string {
	s := titleStyle.Render(i18n.T("tui.unlock.title", m.vaultName)) + "\n\n"
	s += m.input.View() + "\n\n"
	if m.busy {
		s += helpStyle.Render(i18n.T("tui.unlock.working")) + "\n"
	}
	if m.errMsg != "" {
		s += errorStyle.Render(m.errMsg) + "\n"
	}
	s += helpStyle.Render(i18n.T("tui.unlock.help"))
	return docStyle.Render(s)
}
