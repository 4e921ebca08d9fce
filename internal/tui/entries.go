// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/latchkey-dev/latchkey/internal/db"
	"github.com/latchkey-dev/latchkey/internal/i18n"
	"github.com/latchkey-dev/latchkey/internal/vault"
)

// entriesMode distinguishes browsing from the inline add form and the
// delete confirmation.
type entriesMode int

const (
	modeBrowse entriesMode = iota
	modeAdd
	modeConfirmDelete
)

// entriesModel is the main view: a table of entries with masked values.
// It owns the unlocked vault for the rest of the session.
type entriesModel struct {
	vaultName string
	unlocked  vault.Vault[vault.Unlocked]

	table     table.Model
	mode      entriesMode
	revealed  map[string]bool
	nameInput textinput.Model
	valInput  textinput.Model
	focusVal  bool
	status    string
	statusErr bool
}

func newEntriesModel(vaultName string, unlocked vault.Vault[vault.Unlocked]) entriesModel {
	columns := []table.Column{
		{Title: i18n.T("tui.entries.header.name"), Width: 32},
		{Title: i18n.T("tui.entries.header.secret"), Width: 40},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorSubtle).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(colorWhite).
		Background(colorHighlight).
		Bold(false)
	t.SetStyles(s)

	name := textinput.New()
	name.Placeholder = i18n.T("tui.entries.name_placeholder")
	name.CharLimit = 128

	val := textinput.New()
	val.Placeholder = i18n.T("tui.entries.secret_placeholder")
	val.EchoMode = textinput.EchoPassword
	val.EchoCharacter = '•'
	val.CharLimit = 1024

	m := entriesModel{
		vaultName: vaultName,
		unlocked:  unlocked,
		table:     t,
		revealed:  map[string]bool{},
		nameInput: name,
		valInput:  val,
	}
	m.rebuildRows()
	return m
}

func (m *entriesModel) setSize(width, height int) {
	if height > 10 {
		m.table.SetHeight(height - 10)
	}
}

// rebuildRows refreshes the table from the vault, masking secrets unless
// explicitly revealed.
func (m *entriesModel) rebuildRows() {
	var rows []table.Row
	for _, name := range vault.Names(&m.unlocked) {
		cell := maskedStyle.Render(strings.Repeat("•", 8))
		if m.revealed[name] {
			if secret, ok := vault.Get(&m.unlocked, name); ok {
				cell = string(secret.Bytes())
			}
		}
		rows = append(rows, table.Row{name, cell})
	}
	m.table.SetRows(rows)
}

func (m *entriesModel) selectedName() string {
	row := m.table.SelectedRow()
	if row == nil {
		return ""
	}
	return row[0]
}

// lockAndQuit reseals the vault, persists it, and ends the program.
func (m *entriesModel) lockAndQuit() tea.Cmd {
	unlocked := m.unlocked
	return func() tea.Msg {
		locked, err := vault.Lock(&unlocked)
		if err != nil {
			return quitMsg{err: err}
		}
		return quitMsg{err: saveLocked(locked)}
	}
}

func (m entriesModel) update(msg tea.Msg) (entriesModel, tea.Cmd) {
	switch m.mode {
	case modeAdd:
		return m.updateAdd(msg)
	case modeConfirmDelete:
		return m.updateConfirmDelete(msg)
	}
	return m.updateBrowse(msg)
}

func (m entriesModel) updateBrowse(msg tea.Msg) (entriesModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "q", "esc":
			return m, m.lockAndQuit()
		case "a":
			m.mode = modeAdd
			m.focusVal = false
			m.nameInput.SetValue("")
			m.valInput.SetValue("")
			m.nameInput.Focus()
			m.valInput.Blur()
			return m, textinput.Blink
		case "d":
			if m.selectedName() != "" {
				m.mode = modeConfirmDelete
			}
			return m, nil
		case "enter":
			if name := m.selectedName(); name != "" {
				m.revealed[name] = !m.revealed[name]
				m.rebuildRows()
			}
			return m, nil
		case "c":
			if name := m.selectedName(); name != "" {
				if secret, ok := vault.Get(&m.unlocked, name); ok {
					if err := clipboard.WriteAll(string(secret.Bytes())); err != nil {
						m.status = err.Error()
						m.statusErr = true
					} else {
						m.status = i18n.T("tui.entries.copied", name)
						m.statusErr = false
					}
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m entriesModel) updateAdd(msg tea.Msg) (entriesModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.mode = modeBrowse
			return m, nil
		case "tab", "shift+tab":
			m.focusVal = !m.focusVal
			if m.focusVal {
				m.nameInput.Blur()
				m.valInput.Focus()
			} else {
				m.valInput.Blur()
				m.nameInput.Focus()
			}
			return m, textinput.Blink
		case "enter":
			name := strings.TrimSpace(m.nameInput.Value())
			if name == "" {
				m.status = i18n.T("tui.entries.name_required")
				m.statusErr = true
				return m, nil
			}
			vault.Set(&m.unlocked, name, []byte(m.valInput.Value()))
			_ = db.LogAction("SET_ENTRY", "vault: "+m.vaultName+", entry: "+name)
			m.valInput.SetValue("")
			m.mode = modeBrowse
			m.status = i18n.T("tui.entries.added", name)
			m.statusErr = false
			m.rebuildRows()
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focusVal {
		m.valInput, cmd = m.valInput.Update(msg)
	} else {
		m.nameInput, cmd = m.nameInput.Update(msg)
	}
	return m, cmd
}

func (m entriesModel) updateConfirmDelete(msg tea.Msg) (entriesModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y":
			name := m.selectedName()
			if vault.Delete(&m.unlocked, name) {
				_ = db.LogAction("DELETE_ENTRY", "vault: "+m.vaultName+", entry: "+name)
				delete(m.revealed, name)
				m.status = i18n.T("tui.entries.deleted", name)
				m.statusErr = false
				m.rebuildRows()
			}
			m.mode = modeBrowse
		case "n", "esc":
			m.mode = modeBrowse
		}
	}
	return m, nil
}

func (m entriesModel) view() string {
	s := titleStyle.Render(i18n.T("tui.entries.title", m.vaultName)) + "\n"

	switch m.mode {
	case modeAdd:
		s += "\n" + i18n.T("tui.entries.add_title") + "\n"
		s += m.nameInput.View() + "\n"
		s += m.valInput.View() + "\n\n"
		s += helpStyle.Render(i18n.T("tui.entries.add_help"))
	case modeConfirmDelete:
		s += "\n" + specialStyle.Render(i18n.T("tui.entries.confirm_delete", m.selectedName())) + "\n"
	default:
		s += m.table.View() + "\n"
		if m.status != "" {
			if m.statusErr {
				s += errorStyle.Render(m.status) + "\n"
			} else {
				s += successStyle.Render(m.status) + "\n"
			}
		}
		s += helpStyle.Render(i18n.T("tui.entries.help"))
	}
	return docStyle.Render(s)
}
