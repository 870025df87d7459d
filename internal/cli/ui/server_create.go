package ui

import (
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"panelctl/internal/servers"
)

type createDoneMsg struct{}
type createCancelMsg struct{}
type createResultMsg struct {
	err error
}

type createModel struct {
	ctrl *servers.Controller

	name        textinput.Model
	description textinput.Model
	focus       int

	creating bool
	errText  string
}

func newCreateModel(ctrl *servers.Controller) createModel {
	name := textinput.New()
	name.Placeholder = "My Server"
	name.CharLimit = 64
	name.Width = 30
	name.Focus()

	desc := textinput.New()
	desc.Placeholder = "optional description"
	desc.CharLimit = 255
	desc.Width = 40

	return createModel{ctrl: ctrl, name: name, description: desc}
}

func (m createModel) reset() createModel {
	return newCreateModel(m.ctrl)
}

func (m createModel) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (m createModel) update(msg tea.Msg) (createModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.creating {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.focus = (m.focus + 1) % 2
			if m.focus == 0 {
				m.name.Focus()
				m.description.Blur()
			} else {
				m.name.Blur()
				m.description.Focus()
			}
			return m, textinput.Blink
		case "enter":
			if m.focus == 0 {
				m.focus = 1
				m.name.Blur()
				m.description.Focus()
				return m, textinput.Blink
			}
			// Name is required before anything goes over the wire.
			if m.name.Value() == "" {
				m.errText = "Server name is required"
				return m, nil
			}
			m.creating = true
			m.errText = ""
			ctrl, name, desc := m.ctrl, m.name.Value(), m.description.Value()
			return m, func() tea.Msg {
				return createResultMsg{err: ctrl.Create(background(), name, desc)}
			}
		case "esc":
			return m, func() tea.Msg { return createCancelMsg{} }
		}

	case createResultMsg:
		m.creating = false
		if msg.err != nil {
			if errors.Is(msg.err, servers.ErrNameRequired) {
				m.errText = "Server name is required"
			} else {
				m.errText = msg.err.Error()
			}
			return m, nil
		}
		return m, func() tea.Msg { return createDoneMsg{} }
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.name, cmd = m.name.Update(msg)
	} else {
		m.description, cmd = m.description.Update(msg)
	}
	return m, cmd
}

func (m createModel) view(width int) string {
	content := labelStyle.Render("Server name") + "\n" + m.name.View() + "\n\n" +
		labelStyle.Render("Description") + "\n" + m.description.View() + "\n"

	if m.creating {
		content += "\n" + subHeaderStyle.Render("Creating server...")
	}
	if m.errText != "" {
		content += "\n" + errorStyle.Render(m.errText)
	}

	box := baseStyle.Width(50).Render(lipgloss.JoinVertical(lipgloss.Left,
		subHeaderStyle.Render("Create a new server"), "", content))

	footer := footerStyle.Render("enter: next/create • tab: switch field • esc: cancel")
	return centered(width, lipgloss.JoinVertical(lipgloss.Center, box, footer))
}
