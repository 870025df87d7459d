package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"panelctl/internal/session"
)

type registerResultMsg session.Result
type registeredMsg struct{}
type backToLoginMsg struct{}

type registerModel struct {
	session *session.Manager

	inputs []textinput.Model
	focus  int

	submitting bool
	errText    string
}

func newRegisterModel(sess *session.Manager) registerModel {
	labels := []struct {
		placeholder string
		secret      bool
	}{
		{"username", false},
		{"email", false},
		{"password", true},
		{"confirm password", true},
	}

	inputs := make([]textinput.Model, len(labels))
	for i, l := range labels {
		ti := textinput.New()
		ti.Placeholder = l.placeholder
		ti.CharLimit = 64
		ti.Width = 30
		if l.secret {
			ti.EchoMode = textinput.EchoPassword
		}
		inputs[i] = ti
	}
	inputs[0].Focus()

	return registerModel{session: sess, inputs: inputs}
}

func (m registerModel) reset() registerModel {
	return newRegisterModel(m.session)
}

func (m registerModel) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (m registerModel) setFocus(i int) {
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m registerModel) update(msg tea.Msg) (registerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.focus = (m.focus + 1) % len(m.inputs)
			m.setFocus(m.focus)
			return m, textinput.Blink
		case "shift+tab", "up":
			m.focus = (m.focus + len(m.inputs) - 1) % len(m.inputs)
			m.setFocus(m.focus)
			return m, textinput.Blink
		case "enter":
			if m.focus < len(m.inputs)-1 {
				m.focus++
				m.setFocus(m.focus)
				return m, textinput.Blink
			}
			m.submitting = true
			m.errText = ""
			fields := session.RegisterFields{
				Username:        m.inputs[0].Value(),
				Email:           m.inputs[1].Value(),
				Password:        m.inputs[2].Value(),
				ConfirmPassword: m.inputs[3].Value(),
			}
			sess := m.session
			return m, func() tea.Msg {
				return registerResultMsg(sess.Register(background(), fields))
			}
		case "esc":
			return m, func() tea.Msg { return backToLoginMsg{} }
		}

	case registerResultMsg:
		m.submitting = false
		if !msg.OK {
			m.errText = msg.Message
			return m, nil
		}
		return m, func() tea.Msg { return registeredMsg{} }
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m registerModel) view(width int) string {
	labels := []string{"Username", "Email", "Password", "Confirm password"}

	content := ""
	for i, label := range labels {
		content += labelStyle.Render(label) + "\n" + m.inputs[i].View() + "\n\n"
	}

	if m.submitting {
		content += subHeaderStyle.Render("Creating account...")
	}
	if m.errText != "" {
		content += errorStyle.Render(m.errText)
	}

	box := baseStyle.Width(44).Render(lipgloss.JoinVertical(lipgloss.Left,
		subHeaderStyle.Render("Create an account"), "", content))

	footer := footerStyle.Render("enter: next/submit • tab: switch field • esc: back to login")
	return centered(width, lipgloss.JoinVertical(lipgloss.Center, box, footer))
}
