package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"panelctl/internal/session"
)

type loginResultMsg session.Result
type openRegisterMsg struct{}

type loginModel struct {
	session *session.Manager

	username textinput.Model
	password textinput.Model
	focus    int

	submitting bool
	errText    string
	note       string
}

func newLoginModel(sess *session.Manager) loginModel {
	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 64
	user.Width = 30
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.EchoMode = textinput.EchoPassword
	pass.CharLimit = 64
	pass.Width = 30

	return loginModel{session: sess, username: user, password: pass}
}

func (m loginModel) reset() loginModel {
	fresh := newLoginModel(m.session)
	return fresh
}

func (m loginModel) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (m loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.focus = (m.focus + 1) % 2
			if m.focus == 0 {
				m.username.Focus()
				m.password.Blur()
			} else {
				m.username.Blur()
				m.password.Focus()
			}
			return m, textinput.Blink
		case "enter":
			if m.focus == 0 {
				m.focus = 1
				m.username.Blur()
				m.password.Focus()
				return m, textinput.Blink
			}
			m.submitting = true
			m.errText = ""
			m.note = ""
			username, password := m.username.Value(), m.password.Value()
			sess := m.session
			return m, func() tea.Msg {
				return loginResultMsg(sess.Login(background(), username, password))
			}
		case "ctrl+r":
			return m, func() tea.Msg { return openRegisterMsg{} }
		case "esc":
			return m, tea.Quit
		}

	case loginResultMsg:
		m.submitting = false
		if !msg.OK {
			m.errText = msg.Message
			m.password.SetValue("")
		}
		// Success navigation rides on the session event, not this message.
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m loginModel) view(width int) string {
	content := labelStyle.Render("Username") + "\n" + m.username.View() + "\n\n" +
		labelStyle.Render("Password") + "\n" + m.password.View() + "\n"

	if m.submitting {
		content += "\n" + subHeaderStyle.Render("Signing in...")
	}
	if m.errText != "" {
		content += "\n" + errorStyle.Render(m.errText)
	}
	if m.note != "" {
		content += "\n" + successStyle.Render(m.note)
	}

	box := baseStyle.Width(44).Render(lipgloss.JoinVertical(lipgloss.Left,
		subHeaderStyle.Render("Sign in to your panel"), "", content))

	footer := footerStyle.Render("enter: sign in • tab: switch field • ctrl+r: register • esc: quit")
	return centered(width, lipgloss.JoinVertical(lipgloss.Center, box, footer))
}
