package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"panelctl/internal/servers"
	"panelctl/internal/session"
	"panelctl/pkg/sdk"
)

type serversMsg struct {
	gen     int
	servers []sdk.Server
}

type dashErrMsg struct {
	gen int
	err error
}

type actionMsg struct {
	gen  int
	text string
	// servers carries the post-action collection when the action reconciled it.
	servers []sdk.Server
	refresh bool
}

type tickMsg time.Time
type clearStatusMsg struct{}
type openCreateMsg struct{}

type dashKeyMap struct {
	start   key.Binding
	stop    key.Binding
	restart key.Binding
	del     key.Binding
	create  key.Binding
	refresh key.Binding
	logout  key.Binding
	quit    key.Binding
}

func newDashKeyMap() dashKeyMap {
	return dashKeyMap{
		start:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		stop:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		del:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		create:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "create")),
		refresh: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),
		logout:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
		quit:    key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
	}
}

type dashModel struct {
	ctrl    *servers.Controller
	session *session.Manager
	confirm *ArmedConfirmer

	table   table.Model
	keys    dashKeyMap
	servers []sdk.Server

	loading bool
	status  string
	errText string

	// confirmTarget is non-nil while the delete modal is up.
	confirmTarget *sdk.Server

	width  int
	height int
}

func newDashModel(ctrl *servers.Controller, sess *session.Manager, confirm *ArmedConfirmer) dashModel {
	columns := []table.Column{
		{Title: "Sts", Width: 3},
		{Title: "ID", Width: 6},
		{Title: "Name", Width: 24},
		{Title: "Status", Width: 12},
		{Title: "Description", Width: 32},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return dashModel{
		ctrl:    ctrl,
		session: sess,
		confirm: confirm,
		table:   t,
		keys:    newDashKeyMap(),
		loading: true,
	}
}

func (m *dashModel) setSize(width, height int) {
	m.width = width
	m.height = height
	if width > 12 {
		m.table.SetWidth(width - 10)
	}
	if height > 14 {
		m.table.SetHeight(height - 14)
	}
}

func (m dashModel) refreshCmd(gen int) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		fetched, err := ctrl.Refresh(background())
		if err != nil {
			return dashErrMsg{gen: gen, err: err}
		}
		return serversMsg{gen: gen, servers: fetched}
	}
}

func (m dashModel) tickCmd() tea.Cmd {
	return tea.Tick(10*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m dashModel) selected() (sdk.Server, bool) {
	row := m.table.SelectedRow()
	if len(row) < 2 {
		return sdk.Server{}, false
	}
	for _, s := range m.servers {
		if fmt.Sprintf("%d", s.ID) == row[1] {
			return s, true
		}
	}
	return sdk.Server{}, false
}

func (m dashModel) powerCmd(gen int, id int64, action servers.Action) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		if err := ctrl.Command(background(), id, action); err != nil {
			return actionMsg{gen: gen, text: err.Error()}
		}
		return actionMsg{gen: gen, text: fmt.Sprintf("%s command sent", action), refresh: true}
	}
}

func (m dashModel) deleteCmd(gen int, id int64) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		if err := ctrl.Command(background(), id, servers.ActionDelete); err != nil {
			return actionMsg{gen: gen, text: err.Error()}
		}
		return actionMsg{gen: gen, text: "server deleted", servers: ctrl.Servers()}
	}
}

func (m dashModel) update(msg tea.Msg, gen int) (dashModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirmTarget != nil {
			switch msg.String() {
			case "y", "Y":
				target := *m.confirmTarget
				m.confirmTarget = nil
				m.status = fmt.Sprintf("Deleting %s...", target.Name)
				m.confirm.Arm()
				return m, m.deleteCmd(gen, target.ID)
			case "n", "N", "esc":
				m.confirmTarget = nil
				return m, nil
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.start):
			if s, ok := m.selected(); ok {
				m.status = fmt.Sprintf("Starting %s...", s.Name)
				return m, m.powerCmd(gen, s.ID, servers.ActionStart)
			}
		case key.Matches(msg, m.keys.stop):
			if s, ok := m.selected(); ok {
				m.status = fmt.Sprintf("Stopping %s...", s.Name)
				return m, m.powerCmd(gen, s.ID, servers.ActionStop)
			}
		case key.Matches(msg, m.keys.restart):
			if s, ok := m.selected(); ok {
				m.status = fmt.Sprintf("Restarting %s...", s.Name)
				return m, m.powerCmd(gen, s.ID, servers.ActionRestart)
			}
		case key.Matches(msg, m.keys.del):
			if s, ok := m.selected(); ok {
				target := s
				m.confirmTarget = &target
			}
		case key.Matches(msg, m.keys.create):
			return m, func() tea.Msg { return openCreateMsg{} }
		case key.Matches(msg, m.keys.refresh):
			m.loading = true
			return m, m.refreshCmd(gen)
		case key.Matches(msg, m.keys.logout):
			sess := m.session
			return m, func() tea.Msg {
				sess.Logout(background())
				return nil
			}
		}

	case serversMsg:
		if msg.gen != gen {
			return m, nil
		}
		m.loading = false
		m.errText = ""
		m.servers = msg.servers
		m.updateTable()
		return m, nil

	case dashErrMsg:
		if msg.gen != gen {
			return m, nil
		}
		m.loading = false
		m.errText = msg.err.Error()
		return m, nil

	case actionMsg:
		if msg.gen != gen {
			return m, nil
		}
		m.status = msg.text
		cmds := []tea.Cmd{tea.Tick(3*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{} })}
		if msg.servers != nil {
			m.servers = msg.servers
			m.updateTable()
		}
		if msg.refresh {
			cmds = append(cmds, m.refreshCmd(gen))
		}
		return m, tea.Batch(cmds...)

	case clearStatusMsg:
		m.status = ""
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refreshCmd(gen), m.tickCmd())
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *dashModel) updateTable() {
	rows := []table.Row{}
	for _, s := range m.servers {
		icon := "🔴"
		switch s.Status {
		case sdk.StatusRunning:
			icon = "🟢"
		case sdk.StatusInstalling:
			icon = "🟡"
		case sdk.StatusUnknown:
			icon = "⚪"
		}

		rows = append(rows, table.Row{
			icon,
			fmt.Sprintf("%d", s.ID),
			s.Name,
			string(s.Status),
			s.Description,
		})
	}
	m.table.SetRows(rows)
}

func (m dashModel) view(width, height int) string {
	username := ""
	if st := m.session.State(); st.User != nil {
		username = st.User.Username
	}

	total, running, stopped := m.ctrl.Counts()
	statsLine := fmt.Sprintf("User: %s  |  Servers: %d  |  Running: %d  |  Stopped: %d",
		username, total, running, stopped)

	headerBox := baseStyle.
		Width(width-4).
		Align(lipgloss.Center).
		Render(lipgloss.JoinVertical(lipgloss.Center,
			subHeaderStyle.Render("Server Dashboard"), statsLine))

	var body string
	switch {
	case m.loading && len(m.servers) == 0:
		body = subHeaderStyle.Render("Loading your servers...")
	case len(m.servers) == 0:
		body = subHeaderStyle.Render("No servers yet. Press c to create your first server.")
	default:
		body = m.table.View()
	}

	tableBox := baseStyle.
		Width(width - 4).
		Render(body)

	footer := footerStyle.Render("↑/↓: navigate • s: start • x: stop • r: restart • d: delete • c: create • R: refresh • L: logout • q: quit")

	lines := []string{headerBox, tableBox}
	if m.errText != "" {
		lines = append(lines, errorStyle.Render(m.errText))
	}
	if m.status != "" {
		lines = append(lines, statusStyle.Render(m.status))
	}
	lines = append(lines, footer)

	out := lipgloss.JoinVertical(lipgloss.Center, lines...)

	if m.confirmTarget != nil {
		modal := modalStyle.Render(fmt.Sprintf(
			"Delete server %q?\nThis cannot be undone.\n\n(y/n)", m.confirmTarget.Name))
		out = lipgloss.JoinVertical(lipgloss.Center, out, modal)
	}
	return out
}
