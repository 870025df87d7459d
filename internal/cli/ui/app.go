// Package ui is the interactive shell for the panel. Navigation between the
// login, register, dashboard, and create views is driven by the route guard:
// every session event re-evaluates Gate, so a teardown anywhere in the HTTP
// layer lands the user back on the login form no matter what they were doing.
package ui

import (
	"context"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"panelctl/internal/servers"
	"panelctl/internal/session"
)

type view int

const (
	viewWait view = iota
	viewLogin
	viewRegister
	viewDashboard
	viewCreate
)

// sessionEventMsg carries session change notifications into the program.
type sessionEventMsg session.Event

type App struct {
	session *session.Manager
	ctrl    *servers.Controller
	confirm *ArmedConfirmer

	view     view
	login    loginModel
	register registerModel
	dash     dashModel
	create   createModel
	spin     spinner.Model

	width  int
	height int

	// gen increments on every view switch; async results stamped with an
	// older gen belong to a view that is gone and are dropped.
	gen int
}

// Run starts the interactive shell and blocks until the user quits.
func Run(sess *session.Manager, ctrl *servers.Controller, confirm *ArmedConfirmer) error {
	app := newApp(sess, ctrl, confirm)

	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))

	unsubscribe := sess.Subscribe(func(ev session.Event) {
		program.Send(sessionEventMsg(ev))
	})
	defer unsubscribe()

	_, err := program.Run()
	return err
}

func newApp(sess *session.Manager, ctrl *servers.Controller, confirm *ArmedConfirmer) *App {
	a := &App{
		session:  sess,
		ctrl:     ctrl,
		confirm:  confirm,
		login:    newLoginModel(sess),
		register: newRegisterModel(sess),
		dash:     newDashModel(ctrl, sess, confirm),
		create:   newCreateModel(ctrl),
		spin:     spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	a.view = a.routeFor(sess.State())
	return a
}

func (a *App) routeFor(st session.State) view {
	switch Gate(st) {
	case DecisionWait:
		return viewWait
	case DecisionLogin:
		return viewLogin
	default:
		return viewDashboard
	}
}

func (a *App) switchTo(v view) tea.Cmd {
	if a.view == v {
		return nil
	}
	a.view = v
	a.gen++

	switch v {
	case viewLogin:
		a.login = a.login.reset()
		return a.login.focusCmd()
	case viewRegister:
		a.register = a.register.reset()
		return a.register.focusCmd()
	case viewDashboard:
		return a.dash.refreshCmd(a.gen)
	case viewCreate:
		a.create = a.create.reset()
		return a.create.focusCmd()
	}
	return nil
}

func (a *App) Init() tea.Cmd {
	switch a.view {
	case viewDashboard:
		return tea.Batch(a.dash.refreshCmd(a.gen), a.dash.tickCmd())
	case viewLogin:
		return a.login.focusCmd()
	}
	return a.spin.Tick
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.dash.setSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case spinner.TickMsg:
		if a.view != viewWait {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case sessionEventMsg:
		ev := session.Event(msg)
		switch Gate(ev.State) {
		case DecisionLogin:
			// Replaces whatever view was up; guarded views cannot be
			// navigated back into.
			if a.view == viewDashboard || a.view == viewCreate || a.view == viewWait {
				cmd := a.switchTo(viewLogin)
				if ev.Invalidated {
					a.login.note = "Session expired. Please log in again."
				}
				return a, cmd
			}
		case DecisionAllow:
			if a.view == viewLogin || a.view == viewWait {
				cmd := a.switchTo(viewDashboard)
				return a, tea.Batch(cmd, a.dash.tickCmd())
			}
		}
		return a, nil

	case registeredMsg:
		cmd := a.switchTo(viewLogin)
		a.login.note = "Account created! Please log in."
		return a, cmd

	case openRegisterMsg:
		return a, a.switchTo(viewRegister)

	case backToLoginMsg:
		return a, a.switchTo(viewLogin)

	case openCreateMsg:
		return a, a.switchTo(viewCreate)

	case createDoneMsg, createCancelMsg:
		return a, a.switchTo(viewDashboard)
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.update(msg)
	case viewRegister:
		a.register, cmd = a.register.update(msg)
	case viewDashboard:
		a.dash, cmd = a.dash.update(msg, a.gen)
	case viewCreate:
		a.create, cmd = a.create.update(msg)
	}
	return a, cmd
}

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	var body string
	switch a.view {
	case viewWait:
		body = a.spin.View() + subHeaderStyle.Render(" Restoring session...")
	case viewLogin:
		body = a.login.view(a.width)
	case viewRegister:
		body = a.register.view(a.width)
	case viewDashboard:
		body = a.dash.view(a.width, a.height)
	case viewCreate:
		body = a.create.view(a.width)
	}

	title := headerStyle.Render("PANELCTL")
	return lipgloss.JoinVertical(lipgloss.Center, title, body)
}

// armedConfirmer satisfies servers.Confirmer for the shell. The dashboard's
// modal arms it after the user presses y; an unarmed pass through the
// controller still refuses the delete.
type ArmedConfirmer struct {
	mu    sync.Mutex
	armed bool
}

func NewArmedConfirmer() *ArmedConfirmer { return &ArmedConfirmer{} }

func (c *ArmedConfirmer) Arm() {
	c.mu.Lock()
	c.armed = true
	c.mu.Unlock()
}

func (c *ArmedConfirmer) Confirm(string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok := c.armed
	c.armed = false
	return ok
}

func centered(width int, content string) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(content)
}

// background returns a context for commands outlasting a single Update call.
func background() context.Context {
	return context.Background()
}
