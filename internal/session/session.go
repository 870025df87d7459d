// Package session owns the client's belief about who is logged in. A single
// Manager is constructed at startup and handed to every consumer; state
// changes fan out through Subscribe so the shell can react to teardowns
// without the HTTP layer knowing anything about views.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"panelctl/internal/credstore"
	"panelctl/pkg/sdk"
)

// State is a snapshot of the session. Authenticated is true exactly when both
// a token and a user record are present.
type State struct {
	Token         string
	User          *sdk.User
	Authenticated bool
	Loading       bool
}

// Event is delivered to subscribers on every state change. Invalidated marks
// a teardown forced by the gateway's 401 hook, as opposed to an explicit
// logout; the shell translates it into navigation back to the login view.
type Event struct {
	State       State
	Invalidated bool
}

// Result is what the UI gets back from login/register/profile calls. These
// operations never fail with a Go error: every failure path produces a
// human-readable message and leaves the process running.
type Result struct {
	OK      bool
	Message string
}

type RegisterFields struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate applies the same checks the registration form runs before any
// network call is made.
func (f RegisterFields) Validate() string {
	if f.Password != f.ConfirmPassword {
		return "Passwords do not match"
	}
	if len(f.Password) < 6 {
		return "Password must be at least 6 characters long"
	}
	if len(f.Username) < 3 {
		return "Username must be at least 3 characters long"
	}
	if !strings.Contains(f.Email, "@") {
		return "A valid email address is required"
	}
	return ""
}

type Manager struct {
	api   *sdk.Client
	store *credstore.Store
	log   *log.Logger

	mu      sync.RWMutex
	state   State
	subs    map[int]func(Event)
	nextSub int

	// loggingOut suppresses the gateway's 401 hook while a voluntary logout
	// notifies the panel, so an already-expired token does not turn an
	// explicit logout into a forced teardown.
	loggingOut bool
}

func NewManager(api *sdk.Client, store *credstore.Store, logger *log.Logger) *Manager {
	m := &Manager{
		api:   api,
		store: store,
		log:   logger,
		state: State{Loading: true},
		subs:  make(map[int]func(Event)),
	}
	api.OnUnauthorized(m.invalidate)
	return m
}

// Subscribe registers fn for every subsequent state change and returns an
// unsubscribe func. Callbacks run on the goroutine that caused the change.
func (m *Manager) Subscribe(fn func(Event)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) setState(st State, invalidated bool) {
	m.mu.Lock()
	st.Authenticated = st.Token != "" && st.User != nil
	m.state = st
	subs := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	ev := Event{State: st, Invalidated: invalidated}
	for _, fn := range subs {
		fn(ev)
	}
}

// Restore rebuilds the session from the credential store. A cached pair is
// shown immediately (show-then-reconcile): the user record is refreshed in
// the background, and a stale token is discovered there through the usual
// 401 teardown rather than by blocking startup.
func (m *Manager) Restore(ctx context.Context) {
	token, user, ok := m.store.Load()
	if !ok {
		m.setState(State{}, false)
		return
	}

	m.api.SetToken(token)
	m.setState(State{Token: token, User: user}, false)

	go m.reconcile(ctx, token)
}

func (m *Manager) reconcile(ctx context.Context, token string) {
	user, err := m.api.Me(ctx)
	if err != nil {
		// A 401 has already torn the session down through the gateway hook.
		// Anything else keeps the cached record; the next action will retry.
		if !errors.Is(err, sdk.ErrUnauthorized) {
			m.log.Warn("could not confirm cached session", "err", err)
		}
		return
	}

	if err := m.store.Save(token, user); err != nil {
		m.log.Warn("could not refresh cached user", "err", err)
	}
	m.setState(State{Token: token, User: user}, false)
}

// Login authenticates against the panel. On success the credential store and
// in-memory state are updated together; on failure both stay logged out.
func (m *Manager) Login(ctx context.Context, username, password string) Result {
	if username == "" || password == "" {
		return Result{Message: "Username and password are required"}
	}

	m.setState(State{Loading: true}, false)

	token, err := m.api.Login(ctx, username, password)
	if err != nil {
		m.setState(State{}, false)
		return Result{Message: errorMessage(err, "Login failed. Please try again.")}
	}

	m.api.SetToken(token)
	user, err := m.api.Me(ctx)
	if err != nil {
		m.api.ClearToken()
		m.setState(State{}, false)
		return Result{Message: errorMessage(err, "Login failed. Please try again.")}
	}

	if err := m.store.Save(token, user); err != nil {
		m.log.Error("could not persist session", "err", err)
		m.api.ClearToken()
		m.setState(State{}, false)
		return Result{Message: "Could not save session"}
	}

	m.setState(State{Token: token, User: user}, false)
	return Result{OK: true}
}

// Register creates an account without logging it in. Local validation runs
// first; a validation failure never reaches the network and never touches
// session state. The state is Loading while the call is in flight.
func (m *Manager) Register(ctx context.Context, fields RegisterFields) Result {
	if msg := fields.Validate(); msg != "" {
		return Result{Message: msg}
	}

	m.setState(State{Loading: true}, false)

	_, err := m.api.Register(ctx, sdk.RegisterRequest{
		Username: fields.Username,
		Email:    fields.Email,
		Password: fields.Password,
	})
	m.setState(State{}, false)
	if err != nil {
		return Result{Message: errorMessage(err, "Registration failed. Please try again.")}
	}
	return Result{OK: true}
}

// Logout tears the session down locally and tells the panel best-effort. The
// notify call can itself come back 401 when the token already expired; that
// must not be reported as a forced invalidation.
func (m *Manager) Logout(ctx context.Context) {
	if m.State().Authenticated {
		m.mu.Lock()
		m.loggingOut = true
		m.mu.Unlock()

		if err := m.api.Logout(ctx); err != nil {
			m.log.Debug("server logout failed", "err", err)
		}

		m.mu.Lock()
		m.loggingOut = false
		m.mu.Unlock()
	}
	m.teardown(false)
}

// UpdateProfile replaces the whole user record on success, both in memory and
// in the credential store.
func (m *Manager) UpdateProfile(ctx context.Context, req sdk.UpdateProfileRequest) Result {
	st := m.State()
	if !st.Authenticated {
		return Result{Message: "Not logged in"}
	}

	user, err := m.api.UpdateProfile(ctx, req)
	if err != nil {
		return Result{Message: errorMessage(err, "Failed to update profile")}
	}

	if err := m.store.Save(st.Token, user); err != nil {
		m.log.Warn("could not persist updated profile", "err", err)
	}
	m.setState(State{Token: st.Token, User: user}, false)
	return Result{OK: true}
}

// invalidate is the gateway's 401 hook: the token is dead, so every copy of
// it goes away and subscribers are told the teardown was forced.
func (m *Manager) invalidate() {
	m.mu.RLock()
	voluntary := m.loggingOut
	m.mu.RUnlock()
	if voluntary {
		// Logout finishes the teardown itself, without the forced flag.
		return
	}

	m.log.Debug("session invalidated by the panel")
	m.teardown(true)
}

func (m *Manager) teardown(invalidated bool) {
	if err := m.store.Clear(); err != nil {
		m.log.Warn("could not clear credential store", "err", err)
	}
	m.api.ClearToken()
	m.setState(State{}, invalidated)
}

func errorMessage(err error, fallback string) string {
	var apiErr *sdk.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
