package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panelctl/internal/credstore"
	"panelctl/pkg/sdk"
)

type fakePanel struct {
	srv      *httptest.Server
	requests atomic.Int64

	loginDetail  string // non-empty means login fails with 401 + this detail
	meUser       *sdk.User
	meStatus     int
	logoutStatus int
}

func newFakePanel(t *testing.T) *fakePanel {
	t.Helper()
	p := &fakePanel{
		meUser:       &sdk.User{ID: 1, Username: "bob", Email: "bob@example.com", IsActive: true},
		meStatus:     http.StatusOK,
		logoutStatus: http.StatusOK,
	}
	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.requests.Add(1)
		switch r.URL.Path {
		case "/api/auth/login":
			if p.loginDetail != "" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"detail": p.loginDetail})
				return
			}
			json.NewEncoder(w).Encode(sdk.Token{AccessToken: "fresh-token", TokenType: "bearer"})
		case "/api/auth/me":
			if p.meStatus != http.StatusOK {
				w.WriteHeader(p.meStatus)
				json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
				return
			}
			json.NewEncoder(w).Encode(p.meUser)
		case "/api/auth/register":
			var req sdk.RegisterRequest
			json.NewDecoder(r.Body).Decode(&req)
			json.NewEncoder(w).Encode(sdk.User{ID: 2, Username: req.Username, Email: req.Email, IsActive: true})
		case "/api/auth/logout":
			if p.logoutStatus != http.StatusOK {
				w.WriteHeader(p.logoutStatus)
				json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
				return
			}
			w.Write([]byte(`{"message":"Successfully logged out"}`))
		case "/api/users/profile":
			var req sdk.UpdateProfileRequest
			json.NewDecoder(r.Body).Decode(&req)
			json.NewEncoder(w).Encode(sdk.User{ID: 1, Username: req.Username, Email: "bob@example.com", IsActive: true})
		case "/api/servers/":
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(p.srv.Close)
	return p
}

func newManager(t *testing.T, panel *fakePanel) (*Manager, *sdk.Client, *credstore.Store) {
	t.Helper()
	store, err := credstore.Open(filepath.Join(t.TempDir(), "creds.db"))
	require.NoError(t, err)
	api := sdk.NewClient(panel.srv.URL)
	m := NewManager(api, store, log.New(io.Discard))
	return m, api, store
}

func assertInvariant(t *testing.T, st State) {
	t.Helper()
	assert.Equal(t, st.Token != "" && st.User != nil, st.Authenticated,
		"authenticated flag out of sync with token/user presence")
}

func TestRestoreWithoutStoredSession(t *testing.T) {
	panel := newFakePanel(t)
	m, _, _ := newManager(t, panel)

	m.Restore(context.Background())

	st := m.State()
	assert.False(t, st.Loading)
	assert.False(t, st.Authenticated)
	assertInvariant(t, st)
	assert.Zero(t, panel.requests.Load(), "no stored token means no network traffic")
}

func TestRestoreShowsCachedUserThenReconciles(t *testing.T) {
	panel := newFakePanel(t)
	m, _, store := newManager(t, panel)

	cached := &sdk.User{ID: 1, Username: "bob-stale", Email: "bob@example.com"}
	require.NoError(t, store.Save("stored-token", cached))

	m.Restore(context.Background())

	// Cached identity is visible before the confirming fetch lands.
	st := m.State()
	assert.True(t, st.Authenticated)
	assert.Equal(t, "bob-stale", st.User.Username)
	assert.False(t, st.Loading)
	assertInvariant(t, st)

	require.Eventually(t, func() bool {
		return m.State().User.Username == "bob"
	}, 2*time.Second, 10*time.Millisecond, "background reconcile should refresh the record")

	_, user, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, "bob", user.Username)
}

func TestRestoreWithExpiredTokenTearsDown(t *testing.T) {
	panel := newFakePanel(t)
	panel.meStatus = http.StatusUnauthorized
	m, api, store := newManager(t, panel)

	require.NoError(t, store.Save("expired", &sdk.User{ID: 1, Username: "bob"}))

	var invalidated atomic.Bool
	m.Subscribe(func(ev Event) {
		if ev.Invalidated {
			invalidated.Store(true)
		}
	})

	m.Restore(context.Background())

	require.Eventually(t, func() bool {
		return !m.State().Authenticated && invalidated.Load()
	}, 2*time.Second, 10*time.Millisecond)

	_, _, ok := store.Load()
	assert.False(t, ok, "credential store must be cleared on teardown")
	assert.Empty(t, api.Token())
	assertInvariant(t, m.State())
}

func TestLoginSuccess(t *testing.T) {
	panel := newFakePanel(t)
	m, api, store := newManager(t, panel)

	res := m.Login(context.Background(), "bob", "hunter22")
	require.True(t, res.OK, res.Message)

	st := m.State()
	assert.True(t, st.Authenticated)
	assert.Equal(t, "fresh-token", st.Token)
	assert.Equal(t, "bob", st.User.Username)
	assertInvariant(t, st)

	assert.Equal(t, "fresh-token", api.Token())
	token, user, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, "bob", user.Username)
}

func TestLoginBadCredentials(t *testing.T) {
	panel := newFakePanel(t)
	panel.loginDetail = "Invalid credentials"
	m, _, store := newManager(t, panel)

	res := m.Login(context.Background(), "bob", "wrongpass")
	assert.False(t, res.OK)
	assert.Equal(t, "Invalid credentials", res.Message)

	st := m.State()
	assert.False(t, st.Authenticated)
	assert.False(t, st.Loading)
	assertInvariant(t, st)
	_, _, ok := store.Load()
	assert.False(t, ok)
}

func TestLoginEmptyFieldsIsLocal(t *testing.T) {
	panel := newFakePanel(t)
	m, _, _ := newManager(t, panel)

	res := m.Login(context.Background(), "", "pw")
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Message)
	assert.Zero(t, panel.requests.Load())
}

func TestRegisterLocalValidationShortCircuits(t *testing.T) {
	panel := newFakePanel(t)
	m, _, _ := newManager(t, panel)

	cases := []RegisterFields{
		{Username: "ab", Email: "a@b.dev", Password: "longenough", ConfirmPassword: "longenough"},
		{Username: "alice", Email: "a@b.dev", Password: "short", ConfirmPassword: "short"},
		{Username: "alice", Email: "a@b.dev", Password: "longenough", ConfirmPassword: "different"},
		{Username: "alice", Email: "nonsense", Password: "longenough", ConfirmPassword: "longenough"},
	}
	for _, fields := range cases {
		res := m.Register(context.Background(), fields)
		assert.False(t, res.OK)
		assert.NotEmpty(t, res.Message)
	}
	assert.Zero(t, panel.requests.Load(), "validation failures must not hit the network")
}

func TestRegisterSuccessDoesNotAuthenticate(t *testing.T) {
	panel := newFakePanel(t)
	m, _, _ := newManager(t, panel)

	res := m.Register(context.Background(), RegisterFields{
		Username: "alice", Email: "a@b.dev", Password: "longenough", ConfirmPassword: "longenough",
	})
	require.True(t, res.OK, res.Message)
	assert.False(t, m.State().Authenticated)
	assertInvariant(t, m.State())
}

func TestUnauthorizedOnAnyCallTearsDown(t *testing.T) {
	panel := newFakePanel(t)
	m, api, store := newManager(t, panel)

	res := m.Login(context.Background(), "bob", "hunter22")
	require.True(t, res.OK)

	var events []Event
	m.Subscribe(func(ev Event) { events = append(events, ev) })

	// The fake panel rejects the servers listing with a 401; the gateway hook
	// must reset everything even though the session layer never issued it.
	_, err := api.ListServers(context.Background())
	require.ErrorIs(t, err, sdk.ErrUnauthorized)

	st := m.State()
	assert.False(t, st.Authenticated)
	assertInvariant(t, st)
	assert.Empty(t, api.Token())
	_, _, ok := store.Load()
	assert.False(t, ok)

	require.NotEmpty(t, events)
	assert.True(t, events[len(events)-1].Invalidated)
}

func TestLogoutClearsEverything(t *testing.T) {
	panel := newFakePanel(t)
	m, api, store := newManager(t, panel)

	require.True(t, m.Login(context.Background(), "bob", "hunter22").OK)

	m.Logout(context.Background())

	st := m.State()
	assert.False(t, st.Authenticated)
	assertInvariant(t, st)
	assert.Empty(t, api.Token())
	_, _, ok := store.Load()
	assert.False(t, ok)
}

func TestLogoutWithExpiredTokenStaysVoluntary(t *testing.T) {
	panel := newFakePanel(t)
	m, api, store := newManager(t, panel)

	require.True(t, m.Login(context.Background(), "bob", "hunter22").OK)

	// The panel rejects the logout notify itself; the teardown must still
	// read as a user choice, not a forced invalidation.
	panel.logoutStatus = http.StatusUnauthorized

	var events []Event
	m.Subscribe(func(ev Event) { events = append(events, ev) })

	m.Logout(context.Background())

	st := m.State()
	assert.False(t, st.Authenticated)
	assertInvariant(t, st)
	assert.Empty(t, api.Token())
	_, _, ok := store.Load()
	assert.False(t, ok)

	require.NotEmpty(t, events)
	for _, ev := range events {
		assert.False(t, ev.Invalidated, "voluntary logout must not look like an expired session")
	}
}

func TestRegisterIsLoadingWhileInFlight(t *testing.T) {
	panel := newFakePanel(t)
	m, _, _ := newManager(t, panel)

	var sawLoading bool
	m.Subscribe(func(ev Event) {
		if ev.State.Loading {
			sawLoading = true
		}
	})

	res := m.Register(context.Background(), RegisterFields{
		Username: "alice", Email: "a@b.dev", Password: "longenough", ConfirmPassword: "longenough",
	})
	require.True(t, res.OK, res.Message)

	assert.True(t, sawLoading, "state must report loading during the register call")
	assert.False(t, m.State().Loading)
}

func TestUpdateProfileReplacesRecord(t *testing.T) {
	panel := newFakePanel(t)
	m, _, store := newManager(t, panel)

	require.True(t, m.Login(context.Background(), "bob", "hunter22").OK)

	res := m.UpdateProfile(context.Background(), sdk.UpdateProfileRequest{Username: "bobby"})
	require.True(t, res.OK, res.Message)

	assert.Equal(t, "bobby", m.State().User.Username)
	_, user, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, "bobby", user.Username)
}

func TestUpdateProfileRequiresLogin(t *testing.T) {
	panel := newFakePanel(t)
	m, _, _ := newManager(t, panel)
	m.Restore(context.Background())

	res := m.UpdateProfile(context.Background(), sdk.UpdateProfileRequest{Username: "x"})
	assert.False(t, res.OK)
	assert.Zero(t, panel.requests.Load())
}

func TestInvariantOverRandomishSequence(t *testing.T) {
	panel := newFakePanel(t)
	m, api, _ := newManager(t, panel)

	ctx := context.Background()
	steps := []func(){
		func() { m.Login(ctx, "bob", "hunter22") },
		func() { m.Logout(ctx) },
		func() { m.Login(ctx, "bob", "hunter22") },
		func() { api.ListServers(ctx) }, // forced 401 teardown
		func() { m.Logout(ctx) },
		func() { m.Login(ctx, "", "") },
		func() { m.Login(ctx, "bob", "hunter22") },
	}
	for i, step := range steps {
		step()
		st := m.State()
		assert.Equal(t, st.Token != "" && st.User != nil, st.Authenticated, "step %d", i)
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	panel := newFakePanel(t)
	m, _, _ := newManager(t, panel)

	var calls int
	unsub := m.Subscribe(func(Event) { calls++ })

	m.Login(context.Background(), "bob", "hunter22")
	require.Greater(t, calls, 0)

	before := calls
	unsub()
	m.Logout(context.Background())
	assert.Equal(t, before, calls)
}
