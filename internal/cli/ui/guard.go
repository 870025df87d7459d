package ui

import "panelctl/internal/session"

// Decision is what the route guard says about rendering a protected view.
type Decision int

const (
	// DecisionWait renders a neutral waiting state. No redirect happens
	// while session restoration is still in flight, so the user never sees
	// a flash of the login view before their cached session resolves.
	DecisionWait Decision = iota

	// DecisionLogin redirects to the login view, replacing the current one;
	// there is no back-navigation into guarded content.
	DecisionLogin

	// DecisionAllow renders the guarded content.
	DecisionAllow
)

// Gate is the route guard: a pure function of current session state.
func Gate(st session.State) Decision {
	if st.Loading {
		return DecisionWait
	}
	if !st.Authenticated {
		return DecisionLogin
	}
	return DecisionAllow
}
