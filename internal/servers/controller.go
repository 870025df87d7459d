// Package servers holds the client-side view of the user's server collection
// and issues lifecycle commands against the panel. The panel owns every
// status transition: a command result only means "accepted", and the local
// collection is reconciled by wholesale refreshes, never by guessing.
package servers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"panelctl/pkg/sdk"
)

type Action string

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
	ActionDelete  Action = "delete"
)

var (
	// ErrNameRequired is returned by Create before any network call.
	ErrNameRequired = errors.New("server name is required")

	// ErrConfirmationDeclined means the destructive-action guard stopped a
	// delete; no request was issued.
	ErrConfirmationDeclined = errors.New("deletion not confirmed")

	ErrUnknownAction = errors.New("unknown action")
)

// Confirmer is the destructive-action guard consulted before a delete goes
// out. The CLI wires a terminal prompt, the TUI a modal; tests a stub.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a plain func to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

type Controller struct {
	api     *sdk.Client
	confirm Confirmer
	log     *log.Logger

	mu      sync.RWMutex
	servers []sdk.Server
}

func NewController(api *sdk.Client, confirm Confirmer, logger *log.Logger) *Controller {
	return &Controller{api: api, confirm: confirm, log: logger}
}

// Refresh fetches the collection and replaces the local copy wholesale.
// When refreshes overlap, whichever response resolves last is the one kept.
func (c *Controller) Refresh(ctx context.Context) ([]sdk.Server, error) {
	fetched, err := c.api.ListServers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load servers: %w", err)
	}

	for i := range fetched {
		fetched[i].Status = sdk.ParseStatus(string(fetched[i].Status))
	}

	c.mu.Lock()
	c.servers = fetched
	c.mu.Unlock()

	return c.Servers(), nil
}

// Servers returns a copy of the collection in the panel's listing order.
func (c *Controller) Servers() []sdk.Server {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]sdk.Server, len(c.servers))
	copy(out, c.servers)
	return out
}

func (c *Controller) Get(id int64) (sdk.Server, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.servers {
		if s.ID == id {
			return s, true
		}
	}
	return sdk.Server{}, false
}

// Counts reports total/running/stopped for the dashboard header.
func (c *Controller) Counts() (total, running, stopped int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.servers {
		switch s.Status {
		case sdk.StatusRunning:
			running++
		case sdk.StatusStopped:
			stopped++
		}
	}
	return len(c.servers), running, stopped
}

// Create provisions a new server and refreshes the collection on success.
func (c *Controller) Create(ctx context.Context, name, description string) error {
	if name == "" {
		return ErrNameRequired
	}

	_, err := c.api.CreateServer(ctx, sdk.CreateServerRequest{Name: name, Description: description})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	c.log.Info("server creation requested", "name", name)

	if _, err := c.Refresh(ctx); err != nil {
		c.log.Warn("created but could not refresh listing", "err", err)
	}
	return nil
}

// Command issues a lifecycle action. Power actions report acceptance only;
// the caller refreshes later to observe the eventual status. Delete passes
// the confirmation guard, then removes the entry locally and reconciles with
// one refresh.
func (c *Controller) Command(ctx context.Context, id int64, action Action) error {
	switch action {
	case ActionStart, ActionStop, ActionRestart:
		return c.power(ctx, id, action)
	case ActionDelete:
		return c.deleteServer(ctx, id)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

func (c *Controller) power(ctx context.Context, id int64, action Action) error {
	var err error
	switch action {
	case ActionStart:
		err = c.api.StartServer(ctx, id)
	case ActionStop:
		err = c.api.StopServer(ctx, id)
	case ActionRestart:
		err = c.api.RestartServer(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("failed to %s server: %w", action, err)
	}
	c.log.Info("command accepted", "action", action, "server", id)
	return nil
}

func (c *Controller) deleteServer(ctx context.Context, id int64) error {
	name := fmt.Sprintf("server %d", id)
	if s, ok := c.Get(id); ok {
		name = fmt.Sprintf("server %q", s.Name)
	}

	if !c.confirm.Confirm(fmt.Sprintf("Delete %s? This cannot be undone.", name)) {
		return ErrConfirmationDeclined
	}

	if err := c.api.DeleteServer(ctx, id); err != nil {
		return fmt.Errorf("failed to delete server: %w", err)
	}

	c.mu.Lock()
	kept := c.servers[:0]
	for _, s := range c.servers {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	c.servers = kept
	c.mu.Unlock()

	c.log.Info("server deleted", "server", id)

	if _, err := c.Refresh(ctx); err != nil {
		c.log.Warn("deleted but could not refresh listing", "err", err)
	}
	return nil
}
