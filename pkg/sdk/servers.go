package sdk

import (
	"context"
	"fmt"
)

func (c *Client) ListServers(ctx context.Context) ([]Server, error) {
	var servers []Server
	err := c.get(ctx, "/api/servers/", &servers)
	return servers, err
}

func (c *Client) GetServer(ctx context.Context, id int64) (*Server, error) {
	var server Server
	err := c.get(ctx, fmt.Sprintf("/api/servers/%d", id), &server)
	if err != nil {
		return nil, err
	}
	return &server, nil
}

func (c *Client) CreateServer(ctx context.Context, req CreateServerRequest) (*Server, error) {
	var server Server
	if err := c.postJSON(ctx, "/api/servers/", req, &server); err != nil {
		return nil, err
	}
	return &server, nil
}

// StartServer asks the panel to boot the server. A nil error means the command
// was accepted, not that the server is running; poll ListServers for the
// eventual status.
func (c *Client) StartServer(ctx context.Context, id int64) error {
	return c.postJSON(ctx, fmt.Sprintf("/api/servers/%d/start", id), nil, nil)
}

func (c *Client) StopServer(ctx context.Context, id int64) error {
	return c.postJSON(ctx, fmt.Sprintf("/api/servers/%d/stop", id), nil, nil)
}

func (c *Client) RestartServer(ctx context.Context, id int64) error {
	return c.postJSON(ctx, fmt.Sprintf("/api/servers/%d/restart", id), nil, nil)
}

func (c *Client) DeleteServer(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/api/servers/%d", id))
}
