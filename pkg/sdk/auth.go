package sdk

import (
	"context"
	"net/url"
)

// Login exchanges credentials for a bearer token. The panel's login endpoint
// takes a form body rather than JSON.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var tok Token
	if err := c.postForm(ctx, "/api/auth/login", form, &tok); err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Register creates a new account. It does not authenticate the caller.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var user User
	if err := c.postJSON(ctx, "/api/auth/register", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me fetches the profile of the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/api/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout tells the panel the session is over. Local teardown does not depend
// on this call succeeding.
func (c *Client) Logout(ctx context.Context) error {
	return c.postJSON(ctx, "/api/auth/logout", nil, nil)
}

// UpdateProfile replaces the user record server-side and returns the new one.
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*User, error) {
	var user User
	if err := c.putJSON(ctx, "/api/users/profile", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
