package client

import (
	"context"
	"fmt"
	"net/http"
)

// AdminLogin asks the gateway to elevate the current session. A false result
// with a nil error means the credentials were accepted but elevation was not
// granted, which callers should treat as a credential failure.
func (c *Client) AdminLogin(ctx context.Context, name, password string) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("name cannot be empty")
	}
	payload := map[string]string{"name": name, "password": password}
	var resp struct {
		Data bool `json:"data"`
	}
	if err := c.call(ctx, http.MethodPost, "api/v1/admin/login", nil, payload, &resp); err != nil {
		return false, err
	}
	return resp.Data, nil
}

// AdminLogout drops the session's elevation. The session itself stays valid.
func (c *Client) AdminLogout(ctx context.Context) (bool, error) {
	var resp struct {
		Data bool `json:"data"`
	}
	if err := c.call(ctx, http.MethodPost, "api/v1/admin/logout", nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.Data, nil
}
