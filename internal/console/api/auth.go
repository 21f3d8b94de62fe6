package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// AuthClient covers the authentication endpoints.
type AuthClient struct {
	client *Client
}

// Auth returns the authentication resource group.
func (c *Client) Auth() *AuthClient {
	return &AuthClient{client: c}
}

// Login exchanges credentials for a token. The response body is returned
// raw: the backend has shipped several shapes over time (bare string,
// {token}, {accessToken}, {data:{...}}) and the session layer owns the
// normalization.
func (a *AuthClient) Login(ctx context.Context, username, password string) (json.RawMessage, error) {
	return a.client.postJSON(ctx, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
}

// Logout asks the server to revoke the given token. The bearer is passed
// explicitly rather than read from the store: by the time this runs during
// logout, the store has already been cleared. Response bodies are ignored;
// only transport and status failures surface.
func (a *AuthClient) Logout(ctx context.Context, token string) error {
	resp, err := a.client.doRequest(ctx, http.MethodPost, "/auth/logout", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("logout rejected: status %d", resp.StatusCode)
	}
	return nil
}
