package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// ResourceClient is a thin, uniform client over one backend collection.
// The console's data views all follow the same list/detail pattern, so a
// shared shape keeps the groups from diverging. Responses stay raw JSON;
// the views own their own decoding.
type ResourceClient struct {
	client *Client
	base   string
}

// List fetches the whole collection.
func (r *ResourceClient) List(ctx context.Context) (json.RawMessage, error) {
	return r.client.getJSON(ctx, r.base)
}

// Get fetches a single record by id.
func (r *ResourceClient) Get(ctx context.Context, id string) (json.RawMessage, error) {
	return r.client.getJSON(ctx, fmt.Sprintf("%s/%s", r.base, id))
}

// Clients returns the customer collection.
func (c *Client) Clients() *ResourceClient {
	return &ResourceClient{client: c, base: "/clientes"}
}

// Equipment returns the equipment collection.
func (c *Client) Equipment() *ResourceClient {
	return &ResourceClient{client: c, base: "/equipos"}
}

// Loans returns the equipment-loan collection.
func (c *Client) Loans() *ResourceClient {
	return &ResourceClient{client: c, base: "/prestamos"}
}

// Evaluations returns the equipment-evaluation collection.
func (c *Client) Evaluations() *ResourceClient {
	return &ResourceClient{client: c, base: "/evaluaciones"}
}

// Users returns the user-administration collection.
func (c *Client) Users() *ResourceClient {
	return &ResourceClient{client: c, base: "/usuarios"}
}

// Reports returns the reporting collection.
func (c *Client) Reports() *ResourceClient {
	return &ResourceClient{client: c, base: "/reportes"}
}
