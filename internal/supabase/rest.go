package supabase

import (
	"context"
	"net/http"
	"net/url"
)

// Select reads rows from a PostgREST table. query carries filters in
// PostgREST syntax, e.g. id=eq.<uuid>.
func (c *Client) Select(ctx context.Context, table string, query url.Values, out any) error {
	return c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/" + table,
		query:  query,
		bearer: c.apiKey(),
	}, out)
}

// RPC invokes a Postgres function exposed by PostgREST with named parameters.
func (c *Client) RPC(ctx context.Context, fn string, params any, out any) error {
	if params == nil {
		params = map[string]any{}
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/rest/v1/rpc/" + fn,
		bearer: c.apiKey(),
		body:   params,
	}, out)
}
