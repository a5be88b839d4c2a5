package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/iliyamo/portal-compras-gateway/internal/listquery"
)

// Resource is the CRUD surface of one API resource, e.g. "suppliers".
// Payloads are passed through untouched.
type Resource struct {
	c    *Client
	name string
}

func (c *Client) Resource(name string) Resource { return Resource{c: c, name: name} }

func (r Resource) Name() string { return r.name }

func (r Resource) itemPath(id string) string { return "/" + r.name + "/" + url.PathEscape(id) }

func (r Resource) Get(ctx context.Context, token, id string) (json.RawMessage, error) {
	var out json.RawMessage
	err := r.c.Do(ctx, http.MethodGet, r.itemPath(id), token, nil, nil, &out)
	return out, err
}

// List fetches one page.  The query string carries currentPage one-based.
func (r Resource) List(ctx context.Context, token string, q listquery.Query) (listquery.Page[json.RawMessage], error) {
	var page listquery.Page[json.RawMessage]
	err := r.c.Do(ctx, http.MethodGet, "/"+r.name, token, q.Values(), nil, &page)
	if page.Data == nil {
		page.Data = []json.RawMessage{}
	}
	return page, err
}

func (r Resource) Create(ctx context.Context, token string, body any) (json.RawMessage, error) {
	var out json.RawMessage
	err := r.c.Do(ctx, http.MethodPost, "/"+r.name+"/", token, nil, body, &out)
	return out, err
}

func (r Resource) Update(ctx context.Context, token, id string, body any) (json.RawMessage, error) {
	var out json.RawMessage
	err := r.c.Do(ctx, http.MethodPut, r.itemPath(id), token, nil, body, &out)
	return out, err
}

func (r Resource) Delete(ctx context.Context, token, id string) error {
	return r.c.Do(ctx, http.MethodDelete, r.itemPath(id), token, nil, nil, nil)
}
