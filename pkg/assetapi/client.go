// Package assetapi exposes typed operations on the asset resource.
package assetapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"asset-tracker/pkg/models"
)

const resource = "assets"

// Transport is the subset of the HTTP client the resource API needs.
// *httpclient.Client satisfies it.
type Transport interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Client performs asset operations. Every returned error is an *APIError.
type Client struct {
	t Transport
}

// New returns a Client that sends requests through t.
func New(t Transport) *Client {
	return &Client{t: t}
}

// List fetches one page of assets. Only non-empty filter fields are sent.
func (c *Client) List(ctx context.Context, f models.AssetFilters) (*models.AssetList, error) {
	var out models.AssetList
	if err := c.t.Get(ctx, resource, filterQuery(f), &out); err != nil {
		return nil, toAPIError(err)
	}
	if out.Assets == nil {
		out.Assets = []models.Asset{}
	}
	if out.PageSize == 0 {
		out.PageSize = f.PageSize
	}
	if out.TotalPages == 0 {
		out.TotalPages = models.TotalPages(out.Total, out.PageSize)
	}
	return &out, nil
}

func filterQuery(f models.AssetFilters) url.Values {
	q := url.Values{}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(f.PageSize))
	}
	return q
}

// Get fetches one asset by id.
func (c *Client) Get(ctx context.Context, id int64) (*models.Asset, error) {
	var out models.Asset
	if err := c.t.Get(ctx, assetPath(id), nil, &out); err != nil {
		return nil, toAPIError(err)
	}
	return &out, nil
}

// Create creates an asset and returns it with its server-assigned fields.
func (c *Client) Create(ctx context.Context, in models.AssetInput) (*models.Asset, error) {
	var out models.Asset
	if err := c.t.Post(ctx, resource, in, &out); err != nil {
		return nil, toAPIError(err)
	}
	return &out, nil
}

// Update replaces every editable field of the asset with in.
func (c *Client) Update(ctx context.Context, id int64, in models.AssetInput) (*models.Asset, error) {
	var out models.Asset
	if err := c.t.Put(ctx, assetPath(id), in, &out); err != nil {
		return nil, toAPIError(err)
	}
	return &out, nil
}

// Delete removes the asset permanently.
func (c *Client) Delete(ctx context.Context, id int64) error {
	if err := c.t.Delete(ctx, assetPath(id), nil); err != nil {
		return toAPIError(err)
	}
	return nil
}

// ListCategories returns the distinct categories in use.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	out := []string{}
	if err := c.t.Get(ctx, resource+"/categories", nil, &out); err != nil {
		return nil, toAPIError(err)
	}
	return out, nil
}

// ListStatuses returns the statuses the server accepts.
func (c *Client) ListStatuses(ctx context.Context) ([]string, error) {
	out := []string{}
	if err := c.t.Get(ctx, resource+"/statuses", nil, &out); err != nil {
		return nil, toAPIError(err)
	}
	return out, nil
}

// Exists reports whether an asset with id exists. A 404 yields false; any
// other failure is returned.
func (c *Client) Exists(ctx context.Context, id int64) (bool, error) {
	if _, err := c.Get(ctx, id); err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func assetPath(id int64) string {
	return fmt.Sprintf("%s/%d", resource, id)
}
