// Package api provides collection endpoint methods
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListAll retrieves the full unpaged list of a collection
func ListAll[T any](ctx context.Context, c *Client, collection string) ([]T, error) {
	var items []T
	if err := c.call(ctx, http.MethodGet, collectionPath(collection), nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// ListPage retrieves one page of a collection. page is 0-indexed.
func ListPage[T any](ctx context.Context, c *Client, collection string, page, size int) (*PagedResponse[T], error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))
	path := collectionPath(collection, "pages") + "?" + query.Encode()

	var paged PagedResponse[T]
	if err := c.call(ctx, http.MethodGet, path, nil, &paged); err != nil {
		return nil, err
	}
	return &paged, nil
}

// Get retrieves a single item by ID
func Get[T any](ctx context.Context, c *Client, collection, id string) (*T, error) {
	var item T
	if err := c.call(ctx, http.MethodGet, collectionPath(collection, id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListMetadataKeys retrieves every metadata key known for a collection
func (c *Client) ListMetadataKeys(ctx context.Context, collection string) ([]string, error) {
	var keys []string
	if err := c.call(ctx, http.MethodGet, collectionPath(collection, "metadata-keys"), nil, &keys); err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// Create posts a new item to a collection. The response body is not used.
func (c *Client) Create(ctx context.Context, collection string, body interface{}) error {
	return c.call(ctx, http.MethodPost, collectionPath(collection), body, nil)
}

// Update replaces an item
func (c *Client) Update(ctx context.Context, collection, id string, body interface{}) error {
	if id == "" {
		return fmt.Errorf("cannot update %s item without an id", collection)
	}
	return c.call(ctx, http.MethodPut, collectionPath(collection, id), body, nil)
}

// Delete removes an item
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	if id == "" {
		return fmt.Errorf("cannot delete %s item without an id", collection)
	}
	return c.call(ctx, http.MethodDelete, collectionPath(collection, id), nil, nil)
}

// Health checks that the collection endpoint answers
func (c *Client) Health(ctx context.Context, collection string) error {
	_, err := ListPage[map[string]interface{}](ctx, c, collection, 0, 1)
	if err != nil {
		return fmt.Errorf("backend at %s is not reachable: %w", c.baseURL, err)
	}
	return nil
}
