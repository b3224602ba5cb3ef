package collection

import (
	"context"

	"github.com/lanz/mediatracker-cli/internal/api"
)

// Transport is the set of REST calls a Store needs. W is the wire item shape
// the backend returns and R the request body it accepts.
type Transport[W any, R any] interface {
	ListAll(ctx context.Context, collection string) ([]W, error)
	ListPage(ctx context.Context, collection string, page, size int) (*api.PagedResponse[W], error)
	Get(ctx context.Context, collection, id string) (*W, error)
	ListMetadataKeys(ctx context.Context, collection string) ([]string, error)
	Create(ctx context.Context, collection string, body R) error
	Update(ctx context.Context, collection, id string, body R) error
	Delete(ctx context.Context, collection, id string) error
}

// httpTransport implements Transport over the REST client
type httpTransport[W any, R any] struct {
	client *api.Client
}

// NewHTTPTransport adapts an api.Client to Transport
func NewHTTPTransport[W any, R any](client *api.Client) Transport[W, R] {
	return &httpTransport[W, R]{client: client}
}

func (t *httpTransport[W, R]) ListAll(ctx context.Context, collection string) ([]W, error) {
	return api.ListAll[W](ctx, t.client, collection)
}

func (t *httpTransport[W, R]) ListPage(ctx context.Context, collection string, page, size int) (*api.PagedResponse[W], error) {
	return api.ListPage[W](ctx, t.client, collection, page, size)
}

func (t *httpTransport[W, R]) Get(ctx context.Context, collection, id string) (*W, error) {
	return api.Get[W](ctx, t.client, collection, id)
}

func (t *httpTransport[W, R]) ListMetadataKeys(ctx context.Context, collection string) ([]string, error) {
	return t.client.ListMetadataKeys(ctx, collection)
}

func (t *httpTransport[W, R]) Create(ctx context.Context, collection string, body R) error {
	return t.client.Create(ctx, collection, body)
}

func (t *httpTransport[W, R]) Update(ctx context.Context, collection, id string, body R) error {
	return t.client.Update(ctx, collection, id, body)
}

func (t *httpTransport[W, R]) Delete(ctx context.Context, collection, id string) error {
	return t.client.Delete(ctx, collection, id)
}
