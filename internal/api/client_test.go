package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanz/mediatracker-cli/internal/api"
	"github.com/lanz/mediatracker-cli/internal/testsupport"
)

func newClient(t *testing.T) (*api.Client, *testsupport.Backend) {
	t.Helper()

	backend := testsupport.NewBackend("books")
	t.Cleanup(backend.Close)

	client, err := api.NewClient(backend.URL() + "/")
	require.NoError(t, err)
	return client, backend
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "trailing slash", raw: "http://localhost:8080/api/", want: "http://localhost:8080/api"},
		{name: "spaces", raw: "  https://tracker.example.com  ", want: "https://tracker.example.com"},
		{name: "empty", raw: "", wantErr: true},
		{name: "no scheme", raw: "localhost:8080", wantErr: true},
		{name: "ftp", raw: "ftp://example.com", wantErr: true},
		{name: "no host", raw: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := api.NormalizeBaseURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListPageAndAll(t *testing.T) {
	client, backend := newClient(t)
	ctx := context.Background()
	backend.SeedN(5)

	page, err := api.ListPage[api.BookResponse](ctx, client, "books", 1, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Book 003", page.Items[0].Title)
	assert.Equal(t, api.PageInfo{Size: 2, TotalElements: 5, TotalPages: 3, Number: 1}, page.Page)

	requests := backend.Requests()
	assert.Equal(t, "/api/books/pages?page=1&size=2", requests[len(requests)-1].Path)

	all, err := api.ListAll[api.BookResponse](ctx, client, "books")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestListPageWithOtherEmbeddedKey(t *testing.T) {
	client, backend := newClient(t)
	backend.EmbeddedKey = "mediaResponseList"
	backend.SeedN(1)

	page, err := api.ListPage[api.BookResponse](context.Background(), client, "books", 0, 20)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestEmptyPage(t *testing.T) {
	client, _ := newClient(t)

	page, err := api.ListPage[api.BookResponse](context.Background(), client, "books", 0, 20)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Page.TotalPages)
}

func TestCreateGetUpdateDelete(t *testing.T) {
	client, backend := newClient(t)
	ctx := context.Background()

	req := api.BookRequest{Title: "Dune", Metadata: api.Metadata{}.SetString("Status", "Now Reading")}
	require.NoError(t, client.Create(ctx, "books", req))

	stored := backend.Books()
	require.Len(t, stored, 1)
	id := stored[0].ID

	got, err := api.Get[api.BookResponse](ctx, client, "books", id)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, []string{"Status"}, got.Metadata.Keys())

	req.Title = "Dune Messiah"
	require.NoError(t, client.Update(ctx, "books", id, req))
	assert.Equal(t, "Dune Messiah", backend.Books()[0].Title)

	keys, err := client.ListMetadataKeys(ctx, "books")
	require.NoError(t, err)
	assert.Equal(t, []string{"Status"}, keys)

	require.NoError(t, client.Delete(ctx, "books", id))
	assert.Empty(t, backend.Books())
}

func TestUpdateAndDeleteNeedID(t *testing.T) {
	client, backend := newClient(t)
	ctx := context.Background()

	assert.Error(t, client.Update(ctx, "books", "", api.BookRequest{}))
	assert.Error(t, client.Delete(ctx, "books", ""))
	assert.Empty(t, backend.Requests())
}

func TestStatusErrorUsesBody(t *testing.T) {
	client, backend := newClient(t)
	backend.FailNext(http.MethodGet, "/api/books/pages", http.StatusServiceUnavailable, "  maintenance window \n")

	_, err := api.ListPage[api.BookResponse](context.Background(), client, "books", 0, 20)
	require.Error(t, err)

	var statusErr *api.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "maintenance window", err.Error())
}

func TestStatusErrorWithEmptyBody(t *testing.T) {
	client, backend := newClient(t)
	backend.FailNext(http.MethodPost, "/api/books", http.StatusInternalServerError, "")

	err := client.Create(context.Background(), "books", api.BookRequest{Title: "Dune"})
	require.Error(t, err)
	assert.Equal(t, "HTTP error! status: 500", err.Error())
}

func TestStatusErrorUsesBackendMessage(t *testing.T) {
	client, _ := newClient(t)

	_, err := api.Get[api.BookResponse](context.Background(), client, "books", "missing")
	require.Error(t, err)

	var statusErr *api.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.True(t, statusErr.NotFound())
	assert.Equal(t, "Book not found with id: missing", err.Error())
}

func TestCollectionPathIsEscaped(t *testing.T) {
	client, backend := newClient(t)

	_, err := api.Get[api.BookResponse](context.Background(), client, "books", "a/b")
	require.Error(t, err)

	requests := backend.Requests()
	require.NotEmpty(t, requests)
	assert.Equal(t, "/api/books/a%2Fb", requests[0].Path)
}

func TestHealth(t *testing.T) {
	client, backend := newClient(t)
	require.NoError(t, client.Health(context.Background(), "books"))

	backend.FailNext(http.MethodGet, "/api/books/pages", http.StatusBadGateway, "")
	err := client.Health(context.Background(), "books")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reachable")
}

func TestTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer slow.Close()

	client, err := api.NewClient(slow.URL, api.WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = client.ListMetadataKeys(context.Background(), "books")
	assert.Error(t, err)
}
