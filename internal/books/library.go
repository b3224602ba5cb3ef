package books

import (
	"context"

	"github.com/lanz/mediatracker-cli/internal/api"
	"github.com/lanz/mediatracker-cli/internal/collection"
)

// Store is the collection store specialised for books
type Store = collection.Store[Book, api.BookRequest, api.BookResponse]

// Snapshot is a books store snapshot
type Snapshot = collection.Snapshot[Book]

// Library wraps the books store with book-shaped operations
type Library struct {
	store *Store
}

// NewLibrary creates a library backed by transport
func NewLibrary(transport collection.Transport[api.BookResponse, api.BookRequest], opts collection.Options) (*Library, error) {
	if opts.Collection == "" {
		opts.Collection = Collection
	}
	store, err := collection.NewStore[Book, api.BookRequest, api.BookResponse](transport, ToUI, opts)
	if err != nil {
		return nil, err
	}
	return &Library{store: store}, nil
}

// NewHTTPLibrary creates a library talking to the backend through client
func NewHTTPLibrary(client *api.Client, opts collection.Options) (*Library, error) {
	return NewLibrary(collection.NewHTTPTransport[api.BookResponse, api.BookRequest](client), opts)
}

// Store exposes the underlying collection store
func (l *Library) Store() *Store {
	return l.store
}

// Snapshot returns the current state
func (l *Library) Snapshot() Snapshot {
	return l.store.Snapshot()
}

// Books returns the loaded page filtered by query
func (l *Library) Books(query string) []Book {
	return Search(l.store.Snapshot().Items, query)
}

// GetBook fetches one book by id, whether or not it is on the loaded page
func (l *Library) GetBook(ctx context.Context, id string) (Book, error) {
	return l.store.Get(ctx, id)
}

// NowReading fetches the whole library and returns the book being read.
// ok is false when no book has Status "Now Reading".
func (l *Library) NowReading(ctx context.Context) (book Book, ok bool, err error) {
	all, err := l.store.FetchAll(ctx)
	if err != nil {
		return Book{}, false, err
	}
	book, ok = NowReading(all)
	return book, ok, nil
}

// AddBook creates book on the backend. ID and CreatedAt are ignored.
func (l *Library) AddBook(ctx context.Context, book Book) error {
	return l.store.Create(ctx, ToWire(book))
}

// UpdateBook replaces the title and metadata of book
func (l *Library) UpdateBook(ctx context.Context, book Book) error {
	return l.store.Update(ctx, book, ToWire(book))
}

// DeleteBook removes the book with id
func (l *Library) DeleteBook(ctx context.Context, id string) error {
	return l.store.Remove(ctx, id)
}
