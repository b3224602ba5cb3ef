// Package books maps the backend's book documents to the editable shape the
// presentation layer works with, and back.
package books

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lanz/mediatracker-cli/internal/api"
)

// Collection is the REST collection name for books
const Collection = "books"

const (
	// StatusKey is the metadata key holding a book's reading status
	StatusKey = "Status"
	// StatusNowReading marks the book currently being read
	StatusNowReading = "Now Reading"
)

// MetadataRow is one ordered key/value annotation. ID is assigned once, when
// the row is created, and survives key edits and reordering.
type MetadataRow struct {
	ID    string `json:"id" yaml:"id"`
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Book is the UI shape of a book
type Book struct {
	ID        string        `json:"id" yaml:"id"`
	Title     string        `json:"title" yaml:"title"`
	Metadata  []MetadataRow `json:"metadata" yaml:"metadata"`
	CreatedAt time.Time     `json:"createdAt" yaml:"createdAt"`
}

// GetID returns the server-assigned ID
func (b Book) GetID() string {
	return b.ID
}

// IsDraft reports whether the book has never been saved
func (b Book) IsDraft() bool {
	return b.ID == ""
}

// Value returns the value of the first row with key
func (b Book) Value(key string) (string, bool) {
	for _, row := range b.Metadata {
		if row.Key == key {
			return row.Value, true
		}
	}
	return "", false
}

// Clone returns a deep copy, so a form can edit a book without touching the list
func (b Book) Clone() Book {
	out := b
	out.Metadata = append([]MetadataRow(nil), b.Metadata...)
	return out
}

// NewRow creates a row with a fresh ID
func NewRow(key, value string) MetadataRow {
	return MetadataRow{ID: uuid.NewString(), Key: key, Value: value}
}

// NewDraft returns an unsaved book with the default rows offered by the form
func NewDraft() Book {
	return Book{
		Metadata: []MetadataRow{
			NewRow("Author", ""),
			NewRow("Status", "To Read"),
		},
	}
}

// NowReading returns the first book with a Status row of "Now Reading".
// Every row is checked, not only the first Status row.
func NowReading(list []Book) (Book, bool) {
	for _, book := range list {
		for _, row := range book.Metadata {
			if row.Key == StatusKey && row.Value == StatusNowReading {
				return book, true
			}
		}
	}
	return Book{}, false
}

// ToUI converts a backend book. Rows follow the order of the wire mapping and
// every value is rendered as text.
func ToUI(wire api.BookResponse) Book {
	rows := make([]MetadataRow, 0, len(wire.Metadata))
	for _, entry := range wire.Metadata {
		rows = append(rows, NewRow(entry.Key, api.StringValue(entry.Value)))
	}

	return Book{
		ID:        wire.ID,
		Title:     wire.Title,
		Metadata:  rows,
		CreatedAt: time.Now().UTC(),
	}
}

// ToWire folds the rows back into a mapping. When two rows share a key the
// later value wins.
func ToWire(book Book) api.BookRequest {
	metadata := api.Metadata{}
	for _, row := range book.Metadata {
		metadata = metadata.SetString(row.Key, row.Value)
	}
	return api.BookRequest{
		Title:    book.Title,
		Metadata: metadata,
	}
}

// Search filters books whose title or any metadata value contains query,
// ignoring case. An empty query returns books unchanged.
func Search(books []Book, query string) []Book {
	if query == "" {
		return books
	}

	q := strings.ToLower(query)
	out := make([]Book, 0, len(books))
	for _, book := range books {
		if matches(book, q) {
			out = append(out, book)
		}
	}
	return out
}

func matches(book Book, lowered string) bool {
	if strings.Contains(strings.ToLower(book.Title), lowered) {
		return true
	}
	for _, row := range book.Metadata {
		if strings.Contains(strings.ToLower(row.Value), lowered) {
			return true
		}
	}
	return false
}
