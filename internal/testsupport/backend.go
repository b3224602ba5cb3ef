// Package testsupport provides an in-memory fake of the media tracker
// backend for tests.
package testsupport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lanz/mediatracker-cli/internal/api"
)

// Request is a recorded request
type Request struct {
	Method string
	Path   string
	Body   []byte
}

// Failure is an injected error response
type Failure struct {
	Status int
	Body   string
}

// Backend is a fake collection backend. Pages are sorted by title like the
// real one, and the embedded key of paged responses is configurable.
type Backend struct {
	Collection  string
	EmbeddedKey string

	mu       sync.Mutex
	books    map[string]api.BookResponse
	requests []Request
	failures map[string][]Failure
	server   *httptest.Server
}

// NewBackend starts a fake backend serving /api/{collection}
func NewBackend(collection string) *Backend {
	gin.SetMode(gin.TestMode)

	b := &Backend{
		Collection:  collection,
		EmbeddedKey: "bookResponseList",
		books:       make(map[string]api.BookResponse),
		failures:    make(map[string][]Failure),
	}

	router := gin.New()
	router.Use(b.record, b.inject)
	group := router.Group("/api/" + collection)
	{
		group.GET("", b.listAll)
		group.GET("/pages", b.listPage)
		group.GET("/metadata-keys", b.metadataKeys)
		group.GET("/:id", b.get)
		group.POST("", b.create)
		group.PUT("/:id", b.update)
		group.DELETE("/:id", b.remove)
	}

	b.server = httptest.NewServer(router)
	return b
}

// URL returns the base URL to hand to api.NewClient
func (b *Backend) URL() string {
	return b.server.URL + "/api"
}

// Close stops the server
func (b *Backend) Close() {
	b.server.Close()
}

// Seed stores a book and returns its ID
func (b *Backend) Seed(title string, metadata api.Metadata) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	b.books[id] = api.BookResponse{ID: id, Title: title, Metadata: metadata}
	return id
}

// SeedN stores n books titled "Book 001".."Book n"
func (b *Backend) SeedN(n int) []string {
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		ids = append(ids, b.Seed(fmt.Sprintf("Book %03d", i), nil))
	}
	return ids
}

// Books returns stored books sorted by title
func (b *Backend) Books() []api.BookResponse {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sortedLocked()
}

// Requests returns every request received so far
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// RequestsFor returns recorded requests with the given method
func (b *Backend) RequestsFor(method string) []Request {
	var out []Request
	for _, r := range b.Requests() {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

// FailNext makes the next request with method and full path (e.g.
// "GET /api/books/pages") answer with status and body
func (b *Backend) FailNext(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := method + " " + path
	b.failures[key] = append(b.failures[key], Failure{Status: status, Body: body})
}

func (b *Backend) record(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	b.mu.Lock()
	b.requests = append(b.requests, Request{
		Method: c.Request.Method,
		Path:   c.Request.URL.RequestURI(),
		Body:   body,
	})
	b.mu.Unlock()

	c.Next()
}

func (b *Backend) inject(c *gin.Context) {
	key := c.Request.Method + " " + c.Request.URL.Path

	b.mu.Lock()
	queue := b.failures[key]
	var failure *Failure
	if len(queue) > 0 {
		failure = &queue[0]
		b.failures[key] = queue[1:]
	}
	b.mu.Unlock()

	if failure != nil {
		c.Data(failure.Status, "text/plain; charset=utf-8", []byte(failure.Body))
		c.Abort()
		return
	}
	c.Next()
}

func (b *Backend) sortedLocked() []api.BookResponse {
	out := make([]api.BookResponse, 0, len(b.books))
	for _, book := range b.books {
		out = append(out, book)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title == out[j].Title {
			return out[i].ID < out[j].ID
		}
		return out[i].Title < out[j].Title
	})
	return out
}

func (b *Backend) listAll(c *gin.Context) {
	c.JSON(http.StatusOK, b.Books())
}

func (b *Backend) listPage(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid page"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid size"})
		return
	}

	all := b.Books()
	totalPages := (len(all) + size - 1) / size

	start := page * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}

	body := gin.H{
		"page": gin.H{
			"size":          size,
			"totalElements": len(all),
			"totalPages":    totalPages,
			"number":        page,
		},
	}
	// Spring HATEOAS omits _embedded for an empty page
	if end > start {
		body["_embedded"] = gin.H{b.EmbeddedKey: all[start:end]}
	}
	c.JSON(http.StatusOK, body)
}

func (b *Backend) metadataKeys(c *gin.Context) {
	seen := make(map[string]struct{})
	keys := []string{}
	for _, book := range b.Books() {
		for _, k := range book.Metadata.Keys() {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	c.JSON(http.StatusOK, keys)
}

func (b *Backend) get(c *gin.Context) {
	b.mu.Lock()
	book, ok := b.books[c.Param("id")]
	b.mu.Unlock()
	if !ok {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (b *Backend) create(c *gin.Context) {
	var req api.BookRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	id := b.Seed(req.Title, req.Metadata)

	b.mu.Lock()
	book := b.books[id]
	b.mu.Unlock()
	c.JSON(http.StatusCreated, book)
}

func (b *Backend) update(c *gin.Context) {
	id := c.Param("id")
	var req api.BookRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	b.mu.Lock()
	_, ok := b.books[id]
	if ok {
		b.books[id] = api.BookResponse{ID: id, Title: req.Title, Metadata: req.Metadata}
	}
	book := b.books[id]
	b.mu.Unlock()

	if !ok {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (b *Backend) remove(c *gin.Context) {
	id := c.Param("id")

	b.mu.Lock()
	_, ok := b.books[id]
	delete(b.books, id)
	b.mu.Unlock()

	if !ok {
		notFound(c)
		return
	}
	c.Status(http.StatusNoContent)
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"message": "Book not found with id: " + c.Param("id"),
		"details": "uri=" + c.Request.URL.Path,
	})
}
