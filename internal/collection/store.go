// Package collection keeps the client-side state of one REST collection in
// sync with the backend. All writes go through the backend and are followed
// by a re-fetch, so local state is never trusted after a mutation.
package collection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lanz/mediatracker-cli/internal/logger"
	"github.com/lanz/mediatracker-cli/internal/pager"
)

// ErrPageOutOfRange is returned by SetPage for a page outside [0, TotalPages)
var ErrPageOutOfRange = errors.New("page out of range")

// Item is anything with a server-assigned ID
type Item interface {
	GetID() string
}

// Snapshot is a copy of the store state
type Snapshot[T Item] struct {
	Items         []T
	Loading       bool
	Submitting    bool
	Err           error
	ErrOp         Op
	MetadataKeys  []string
	CurrentPage   int
	TotalPages    int
	TotalElements int
}

// ErrMessage returns the error text, or "" when there is no error
func (s Snapshot[T]) ErrMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Options configures a Store
type Options struct {
	// Collection is the REST collection name, e.g. "books"
	Collection string
	// PageSize is used in paged mode; 0 means pager.DefaultPageSize
	PageSize int
	// Unpaged fetches the full list instead of one page
	Unpaged bool
	Logger  *logger.Logger
}

// Store owns the in-memory state of one collection. T is the UI item, R the
// request body and W the wire item. It is safe for concurrent use.
type Store[T Item, R any, W any] struct {
	transport  Transport[W, R]
	adapt      func(W) T
	collection string
	pageSize   int
	paged      bool
	log        *logger.Logger

	mu          sync.Mutex
	state       Snapshot[T]
	loads       int
	submits     int
	listSeq     uint64
	listApplied uint64
	keySeq      uint64
	keyApplied  uint64
	localKeys   []string

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// NewStore creates a store. Nothing is fetched until Refresh is called.
func NewStore[T Item, R any, W any](transport Transport[W, R], adapt func(W) T, opts Options) (*Store[T, R, W], error) {
	if transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if adapt == nil {
		return nil, fmt.Errorf("adapter is required")
	}
	if opts.Collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if opts.PageSize < 0 {
		return nil, fmt.Errorf("page size cannot be negative")
	}

	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = pager.DefaultPageSize
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	return &Store[T, R, W]{
		transport:  transport,
		adapt:      adapt,
		collection: opts.Collection,
		pageSize:   pageSize,
		paged:      !opts.Unpaged,
		log:        log.Named("collection." + opts.Collection),
		state: Snapshot[T]{
			Items:        []T{},
			MetadataKeys: []string{},
		},
		subs: make(map[int]chan Event),
	}, nil
}

// PageSize returns the number of items requested per page
func (s *Store[T, R, W]) PageSize() int {
	return s.pageSize
}

// Snapshot returns a copy of the current state
func (s *Store[T, R, W]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.state
	snap.Items = append([]T(nil), s.state.Items...)
	snap.MetadataKeys = append([]string(nil), s.state.MetadataKeys...)
	return snap
}

// Find returns the loaded item with id
func (s *Store[T, R, W]) Find(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.state.Items {
		if item.GetID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Get fetches a single item from the backend. Store state is not touched.
func (s *Store[T, R, W]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if id == "" {
		return zero, fmt.Errorf("cannot get %s item without an id", s.collection)
	}
	wire, err := s.transport.Get(ctx, s.collection, id)
	if err != nil {
		return zero, err
	}
	return s.adapt(*wire), nil
}

// FetchAll fetches the whole unpaged collection. Store state is not touched.
func (s *Store[T, R, W]) FetchAll(ctx context.Context) ([]T, error) {
	wire, err := s.transport.ListAll(ctx, s.collection)
	if err != nil {
		return nil, err
	}
	return s.adaptAll(wire), nil
}

// Refresh re-fetches the current page (or the full list in unpaged mode).
// On failure the error is stored and returned, and the loaded items stay.
// A response that arrives after a newer one has been applied is dropped.
func (s *Store[T, R, W]) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.loads++
	s.state.Loading = true
	s.state.Err = nil
	s.state.ErrOp = ""
	s.listSeq++
	seq := s.listSeq
	page := s.state.CurrentPage
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loads--
		s.state.Loading = s.loads > 0
		s.mu.Unlock()
	}()

	items, info, err := s.fetch(ctx, page)

	s.mu.Lock()
	if seq <= s.listApplied {
		s.mu.Unlock()
		s.log.Debug("discarding stale %s response (seq %d)", s.collection, seq)
		return nil
	}
	s.listApplied = seq

	if err != nil {
		s.state.Err = err
		s.state.ErrOp = OpRefresh
		s.mu.Unlock()
		s.log.Error("failed to fetch %s: %v", s.collection, err)
		s.publish(Event{Op: OpRefresh, Err: err})
		return err
	}

	s.state.Items = items
	s.state.CurrentPage = info.Number
	s.state.TotalPages = info.TotalPages
	s.state.TotalElements = info.TotalElements
	// The page we were on vanished, e.g. its last item was deleted
	stepBack := s.paged && info.TotalPages > 0 && !pager.InRange(info.Number, info.TotalPages)
	if stepBack {
		s.state.CurrentPage = pager.Clamp(info.Number, info.TotalPages)
	}
	target := s.state.CurrentPage
	s.mu.Unlock()

	if stepBack {
		s.log.Debug("page %d of %s no longer exists, moving to page %d", page, s.collection, target)
		return s.Refresh(ctx)
	}

	s.log.Debug("loaded %d %s (page %d of %d)", len(items), s.collection, pager.Display(info.Number), info.TotalPages)
	s.publish(Event{Op: OpRefresh})
	return nil
}

func (s *Store[T, R, W]) fetch(ctx context.Context, page int) ([]T, pageInfo, error) {
	if !s.paged {
		wire, err := s.transport.ListAll(ctx, s.collection)
		if err != nil {
			return nil, pageInfo{}, err
		}
		items := s.adaptAll(wire)
		info := pageInfo{TotalElements: len(items)}
		if len(items) > 0 {
			info.TotalPages = 1
		}
		return items, info, nil
	}

	resp, err := s.transport.ListPage(ctx, s.collection, page, s.pageSize)
	if err != nil {
		return nil, pageInfo{}, err
	}
	return s.adaptAll(resp.Items), pageInfo{
		Number:        resp.Page.Number,
		TotalPages:    resp.Page.TotalPages,
		TotalElements: resp.Page.TotalElements,
	}, nil
}

type pageInfo struct {
	Number        int
	TotalPages    int
	TotalElements int
}

func (s *Store[T, R, W]) adaptAll(wire []W) []T {
	items := make([]T, 0, len(wire))
	for _, w := range wire {
		items = append(items, s.adapt(w))
	}
	return items
}

// RefreshMetadataKeys replaces the known metadata keys. It is best effort:
// failures are logged and never stored as the store error.
func (s *Store[T, R, W]) RefreshMetadataKeys(ctx context.Context) {
	s.mu.Lock()
	s.keySeq++
	seq := s.keySeq
	s.mu.Unlock()

	keys, err := s.transport.ListMetadataKeys(ctx, s.collection)

	s.mu.Lock()
	if seq <= s.keyApplied {
		s.mu.Unlock()
		return
	}
	s.keyApplied = seq
	if err == nil {
		s.state.MetadataKeys = normalizeKeys(append(keys, s.localKeys...))
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("failed to fetch metadata keys for %s: %v", s.collection, err)
	}
	s.publish(Event{Op: OpMetadataKeys, Err: err})
}

// AddMetadataKeyLocally offers key in MetadataKeys before any save confirms
// it. Empty and already known keys are ignored. Local keys survive later
// key refreshes for the lifetime of the store.
func (s *Store[T, R, W]) AddMetadataKeyLocally(key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range s.state.MetadataKeys {
		if k == key {
			return
		}
	}
	s.localKeys = append(s.localKeys, key)
	s.state.MetadataKeys = append(s.state.MetadataKeys, key)
	sort.Strings(s.state.MetadataKeys)
}

func normalizeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SetPage moves to page and fetches it and the metadata keys concurrently.
// Pages outside [0, TotalPages) are rejected once the page count is known.
func (s *Store[T, R, W]) SetPage(ctx context.Context, page int) error {
	if !s.paged {
		return fmt.Errorf("%s store is not paged", s.collection)
	}

	s.mu.Lock()
	total := s.state.TotalPages
	if page < 0 || (total > 0 && !pager.InRange(page, total)) {
		s.mu.Unlock()
		return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, pager.Display(page), total)
	}
	s.state.CurrentPage = page
	s.mu.Unlock()

	// The two fetches are independent: a failed page must not cancel the keys
	var g errgroup.Group
	g.Go(func() error {
		return s.Refresh(ctx)
	})
	g.Go(func() error {
		s.RefreshMetadataKeys(ctx)
		return nil
	})
	return g.Wait()
}

// Load fetches the current page and the metadata keys, for first display
func (s *Store[T, R, W]) Load(ctx context.Context) error {
	s.mu.Lock()
	page := s.state.CurrentPage
	s.mu.Unlock()

	if !s.paged {
		err := s.Refresh(ctx)
		s.RefreshMetadataKeys(ctx)
		return err
	}
	return s.SetPage(ctx, page)
}

// Create sends a new item and refreshes
func (s *Store[T, R, W]) Create(ctx context.Context, req R) error {
	return s.mutate(ctx, OpCreate, "", func(ctx context.Context) error {
		return s.transport.Create(ctx, s.collection, req)
	})
}

// Update replaces item with req and refreshes
func (s *Store[T, R, W]) Update(ctx context.Context, item T, req R) error {
	id := item.GetID()
	return s.mutate(ctx, OpUpdate, id, func(ctx context.Context) error {
		return s.transport.Update(ctx, s.collection, id, req)
	})
}

// Remove deletes the item with id and refreshes
func (s *Store[T, R, W]) Remove(ctx context.Context, id string) error {
	return s.mutate(ctx, OpRemove, id, func(ctx context.Context) error {
		return s.transport.Delete(ctx, s.collection, id)
	})
}

// mutate runs call with Submitting set. On success the current page and the
// metadata keys are re-fetched before Submitting clears. On failure the
// error is stored, published and returned, and items are left untouched.
func (s *Store[T, R, W]) mutate(ctx context.Context, op Op, id string, call func(context.Context) error) error {
	s.mu.Lock()
	s.submits++
	s.state.Submitting = true
	s.state.Err = nil
	s.state.ErrOp = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submits--
		s.state.Submitting = s.submits > 0
		s.mu.Unlock()
	}()

	if err := call(ctx); err != nil {
		s.mu.Lock()
		s.state.Err = err
		s.state.ErrOp = op
		s.mu.Unlock()

		s.log.Error("failed to %s %s item %q: %v", op, s.collection, id, err)
		s.publish(Event{Op: op, ID: id, Err: err})
		return err
	}

	// Refresh stores its own failure; the write itself went through
	_ = s.Refresh(ctx)
	s.RefreshMetadataKeys(ctx)

	s.log.Info("%s %s item %q succeeded", op, s.collection, id)
	s.publish(Event{Op: op, ID: id})
	return nil
}
