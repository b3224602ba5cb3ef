package tui

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanz/mediatracker-cli/internal/api"
	"github.com/lanz/mediatracker-cli/internal/books"
	"github.com/lanz/mediatracker-cli/internal/collection"
	"github.com/lanz/mediatracker-cli/internal/logger"
	"github.com/lanz/mediatracker-cli/internal/testsupport"
)

// cmdTimeout bounds each command. Store calls against the local fake finish
// well within it; the toast expiry tick never does and is abandoned.
const cmdTimeout = 500 * time.Millisecond

func TestMain(m *testing.M) {
	// A blinking cursor schedules a new timer after every keystroke
	cursorMode = cursor.CursorStatic
	os.Exit(m.Run())
}

func runWithTimeout(cmd tea.Cmd) tea.Msg {
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	select {
	case msg := <-done:
		return msg
	case <-time.After(cmdTimeout):
		return nil
	}
}

// settle feeds msg to m and keeps running the resulting commands until the
// model is idle. Timer-driven commands never resolve here.
func settle(t *testing.T, m tea.Model, msg tea.Msg) Model {
	t.Helper()

	var cmd tea.Cmd
	m, cmd = m.Update(msg)
	queue := []tea.Cmd{cmd}

	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 200, "model never settled")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		for _, out := range execNow(next) {
			var c tea.Cmd
			m, c = m.Update(out)
			queue = append(queue, c)
		}
	}
	return m.(Model)
}

func newTestModel(t *testing.T) (Model, *testsupport.Backend) {
	t.Helper()

	backend := testsupport.NewBackend(books.Collection)
	t.Cleanup(backend.Close)

	client, err := api.NewClient(backend.URL())
	require.NoError(t, err)

	library, err := books.NewHTTPLibrary(client, collection.Options{Logger: logger.Discard()})
	require.NoError(t, err)

	m := NewModel(context.Background(), library)
	t.Cleanup(m.Close)
	return m, backend
}

func loadModel(t *testing.T, m Model) Model {
	t.Helper()
	m = settle(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return settle(t, m, opDoneMsg{op: collection.OpRefresh, err: m.library.Store().Load(context.Background())})
}

func TestInitialLoad(t *testing.T) {
	m, backend := newTestModel(t)
	backend.Seed("Dune", api.Metadata{}.SetString("Author", "Frank Herbert"))
	backend.Seed("Hyperion", nil)

	m = loadModel(t, m)

	assert.Len(t, m.snap.Items, 2)
	assert.False(t, m.snap.Loading)
	view := m.View()
	assert.Contains(t, view, "Dune")
	assert.Contains(t, view, "Frank Herbert")
	assert.Contains(t, view, "page 1 of 1")
}

func TestRefreshFailureShowsBanner(t *testing.T) {
	m, backend := newTestModel(t)
	backend.Seed("Dune", nil)
	m = loadModel(t, m)

	backend.FailNext(http.MethodGet, "/api/books/pages", http.StatusInternalServerError, "")
	m = settle(t, m, keyRunes("r"))

	assert.Equal(t, collection.OpRefresh, m.snap.ErrOp)
	assert.Contains(t, m.View(), "Couldn't load books: HTTP error! status: 500")
	assert.Len(t, m.snap.Items, 1, "items survive a failed refresh")

	// retry clears the banner
	m = settle(t, m, keyRunes("r"))
	assert.NotContains(t, m.View(), "Couldn't load books")
}

func TestAddBookThroughForm(t *testing.T) {
	m, backend := newTestModel(t)
	m = loadModel(t, m)

	m = settle(t, m, keyRunes("n"))
	require.Equal(t, FormView, m.currentView)

	m = settle(t, m, keyRunes("Dune"))
	m = settle(t, m, key(tea.KeyCtrlS))

	assert.Equal(t, LibraryView, m.currentView)
	assert.Equal(t, "Book added", m.toast.text)
	assert.False(t, m.toast.isErr)

	stored := backend.Books()
	require.Len(t, stored, 1)
	assert.Equal(t, "Dune", stored[0].Title)
	assert.Equal(t, []string{"Author", "Status"}, stored[0].Metadata.Keys())

	assert.Len(t, m.snap.Items, 1)
	assert.Equal(t, []string{"Author", "Status"}, m.snap.MetadataKeys)
}

func TestFailedSaveKeepsDraft(t *testing.T) {
	m, backend := newTestModel(t)
	m = loadModel(t, m)

	m = settle(t, m, keyRunes("n"))
	m = settle(t, m, keyRunes("Dune"))

	backend.FailNext(http.MethodPost, "/api/books", http.StatusBadRequest, `{"message":"Title already exists"}`)
	m = settle(t, m, key(tea.KeyCtrlS))

	require.Equal(t, FormView, m.currentView)
	assert.Equal(t, "Dune", m.formView.Draft().Title)
	assert.False(t, m.formView.saving)
	assert.True(t, m.toast.isErr)
	assert.Equal(t, "Couldn't add book: Title already exists", m.toast.text)
	assert.Contains(t, m.View(), "Title already exists")
	assert.Empty(t, backend.Books())
}

func TestNewKeyIsOfferedBeforeSave(t *testing.T) {
	m, _ := newTestModel(t)
	m = loadModel(t, m)

	m = settle(t, m, keyRunes("n"))
	m = settle(t, m, key(tea.KeyCtrlN))
	m = settle(t, m, keyRunes("Genre"))
	m = settle(t, m, key(tea.KeyTab))

	assert.Contains(t, m.snap.MetadataKeys, "Genre")
	assert.Contains(t, m.library.Snapshot().MetadataKeys, "Genre")
}

func TestEditBook(t *testing.T) {
	m, backend := newTestModel(t)
	id := backend.Seed("Dune", api.Metadata{}.SetString("Status", "To Read"))
	m = loadModel(t, m)

	m = settle(t, m, key(tea.KeyEnter))
	require.Equal(t, FormView, m.currentView)

	m = settle(t, m, key(tea.KeyTab)) // Status key
	m = settle(t, m, key(tea.KeyTab)) // Status value
	for range "To Read" {
		m = settle(t, m, key(tea.KeyBackspace))
	}
	m = settle(t, m, keyRunes("Finished"))
	m = settle(t, m, key(tea.KeyCtrlS))

	assert.Equal(t, "Book updated", m.toast.text)
	puts := backend.RequestsFor(http.MethodPut)
	require.Len(t, puts, 1)
	assert.Equal(t, "/api/books/"+id, puts[0].Path)
	assert.JSONEq(t, `{"title":"Dune","metadata":{"Status":"Finished"}}`, string(puts[0].Body))
}

func TestDeleteWithConfirmation(t *testing.T) {
	m, backend := newTestModel(t)
	backend.Seed("Dune", nil)
	m = loadModel(t, m)

	m = settle(t, m, keyRunes("d"))
	require.Equal(t, ConfirmDeleteView, m.currentView)
	assert.Contains(t, m.View(), `Delete "Dune"?`)

	// declining keeps the book
	m = settle(t, m, keyRunes("n"))
	assert.Equal(t, LibraryView, m.currentView)
	assert.Len(t, backend.Books(), 1)

	m = settle(t, m, keyRunes("d"))
	m = settle(t, m, keyRunes("y"))

	assert.Equal(t, LibraryView, m.currentView)
	assert.Equal(t, "Book deleted", m.toast.text)
	assert.Empty(t, backend.Books())
	assert.Empty(t, m.snap.Items)
}

func TestPagingWithKeysAndInput(t *testing.T) {
	m, backend := newTestModel(t)
	backend.SeedN(45)
	m = loadModel(t, m)
	require.Equal(t, 3, m.snap.TotalPages)

	m = settle(t, m, keyRunes("l"))
	assert.Equal(t, 1, m.snap.CurrentPage)

	// out of range input reverts to the current page
	m = settle(t, m, keyRunes("g"))
	m = settle(t, m, keyRunes("9"))
	m = settle(t, m, key(tea.KeyEnter))
	assert.Equal(t, 1, m.snap.CurrentPage)
	assert.Equal(t, "2", m.libraryView.pageInput.Value())

	m = settle(t, m, keyRunes("g"))
	m = settle(t, m, keyRunes("3"))
	m = settle(t, m, key(tea.KeyEnter))
	assert.Equal(t, 2, m.snap.CurrentPage)
	assert.Len(t, m.snap.Items, 5)

	// no next page from the last one
	m = settle(t, m, keyRunes("l"))
	assert.Equal(t, 2, m.snap.CurrentPage)
}

func TestSearchFiltersCurrentPage(t *testing.T) {
	m, backend := newTestModel(t)
	backend.Seed("Dune", api.Metadata{}.SetString("Author", "Frank Herbert"))
	backend.Seed("Hyperion", api.Metadata{}.SetString("Author", "Dan Simmons"))
	m = loadModel(t, m)

	m = settle(t, m, keyRunes("/"))
	m = settle(t, m, keyRunes("simmons"))

	view := m.View()
	assert.Contains(t, view, "Hyperion")
	assert.NotContains(t, view, "Frank Herbert")

	// typing q in the search box does not quit
	m = settle(t, m, keyRunes("q"))
	assert.Contains(t, m.View(), "No books on this page match")
}

func TestNowReadingHeaderAndHighlight(t *testing.T) {
	m, backend := newTestModel(t)
	backend.SeedN(25)
	backend.Seed("Book 003 (second copy)", api.Metadata{}.SetString("Status", "Now Reading"))
	m = loadModel(t, m)

	assert.Equal(t, "Book 003 (second copy)", m.nowReading)
	view := m.View()
	assert.Contains(t, view, "Now Reading: Book 003 (second copy)")
	assert.Contains(t, view, nowReadingMark+"Book 003 (second copy)")
	assert.NotContains(t, view, nowReadingMark+"Book 001")

	// o searches for the book being read
	m = settle(t, m, keyRunes("o"))
	assert.Equal(t, "Book 003 (second copy)", m.libraryView.search.Value())
	require.Len(t, m.libraryView.visible, 1)
	selected, ok := m.libraryView.Selected()
	require.True(t, ok)
	assert.Equal(t, "Book 003 (second copy)", selected.Title)
}

func TestNowReadingFollowsUpdates(t *testing.T) {
	m, backend := newTestModel(t)
	id := backend.Seed("Dune", api.Metadata{}.SetString("Status", "Now Reading"))
	backend.Seed("Hyperion", api.Metadata{}.SetString("Status", "Up Next"))
	m = loadModel(t, m)
	require.Equal(t, "Dune", m.nowReading)

	book, ok := m.library.Store().Find(id)
	require.True(t, ok)
	book = book.Clone()
	book.Metadata[0].Value = "Finished"
	m = settle(t, m, saveBookMsg{book: book})

	assert.Empty(t, m.nowReading)
	assert.NotContains(t, m.View(), "Now Reading:")
	assert.NotContains(t, m.View(), nowReadingMark)
}

func TestSearchKeepsSurroundingSpaces(t *testing.T) {
	m, backend := newTestModel(t)
	backend.Seed("Dune", nil)
	backend.Seed("Book 001", nil)
	m = loadModel(t, m)

	m = settle(t, m, keyRunes("/"))
	m = settle(t, m, keyRunes(" "))

	require.Len(t, m.libraryView.visible, 1)
	assert.Equal(t, "Book 001", m.libraryView.visible[0].Title)
}
