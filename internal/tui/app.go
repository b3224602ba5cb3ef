// Package tui provides a terminal user interface for the book library
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lanz/mediatracker-cli/internal/books"
	"github.com/lanz/mediatracker-cli/internal/collection"
	"github.com/lanz/mediatracker-cli/internal/pager"
)

// ViewState represents the current view in the TUI
type ViewState int

const (
	LibraryView ViewState = iota
	FormView
	ConfirmDeleteView
)

const toastDuration = 3 * time.Second

// Model represents the main TUI application state
type Model struct {
	// Navigation
	currentView ViewState
	width       int
	height      int

	ctx         context.Context
	library     *books.Library
	events      <-chan collection.Event
	unsubscribe func()

	// Data
	snap       books.Snapshot
	nowReading string

	// Feedback
	toast    toast
	toastSeq int

	// Views
	libraryView *LibraryModel
	formView    *FormModel
	confirmView *ConfirmModel
}

type toast struct {
	text  string
	isErr bool
}

// NewModel creates a new TUI model. Call Close when the program exits.
func NewModel(ctx context.Context, library *books.Library) Model {
	events, unsubscribe := library.Store().Subscribe()
	m := Model{
		currentView: LibraryView,
		ctx:         ctx,
		library:     library,
		events:      events,
		unsubscribe: unsubscribe,
		libraryView: NewLibraryModel(),
	}
	m.snap = library.Snapshot()
	m.libraryView.SetSnapshot(m.snap)
	return m
}

// Close stops listening for store events
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init loads the first page and the metadata keys
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.run(collection.OpRefresh, "", m.library.Store().Load),
		textinput.Blink,
	)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.libraryView.SetWidth(msg.Width)
		if m.formView != nil {
			m.formView.SetWidth(msg.Width)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case opDoneMsg:
		return m.handleOpDone(msg)

	case nowReadingMsg:
		// Best effort: a failed lookup keeps the last known book
		if msg.err == nil {
			m.nowReading = ""
			if msg.ok {
				m.nowReading = msg.book.Title
			}
			m.libraryView.SetNowReading(m.nowReading)
		}
		return m, nil

	case clearToastMsg:
		if msg.seq == m.toastSeq {
			m.toast = toast{}
		}
		return m, nil

	case pageRequestMsg:
		page := msg.page
		return m, m.run(collection.OpRefresh, "", func(ctx context.Context) error {
			return m.library.Store().SetPage(ctx, page)
		})

	case refreshRequestMsg:
		return m, m.run(collection.OpRefresh, "", m.library.Store().Refresh)

	case editBookMsg:
		m.formView = NewFormModel(msg.book, m.snap.MetadataKeys)
		m.formView.SetWidth(m.width)
		m.currentView = FormView
		return m, textinput.Blink

	case addKeyMsg:
		m.library.Store().AddMetadataKeyLocally(msg.key)
		m.refreshSnapshot()
		if m.formView != nil {
			m.formView.SetKnownKeys(m.snap.MetadataKeys)
		}
		return m, nil

	case saveBookMsg:
		book := msg.book
		if book.IsDraft() {
			return m, m.run(collection.OpCreate, "", func(ctx context.Context) error {
				return m.library.AddBook(ctx, book)
			})
		}
		return m, m.run(collection.OpUpdate, book.ID, func(ctx context.Context) error {
			return m.library.UpdateBook(ctx, book)
		})

	case deleteRequestMsg:
		m.confirmView = NewConfirmModel(msg.book)
		m.currentView = ConfirmDeleteView
		return m, nil

	case confirmDeleteMsg:
		id := msg.id
		return m, m.run(collection.OpRemove, id, func(ctx context.Context) error {
			return m.library.DeleteBook(ctx, id)
		})

	case cancelMsg:
		m.currentView = LibraryView
		m.formView = nil
		m.confirmView = nil
		return m, nil
	}

	// Update current view
	var cmd tea.Cmd
	switch m.currentView {
	case LibraryView:
		var lv LibraryModel
		lv, cmd = m.libraryView.Update(msg)
		m.libraryView = &lv

	case FormView:
		if m.formView != nil {
			var fv FormModel
			fv, cmd = m.formView.Update(msg)
			m.formView = &fv
		}

	case ConfirmDeleteView:
		if m.confirmView != nil {
			var cv ConfirmModel
			cv, cmd = m.confirmView.Update(msg)
			m.confirmView = &cv
		}
	}

	return m, cmd
}

// handleOpDone folds a finished store call into the view. Mutation outcomes
// reach the toast through the store's event channel.
func (m Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	m.refreshSnapshot()
	toastCmd := m.drainEvents()

	if msg.op.IsMutation() {
		switch m.currentView {
		case FormView:
			if msg.err != nil && m.formView != nil {
				// Keep the draft so the user can fix and retry
				m.formView.SetError(msg.err)
			} else {
				m.formView = nil
				m.currentView = LibraryView
			}
		case ConfirmDeleteView:
			m.confirmView = nil
			m.currentView = LibraryView
		}
	}

	if msg.err != nil {
		return m, toastCmd
	}
	return m, tea.Batch(toastCmd, m.findNowReading())
}

// findNowReading looks up the book being read across the whole library
func (m Model) findNowReading() tea.Cmd {
	ctx, library := m.ctx, m.library
	return func() tea.Msg {
		book, ok, err := library.NowReading(ctx)
		return nowReadingMsg{book: book, ok: ok, err: err}
	}
}

// refreshSnapshot copies the store state into the model and the list view
func (m *Model) refreshSnapshot() {
	m.snap = m.library.Snapshot()
	m.libraryView.SetSnapshot(m.snap)
}

// drainEvents consumes every pending store event. All store calls are made
// from this model's commands, so by the time their result message arrives
// their events have been published.
func (m *Model) drainEvents() tea.Cmd {
	var cmd tea.Cmd
	for {
		select {
		case ev, ok := <-m.events:
			if !ok {
				m.events = nil
				return cmd
			}
			if c := m.handleEvent(ev); c != nil {
				cmd = c
			}
		default:
			return cmd
		}
	}
}

func (m *Model) handleEvent(ev collection.Event) tea.Cmd {
	if !ev.Op.IsMutation() {
		return nil
	}

	if ev.Err != nil {
		return m.showToast(fmt.Sprintf("Couldn't %s book: %s", verb(ev.Op), ev.Err), true)
	}

	switch ev.Op {
	case collection.OpCreate:
		return m.showToast("Book added", false)
	case collection.OpUpdate:
		return m.showToast("Book updated", false)
	default:
		return m.showToast("Book deleted", false)
	}
}

func verb(op collection.Op) string {
	switch op {
	case collection.OpCreate:
		return "add"
	case collection.OpUpdate:
		return "update"
	case collection.OpRemove:
		return "delete"
	}
	return string(op)
}

func (m *Model) showToast(text string, isErr bool) tea.Cmd {
	m.toastSeq++
	m.toast = toast{text: text, isErr: isErr}
	seq := m.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return clearToastMsg{seq: seq}
	})
}

// run executes fn in a command and reports its completion
func (m Model) run(op collection.Op, id string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, id: id, err: fn(ctx)}
	}
}

// View renders the current view
func (m Model) View() string {
	header := m.headerView()

	var content string
	switch m.currentView {
	case FormView:
		if m.formView != nil {
			content = m.formView.View()
		}
	case ConfirmDeleteView:
		if m.confirmView != nil {
			content = m.confirmView.View()
		}
	default:
		content = m.libraryView.View()
	}

	parts := []string{header}
	// Refresh failures persist until the next successful load
	if m.snap.Err != nil && m.snap.ErrOp == collection.OpRefresh {
		parts = append(parts, bannerStyle.Render("Couldn't load books: "+m.snap.ErrMessage()+"  (r to retry)"))
	}
	parts = append(parts, content)
	if m.toast.text != "" {
		style := toastStyle
		if m.toast.isErr {
			style = errorToastStyle
		}
		parts = append(parts, style.Render(m.toast.text))
	}
	parts = append(parts, m.footerView())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// headerView renders the application header
func (m Model) headerView() string {
	title := titleStyle.Render("Media Tracker")

	subtitle := "Library"
	if m.snap.TotalPages > 0 {
		subtitle = fmt.Sprintf("Library · page %d of %d", pager.Display(m.snap.CurrentPage), m.snap.TotalPages)
	}
	switch {
	case m.snap.Submitting:
		subtitle += " · saving..."
	case m.snap.Loading:
		subtitle += " · loading..."
	}

	lines := []string{title, subtitleStyle.Render(subtitle)}
	if m.nowReading != "" {
		lines = append(lines, nowReadingStyle.Render("Now Reading: "+m.nowReading))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// footerView renders the application footer with help
func (m Model) footerView() string {
	help := ""
	switch m.currentView {
	case LibraryView:
		if m.libraryView.Typing() {
			help = "enter: apply • esc: cancel"
		} else {
			help = "↑/↓: select • ←/→: page • g: go to page • /: search • n: new • enter: edit • d: delete • o: now reading • r: refresh • q: quit"
		}
	}

	return helpStyle.Render(help)
}

// emit wraps msg in a command
func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// Custom messages
type opDoneMsg struct {
	op  collection.Op
	id  string
	err error
}

type nowReadingMsg struct {
	book books.Book
	ok   bool
	err  error
}

type clearToastMsg struct {
	seq int
}

type pageRequestMsg struct {
	page int
}

type refreshRequestMsg struct{}

type editBookMsg struct {
	book books.Book
}

type saveBookMsg struct {
	book books.Book
}

type addKeyMsg struct {
	key string
}

type deleteRequestMsg struct {
	book books.Book
}

type confirmDeleteMsg struct {
	id string
}

type cancelMsg struct{}

// Styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	nowReadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("124")).
			Padding(0, 1)

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("22")).
			Background(lipgloss.Color("120")).
			Padding(0, 1)

	errorToastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("160")).
			Padding(0, 1)
)
