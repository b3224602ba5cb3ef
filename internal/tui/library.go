// Package tui provides the library list view
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lanz/mediatracker-cli/internal/books"
	"github.com/lanz/mediatracker-cli/internal/pager"
)

// cursorMode is the cursor style of every text input
var cursorMode = cursor.CursorBlink

func newInput() textinput.Model {
	input := textinput.New()
	input.Cursor.SetMode(cursorMode)
	return input
}

type libraryFocus int

const (
	focusList libraryFocus = iota
	focusSearch
	focusPage
)

// nowReadingMark prefixes the title of the book being read
const nowReadingMark = "▶ "

// LibraryModel represents the book list view state
type LibraryModel struct {
	search    textinput.Model
	pageInput textinput.Model
	focus     libraryFocus

	all     []books.Book
	visible []books.Book
	cursor  int

	currentPage   int
	totalPages    int
	totalElements int
	loading       bool

	// nowReading is the title of the book being read, highlighted in the list
	nowReading string

	width int
}

// NewLibraryModel creates a new library view
func NewLibraryModel() *LibraryModel {
	search := newInput()
	search.Placeholder = "Search titles and metadata"
	search.Prompt = "/ "
	search.CharLimit = 100
	search.Width = 40

	pageInput := newInput()
	pageInput.Prompt = "Page "
	pageInput.CharLimit = 6
	pageInput.Width = 6
	pageInput.SetValue("1")

	return &LibraryModel{
		search:    search,
		pageInput: pageInput,
		all:       []books.Book{},
		visible:   []books.Book{},
	}
}

// SetSnapshot replaces the loaded page and pagination state
func (m *LibraryModel) SetSnapshot(snap books.Snapshot) {
	m.all = snap.Items
	m.currentPage = snap.CurrentPage
	m.totalPages = snap.TotalPages
	m.totalElements = snap.TotalElements
	m.loading = snap.Loading
	m.applyFilter()

	// Don't clobber what the user is typing
	if m.focus != focusPage {
		m.pageInput.SetValue(strconv.Itoa(pager.Display(m.currentPage)))
	}
}

// SetNowReading sets the title to highlight; empty clears it
func (m *LibraryModel) SetNowReading(title string) {
	m.nowReading = title
}

// SetWidth sets the available width for cards
func (m *LibraryModel) SetWidth(width int) {
	m.width = width
}

// Selected returns the book under the cursor
func (m LibraryModel) Selected() (books.Book, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return books.Book{}, false
	}
	return m.visible[m.cursor], true
}

// Typing reports whether a text input has focus, so global keys are not stolen
func (m LibraryModel) Typing() bool {
	return m.focus != focusList
}

func (m *LibraryModel) applyFilter() {
	m.visible = books.Search(m.all, m.search.Value())
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *LibraryModel) resetPageInput() {
	m.pageInput.SetValue(strconv.Itoa(pager.Display(m.currentPage)))
}

// Init returns the initial command for the library view
func (m LibraryModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the library view
func (m LibraryModel) Update(msg tea.Msg) (LibraryModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch m.focus {
	case focusSearch:
		return m.updateSearch(keyMsg)
	case focusPage:
		return m.updatePageInput(keyMsg)
	}

	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}

	case "left", "h":
		if pager.CanPrev(m.currentPage) {
			return m, emit(pageRequestMsg{page: m.currentPage - 1})
		}

	case "right", "l":
		if pager.CanNext(m.currentPage, m.totalPages) {
			return m, emit(pageRequestMsg{page: m.currentPage + 1})
		}

	case "/":
		m.focus = focusSearch
		return m, m.search.Focus()

	case "g", ":":
		if m.totalPages > 0 {
			m.focus = focusPage
			m.pageInput.SetValue("")
			return m, m.pageInput.Focus()
		}

	case "esc":
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.applyFilter()
		}

	case "n":
		return m, emit(editBookMsg{book: books.NewDraft()})

	case "enter", "e":
		if book, ok := m.Selected(); ok {
			return m, emit(editBookMsg{book: book.Clone()})
		}

	case "d", "x":
		if book, ok := m.Selected(); ok {
			return m, emit(deleteRequestMsg{book: book})
		}

	case "o":
		// Search for the book being read, like following its link
		if m.nowReading != "" {
			m.search.SetValue(m.nowReading)
			m.cursor = 0
			m.applyFilter()
		}

	case "r":
		return m, emit(refreshRequestMsg{})

	case "q":
		return m, tea.Quit
	}

	return m, nil
}

func (m LibraryModel) updateSearch(msg tea.KeyMsg) (LibraryModel, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", "down":
		m.focus = focusList
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.cursor = 0
	m.applyFilter()
	return m, cmd
}

func (m LibraryModel) updatePageInput(msg tea.KeyMsg) (LibraryModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.focus = focusList
		m.pageInput.Blur()
		page, ok := pager.ParseInput(m.pageInput.Value(), m.currentPage, m.totalPages)
		if !ok || page == m.currentPage {
			m.resetPageInput()
			return m, nil
		}
		return m, emit(pageRequestMsg{page: page})

	case "esc":
		m.focus = focusList
		m.pageInput.Blur()
		m.resetPageInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.pageInput, cmd = m.pageInput.Update(msg)
	return m, cmd
}

// View renders the library list
func (m LibraryModel) View() string {
	var b strings.Builder

	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	switch {
	case len(m.all) == 0 && m.loading:
		b.WriteString(noItemsStyle.Render("Loading books..."))
		b.WriteString("\n")
	case len(m.all) == 0:
		b.WriteString(noItemsStyle.Render("No books yet. Press 'n' to add one."))
		b.WriteString("\n")
	case len(m.visible) == 0:
		b.WriteString(noItemsStyle.Render(fmt.Sprintf("No books on this page match %q", m.search.Value())))
		b.WriteString("\n")
	default:
		for i, book := range m.visible {
			b.WriteString(m.renderCard(book, i == m.cursor))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.paginationView())
	return b.String()
}

func (m LibraryModel) isHighlighted(book books.Book) bool {
	return m.nowReading != "" && book.Title == m.nowReading
}

func (m LibraryModel) renderCard(book books.Book, selected bool) string {
	highlighted := m.isHighlighted(book)

	var body strings.Builder
	title := book.Title
	if highlighted {
		title = nowReadingMark + title
	}
	body.WriteString(cardTitleStyle.Render(title))
	for _, row := range book.Metadata {
		value := row.Value
		if value == "" {
			value = "-"
		}
		body.WriteString("\n")
		body.WriteString(cardKeyStyle.Render(row.Key + ": "))
		body.WriteString(value)
	}

	style := cardStyle
	switch {
	case selected:
		style = selectedCardStyle
	case highlighted:
		style = highlightCardStyle
	}
	if m.width > 4 {
		style = style.Width(m.width - 4)
	}
	return style.Render(body.String())
}

func (m LibraryModel) paginationView() string {
	if m.totalPages == 0 {
		return helpTextStyle.Render("No pages")
	}

	prev := disabledNavStyle.Render("< prev")
	if pager.CanPrev(m.currentPage) {
		prev = navStyle.Render("< prev")
	}
	next := disabledNavStyle.Render("next >")
	if pager.CanNext(m.currentPage, m.totalPages) {
		next = navStyle.Render("next >")
	}

	return fmt.Sprintf("%s  %s of %d  %s  %s",
		prev,
		m.pageInput.View(),
		m.totalPages,
		next,
		helpTextStyle.Render(fmt.Sprintf("(%d books)", m.totalElements)),
	)
}

// Styles for the library view
var (
	noItemsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	helpTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	selectedCardStyle = cardStyle.
				BorderForeground(lipgloss.Color("205"))

	highlightCardStyle = cardStyle.
				BorderForeground(lipgloss.Color("42"))

	cardTitleStyle = lipgloss.NewStyle().
			Bold(true)

	cardKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	navStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	disabledNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("238"))
)
