package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lanz/mediatracker-cli/internal/books"
)

// ConfirmModel asks before a book is deleted
type ConfirmModel struct {
	book     books.Book
	deleting bool
}

// NewConfirmModel creates a delete confirmation for book
func NewConfirmModel(book books.Book) *ConfirmModel {
	return &ConfirmModel{book: book}
}

// Update handles messages for the confirmation
func (m ConfirmModel) Update(msg tea.Msg) (ConfirmModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.deleting {
		return m, nil
	}

	switch strings.ToLower(keyMsg.String()) {
	case "y", "enter":
		m.deleting = true
		return m, emit(confirmDeleteMsg{id: m.book.ID})
	case "n", "esc":
		return m, emit(cancelMsg{})
	}
	return m, nil
}

// View renders the confirmation dialog
func (m ConfirmModel) View() string {
	title := m.book.Title
	if title == "" {
		title = "this book"
	}

	body := dangerStyle.Render(fmt.Sprintf("Delete %q?", title)) +
		"\n\nThis cannot be undone.\n\n"
	if m.deleting {
		body += helpTextStyle.Render("Deleting...")
	} else {
		body += helpTextStyle.Render("y: delete • n/esc: keep")
	}
	return dialogStyle.Render(body)
}

// Styles for the confirmation dialog
var (
	dangerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(1, 3)
)
