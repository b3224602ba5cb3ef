// Package tui provides the book form drawer with a metadata row editor
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lanz/mediatracker-cli/internal/books"
)

const maxSuggestions = 5

// FormModel edits one book. Only the focused field is a live text input;
// the rest of the draft lives in title and rows.
//
// Focus 0 is the title, then every row contributes a key field (1+2i) and a
// value field (2+2i).
type FormModel struct {
	original books.Book
	title    string
	rows     []books.MetadataRow

	focus int
	input textinput.Model

	knownKeys []string
	err       string
	saving    bool
	width     int
}

// NewFormModel creates a form for book. A book without ID is saved as new.
func NewFormModel(book books.Book, knownKeys []string) *FormModel {
	input := newInput()
	input.CharLimit = 200
	input.Width = 50

	m := &FormModel{
		original:  book,
		title:     book.Title,
		rows:      append([]books.MetadataRow(nil), book.Metadata...),
		input:     input,
		knownKeys: append([]string(nil), knownKeys...),
	}
	m.loadField()
	return m
}

// Draft returns the book as currently edited, including the focused field
func (m FormModel) Draft() books.Book {
	m.commit()
	return books.Book{
		ID:        m.original.ID,
		Title:     m.title,
		Metadata:  append([]books.MetadataRow(nil), m.rows...),
		CreatedAt: m.original.CreatedAt,
	}
}

// IsNew reports whether saving creates a book
func (m FormModel) IsNew() bool {
	return m.original.IsDraft()
}

// SetError shows a save failure and re-enables the form
func (m *FormModel) SetError(err error) {
	m.saving = false
	if err != nil {
		m.err = err.Error()
	}
}

// SetKnownKeys replaces the keys offered as suggestions
func (m *FormModel) SetKnownKeys(keys []string) {
	m.knownKeys = append([]string(nil), keys...)
}

// SetWidth sets the drawer width
func (m *FormModel) SetWidth(width int) {
	m.width = width
}

func (m FormModel) fieldCount() int {
	return 1 + 2*len(m.rows)
}

// rowField splits a focus index into row index and whether it is the key
func rowField(focus int) (row int, isKey bool) {
	return (focus - 1) / 2, (focus-1)%2 == 0
}

// commit writes the input value back into the draft
func (m *FormModel) commit() {
	value := m.input.Value()
	if m.focus == 0 {
		m.title = value
		return
	}
	i, isKey := rowField(m.focus)
	if i >= len(m.rows) {
		return
	}
	if isKey {
		m.rows = books.UpdateRow(m.rows, i, value, m.rows[i].Value)
	} else {
		m.rows = books.UpdateRow(m.rows, i, m.rows[i].Key, value)
	}
}

// loadField puts the focused field's value into the input
func (m *FormModel) loadField() {
	switch {
	case m.focus == 0:
		m.input.Prompt = "Title: "
		m.input.Placeholder = "Title"
		m.input.SetValue(m.title)
	default:
		i, isKey := rowField(m.focus)
		if isKey {
			m.input.Prompt = "Key: "
			m.input.Placeholder = "e.g. Author"
			m.input.SetValue(m.rows[i].Key)
		} else {
			m.input.Prompt = "Value: "
			m.input.Placeholder = "Value"
			m.input.SetValue(m.rows[i].Value)
		}
	}
	m.input.CursorEnd()
	m.input.Focus()
}

// moveFocus commits the current field and focuses to. Leaving a key field
// with a key nobody has used yet offers it for later rows.
func (m *FormModel) moveFocus(to int) tea.Cmd {
	m.commit()
	cmd := m.claimKey()

	if to < 0 {
		to = m.fieldCount() - 1
	}
	if to >= m.fieldCount() {
		to = 0
	}
	m.focus = to
	m.loadField()
	return cmd
}

// claimKey registers the focused key locally when it is new
func (m *FormModel) claimKey() tea.Cmd {
	if m.focus == 0 {
		return nil
	}
	i, isKey := rowField(m.focus)
	if !isKey || i >= len(m.rows) {
		return nil
	}
	key := strings.TrimSpace(m.rows[i].Key)
	if key == "" || m.isKnown(key) {
		return nil
	}
	m.knownKeys = append(m.knownKeys, key)
	sort.Strings(m.knownKeys)
	return emit(addKeyMsg{key: key})
}

func (m FormModel) isKnown(key string) bool {
	for _, k := range m.knownKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Suggestions returns known keys matching the focused key field
func (m FormModel) Suggestions() []string {
	if m.focus == 0 {
		return nil
	}
	if _, isKey := rowField(m.focus); !isKey {
		return nil
	}

	typed := strings.ToLower(strings.TrimSpace(m.input.Value()))
	var out []string
	for _, k := range m.knownKeys {
		if strings.EqualFold(k, typed) {
			continue
		}
		if typed == "" || strings.Contains(strings.ToLower(k), typed) {
			out = append(out, k)
		}
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

// Init returns the initial command
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the form
func (m FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if m.saving {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		return m, emit(cancelMsg{})

	case "ctrl+s":
		m.commit()
		claim := m.claimKey()
		m.saving = true
		m.err = ""
		return m, tea.Batch(claim, emit(saveBookMsg{book: m.Draft()}))

	case "tab", "down", "enter":
		return m, m.moveFocus(m.focus + 1)

	case "shift+tab", "up":
		return m, m.moveFocus(m.focus - 1)

	case "ctrl+n":
		m.commit()
		claim := m.claimKey()
		m.rows = append(m.rows, books.NewRow("", ""))
		m.focus = m.fieldCount() - 2
		m.loadField()
		return m, claim

	case "ctrl+d":
		if m.focus == 0 {
			return m, nil
		}
		m.commit()
		i, _ := rowField(m.focus)
		m.rows = books.RemoveRow(m.rows, i)
		if m.focus >= m.fieldCount() {
			m.focus = m.fieldCount() - 1
		}
		m.loadField()
		return m, nil

	case "alt+up", "alt+down":
		if m.focus == 0 {
			return m, nil
		}
		m.commit()
		i, isKey := rowField(m.focus)
		to := i + 1
		if keyMsg.String() == "alt+up" {
			to = i - 1
		}
		if to < 0 || to >= len(m.rows) {
			return m, nil
		}
		m.rows = books.MoveRow(m.rows, i, to)
		m.focus = 1 + 2*to
		if !isKey {
			m.focus++
		}
		m.loadField()
		return m, nil

	case "ctrl+f":
		if suggestions := m.Suggestions(); len(suggestions) > 0 {
			m.input.SetValue(suggestions[0])
			m.input.CursorEnd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(keyMsg)
	return m, cmd
}

// View renders the form drawer
func (m FormModel) View() string {
	var b strings.Builder

	heading := "Edit Book"
	if m.IsNew() {
		heading = "Add Book"
	}
	b.WriteString(formTitleStyle.Render(heading))
	b.WriteString("\n\n")

	if m.focus == 0 {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(blurredFieldStyle.Render("Title: " + m.title))
	}
	b.WriteString("\n\n")
	b.WriteString(sectionStyle.Render("Metadata"))
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(noItemsStyle.Render("No metadata. Press ctrl+n to add a row."))
		b.WriteString("\n")
	}

	for i, row := range m.rows {
		b.WriteString(m.rowView(i, row))
		b.WriteString("\n")
	}

	if suggestions := m.Suggestions(); len(suggestions) > 0 {
		b.WriteString(suggestionStyle.Render("  keys: " + strings.Join(suggestions, ", ") + "  (ctrl+f to fill)"))
		b.WriteString("\n")
	} else if m.focus > 0 {
		if _, isKey := rowField(m.focus); isKey {
			typed := strings.TrimSpace(m.input.Value())
			if typed != "" && !m.isKnown(typed) {
				b.WriteString(suggestionStyle.Render(fmt.Sprintf("  + create key %q", typed)))
				b.WriteString("\n")
			}
		}
	}

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.saving {
		b.WriteString(helpTextStyle.Render("Saving..."))
	} else {
		b.WriteString(helpTextStyle.Render(
			"tab/shift+tab: move • ctrl+n: add row • ctrl+d: remove row • alt+↑/↓: reorder • ctrl+s: save • esc: cancel"))
	}

	style := drawerStyle
	if m.width > 4 {
		style = style.Width(m.width - 4)
	}
	return style.Render(b.String())
}

func (m FormModel) rowView(i int, row books.MetadataRow) string {
	keyField, valueField := 1+2*i, 2+2*i

	key := blurredFieldStyle.Render(fmt.Sprintf("%-16s", row.Key))
	value := blurredFieldStyle.Render(row.Value)
	switch m.focus {
	case keyField:
		key = m.input.View()
	case valueField:
		value = m.input.View()
	}

	marker := "  "
	if m.focus == keyField || m.focus == valueField {
		marker = "> "
	}
	return marker + key + "  " + value
}

// Styles for the form drawer
var (
	formTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	blurredFieldStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250"))

	suggestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	drawerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
)
