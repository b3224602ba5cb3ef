// Package output provides formatted terminal output for books.
// This centralizes all printing and formatting logic away from command modules.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/lanz/mediatracker-cli/internal/api"
	"github.com/lanz/mediatracker-cli/internal/books"
	"github.com/lanz/mediatracker-cli/internal/pager"
)

// Format represents different output formats
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a --format value
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unsupported format %q (want table, json or yaml)", s)
}

// Page describes where a printed list sits in the collection
type Page struct {
	Number        int
	TotalPages    int
	TotalElements int
}

// Printer handles formatted output to the terminal
type Printer struct {
	writer io.Writer
	format Format
	quiet  bool
}

// NewPrinterWithWriter creates a new printer with a custom writer
func NewPrinterWithWriter(writer io.Writer, format Format, quiet bool) *Printer {
	return &Printer{
		writer: writer,
		format: format,
		quiet:  quiet,
	}
}

// Success prints a success message
func (p *Printer) Success(message string) {
	if !p.quiet {
		fmt.Fprintf(p.writer, "✓ %s\n", message)
	}
}

// Warning prints a warning message
func (p *Printer) Warning(message string) {
	if !p.quiet {
		fmt.Fprintf(p.writer, "⚠ %s\n", message)
	}
}

// Info prints an informational message
func (p *Printer) Info(message string) {
	if !p.quiet {
		fmt.Fprintf(p.writer, "ℹ %s\n", message)
	}
}

// PrintBooks prints a list of books. page may be nil for unpaged lists.
func (p *Printer) PrintBooks(list []books.Book, page *Page) error {
	switch p.format {
	case FormatTable:
		return p.printBooksTable(list, page)
	case FormatJSON:
		docs := make([]bookDoc, 0, len(list))
		for _, b := range list {
			docs = append(docs, newBookDoc(b))
		}
		return p.printJSON(docs)
	case FormatYAML:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, b := range list {
			seq.Content = append(seq.Content, bookNode(b))
		}
		return p.printYAML(seq)
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

// PrintBook prints a single book with one line per metadata row
func (p *Printer) PrintBook(b books.Book) error {
	switch p.format {
	case FormatTable:
		return p.printBookTable(b)
	case FormatJSON:
		return p.printJSON(newBookDoc(b))
	case FormatYAML:
		return p.printYAML(bookNode(b))
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

// PrintKeys prints the known metadata keys
func (p *Printer) PrintKeys(keys []string) error {
	switch p.format {
	case FormatTable:
		if len(keys) == 0 {
			fmt.Fprintf(p.writer, "No metadata keys found\n")
			return nil
		}
		for _, k := range keys {
			fmt.Fprintln(p.writer, k)
		}
		return nil
	case FormatJSON:
		return p.printJSON(keys)
	case FormatYAML:
		return p.printYAML(keys)
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

// bookDoc is the JSON document printed for a book. Metadata keeps row order.
type bookDoc struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Metadata api.Metadata `json:"metadata"`
}

func newBookDoc(b books.Book) bookDoc {
	return bookDoc{ID: b.ID, Title: b.Title, Metadata: books.ToWire(b).Metadata}
}

// bookNode builds an ordered YAML mapping for a book
func bookNode(b books.Book) *yaml.Node {
	metadata := &yaml.Node{Kind: yaml.MappingNode}
	for _, entry := range books.ToWire(b).Metadata {
		metadata.Content = append(metadata.Content,
			scalar(entry.Key),
			scalar(api.StringValue(entry.Value)),
		)
	}

	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			scalar("id"), scalar(b.ID),
			scalar("title"), scalar(b.Title),
			scalar("metadata"), metadata,
		},
	}
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// printBooksTable prints a list of books in table format
func (p *Printer) printBooksTable(list []books.Book, page *Page) error {
	if len(list) == 0 {
		fmt.Fprintf(p.writer, "No books found\n")
	} else {
		rows := make([][]string, 0, len(list))
		for _, b := range list {
			rows = append(rows, []string{b.ID, truncate(b.Title, 50), truncate(summarize(b.Metadata), 60)})
		}
		fmt.Fprintln(p.writer, renderTable([]string{"ID", "TITLE", "METADATA"}, rows))
	}

	if page != nil && page.TotalPages > 0 {
		fmt.Fprintf(p.writer, "Page %d of %d (%d books)\n", pager.Display(page.Number), page.TotalPages, page.TotalElements)
	}
	return nil
}

// printBookTable prints a book in table format
func (p *Printer) printBookTable(b books.Book) error {
	fmt.Fprintf(p.writer, "Title: %s\n", b.Title)
	fmt.Fprintf(p.writer, "ID: %s\n", b.ID)

	fmt.Fprintf(p.writer, "\nMetadata:\n")
	if len(b.Metadata) == 0 {
		fmt.Fprintf(p.writer, "  No metadata defined\n")
		return nil
	}

	rows := make([][]string, 0, len(b.Metadata))
	for _, row := range b.Metadata {
		rows = append(rows, []string{row.Key, row.Value})
	}
	fmt.Fprintln(p.writer, renderTable([]string{"KEY", "VALUE"}, rows))
	return nil
}

func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// summarize joins rows as "key: value; key: value"
func summarize(rows []books.MetadataRow) string {
	parts := make([]string, 0, len(rows))
	for _, row := range rows {
		parts = append(parts, row.Key+": "+row.Value)
	}
	return strings.Join(parts, "; ")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// printJSON prints any object as JSON
func (p *Printer) printJSON(obj interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(obj)
}

// printYAML prints any object, or a prepared *yaml.Node, as YAML
func (p *Printer) printYAML(obj interface{}) error {
	encoder := yaml.NewEncoder(p.writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(obj); err != nil {
		return err
	}
	return encoder.Close()
}
