package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lanz/mediatracker-cli/internal/books"
)

func sampleBooks() []books.Book {
	return []books.Book{
		{
			ID:    "b1",
			Title: "Dune",
			Metadata: []books.MetadataRow{
				books.NewRow("Status", "Now Reading"),
				books.NewRow("Author", "Frank Herbert"),
			},
		},
		{ID: "b2", Title: "Hyperion"},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "table": FormatTable, "JSON": FormatJSON, " yaml ": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("csv")
	assert.Error(t, err)
}

func TestPrintBooksTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterWithWriter(&buf, FormatTable, false)

	require.NoError(t, p.PrintBooks(sampleBooks(), &Page{Number: 0, TotalPages: 3, TotalElements: 42}))

	out := buf.String()
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Dune")
	assert.Contains(t, out, "Status: Now Reading; Author: Frank Herbert")
	assert.Contains(t, out, "Page 1 of 3 (42 books)")
}

func TestPrintBooksTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterWithWriter(&buf, FormatTable, false)

	require.NoError(t, p.PrintBooks(nil, &Page{}))
	assert.Equal(t, "No books found\n", buf.String())
}

func TestPrintBooksJSONKeepsMetadataOrder(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterWithWriter(&buf, FormatJSON, false)

	require.NoError(t, p.PrintBooks(sampleBooks(), nil))

	out := buf.String()
	assert.Less(t, strings.Index(out, `"Status"`), strings.Index(out, `"Author"`))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Dune", decoded[0]["title"])
	assert.Equal(t, map[string]interface{}{}, decoded[1]["metadata"])
}

func TestPrintBookYAML(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterWithWriter(&buf, FormatYAML, false)

	require.NoError(t, p.PrintBook(sampleBooks()[0]))

	out := buf.String()
	assert.Less(t, strings.Index(out, "Status:"), strings.Index(out, "Author:"))

	var decoded struct {
		ID       string            `yaml:"id"`
		Title    string            `yaml:"title"`
		Metadata map[string]string `yaml:"metadata"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "b1", decoded.ID)
	assert.Equal(t, "Frank Herbert", decoded.Metadata["Author"])
}

func TestPrintBookTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterWithWriter(&buf, FormatTable, false)

	require.NoError(t, p.PrintBook(sampleBooks()[1]))
	assert.Contains(t, buf.String(), "Title: Hyperion")
	assert.Contains(t, buf.String(), "No metadata defined")
}

func TestPrintKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinterWithWriter(&buf, FormatTable, false).PrintKeys([]string{"Author", "Status"}))
	assert.Equal(t, "Author\nStatus\n", buf.String())

	buf.Reset()
	require.NoError(t, NewPrinterWithWriter(&buf, FormatJSON, false).PrintKeys([]string{"Author"}))
	assert.JSONEq(t, `["Author"]`, buf.String())
}

func TestQuietSuppressesMessages(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterWithWriter(&buf, FormatTable, true)

	p.Success("saved")
	p.Info("hello")
	p.Warning("careful")
	assert.Empty(t, buf.String())

	p = NewPrinterWithWriter(&buf, FormatTable, false)
	p.Info("hello")
	assert.Equal(t, "ℹ hello\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
