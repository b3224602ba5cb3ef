package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lanz/mediatracker-cli/internal/books"
	"github.com/lanz/mediatracker-cli/internal/collection"
	"github.com/lanz/mediatracker-cli/internal/output"
	"github.com/lanz/mediatracker-cli/internal/pager"
)

// BooksCommand groups the book subcommands
type BooksCommand struct{}

// NewBooksCommand creates the books command
func NewBooksCommand(groupId string) *cobra.Command {
	bc := &BooksCommand{}

	cmd := &cobra.Command{
		Use:     "books",
		Aliases: []string{"book"},
		Short:   "Manage the books in your library",
		Long: `List, show, add, update and delete books.

Every book has a title and an ordered list of metadata entries (key=value),
for example Author=Frank Herbert or Status=Now Reading.`,
		GroupID: groupId,
	}

	cmd.AddCommand(
		bc.newListCommand(),
		bc.newShowCommand(),
		bc.newAddCommand(),
		bc.newUpdateCommand(),
		bc.newDeleteCommand(),
		bc.newKeysCommand(),
		bc.newNowReadingCommand(),
	)

	return cmd
}

func (c *BooksCommand) newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books one page at a time",
		Long: `List books one page at a time, sorted by title.

Examples:
  # First page
  mt books list

  # Third page, only books mentioning "herbert"
  mt books list --page 3 --search herbert

  # Everything, as JSON
  mt books list --all --format json`,
		Args: cobra.NoArgs,
		RunE: c.runList,
	}

	cmd.Flags().Int("page", 1, "Page number to show (1-based)")
	cmd.Flags().Bool("all", false, "Fetch every book instead of a single page")
	cmd.Flags().String("search", "", "Only show books whose title or metadata values contain this text")
	cmd.Flags().String("format", "table", "Output format (table, json, yaml)")

	return cmd
}

func (c *BooksCommand) newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [book-id]",
		Short: "Show details of a book",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runShow,
	}

	cmd.Flags().String("format", "table", "Output format (table, json, yaml)")

	return cmd
}

func (c *BooksCommand) newAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Long: `Add a book to the library.

Metadata entries keep the order they are given in. When the same key is
given twice the later value wins.

Examples:
  mt books add --title Dune --meta 'Author=Frank Herbert' --meta 'Status=Now Reading'`,
		Args: cobra.NoArgs,
		RunE: c.runAdd,
	}

	cmd.Flags().String("title", "", "Book title")
	cmd.Flags().StringArray("meta", []string{}, "Metadata entry in format 'key=value' (repeatable)")
	cmd.Flags().Bool("quiet", false, "Suppress non-error output")

	return cmd
}

func (c *BooksCommand) newUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [book-id]",
		Short: "Update a book",
		Long: `Update the title or metadata of a book.

Existing entries are changed in place and new keys are appended. Use --unset
to remove every entry with a key, or --replace to drop all existing metadata
before applying --meta.

Examples:
  mt books update 4f1c... --meta Status=Finished
  mt books update 4f1c... --title 'Dune Messiah' --unset Series`,
		Args: cobra.ExactArgs(1),
		RunE: c.runUpdate,
	}

	cmd.Flags().String("title", "", "New title")
	cmd.Flags().StringArray("meta", []string{}, "Metadata entry in format 'key=value' (repeatable)")
	cmd.Flags().StringArray("unset", []string{}, "Metadata key to remove (repeatable)")
	cmd.Flags().Bool("replace", false, "Replace all metadata with the given --meta entries")
	cmd.Flags().Bool("quiet", false, "Suppress non-error output")

	return cmd
}

func (c *BooksCommand) newDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [book-id]",
		Short: "Delete a book",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runDelete,
	}

	cmd.Flags().Bool("quiet", false, "Suppress non-error output")

	return cmd
}

func (c *BooksCommand) newKeysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List every metadata key used in the library",
		Args:  cobra.NoArgs,
		RunE:  c.runKeys,
	}

	cmd.Flags().String("format", "table", "Output format (table, json, yaml)")

	return cmd
}

func (c *BooksCommand) newNowReadingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "now-reading",
		Short: "Show the book you are reading now",
		Long: `Show the first book in the library whose Status is "Now Reading".

The whole library is searched, not only the first page.`,
		Args: cobra.NoArgs,
		RunE: c.runNowReading,
	}

	cmd.Flags().String("format", "table", "Output format (table, json, yaml)")
	cmd.Flags().Bool("quiet", false, "Suppress non-error output")

	return cmd
}

func newPrinter(cmd *cobra.Command) (*output.Printer, error) {
	quiet, _ := cmd.Flags().GetBool("quiet")

	format := output.FormatTable
	if cmd.Flags().Lookup("format") != nil {
		raw, _ := cmd.Flags().GetString("format")
		parsed, err := output.ParseFormat(raw)
		if err != nil {
			return nil, err
		}
		format = parsed
	}

	return output.NewPrinterWithWriter(cmd.OutOrStdout(), format, quiet), nil
}

func (c *BooksCommand) runList(cmd *cobra.Command, args []string) error {
	library, err := RequireLibrary(cmd.Context())
	if err != nil {
		return err
	}

	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	page, _ := cmd.Flags().GetInt("page")
	all, _ := cmd.Flags().GetBool("all")
	query, _ := cmd.Flags().GetString("search")

	if all {
		return c.listAll(cmd, printer, query)
	}

	if page < 1 {
		return fmt.Errorf("page must be 1 or greater, got %d", page)
	}

	if err := library.Store().SetPage(cmd.Context(), page-1); err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}

	snap := library.Snapshot()
	if snap.TotalPages > 0 && snap.CurrentPage != page-1 {
		printer.Warning(fmt.Sprintf("Page %d does not exist, showing page %d", page, pager.Display(snap.CurrentPage)))
	}

	return printer.PrintBooks(books.Search(snap.Items, query), &output.Page{
		Number:        snap.CurrentPage,
		TotalPages:    snap.TotalPages,
		TotalElements: snap.TotalElements,
	})
}

// loadAll refreshes a separate unpaged library over the same client
func loadAll(cmd *cobra.Command) (*books.Library, error) {
	client, err := RequireClient(cmd.Context())
	if err != nil {
		return nil, err
	}

	opts := collection.Options{Unpaged: true, Logger: GetLogger(cmd.Context())}
	if cfg := GetConfig(cmd.Context()); cfg != nil {
		opts.Collection = cfg.Collection
	}

	library, err := books.NewHTTPLibrary(client, opts)
	if err != nil {
		return nil, err
	}
	if err := library.Store().Refresh(cmd.Context()); err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return library, nil
}

func (c *BooksCommand) listAll(cmd *cobra.Command, printer *output.Printer, query string) error {
	library, err := loadAll(cmd)
	if err != nil {
		return err
	}
	return printer.PrintBooks(library.Books(query), nil)
}

func (c *BooksCommand) runNowReading(cmd *cobra.Command, args []string) error {
	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	library, err := loadAll(cmd)
	if err != nil {
		return err
	}

	book, ok := books.NowReading(library.Snapshot().Items)
	if !ok {
		printer.Info(fmt.Sprintf("No book has %s %q", books.StatusKey, books.StatusNowReading))
		return nil
	}
	return printer.PrintBook(book)
}

func (c *BooksCommand) runShow(cmd *cobra.Command, args []string) error {
	library, err := RequireLibrary(cmd.Context())
	if err != nil {
		return err
	}

	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	book, err := library.GetBook(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load book %s: %w", args[0], err)
	}

	return printer.PrintBook(book)
}

func (c *BooksCommand) runAdd(cmd *cobra.Command, args []string) error {
	library, err := RequireLibrary(cmd.Context())
	if err != nil {
		return err
	}

	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	title, _ := cmd.Flags().GetString("title")
	metaFlags, _ := cmd.Flags().GetStringArray("meta")

	entries, err := parseMetaFlags(metaFlags)
	if err != nil {
		return err
	}

	book := books.Book{Title: title, Metadata: entries}
	if err := library.AddBook(cmd.Context(), book); err != nil {
		return fmt.Errorf("failed to add book: %w", err)
	}

	printer.Success(fmt.Sprintf("Book '%s' added successfully", title))
	return nil
}

func (c *BooksCommand) runUpdate(cmd *cobra.Command, args []string) error {
	library, err := RequireLibrary(cmd.Context())
	if err != nil {
		return err
	}

	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	metaFlags, _ := cmd.Flags().GetStringArray("meta")
	unset, _ := cmd.Flags().GetStringArray("unset")
	replace, _ := cmd.Flags().GetBool("replace")

	entries, err := parseMetaFlags(metaFlags)
	if err != nil {
		return err
	}

	book, err := library.GetBook(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load book %s: %w", args[0], err)
	}

	if cmd.Flags().Changed("title") {
		book.Title, _ = cmd.Flags().GetString("title")
	}
	book.Metadata = applyMetadataChanges(book.Metadata, entries, unset, replace)

	if err := library.UpdateBook(cmd.Context(), book); err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}

	printer.Success(fmt.Sprintf("Book '%s' updated successfully", book.Title))
	return nil
}

func (c *BooksCommand) runDelete(cmd *cobra.Command, args []string) error {
	library, err := RequireLibrary(cmd.Context())
	if err != nil {
		return err
	}

	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	if err := library.DeleteBook(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	printer.Success(fmt.Sprintf("Book %s deleted successfully", args[0]))
	return nil
}

func (c *BooksCommand) runKeys(cmd *cobra.Command, args []string) error {
	client, err := RequireClient(cmd.Context())
	if err != nil {
		return err
	}

	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	name := books.Collection
	if cfg := GetConfig(cmd.Context()); cfg != nil {
		name = cfg.Collection
	}

	// The store treats key fetches as best effort; here a failure should
	// reach the user, so ask the client directly
	keys, err := client.ListMetadataKeys(cmd.Context(), name)
	if err != nil {
		return fmt.Errorf("failed to list metadata keys: %w", err)
	}

	return printer.PrintKeys(sortedUnique(keys))
}

// parseMetaFlags parses 'key=value' flags into rows, keeping their order
func parseMetaFlags(flags []string) ([]books.MetadataRow, error) {
	rows := make([]books.MetadataRow, 0, len(flags))
	for _, f := range flags {
		key, value, ok := strings.Cut(f, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata entry %q (want key=value)", f)
		}
		rows = append(rows, books.NewRow(key, value))
	}
	return rows, nil
}

// applyMetadataChanges drops unset keys, then sets each entry on the first row
// with the same key or appends it
func applyMetadataChanges(rows, entries []books.MetadataRow, unset []string, replace bool) []books.MetadataRow {
	if replace {
		rows = nil
	}

	drop := make(map[string]bool, len(unset))
	for _, k := range unset {
		drop[k] = true
	}

	out := make([]books.MetadataRow, 0, len(rows)+len(entries))
	for _, row := range rows {
		if !drop[row.Key] {
			out = append(out, row)
		}
	}

	for _, entry := range entries {
		found := false
		for i := range out {
			if out[i].Key == entry.Key {
				out = books.UpdateRow(out, i, entry.Key, entry.Value)
				found = true
				break
			}
		}
		if !found {
			out = append(out, entry)
		}
	}
	return out
}

func sortedUnique(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
