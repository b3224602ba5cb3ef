// Package pager holds the pagination rules shared by the CLI and the TUI.
// Pages are 0-indexed internally and shown 1-indexed.
package pager

import (
	"strconv"
	"strings"
)

// DefaultPageSize is the number of items requested per page
const DefaultPageSize = 20

// Display converts an internal page index to the number shown to users
func Display(page int) int {
	return page + 1
}

// CanPrev reports whether a previous page exists
func CanPrev(current int) bool {
	return current > 0
}

// CanNext reports whether a next page exists
func CanNext(current, totalPages int) bool {
	return current < totalPages-1
}

// InRange reports whether page is a valid internal index
func InRange(page, totalPages int) bool {
	return page >= 0 && page < totalPages
}

// ParseInput interprets a typed page number. A number in [1, totalPages]
// yields its internal index and true. Anything else yields current and
// false, and the caller reverts the input to Display(current).
func ParseInput(text string, current, totalPages int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 || n > totalPages {
		return current, false
	}
	return n - 1, true
}

// Clamp pulls page back into [0, totalPages-1]; with no pages it returns 0
func Clamp(page, totalPages int) int {
	if totalPages <= 0 || page < 0 {
		return 0
	}
	if page >= totalPages {
		return totalPages - 1
	}
	return page
}
