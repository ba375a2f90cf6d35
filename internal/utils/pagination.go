// Package utils provides small query-parsing helpers for list endpoints.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Page resolves page and page size query values. Missing or invalid values
// fall back to page 1 and defSize; the size is capped at maxSize.
func Page(rawPage, rawSize string, defSize, maxSize int) (page, size int) {
	page = max(AtoiDefault(rawPage, 1), 1)
	size = min(max(AtoiDefault(rawSize, defSize), 1), maxSize)
	return page, size
}

// Offset is the number of rows to skip for page.
func Offset(page, size int) int {
	return (max(page, 1) - 1) * size
}
