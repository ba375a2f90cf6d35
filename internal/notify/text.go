// Package notify turns orders into notification text.
//
// Everything here is pure: formatting, chunk planning, deduplication and
// channel eligibility take plain values and return plain values. The
// delivery engine in package services supplies storage and transport.
package notify

import (
	"strings"
	"unicode/utf16"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	// MaxTextLength is the character ceiling for one text message.
	MaxTextLength = 3900
	// MaxBlocksPerMessage caps how many orders one summary message lists.
	MaxBlocksPerMessage = 5

	ellipsis = "…"
)

// TextLength is the length of s in UTF-16 code units, the unit both
// messaging platforms count message limits in. Characters outside the
// basic multilingual plane (most emoji) count as two.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

// shorten trims v and caps it at max characters, marking cuts with an
// ellipsis. A non-positive max only trims.
func shorten(v string, max int) string {
	v = strings.TrimSpace(v)
	if v == "" || max <= 0 {
		return v
	}
	return truncateTo(v, max)
}

// truncate caps text at MaxTextLength characters.
func truncate(text string) string { return truncateTo(text, MaxTextLength) }

// truncateTo cuts text at the last whole rune that leaves room for the
// ellipsis within max units.
func truncateTo(text string, max int) string {
	if TextLength(text) <= max {
		return text
	}
	n := 0
	for i, r := range text {
		u := runeUnits(r)
		if n+u > max-1 {
			return text[:i] + ellipsis
		}
		n += u
	}
	return text
}

// linesLength is the character length of lines joined by newlines.
func linesLength(lines []string) int {
	n := 0
	for i, l := range lines {
		if i > 0 {
			n++
		}
		n += TextLength(l)
	}
	return n
}

var printer = message.NewPrinter(language.English)

// currency renders v as ฿ with grouping and at most three fraction digits.
func currency(v float64) string {
	return "฿" + printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// count renders an integer with grouping separators.
func count(n int) string {
	return printer.Sprint(number.Decimal(n))
}
