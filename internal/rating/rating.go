// Package rating renders a 1–5 review rating as a row of star glyphs.
package rating

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Max is the highest rating a review can carry.
const Max = 5

// Width is the number of terminal cells a rendered rating occupies.
const Width = Max

const (
	filledGlyph = "★"
	emptyGlyph  = "☆"
)

var (
	filledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb400"))
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5a5a5a"))
)

// clamp keeps rating inside [0, Max].
func clamp(rating int) int {
	switch {
	case rating < 0:
		return 0
	case rating > Max:
		return Max
	default:
		return rating
	}
}

// Plain returns the unstyled glyph row.
func Plain(rating int) string {
	n := clamp(rating)
	return strings.Repeat(filledGlyph, n) + strings.Repeat(emptyGlyph, Max-n)
}

// Render returns the styled glyph row.
func Render(rating int) string {
	n := clamp(rating)
	return filledStyle.Render(strings.Repeat(filledGlyph, n)) +
		emptyStyle.Render(strings.Repeat(emptyGlyph, Max-n))
}
