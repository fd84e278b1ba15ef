// Package layout computes the frames of a review row inside a fixed-width
// terminal column and the total height the row needs.
//
// All coordinates are terminal cells: X counts columns from the left edge
// of the row, Y counts rows from its top edge. A line of text is one row.
package layout

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/abelbrown/reviews/internal/rating"
)

// ShowMoreText is the label of the expand affordance.
const ShowMoreText = "Show more…"

// Rect is an axis-aligned frame. The zero Rect is the empty frame.
type Rect struct {
	X, Y, W, H int
}

// Empty reports whether r has zero area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Bottom is the first row below r.
func (r Rect) Bottom() int { return r.Y + r.H }

// Right is the first column right of r.
func (r Rect) Right() int { return r.X + r.W }

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return !r.Empty() && x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Insets are margins between the row edge and its content.
type Insets struct {
	Top, Left, Bottom, Right int
}

// Metrics is the fixed visual grid of a review row.
type Metrics struct {
	Insets Insets

	AvatarWidth  int
	AvatarHeight int

	// AvatarToUsername is the horizontal gap between avatar and right column.
	AvatarToUsername int
	UsernameToRating int

	RatingWidth  int
	RatingHeight int

	RatingToText   int
	RatingToPhotos int
	PhotoWidth     int
	PhotoHeight    int
	PhotosSpacing  int
	PhotosToText   int

	TextToCreated     int
	ShowMoreToCreated int

	ShowMoreWidth  int
	ShowMoreHeight int
}

// Default returns the metrics the list renders with.
func Default() Metrics {
	return Metrics{
		Insets:            Insets{Top: 1, Left: 2, Bottom: 1, Right: 2},
		AvatarWidth:       6,
		AvatarHeight:      3,
		AvatarToUsername:  2,
		UsernameToRating:  0,
		RatingWidth:       ansi.StringWidth(rating.Plain(rating.Max)),
		RatingHeight:      1,
		RatingToText:      1,
		RatingToPhotos:    1,
		PhotoWidth:        8,
		PhotoHeight:       4,
		PhotosSpacing:     1,
		PhotosToText:      1,
		TextToCreated:     0,
		ShowMoreToCreated: 0,
		ShowMoreWidth:     ansi.StringWidth(ShowMoreText),
		ShowMoreHeight:    1,
	}
}

// Content is the measurable part of a review row.
type Content struct {
	Username string
	Body     string
	Created  string
	// MaxLines caps the body; 0 means unlimited.
	MaxLines int
	// Photos is the number of photo thumbnails attached to the review.
	Photos int
}

// Frames is the result of a measurement.
type Frames struct {
	Avatar   Rect
	Username Rect
	Rating   Rect
	// Photos holds one frame per thumbnail that fits the column.
	Photos   []Rect
	Text     Rect
	ShowMore Rect
	Created  Rect

	UsernameLines []string
	// TextLines are the body lines actually shown (already capped).
	TextLines    []string
	CreatedLines []string

	ShowMoreRequired bool
	Height           int
}

// Engine measures rows with a fixed set of metrics.
type Engine struct {
	m Metrics
}

// New creates an Engine.
func New(m Metrics) *Engine {
	return &Engine{m: m}
}

// Metrics returns the metrics the engine lays out with.
func (e *Engine) Metrics() Metrics { return e.m }

// Measure lays a row out within maxWidth cells.
func (e *Engine) Measure(c Content, maxWidth int) Frames {
	m := e.m
	var f Frames

	contentWidth := maxWidth - m.Insets.Left - m.Insets.Right
	maxY := m.Insets.Top

	f.Avatar = Rect{X: m.Insets.Left, Y: maxY, W: m.AvatarWidth, H: m.AvatarHeight}

	rightX := f.Avatar.Right() + m.AvatarToUsername
	rightWidth := contentWidth - m.AvatarWidth - m.AvatarToUsername
	if rightWidth < 1 {
		rightWidth = 1
	}

	f.UsernameLines = wrap(c.Username, rightWidth)
	f.Username = Rect{X: rightX, Y: maxY, W: min(maxLineWidth(f.UsernameLines), rightWidth), H: len(f.UsernameLines)}
	maxY = f.Username.Bottom() + m.UsernameToRating

	f.Rating = Rect{X: rightX, Y: maxY, W: m.RatingWidth, H: m.RatingHeight}

	if c.Photos > 0 && m.PhotoWidth > 0 && m.PhotoHeight > 0 {
		maxY = f.Rating.Bottom() + m.RatingToPhotos
		x := rightX
		for i := 0; i < c.Photos; i++ {
			if x+m.PhotoWidth > rightX+rightWidth {
				break
			}
			f.Photos = append(f.Photos, Rect{X: x, Y: maxY, W: m.PhotoWidth, H: m.PhotoHeight})
			x += m.PhotoWidth + m.PhotosSpacing
		}
		if len(f.Photos) > 0 {
			maxY += m.PhotoHeight + m.PhotosToText
		}
	} else {
		maxY = f.Rating.Bottom() + m.RatingToText
	}

	if body := strings.TrimRight(c.Body, " \t\n"); body != "" {
		all := wrap(body, rightWidth)
		shown := all
		// A line is one row, so the capped height is simply MaxLines.
		if c.MaxLines != 0 && len(all) > c.MaxLines {
			shown = all[:c.MaxLines]
			f.ShowMoreRequired = true
		}
		f.TextLines = shown
		f.Text = Rect{X: rightX, Y: maxY, W: maxLineWidth(shown), H: len(shown)}
		maxY = f.Text.Bottom() + m.TextToCreated
	}

	if f.ShowMoreRequired {
		f.ShowMore = Rect{X: rightX, Y: maxY, W: min(m.ShowMoreWidth, rightWidth), H: m.ShowMoreHeight}
		maxY = f.ShowMore.Bottom() + m.ShowMoreToCreated
	}

	f.CreatedLines = wrap(c.Created, rightWidth)
	f.Created = Rect{X: rightX, Y: maxY, W: maxLineWidth(f.CreatedLines), H: len(f.CreatedLines)}
	maxY = f.Created.Bottom()

	f.Height = max(f.Avatar.Bottom(), maxY) + m.Insets.Bottom
	return f
}

// wrap breaks s into lines no wider than width cells. Long words are
// broken hard. Empty input yields no lines.
func wrap(s string, width int) []string {
	if s == "" {
		return nil
	}
	wrapped := ansi.Wrap(s, width, "")
	lines := strings.Split(wrapped, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return lines
}

func maxLineWidth(lines []string) int {
	w := 0
	for _, l := range lines {
		w = max(w, ansi.StringWidth(l))
	}
	return w
}
