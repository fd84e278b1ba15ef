package feed

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/abelbrown/reviews/internal/layout"
	"github.com/abelbrown/reviews/internal/rating"
)

// ImageFunc renders the image at url as rows lines of cols cells each.
// Implementations return a placeholder while the image is unavailable.
type ImageFunc func(url string, cols, rows int) []string

// RenderContext carries everything a row needs to draw itself.
type RenderContext struct {
	Width    int
	Selected bool
	Avatar   ImageFunc
	Photo    ImageFunc
}

var (
	usernameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e6e6e6"))
	bodyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#c9d1d9"))
	createdStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
	showMoreStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#58a6ff")).Underline(true)
	summaryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
	markerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#58a6ff"))
	placeholder   = lipgloss.NewStyle().Foreground(lipgloss.Color("#30363d"))
)

const selectionMarker = "▌"

// line accumulates styled segments at absolute columns.
type line struct {
	b   strings.Builder
	col int
}

func (l *line) place(x int, s string) {
	if x > l.col {
		l.b.WriteString(strings.Repeat(" ", x-l.col))
		l.col = x
	}
	l.b.WriteString(s)
	l.col += ansi.StringWidth(s)
}

func (l *line) finish(width int) string {
	if l.col < width {
		l.b.WriteString(strings.Repeat(" ", width-l.col))
	}
	return ansi.Truncate(l.b.String(), width, "")
}

// PlaceholderImage fills a cols×rows block with a neutral texture.
func PlaceholderImage(_ string, cols, rows int) []string {
	out := make([]string, rows)
	for i := range out {
		out[i] = placeholder.Render(strings.Repeat("░", cols))
	}
	return out
}

// lineAt returns the line of lines that covers row y of r, if any.
func lineAt(r layout.Rect, lines []string, y int) (string, bool) {
	if y < r.Y || y >= r.Bottom() {
		return "", false
	}
	i := y - r.Y
	if i >= len(lines) {
		return "", false
	}
	return lines[i], true
}

func renderReview(row ReviewRow, f layout.Frames, ctx RenderContext) []string {
	avatarFn := ctx.Avatar
	if avatarFn == nil {
		avatarFn = PlaceholderImage
	}
	photoFn := ctx.Photo
	if photoFn == nil {
		photoFn = PlaceholderImage
	}

	avatar := avatarFn(row.AvatarURL, f.Avatar.W, f.Avatar.H)
	photos := make([][]string, len(f.Photos))
	for i, pr := range f.Photos {
		photos[i] = photoFn(row.Photos[i], pr.W, pr.H)
	}
	stars := []string{rating.Render(row.Rating)}
	showMore := []string{showMoreStyle.Render(layout.ShowMoreText)}

	out := make([]string, f.Height)
	for y := range out {
		var l line
		if ctx.Selected {
			l.place(0, markerStyle.Render(selectionMarker))
		}
		if s, ok := lineAt(f.Avatar, avatar, y); ok {
			l.place(f.Avatar.X, s)
		}
		if s, ok := lineAt(f.Username, f.UsernameLines, y); ok {
			l.place(f.Username.X, usernameStyle.Render(s))
		}
		if s, ok := lineAt(f.Rating, stars, y); ok {
			l.place(f.Rating.X, s)
		}
		for i, pr := range f.Photos {
			if s, ok := lineAt(pr, photos[i], y); ok {
				l.place(pr.X, s)
			}
		}
		if s, ok := lineAt(f.Text, f.TextLines, y); ok {
			l.place(f.Text.X, bodyStyle.Render(s))
		}
		if s, ok := lineAt(f.ShowMore, showMore, y); ok {
			l.place(f.ShowMore.X, s)
		}
		if s, ok := lineAt(f.Created, f.CreatedLines, y); ok {
			l.place(f.Created.X, createdStyle.Render(s))
		}
		out[y] = l.finish(ctx.Width)
	}
	return out
}

func renderSummary(s SummaryRow, ctx RenderContext) []string {
	out := make([]string, SummaryHeight)
	blank := strings.Repeat(" ", max(ctx.Width, 0))
	for i := range out {
		out[i] = blank
	}
	out[SummaryHeight/2] = lipgloss.PlaceHorizontal(max(ctx.Width, 0), lipgloss.Center, summaryStyle.Render(s.Label()))
	return out
}
