package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/reviews/internal/feed"
)

// photoViewer is the full-screen overlay that shows one review's photos.
type photoViewer struct {
	urls    []string
	index   int
	caption string
}

func newPhotoViewer(row feed.ReviewRow) *photoViewer {
	return &photoViewer{urls: row.Photos, caption: row.Username}
}

func (v *photoViewer) current() string {
	return v.urls[v.index]
}

func (v *photoViewer) next() {
	v.index = (v.index + 1) % len(v.urls)
}

func (v *photoViewer) prev() {
	v.index = (v.index - 1 + len(v.urls)) % len(v.urls)
}

// view draws the current photo centred in width×height. The caption and
// close hint take the first line, the position the last.
func (v *photoViewer) view(width, height int, render feed.ImageFunc) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	top := ViewerClose.Render("esc ✕") + "  " + ViewerCaption.Render(truncateCells(v.caption, max(width-9, 1)))
	bottom := ViewerCaption.Render(fmt.Sprintf("%d / %d", v.index+1, len(v.urls)))

	imgRows := max(height-4, 1)
	imgCols := max(min(width-4, imgRows*4), 1)
	photo := strings.Join(render(v.current(), imgCols, imgRows), "\n")

	body := lipgloss.Place(width, max(height-2, 1), lipgloss.Center, lipgloss.Center, photo)
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.PlaceHorizontal(width, lipgloss.Left, top),
		body,
		lipgloss.PlaceHorizontal(width, lipgloss.Center, bottom),
	)
}
