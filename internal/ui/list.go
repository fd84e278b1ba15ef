package ui

import (
	"sort"
	"strings"

	"github.com/abelbrown/reviews/internal/feed"
	"github.com/abelbrown/reviews/internal/layout"
	"github.com/abelbrown/reviews/internal/otel"
)

// VisibleRow is the part of one row that intersects the viewport.
type VisibleRow struct {
	Index int
	Top   int // content y of the row's first line
	From  int // first visible line within the row
	To    int // one past the last visible line within the row
}

// List adapts pager snapshots to a virtualized list: row count, per-row
// frames through the shared HeightCache, per-row rendering, and the window
// of rows a viewport shows.
type List struct {
	measure feed.Measurer
	events  *otel.Logger
	rows    []feed.Row
	heights *feed.HeightCache
	width   int

	// tops[i] is the content y of row i; tops[len(rows)] is the content
	// height. Rebuilt lazily after any change.
	tops  []int
	dirty bool
}

// NewList creates an empty list measured by m.
func NewList(m feed.Measurer) *List {
	return &List{measure: m, heights: feed.NewHeightCache(), dirty: true}
}

// SetSnapshot replaces the rows and adopts the snapshot's height cache.
func (l *List) SetSnapshot(s feed.Snapshot) {
	l.rows = s.Rows
	if s.Heights != nil {
		l.heights = s.Heights
	}
	l.dirty = true
}

// SetWidth changes the measuring width. Cached heights belong to one width,
// so a change drops them all.
func (l *List) SetWidth(w int) {
	if w == l.width {
		return
	}
	l.width = w
	l.heights.Reset()
	l.dirty = true
}

// Width returns the measuring width.
func (l *List) Width() int { return l.width }

// Len returns the number of rows.
func (l *List) Len() int { return len(l.rows) }

// Row returns row i.
func (l *List) Row(i int) feed.Row { return l.rows[i] }

// Index returns the position of the row with id.
func (l *List) Index(id feed.RowID) (int, bool) {
	for i, r := range l.rows {
		if r.ID() == id {
			return i, true
		}
	}
	return 0, false
}

// RowFrames returns the layout of row i, measuring and caching on a miss.
func (l *List) RowFrames(i int) layout.Frames {
	r := l.rows[i]
	if f, ok := l.heights.Frames(r.ID()); ok {
		return f
	}
	f := r.Measure(l.measure, l.width)
	l.heights.Put(r.ID(), f)
	l.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMeasure, Comp: "list", Row: string(r.ID()), Count: f.Height})
	return f
}

// RowHeight returns the height of row i.
func (l *List) RowHeight(i int) int {
	return l.RowFrames(i).Height
}

func (l *List) layout() {
	if !l.dirty && len(l.tops) == len(l.rows)+1 {
		return
	}
	l.tops = l.tops[:0]
	y := 0
	for i := range l.rows {
		l.tops = append(l.tops, y)
		y += l.RowHeight(i)
	}
	l.tops = append(l.tops, y)
	l.dirty = false
}

// Invalidate forces the row positions to be recomputed.
func (l *List) Invalidate() { l.dirty = true }

// ContentHeight returns the total height of all rows.
func (l *List) ContentHeight() int {
	l.layout()
	return l.tops[len(l.rows)]
}

// RowTop returns the content y of row i.
func (l *List) RowTop(i int) int {
	l.layout()
	return l.tops[i]
}

// RowAt returns the row covering content y and the line within it.
func (l *List) RowAt(y int) (index, line int, ok bool) {
	l.layout()
	if y < 0 || y >= l.tops[len(l.rows)] {
		return 0, 0, false
	}
	i := sort.Search(len(l.rows), func(i int) bool { return l.tops[i+1] > y })
	return i, y - l.tops[i], true
}

// Visible returns the rows intersecting [offset, offset+height).
func (l *List) Visible(offset, height int) []VisibleRow {
	l.layout()
	if height <= 0 || len(l.rows) == 0 {
		return nil
	}
	end := offset + height
	first := sort.Search(len(l.rows), func(i int) bool { return l.tops[i+1] > offset })

	var out []VisibleRow
	for i := first; i < len(l.rows) && l.tops[i] < end; i++ {
		top := l.tops[i]
		out = append(out, VisibleRow{
			Index: i,
			Top:   top,
			From:  max(offset-top, 0),
			To:    min(end, l.tops[i+1]) - top,
		})
	}
	return out
}

// Render draws row i at the list width.
func (l *List) Render(i int, ctx feed.RenderContext) []string {
	ctx.Width = l.width
	return l.rows[i].RenderFrames(l.RowFrames(i), ctx)
}

// View renders exactly height lines of content starting at offset.
// selected marks one row; ctx supplies image renderers.
func (l *List) View(offset, height, selected int, ctx feed.RenderContext) string {
	if height <= 0 {
		return ""
	}
	lines := make([]string, 0, height)
	for _, v := range l.Visible(offset, height) {
		c := ctx
		c.Selected = v.Index == selected
		rendered := l.Render(v.Index, c)
		to := min(v.To, len(rendered))
		if v.From < to {
			lines = append(lines, rendered[v.From:to]...)
		}
	}
	blank := strings.Repeat(" ", max(l.width, 0))
	for len(lines) < height {
		lines = append(lines, blank)
	}
	return strings.Join(lines[:height], "\n")
}
