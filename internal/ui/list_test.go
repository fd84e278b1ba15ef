package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/abelbrown/reviews/internal/feed"
	"github.com/abelbrown/reviews/internal/layout"
	"github.com/abelbrown/reviews/internal/otel"
)

// fixedMeasurer gives every review the same height and counts calls.
type fixedMeasurer struct {
	height int
	calls  int
}

func (m *fixedMeasurer) Measure(layout.Content, int) layout.Frames {
	m.calls++
	return layout.Frames{Height: m.height}
}

func testSnapshot(reviews int) feed.Snapshot {
	var rows []feed.Row
	for i := 0; i < reviews; i++ {
		rows = append(rows, feed.ReviewItem(feed.ReviewRow{ID: feed.NewRowID(), Rating: 3, Username: "u"}))
	}
	rows = append(rows, feed.SummaryItem(reviews))
	return feed.Snapshot{Rows: rows, Heights: feed.NewHeightCache()}
}

func TestListLayout(t *testing.T) {
	m := &fixedMeasurer{height: 5}
	l := NewList(m)
	l.SetWidth(40)
	l.SetSnapshot(testSnapshot(4))

	if got, want := l.ContentHeight(), 4*5+feed.SummaryHeight; got != want {
		t.Errorf("ContentHeight = %d, want %d", got, want)
	}
	if l.RowTop(2) != 10 {
		t.Errorf("RowTop(2) = %d, want 10", l.RowTop(2))
	}

	i, line, ok := l.RowAt(12)
	if !ok || i != 2 || line != 2 {
		t.Errorf("RowAt(12) = %d,%d,%v want 2,2,true", i, line, ok)
	}
	if _, _, ok := l.RowAt(l.ContentHeight()); ok {
		t.Error("RowAt past the end should miss")
	}
	if _, _, ok := l.RowAt(-1); ok {
		t.Error("RowAt before the start should miss")
	}
}

func TestListVisibleWindow(t *testing.T) {
	l := NewList(&fixedMeasurer{height: 5})
	l.SetWidth(40)
	l.SetSnapshot(testSnapshot(4))

	vis := l.Visible(7, 6)
	if len(vis) != 2 {
		t.Fatalf("visible rows = %d, want 2", len(vis))
	}
	if vis[0].Index != 1 || vis[0].From != 2 || vis[0].To != 5 {
		t.Errorf("first visible = %+v", vis[0])
	}
	if vis[1].Index != 2 || vis[1].From != 0 || vis[1].To != 3 {
		t.Errorf("second visible = %+v", vis[1])
	}
	if l.Visible(0, 0) != nil {
		t.Error("zero height shows nothing")
	}
}

func TestListHeightsAreCached(t *testing.T) {
	m := &fixedMeasurer{height: 5}
	l := NewList(m)
	l.SetWidth(40)
	s := testSnapshot(3)
	l.SetSnapshot(s)

	l.ContentHeight()
	first := m.calls
	if first != 3 {
		t.Errorf("measure calls = %d, want one per review", first)
	}

	l.Invalidate()
	l.ContentHeight()
	if m.calls != first {
		t.Error("relayout should reuse cached heights")
	}

	s.Heights.Invalidate(s.Rows[1].ID())
	l.Invalidate()
	l.ContentHeight()
	if m.calls != first+1 {
		t.Errorf("only the invalidated row is re-measured, calls %d", m.calls)
	}
}

func TestListRedrawReusesFrames(t *testing.T) {
	m := &fixedMeasurer{height: 5}
	l := NewList(m)
	l.SetWidth(40)
	l.SetSnapshot(testSnapshot(3))

	l.View(0, 20, 0, feed.RenderContext{})
	if m.calls != 3 {
		t.Fatalf("measure calls = %d, want one per review", m.calls)
	}
	for i := 0; i < 10; i++ {
		l.View(i, 20, i%3, feed.RenderContext{})
		l.RowFrames(1)
	}
	if m.calls != 3 {
		t.Errorf("redraws re-measured rows, calls = %d", m.calls)
	}
}

func TestListEmitsMeasureOnMiss(t *testing.T) {
	var buf bytes.Buffer
	events := otel.NewLogger(&buf)
	l := NewList(&fixedMeasurer{height: 5})
	l.events = events
	l.SetWidth(40)
	l.SetSnapshot(testSnapshot(2))

	l.ContentHeight()
	l.View(0, 10, 0, feed.RenderContext{})
	l.ContentHeight()
	events.Close()

	if got := strings.Count(buf.String(), string(otel.KindMeasure)); got != 3 {
		t.Errorf("measure events = %d, want one per row (2 reviews + summary)", got)
	}
}

func TestListWidthChangeResetsHeights(t *testing.T) {
	m := &fixedMeasurer{height: 5}
	l := NewList(m)
	l.SetWidth(40)
	s := testSnapshot(3)
	l.SetSnapshot(s)
	l.ContentHeight()

	l.SetWidth(40)
	if s.Heights.Len() != 4 {
		t.Error("same width keeps the cache")
	}

	l.SetWidth(60)
	if s.Heights.Len() != 0 {
		t.Error("a new width drops cached heights")
	}
	m.height = 7
	if got, want := l.ContentHeight(), 3*7+feed.SummaryHeight; got != want {
		t.Errorf("ContentHeight = %d, want %d", got, want)
	}
}

func TestListView(t *testing.T) {
	l := NewList(&fixedMeasurer{height: 2})
	l.SetWidth(10)
	l.SetSnapshot(testSnapshot(1))

	view := l.View(0, 8, 0, feed.RenderContext{})
	lines := strings.Split(view, "\n")
	if len(lines) != 8 {
		t.Fatalf("View lines = %d, want 8", len(lines))
	}
	if !strings.Contains(view, "1 review") {
		t.Errorf("view should include the summary, got:\n%s", view)
	}
	if !strings.Contains(lines[0], "▌") {
		t.Error("selected row should carry the marker")
	}
	if strings.TrimSpace(lines[7]) != "" {
		t.Error("rows past the end pad with blanks")
	}
}

func TestListIndex(t *testing.T) {
	l := NewList(&fixedMeasurer{height: 2})
	s := testSnapshot(2)
	l.SetSnapshot(s)

	if i, ok := l.Index(s.Rows[1].ID()); !ok || i != 1 {
		t.Errorf("Index = %d,%v want 1,true", i, ok)
	}
	if _, ok := l.Index("missing"); ok {
		t.Error("unknown id should miss")
	}
}
