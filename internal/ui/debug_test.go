package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/reviews/internal/otel"
)

func TestDebugOverlayNilRing(t *testing.T) {
	result := debugOverlay(nil, listStats{}, 80, 24)
	if result != "" {
		t.Errorf("debugOverlay(nil) should return empty string, got %q", result)
	}
}

func TestDebugOverlayRendersStats(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindPageRequest, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindPageLoaded, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindPageRequest, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindPageError, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindRowExpand, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindMeasure, Time: time.Now()})

	result := debugOverlay(ring, listStats{Rows: 21, Offset: 20, Total: 45, Cached: 9, ShouldLoad: true}, 80, 40)

	if !strings.Contains(result, "Event Stats") {
		t.Error("overlay should contain 'Event Stats' header")
	}
	if !strings.Contains(result, "2 requested, 1 loaded, 1 errors, 0 stale") {
		t.Errorf("overlay should show page stats, got:\n%s", result)
	}
	if !strings.Contains(result, "1 expanded, 0 refreshes, 1 measured") {
		t.Errorf("overlay should show row stats, got:\n%s", result)
	}
	if !strings.Contains(result, "6 / 64 events") {
		t.Errorf("overlay should show buffer stats, got:\n%s", result)
	}
	if !strings.Contains(result, "21 (offset 20 of 45), 9 heights cached") {
		t.Errorf("overlay should show list state, got:\n%s", result)
	}
	if !strings.Contains(result, "shouldLoad=true") {
		t.Errorf("overlay should show the load gate, got:\n%s", result)
	}
}

func TestDebugOverlayShowsLastError(t *testing.T) {
	ring := otel.NewRingBuffer(8)
	result := debugOverlay(ring, listStats{LastErr: errors.New("connection refused")}, 80, 40)
	if !strings.Contains(result, "Last error: connection refused") {
		t.Errorf("overlay should show the last page error, got:\n%s", result)
	}
}

func TestDebugOverlayRecentEvents(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindPageLoaded, Time: time.Now(), Offset: 20, Msg: "hello world"})
	ring.Push(otel.Event{Kind: otel.KindPageError, Time: time.Now(), Err: "timeout"})
	ring.Push(otel.Event{Kind: otel.KindRowExpand, Time: time.Now(), Row: "abcdef1234567890"})

	result := debugOverlay(ring, listStats{}, 80, 40)

	if !strings.Contains(result, "Recent Events") {
		t.Error("overlay should contain 'Recent Events' header")
	}
	if !strings.Contains(result, "@20") {
		t.Errorf("overlay should show page offset, got:\n%s", result)
	}
	if !strings.Contains(result, "hello world") {
		t.Errorf("overlay should show event message, got:\n%s", result)
	}
	if !strings.Contains(result, "ERR:timeout") {
		t.Errorf("overlay should show error, got:\n%s", result)
	}
	if !strings.Contains(result, "row:abcdef1") {
		t.Errorf("overlay should show truncated row ID, got:\n%s", result)
	}
}

func TestDebugOverlayTruncation(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	for i := 0; i < 30; i++ {
		ring.Push(otel.Event{Kind: otel.KindPageRequest, Time: time.Now()})
	}

	// Very small height should still render without panic
	result := debugOverlay(ring, listStats{}, 80, 10)
	if result == "" {
		t.Error("overlay should still render with small height")
	}

	// With height=10, maxHeight=6, plus border and padding
	lines := strings.Count(result, "\n")
	if lines > 12 {
		t.Errorf("overlay should be truncated, got %d lines", lines)
	}
}

func TestDebugToggle(t *testing.T) {
	ring := otel.NewRingBuffer(16)
	app := newTestApp(t, &fakeSource{total: 5}, ObsConfig{Ring: ring})

	if app.debugVisible {
		t.Error("debug should be hidden initially")
	}

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	if !app.debugVisible {
		t.Fatal("ctrl+d should show debug overlay")
	}

	view := app.View()
	if !strings.Contains(view, "[DEBUG]") {
		t.Errorf("debug view should contain '[DEBUG]', got:\n%s", view)
	}

	// List keys are ignored while the overlay is up.
	app.Update(keyRune('j'))
	if app.Selected() != 0 {
		t.Error("overlay should swallow list keys")
	}

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	if app.debugVisible {
		t.Error("second ctrl+d should hide debug overlay")
	}
}

func TestDebugToggleWithoutRing(t *testing.T) {
	app := newTestApp(t, &fakeSource{total: 5}, ObsConfig{})
	app.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	if app.debugVisible {
		t.Error("overlay needs a ring buffer")
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		dur  time.Duration
		want string
	}{
		{0, "0ms"},
		{50 * time.Millisecond, "50ms"},
		{999 * time.Millisecond, "999ms"},
		{1500 * time.Millisecond, "1.5s"},
		{30 * time.Second, "30.0s"},
		{90 * time.Second, "2m"}, // 1.5 minutes rounds to 2 with %.0f
		{5 * time.Minute, "5m"},
	}
	for _, tt := range tests {
		got := formatAge(tt.dur)
		if got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.dur, got, tt.want)
		}
	}
}

func TestFormatAgeNegative(t *testing.T) {
	got := formatAge(-5 * time.Second)
	if got != "0ms" {
		t.Errorf("formatAge(-5s) = %q, want \"0ms\"", got)
	}
}

func TestTruncateCells(t *testing.T) {
	if got := truncateCells("abcdef", 4); got != "abc…" {
		t.Errorf("truncateCells = %q, want %q", got, "abc…")
	}
	if got := truncateCells("ab", 4); got != "ab" {
		t.Errorf("short strings pass through, got %q", got)
	}
}
