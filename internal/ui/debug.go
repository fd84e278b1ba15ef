package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/reviews/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// listStats is the live pager state shown above the event stats.
type listStats struct {
	Rows, Offset, Total, Cached int
	ShouldLoad                  bool
	LastErr                     error
}

// debugOverlay renders the debug panel showing list state, event counters
// and recent events. Pure function with no side effects. Returns empty
// string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, ls listStats, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("List"))
	lines = append(lines, fmt.Sprintf("  Rows:       %d (offset %d of %d), %d heights cached",
		ls.Rows, ls.Offset, ls.Total, ls.Cached))
	lines = append(lines, fmt.Sprintf("  Gate:       shouldLoad=%t", ls.ShouldLoad))
	if ls.LastErr != nil {
		lines = append(lines, "  Last error: "+truncateCells(ls.LastErr.Error(), 60))
	}
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Event Stats"))
	lines = append(lines, fmt.Sprintf("  Pages:      %d requested, %d loaded, %d errors, %d stale",
		stats[otel.KindPageRequest], stats[otel.KindPageLoaded], stats[otel.KindPageError], stats[otel.KindPageStale]))
	lines = append(lines, fmt.Sprintf("  Rows:       %d expanded, %d refreshes, %d measured",
		stats[otel.KindRowExpand], stats[otel.KindListRefresh], stats[otel.KindMeasure]))
	lines = append(lines, fmt.Sprintf("  Images:     %d loaded, %d failed",
		stats[otel.KindImageLoad], stats[otel.KindImageError]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-14s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.Offset != 0 || e.Kind == otel.KindPageRequest || e.Kind == otel.KindPageLoaded {
			line += fmt.Sprintf("  @%d", e.Offset)
		}
		if e.Row != "" {
			line += "  row:" + truncateCells(e.Row, 8)
		}
		if e.Msg != "" {
			line += "  " + truncateCells(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateCells(e.Err, 30)
		}
		lines = append(lines, line)
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := max(height-debugPanelChrome, 1)
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := min(76, width-4)
	panelWidth = max(panelWidth, 20)

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// truncateCells shortens s to at most n display cells, ending with "…".
func truncateCells(s string, n int) string {
	return runewidth.Truncate(s, n, "…")
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("ctrl+d") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("[DEBUG]  " + keys)
}
