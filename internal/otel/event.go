// Package otel records what the review list does as typed JSONL events.
//
// A Logger writes events asynchronously through a buffered channel drained
// by one goroutine. An attached RingBuffer keeps the most recent events in
// memory for the debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event as "<subsystem>.<action>".
type EventKind string

const (
	// Pagination
	KindPageRequest EventKind = "page.request"
	KindPageLoaded  EventKind = "page.loaded"
	KindPageError   EventKind = "page.error"
	KindPageStale   EventKind = "page.stale"

	// List interaction
	KindRowExpand   EventKind = "row.expand"
	KindListRefresh EventKind = "list.refresh"
	KindMeasure     EventKind = "list.measure"

	// Images
	KindImageLoad  EventKind = "image.load"
	KindImageError EventKind = "image.error"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Message tracing, only with REVIEWS_TRACE set
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is one observability record. Every field except Kind and Time is
// optional.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // "pager", "list", "images", "main"
	SessionID string         `json:"session_id,omitempty"` // same for the whole run
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Offset    int            `json:"offset,omitempty"`
	Count     int            `json:"count,omitempty"`
	Total     int            `json:"total,omitempty"`
	Row       string         `json:"row,omitempty"`
	URL       string         `json:"url,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON converts Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := struct {
		alias
	}{alias: alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
