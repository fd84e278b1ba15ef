package feed

// All Pager methods run on the owner goroutine (the Bubble Tea Update loop).
// The only work that leaves it is Source.Fetch, which runs inside the
// tea.Cmd returned by RequestPage and comes back as a PageLoaded message.
// ShouldLoad is cleared before that command is built and restored only in
// OnPageResult, so no lock guards State.

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/abelbrown/reviews/internal/errors"
	"github.com/abelbrown/reviews/internal/logging"
	"github.com/abelbrown/reviews/internal/otel"
	"github.com/abelbrown/reviews/internal/review"
)

// DefaultLimit is the page size used when Config.Limit is zero.
const DefaultLimit = 20

// DefaultPrefetchScreens is how many viewport heights of content may remain
// below the projected scroll offset before the next page is requested.
const DefaultPrefetchScreens = 2.5

// Source fetches one raw page payload. Implementations must resolve exactly
// once per call and may block; they never run on the owner goroutine.
type Source interface {
	Fetch(ctx context.Context, offset, limit int) ([]byte, error)
}

// PageLoaded carries a fetch result back to the owner goroutine.
type PageLoaded struct {
	Generation uint64
	Offset     int
	Payload    []byte
	Err        error
	Dur        time.Duration
}

// EventKind identifies what a row asks its owner to do.
type EventKind int

const (
	EventExpand EventKind = iota
)

// Event is emitted by a row affordance. Rows never hold a reference back to
// the pager; the UI routes events through Pager.Dispatch.
type Event struct {
	Kind EventKind
	ID   RowID
}

// Expand builds the event a show-more affordance emits.
func Expand(id RowID) Event {
	return Event{Kind: EventExpand, ID: id}
}

// State is the pagination state owned by a Pager.
type State struct {
	Rows             []Row
	Limit            int
	Offset           int
	Total            int
	ShouldLoad       bool
	IsInitialLoading bool
	IsRefreshing     bool
	Heights          *HeightCache

	index map[RowID]int
}

// Snapshot is the view of State handed to observers. Rows is a copy; Heights
// is shared and must only be touched on the owner goroutine.
type Snapshot struct {
	Rows             []Row
	Limit            int
	Offset           int
	Total            int
	ShouldLoad       bool
	IsInitialLoading bool
	IsRefreshing     bool
	Heights          *HeightCache

	// ImageURLs lists avatar and photo URLs of rows merged by the result
	// that produced this snapshot. Empty for every other notification.
	ImageURLs []string

	// LastErr is the most recent page failure, nil after a success.
	LastErr error
}

// Config configures a Pager. Zero fields take defaults.
type Config struct {
	Limit           int
	PrefetchScreens float64
	// MaxLines is the truncation limit of new rows. Zero takes
	// DefaultMaxLines; a negative value starts every row expanded.
	MaxLines int
	// Context is passed to Source.Fetch. Defaults to context.Background.
	Context context.Context
	// Events receives page and row events. May be nil.
	Events *otel.Logger
	// Now anchors relative creation dates. Defaults to time.Now.
	Now func() time.Time
}

// Pager is the pagination state machine: it owns the row list and the
// fetch cursor and decides when the next page is requested.
type Pager struct {
	state    State
	src      Source
	ctx      context.Context
	events   *otel.Logger
	log      *log.Logger
	now      func() time.Time
	prefetch float64
	maxLines int

	generation uint64
	closed     bool
	lastErr    error
	newURLs    []string

	observers map[int]func(Snapshot)
	nextObs   int
}

// NewPager creates a pager ready to load its first page.
func NewPager(src Source, cfg Config) *Pager {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.PrefetchScreens <= 0 {
		cfg.PrefetchScreens = DefaultPrefetchScreens
	}
	if cfg.MaxLines < 0 {
		cfg.MaxLines = 0
	} else if cfg.MaxLines == 0 {
		cfg.MaxLines = DefaultMaxLines
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Pager{
		state: State{
			Limit:      cfg.Limit,
			ShouldLoad: true,
			Heights:    NewHeightCache(),
			index:      make(map[RowID]int),
		},
		src:       src,
		ctx:       cfg.Context,
		events:    cfg.Events,
		log:       logging.WithPrefix("pager"),
		now:       cfg.Now,
		prefetch:  cfg.PrefetchScreens,
		maxLines:  cfg.MaxLines,
		observers: make(map[int]func(Snapshot)),
	}
}

// Subscribe registers fn to receive every state change. The returned func
// removes it.
func (p *Pager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	id := p.nextObs
	p.nextObs++
	p.observers[id] = fn
	return func() { delete(p.observers, id) }
}

// Snapshot returns the current state.
func (p *Pager) Snapshot() Snapshot {
	rows := make([]Row, len(p.state.Rows))
	copy(rows, p.state.Rows)
	return Snapshot{
		Rows:             rows,
		Limit:            p.state.Limit,
		Offset:           p.state.Offset,
		Total:            p.state.Total,
		ShouldLoad:       p.state.ShouldLoad,
		IsInitialLoading: p.state.IsInitialLoading,
		IsRefreshing:     p.state.IsRefreshing,
		Heights:          p.state.Heights,
		LastErr:          p.lastErr,
	}
}

func (p *Pager) notify() {
	if p.closed || len(p.observers) == 0 {
		p.newURLs = nil
		return
	}
	snap := p.Snapshot()
	snap.ImageURLs = p.newURLs
	p.newURLs = nil
	for _, fn := range p.observers {
		fn(snap)
	}
}

// RequestPage starts loading the page at the current offset. It returns nil
// while a fetch is already in flight or no more pages exist.
func (p *Pager) RequestPage() tea.Cmd {
	if p.closed || !p.state.ShouldLoad {
		p.log.Debug("page gated", "offset", p.state.Offset, "closed", p.closed)
		return nil
	}
	p.state.ShouldLoad = false

	if p.state.Offset == 0 && !p.state.IsRefreshing && !p.state.IsInitialLoading {
		p.state.IsInitialLoading = true
		p.notify()
	}

	gen := p.generation
	offset := p.state.Offset
	limit := p.state.Limit
	src := p.src
	ctx := p.ctx

	p.log.Debug("page requested", "offset", offset, "limit", limit, "generation", gen)
	p.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindPageRequest, Comp: "pager", Offset: offset, Count: limit})

	return func() tea.Msg {
		start := time.Now()
		payload, err := src.Fetch(ctx, offset, limit)
		return PageLoaded{
			Generation: gen,
			Offset:     offset,
			Payload:    payload,
			Err:        err,
			Dur:        time.Since(start),
		}
	}
}

// OnPageResult merges a fetch result. Failures are absorbed: the row list
// and offset stay as they were and the pager becomes eligible to retry.
func (p *Pager) OnPageResult(msg PageLoaded) {
	if p.closed {
		return
	}
	if msg.Generation != p.generation {
		// A refresh superseded this fetch and owns the gate now.
		p.log.Debug("stale page dropped", "offset", msg.Offset, "generation", msg.Generation, "current", p.generation)
		p.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindPageStale, Comp: "pager", Offset: msg.Offset})
		return
	}

	items, err := p.merge(msg)
	if err != nil {
		p.lastErr = err
		p.state.ShouldLoad = true
		p.log.Warn("page failed", "offset", msg.Offset, "kind", errors.KindOf(err), "err", err)
		p.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindPageError, Comp: "pager", Offset: msg.Offset, Dur: msg.Dur, Err: err.Error()})
	} else {
		p.lastErr = nil
		p.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindPageLoaded, Comp: "pager",
			Offset: msg.Offset, Count: items, Total: p.state.Total, Dur: msg.Dur})
	}

	p.state.IsInitialLoading = false
	p.state.IsRefreshing = false
	p.notify()
}

// merge applies a page result and returns the number of reviews merged.
func (p *Pager) merge(msg PageLoaded) (int, error) {
	if msg.Err != nil {
		if errors.KindOf(msg.Err) == errors.KindUnknown {
			return 0, errors.Transport("feed.Fetch", msg.Err)
		}
		return 0, msg.Err
	}

	page, err := review.Decode(msg.Payload)
	if err != nil {
		return 0, err
	}

	if p.state.Offset == 0 {
		p.state.Rows = p.state.Rows[:0]
		clear(p.state.index)
		p.state.Heights.Reset()
	} else {
		p.removeSummary()
	}

	now := p.now()
	var urls []string
	for _, rv := range page.Items {
		row := NewReviewRow(rv, now)
		row.MaxLines = p.maxLines
		p.append(ReviewItem(row))
		if row.AvatarURL != "" {
			urls = append(urls, row.AvatarURL)
		}
		urls = append(urls, row.Photos...)
	}
	p.append(SummaryItem(page.Count))

	p.state.Total = page.Count
	p.state.Offset += p.state.Limit
	p.state.ShouldLoad = p.state.Offset < p.state.Total
	p.newURLs = urls

	p.log.Debug("page merged", "offset", msg.Offset, "items", len(page.Items), "total", page.Count, "rows", len(p.state.Rows))
	return len(page.Items), nil
}

func (p *Pager) append(r Row) {
	p.state.index[r.ID()] = len(p.state.Rows)
	p.state.Rows = append(p.state.Rows, r)
}

func (p *Pager) removeSummary() {
	i, ok := p.state.index[SummaryID]
	if !ok {
		return
	}
	delete(p.state.index, SummaryID)
	p.state.Rows = append(p.state.Rows[:i], p.state.Rows[i+1:]...)
	// The summary is always last, so no other index shifts.
}

// Refresh reloads the list from the first page. A fetch already in flight
// is superseded; its result will be dropped.
func (p *Pager) Refresh() tea.Cmd {
	if p.closed {
		return nil
	}
	p.generation++
	p.state.Offset = 0
	p.state.ShouldLoad = true
	p.state.IsRefreshing = true

	p.log.Debug("refresh", "generation", p.generation)
	p.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindListRefresh, Comp: "pager"})
	cmd := p.RequestPage()
	p.notify()
	return cmd
}

// ExpandRow removes the truncation limit of a review row and invalidates
// its cached height. Unknown ids, summary rows and rows already expanded
// are ignored; the return value reports whether anything changed.
func (p *Pager) ExpandRow(id RowID) bool {
	i, ok := p.state.index[id]
	if !ok {
		p.log.Debug("expand ignored", "err", errors.RowNotFound(string(id)))
		return false
	}
	row := &p.state.Rows[i]
	if row.Kind != KindReview || row.Review.MaxLines == 0 {
		return false
	}

	row.Review.MaxLines = 0
	p.state.Heights.Invalidate(id)

	p.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindRowExpand, Comp: "pager", Row: string(id)})
	p.notify()
	return true
}

// Dispatch handles an event emitted by a row.
func (p *Pager) Dispatch(ev Event) bool {
	switch ev.Kind {
	case EventExpand:
		return p.ExpandRow(ev.ID)
	default:
		return false
	}
}

// ScrollPositionChanged requests the next page once less than
// PrefetchScreens viewports of content remain below projected. Firing
// repeatedly near the threshold is harmless.
func (p *Pager) ScrollPositionChanged(viewport, content, projected int) tea.Cmd {
	remaining := content - viewport - projected
	if float64(remaining) > float64(viewport)*p.prefetch {
		return nil
	}
	return p.RequestPage()
}

// Close detaches observers. Results that arrive afterwards are dropped.
func (p *Pager) Close() {
	p.closed = true
	clear(p.observers)
}

// Closed reports whether Close was called.
func (p *Pager) Closed() bool {
	return p.closed
}
