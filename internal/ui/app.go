package ui

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/abelbrown/reviews/internal/feed"
	"github.com/abelbrown/reviews/internal/images"
	"github.com/abelbrown/reviews/internal/otel"
)

// wheelStep is how many lines one mouse wheel notch scrolls.
const wheelStep = 3

// maxImageLines bounds the rendered image cache.
const maxImageLines = 512

// ObsConfig holds observability dependencies for the App.
type ObsConfig struct {
	Ring   *otel.RingBuffer // nil disables the debug overlay
	Events *otel.Logger
}

// AppConfig holds all dependencies for the App.
type AppConfig struct {
	Pager  *feed.Pager
	Engine feed.Measurer
	Images *images.Loader // nil draws placeholders only

	Obs ObsConfig

	SmoothScroll bool
	Context      context.Context
}

type imageKey struct {
	url        string
	cols, rows int
}

// App is the root Bubble Tea model.
// App does NOT fetch pages itself. The pager hands it commands whose
// results come back as feed.PageLoaded messages.
type App struct {
	pager  *feed.Pager
	list   *List
	images *images.Loader
	ctx    context.Context
	ring   *otel.RingBuffer
	events *otel.Logger

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	snap        feed.Snapshot
	pendingURLs []string
	unsubscribe func()

	selected   int
	selectedID feed.RowID

	// scrollTarget is where the list is heading; scrollPos trails it
	// through the spring when smooth scrolling is on.
	scrollTarget int
	scrollPos    float64
	scrollVel    float64
	spring       harmonica.Spring
	smooth       bool
	animating    bool
	spinning     bool

	width, height int
	ready         bool
	debugVisible  bool
	viewer        *photoViewer
	imageLines    map[imageKey][]string
}

// NewApp creates the App and subscribes it to the pager.
func NewApp(cfg AppConfig) *App {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	a := &App{
		pager:      cfg.Pager,
		list:       NewList(cfg.Engine),
		images:     cfg.Images,
		ctx:        ctx,
		ring:       cfg.Obs.Ring,
		events:     cfg.Obs.Events,
		keys:       defaultKeyMap(),
		help:       help.New(),
		spinner:    s,
		spring:     harmonica.NewSpring(harmonica.FPS(60), 6.0, 0.8),
		smooth:     cfg.SmoothScroll,
		imageLines: make(map[imageKey][]string),
	}
	a.list.events = cfg.Obs.Events
	a.unsubscribe = a.pager.Subscribe(a.onSnapshot)
	a.onSnapshot(a.pager.Snapshot())
	return a
}

// onSnapshot adopts a pager notification and keeps the selection on the
// same row when it is still present.
func (a *App) onSnapshot(s feed.Snapshot) {
	a.snap = s
	a.list.SetSnapshot(s)
	a.pendingURLs = append(a.pendingURLs, s.ImageURLs...)

	if a.list.Len() == 0 {
		a.selected, a.selectedID = 0, ""
		return
	}
	if i, ok := a.list.Index(a.selectedID); ok {
		a.selected = i
	} else {
		a.selected = min(a.selected, a.list.Len()-1)
	}
	a.selectedID = a.list.Row(a.selected).ID()
}

// Close detaches the App from the pager. Pages still in flight are dropped
// when they arrive.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	a.pager.Close()
}

// Init requests the first page.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.pager.RequestPage(), a.spin())
}

// Update handles messages and returns the updated model and any commands.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		a.events.Emit(otel.Event{
			Kind:  otel.KindMsgReceived,
			Level: otel.LevelDebug,
			Comp:  "ui",
			Msg:   fmt.Sprintf("%T", msg),
		})
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.MouseMsg:
		return a, a.handleMouse(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.help.Width = msg.Width
		a.list.SetWidth(msg.Width)
		clear(a.imageLines)
		a.clampScroll()
		return a, a.prefetch()

	case feed.PageLoaded:
		a.pager.OnPageResult(msg)
		a.clampScroll()
		if msg.Err != nil || a.snap.LastErr != nil {
			// A failed page waits for the user to scroll, resize or refresh.
			return a, nil
		}
		return a, tea.Batch(a.warmImages(), a.prefetch())

	case images.Loaded, images.Warmed:
		// Rows pick up newly cached images on the next View.
		return a, nil

	case spinner.TickMsg:
		if !a.loading() {
			a.spinning = false
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case frameMsg:
		a.step()
		if a.animating {
			return a, a.frame()
		}
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		a.Close()
		return a, tea.Quit
	}
	if a.viewer != nil {
		return a, a.handleViewerKey(msg)
	}
	if a.debugVisible {
		if key.Matches(msg, a.keys.Debug) || msg.String() == "esc" {
			a.debugVisible = false
		}
		return a, nil
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.Close()
		return a, tea.Quit

	case key.Matches(msg, a.keys.Debug):
		if a.ring != nil {
			a.debugVisible = true
		}
		return a, nil

	case key.Matches(msg, a.keys.Down):
		return a, a.selectRow(a.selected + 1)

	case key.Matches(msg, a.keys.Up):
		return a, a.selectRow(a.selected - 1)

	case key.Matches(msg, a.keys.PageDown):
		return a, a.page(a.bodyHeight())

	case key.Matches(msg, a.keys.PageUp):
		return a, a.page(-a.bodyHeight())

	case key.Matches(msg, a.keys.Top):
		return a, a.selectRow(0)

	case key.Matches(msg, a.keys.Bottom):
		return a, a.selectRow(a.list.Len() - 1)

	case key.Matches(msg, a.keys.Expand):
		return a, a.expand(a.selected)

	case key.Matches(msg, a.keys.Refresh):
		return a, a.refresh()

	case key.Matches(msg, a.keys.Photos):
		return a, a.openViewer()
	}
	return a, nil
}

func (a *App) handleViewerKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Close):
		a.viewer = nil
	case key.Matches(msg, a.keys.Next):
		a.viewer.next()
		return a.loadImage(a.viewer.current())
	case key.Matches(msg, a.keys.Prev):
		a.viewer.prev()
		return a.loadImage(a.viewer.current())
	}
	return nil
}

func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if a.viewer != nil || a.debugVisible || msg.Action != tea.MouseActionPress {
		return nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		// Pulling past the top refreshes.
		if a.scrollTarget == 0 {
			if a.loading() {
				return nil
			}
			return a.refresh()
		}
		return a.scrollTo(a.scrollTarget - wheelStep)

	case tea.MouseButtonWheelDown:
		return a.scrollTo(a.scrollTarget + wheelStep)

	case tea.MouseButtonLeft:
		y := msg.Y - 1 // header
		if y < 0 || y >= a.bodyHeight() {
			return nil
		}
		i, line, ok := a.list.RowAt(a.offset() + y)
		if !ok {
			return nil
		}
		a.selected = i
		a.selectedID = a.list.Row(i).ID()
		if a.onShowMore(i, msg.X, line) {
			return a.expand(i)
		}
	}
	return nil
}

// onShowMore reports whether (x, line) inside row i hits its show-more
// affordance.
func (a *App) onShowMore(i, x, line int) bool {
	row := a.list.Row(i)
	if row.Kind != feed.KindReview {
		return false
	}
	f := a.list.RowFrames(i)
	if !f.ShowMoreRequired || f.ShowMore.Empty() {
		return false
	}
	r := f.ShowMore
	return line >= r.Y && line < r.Bottom() && x >= r.X && x < r.X+r.W
}

func (a *App) expand(i int) tea.Cmd {
	if i < 0 || i >= a.list.Len() {
		return nil
	}
	if !a.pager.Dispatch(feed.Expand(a.list.Row(i).ID())) {
		return nil
	}
	return a.prefetch()
}

func (a *App) refresh() tea.Cmd {
	a.scrollTarget, a.scrollPos, a.scrollVel = 0, 0, 0
	a.animating = false
	return tea.Batch(a.pager.Refresh(), a.spin())
}

func (a *App) openViewer() tea.Cmd {
	if a.list.Len() == 0 {
		return nil
	}
	row := a.list.Row(a.selected)
	if row.Kind != feed.KindReview || len(row.Review.Photos) == 0 {
		return nil
	}
	a.viewer = newPhotoViewer(row.Review)
	return a.loadImage(a.viewer.current())
}

// selectRow moves the selection to row i and scrolls just enough to show it.
func (a *App) selectRow(i int) tea.Cmd {
	if a.list.Len() == 0 {
		return nil
	}
	i = max(min(i, a.list.Len()-1), 0)
	a.selected = i
	a.selectedID = a.list.Row(i).ID()

	top, h, body := a.list.RowTop(i), a.list.RowHeight(i), a.bodyHeight()
	target := a.scrollTarget
	switch {
	case top < target || h >= body:
		target = top
	case top+h > target+body:
		target = top + h - body
	}
	return a.scrollTo(target)
}

// page scrolls by delta lines and selects the first row in view.
func (a *App) page(delta int) tea.Cmd {
	cmd := a.scrollTo(a.scrollTarget + delta)
	if i, _, ok := a.list.RowAt(a.scrollTarget); ok {
		a.selected = i
		a.selectedID = a.list.Row(i).ID()
	}
	return cmd
}

func (a *App) bodyHeight() int {
	return max(a.height-2, 1)
}

func (a *App) maxScroll() int {
	return max(a.list.ContentHeight()-a.bodyHeight(), 0)
}

// scrollTo sets the scroll target and reports the projected position to the
// pager so the next page can start before the user gets there.
func (a *App) scrollTo(y int) tea.Cmd {
	a.scrollTarget = max(min(y, a.maxScroll()), 0)
	return tea.Batch(a.animate(), a.prefetch())
}

func (a *App) clampScroll() {
	m := a.maxScroll()
	if a.scrollTarget > m {
		a.scrollTarget = m
	}
	if a.scrollPos > float64(m) {
		a.scrollPos = float64(m)
		a.scrollVel = 0
	}
}

func (a *App) animate() tea.Cmd {
	if !a.smooth {
		a.scrollPos, a.scrollVel = float64(a.scrollTarget), 0
		return nil
	}
	if a.animating {
		return nil
	}
	a.animating = true
	return a.frame()
}

func (a *App) frame() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (a *App) step() {
	target := float64(a.scrollTarget)
	a.scrollPos, a.scrollVel = a.spring.Update(a.scrollPos, a.scrollVel, target)
	if math.Abs(a.scrollPos-target) < 0.5 && math.Abs(a.scrollVel) < 0.5 {
		a.scrollPos, a.scrollVel = target, 0
		a.animating = false
	}
}

// offset is the content line drawn at the top of the body.
func (a *App) offset() int {
	return max(min(int(math.Round(a.scrollPos)), a.maxScroll()), 0)
}

func (a *App) prefetch() tea.Cmd {
	if !a.ready {
		return nil
	}
	cmd := a.pager.ScrollPositionChanged(a.bodyHeight(), a.list.ContentHeight(), a.scrollTarget)
	if cmd == nil {
		return nil
	}
	return tea.Batch(cmd, a.spin())
}

// loading reports whether a page is in flight.
func (a *App) loading() bool {
	s := a.snap
	return s.IsInitialLoading || s.IsRefreshing || (!s.ShouldLoad && (s.Offset == 0 || s.Offset < s.Total))
}

// spin starts the spinner unless it is already ticking.
func (a *App) spin() tea.Cmd {
	if a.spinning || !a.loading() {
		return nil
	}
	a.spinning = true
	return a.spinner.Tick
}

func (a *App) warmImages() tea.Cmd {
	urls := a.pendingURLs
	a.pendingURLs = nil
	if a.images == nil {
		return nil
	}
	return images.WarmCommand(a.ctx, a.images, urls)
}

func (a *App) loadImage(url string) tea.Cmd {
	if a.images == nil || url == "" {
		return nil
	}
	if _, ok := a.images.Peek(url); ok {
		return nil
	}
	return images.Command(a.ctx, a.images, url)
}

// renderImage implements feed.ImageFunc over the loader cache.
func (a *App) renderImage(url string, cols, rows int) []string {
	if a.images == nil || url == "" {
		return feed.PlaceholderImage(url, cols, rows)
	}
	k := imageKey{url, cols, rows}
	if lines, ok := a.imageLines[k]; ok {
		return lines
	}
	img, ok := a.images.Peek(url)
	if !ok {
		return feed.PlaceholderImage(url, cols, rows)
	}
	if len(a.imageLines) >= maxImageLines {
		clear(a.imageLines)
	}
	lines := images.Render(img, cols, rows)
	a.imageLines[k] = lines
	return lines
}

// View renders the UI.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.debugVisible {
		ls := listStats{
			Rows:       len(a.snap.Rows),
			Offset:     a.snap.Offset,
			Total:      a.snap.Total,
			ShouldLoad: a.snap.ShouldLoad,
			LastErr:    a.snap.LastErr,
		}
		if a.snap.Heights != nil {
			ls.Cached = a.snap.Heights.Len()
		}
		overlay := debugOverlay(a.ring, ls, a.width, a.height-1)
		body := lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center, overlay)
		return body + "\n" + debugStatusBar(a.width)
	}

	if a.viewer != nil {
		return a.viewer.view(a.width, a.height-1, a.renderImage) + "\n" +
			StatusBar.Width(a.width).Render(a.help.View(viewerHelp{a.keys}))
	}

	return a.headerView() + "\n" + a.bodyView() + "\n" + a.footerView()
}

func (a *App) headerView() string {
	title := "Reviews"
	if a.snap.IsRefreshing {
		title = a.spinner.View() + " " + title
	}
	return TitleBar.Width(a.width).Render(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
}

func (a *App) bodyView() string {
	h := a.bodyHeight()
	if a.empty() {
		msg := HelpStyle.Render("No reviews yet. Press r to refresh.")
		if a.loading() {
			msg = a.spinner.View() + " Loading reviews…"
		}
		return lipgloss.Place(a.width, h, lipgloss.Center, lipgloss.Center, msg)
	}
	ctx := feed.RenderContext{Avatar: a.renderImage, Photo: a.renderImage}
	return a.list.View(a.offset(), h, a.selected, ctx)
}

// empty reports whether there is no review to show. A lone summary row
// counts as empty.
func (a *App) empty() bool {
	n := a.list.Len()
	return n == 0 || n == 1 && a.list.Row(0).Kind == feed.KindSummary
}

func (a *App) footerView() string {
	right := ""
	if a.snap.Total > 0 {
		right = fmt.Sprintf("%d of %d", min(a.selected+1, a.snap.Total), a.snap.Total)
	}
	if a.loading() && !a.snap.IsInitialLoading && !a.snap.IsRefreshing {
		right = a.spinner.View() + " loading more…  " + right
	}
	right = StatusBarText.Render(right)

	// StatusBar pads one cell on each side.
	inner := max(a.width-2, 0)
	left := a.help.View(a.keys)
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		left = ansi.Truncate(left, max(inner-lipgloss.Width(right)-1, 0), "")
		gap = max(inner-lipgloss.Width(left)-lipgloss.Width(right), 0)
	}
	return StatusBar.Width(a.width).Render(left + fmt.Sprintf("%*s", gap, "") + right)
}

// Selected returns the selected row index (for testing).
func (a *App) Selected() int {
	return a.selected
}

// ScrollTarget returns the line the list is scrolling to (for testing).
func (a *App) ScrollTarget() int {
	return a.scrollTarget
}

// Snapshot returns the last pager snapshot (for testing).
func (a *App) Snapshot() feed.Snapshot {
	return a.snap
}
