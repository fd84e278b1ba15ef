// Package images downloads, caches and draws review avatars and photos.
// A failed image never surfaces as an error: callers get a placeholder.
package images

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/abelbrown/reviews/internal/logging"
	"github.com/abelbrown/reviews/internal/otel"
)

// maxImageBytes caps a downloaded image body.
const maxImageBytes = 8 << 20

var placeholderColor = color.RGBA{R: 0x30, G: 0x36, B: 0x3d, A: 0xff}

// Placeholder returns the image used for missing or broken images.
func Placeholder() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, placeholderColor)
	return img
}

// Options configures a Loader. Zero fields take defaults.
type Options struct {
	Timeout     time.Duration
	RatePerSec  float64 // 0 disables limiting
	Concurrency int
	Client      *http.Client
	Events      *otel.Logger
}

// Loader fetches images over HTTP into an injected Cache. Concurrent loads
// of the same URL share one download.
type Loader struct {
	client      *http.Client
	cache       Cache
	limiter     *rate.Limiter
	concurrency int
	group       singleflight.Group
	events      *otel.Logger
	log         *log.Logger
}

// NewLoader creates a Loader backed by cache.
func NewLoader(cache Cache, opts Options) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.Concurrency)
	}
	return &Loader{
		client:      client,
		cache:       cache,
		limiter:     limiter,
		concurrency: opts.Concurrency,
		events:      opts.Events,
		log:         logging.WithPrefix("images"),
	}
}

// Peek returns a cached image without blocking.
func (l *Loader) Peek(url string) (image.Image, bool) {
	if url == "" {
		return nil, false
	}
	return l.cache.Get(url)
}

// Load returns the image at url, downloading it on a cache miss. Any
// failure yields the placeholder, which is cached so the URL is not retried
// for the lifetime of the cache entry.
func (l *Loader) Load(ctx context.Context, url string) image.Image {
	if url == "" {
		return Placeholder()
	}
	if img, ok := l.cache.Get(url); ok {
		return img
	}

	v, _, _ := l.group.Do(url, func() (any, error) {
		if img, ok := l.cache.Get(url); ok {
			return img, nil
		}
		start := time.Now()
		img, err := l.download(ctx, url)
		if err != nil {
			l.log.Debug("image failed", "url", url, "err", err)
			l.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindImageError, Comp: "images", URL: url, Err: err.Error()})
			if ctx.Err() != nil {
				// Cancelled, not broken; leave it uncached.
				return Placeholder(), nil
			}
			img = Placeholder()
		} else {
			l.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindImageLoad, Comp: "images", URL: url, Dur: time.Since(start)})
		}
		l.cache.Put(url, img)
		return img, nil
	})
	return v.(image.Image)
}

func (l *Loader) download(ctx context.Context, url string) (image.Image, error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

// Warm loads urls with bounded concurrency. It returns when all are cached
// or ctx is done.
func (l *Loader) Warm(ctx context.Context, urls []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for _, u := range urls {
		if _, ok := l.cache.Get(u); ok || u == "" {
			continue
		}
		g.Go(func() error {
			l.Load(ctx, u)
			return ctx.Err()
		})
	}
	return g.Wait()
}

// Loaded reports that an image is now in the cache.
type Loaded struct {
	URL string
}

// Warmed reports that a batch of images finished loading.
type Warmed struct {
	URLs []string
	Err  error
}

// Command loads one image off the UI goroutine.
func Command(ctx context.Context, l *Loader, url string) tea.Cmd {
	return func() tea.Msg {
		l.Load(ctx, url)
		return Loaded{URL: url}
	}
}

// WarmCommand loads a batch of images off the UI goroutine.
func WarmCommand(ctx context.Context, l *Loader, urls []string) tea.Cmd {
	if len(urls) == 0 {
		return nil
	}
	return func() tea.Msg {
		return Warmed{URLs: urls, Err: l.Warm(ctx, urls)}
	}
}
