// Package fetch provides the page sources the pager pulls reviews from.
//
// Every source implements feed.Source: Fetch(ctx, offset, limit) returns one
// raw page payload in the review wire format ({"items": [...], "count": N}).
// Failures are returned as errors.KindTransport; decoding is the caller's job.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/reviews/internal/errors"
)

// maxPageBytes caps a page body read from the network.
const maxPageBytes = 4 << 20

// HTTPSource fetches pages from a JSON endpoint as
// GET <base>?offset=N&limit=M.
type HTTPSource struct {
	base      string
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// HTTPOptions configures an HTTPSource. Zero fields take defaults.
type HTTPOptions struct {
	Timeout    time.Duration
	RatePerSec float64 // 0 disables limiting
	Burst      int
	UserAgent  string
	Client     *http.Client
}

// NewHTTPSource creates a source for the endpoint at base.
func NewHTTPSource(base string, opts HTTPOptions) *HTTPSource {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "reviews/0.1"
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.Burst)
	}

	return &HTTPSource{
		base:      base,
		client:    client,
		limiter:   limiter,
		userAgent: opts.UserAgent,
	}
}

// Fetch retrieves one page. It respects context cancellation, including
// while waiting on the rate limiter.
func (s *HTTPSource) Fetch(ctx context.Context, offset, limit int) ([]byte, error) {
	const op = errors.Op("fetch.HTTPSource")

	if ctx.Err() != nil {
		return nil, errors.Transport(op, ctx.Err())
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, errors.Transport(op, err)
		}
	}

	u, err := url.Parse(s.base)
	if err != nil {
		return nil, errors.E(op, errors.KindTransport, "parse base url", err)
	}
	q := u.Query()
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.E(op, errors.KindTransport, "create request", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Transport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.E(op, errors.KindTransport, fmt.Sprintf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, errors.E(op, errors.KindTransport, "read body", err)
	}
	return body, nil
}
