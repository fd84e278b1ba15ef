package fetch

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/abelbrown/reviews/internal/errors"
	"github.com/abelbrown/reviews/internal/review"
)

// FileSource serves pages out of a fixture holding one full page payload.
// Each Fetch slices items by offset and limit and keeps the fixture's count,
// so the pager sees the same totals a server would report.
type FileSource struct {
	path    string
	latency time.Duration

	once sync.Once
	page review.Page
	err  error
}

// NewFileSource creates a source over the fixture at path. latency delays
// every page, imitating a network round trip.
func NewFileSource(path string, latency time.Duration) *FileSource {
	return &FileSource{path: path, latency: latency}
}

func (s *FileSource) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.err = errors.E(errors.Op("fetch.FileSource"), errors.KindTransport, fmt.Sprintf("read %s", s.path), err)
		return
	}
	s.page, s.err = review.Decode(data)
}

// Fetch returns the page at offset. A fixture that cannot be read fails
// every call with a transport error.
func (s *FileSource) Fetch(ctx context.Context, offset, limit int) ([]byte, error) {
	if s.latency > 0 {
		t := time.NewTimer(s.latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, errors.Transport("fetch.FileSource", ctx.Err())
		case <-t.C:
		}
	}

	s.once.Do(s.load)
	if s.err != nil {
		if errors.Is(s.err, errors.KindDecode) {
			return nil, errors.E(errors.Op("fetch.FileSource"), errors.KindTransport, "fixture is not a valid page", s.err)
		}
		return nil, s.err
	}
	return Slice(s.page, offset, limit)
}

// Slice encodes the window [offset, offset+limit) of p, keeping p.Count.
func Slice(p review.Page, offset, limit int) ([]byte, error) {
	start := min(max(offset, 0), len(p.Items))
	end := min(start+max(limit, 0), len(p.Items))
	return review.Encode(review.Page{Items: p.Items[start:end], Count: p.Count})
}
