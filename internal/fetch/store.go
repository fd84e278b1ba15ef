package fetch

import (
	"context"

	"github.com/abelbrown/reviews/internal/errors"
	"github.com/abelbrown/reviews/internal/review"
	"github.com/abelbrown/reviews/internal/store"
)

// StoreSource serves pages from the local SQLite corpus.
type StoreSource struct {
	store *store.Store
}

// NewStoreSource creates a source over st.
func NewStoreSource(st *store.Store) *StoreSource {
	return &StoreSource{store: st}
}

// Fetch reads one page and the current total.
func (s *StoreSource) Fetch(ctx context.Context, offset, limit int) ([]byte, error) {
	const op = errors.Op("fetch.StoreSource")

	if ctx.Err() != nil {
		return nil, errors.Transport(op, ctx.Err())
	}
	items, err := s.store.Page(offset, limit)
	if err != nil {
		return nil, errors.Transport(op, err)
	}
	count, err := s.store.Count()
	if err != nil {
		return nil, errors.Transport(op, err)
	}
	return review.Encode(review.Page{Items: items, Count: count})
}
