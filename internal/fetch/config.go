package fetch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abelbrown/reviews/internal/config"
	"github.com/abelbrown/reviews/internal/errors"
	"github.com/abelbrown/reviews/internal/feed"
	"github.com/abelbrown/reviews/internal/store"
)

// FromConfig builds the page source cfg selects. The returned close func
// releases whatever the source holds open and is never nil.
func FromConfig(cfg *config.Config) (feed.Source, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Source.Kind {
	case config.SourceFile:
		return NewFileSource(cfg.Source.Fixture, cfg.Latency()), noop, nil

	case config.SourceHTTP:
		return NewHTTPSource(cfg.Source.URL, HTTPOptions{
			Timeout:    cfg.Timeout(),
			RatePerSec: cfg.Source.RatePerSec,
			Burst:      cfg.Source.RateBurst,
			UserAgent:  cfg.Source.UserAgent,
		}), noop, nil

	case config.SourceStore:
		path := cfg.DBPath()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, errors.E(errors.Op("fetch.FromConfig"), errors.KindIO, err)
		}
		st, err := store.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return NewStoreSource(st), st.Close, nil

	default:
		return nil, nil, errors.ConfigInvalid(fmt.Sprintf("unknown source kind %q", cfg.Source.Kind))
	}
}
