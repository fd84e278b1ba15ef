// Package server exposes a page source over HTTP in the wire format the
// HTTP source consumes, so a local corpus can stand in for a real backend.
package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/reviews/internal/errors"
	"github.com/abelbrown/reviews/internal/feed"
	"github.com/abelbrown/reviews/internal/logging"
)

// MaxLimit caps the page size a client may ask for.
const MaxLimit = 100

// Server is a thin wrapper over chi + stdlib http.Server
type Server struct {
	addr string
	mux  *chi.Mux
	srv  *http.Server
	log  *log.Logger
}

// New creates a server answering page requests from src.
func New(addr string, src feed.Source) *Server {
	s := &Server{addr: addr, log: logging.WithPrefix("server")}
	s.mux = Router(src, s.log)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the routes: GET /reviews?offset=&limit= and GET /healthz.
func Router(src feed.Source, lg *log.Logger) *chi.Mux {
	m := chi.NewRouter()
	m.Use(middleware.Recoverer)
	m.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	m.Get("/reviews", pageHandler(src, lg))
	return m
}

func pageHandler(src feed.Source, lg *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, err := queryInt(r, "offset", 0)
		if err != nil || offset < 0 {
			http.Error(w, "offset must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit, err := queryInt(r, "limit", feed.DefaultLimit)
		if err != nil || limit <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(limit, MaxLimit)

		start := time.Now()
		payload, err := src.Fetch(r.Context(), offset, limit)
		if err != nil {
			lg.Warn("page failed", "offset", offset, "limit", limit, "err", err)
			status := http.StatusInternalServerError
			if errors.Is(err, errors.KindNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, http.StatusText(status), status)
			return
		}
		lg.Debug("page served", "offset", offset, "limit", limit, "bytes", len(payload), "dur", time.Since(start))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
	}
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.mux }

// Addr returns the listening address
func (s *Server) Addr() string { return s.addr }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.E(errors.Op("server.Run"), errors.KindIO, err)
	}
	s.log.Info("http listening", "addr", ln.Addr().String())
	return s.serve(ctx, ln)
}

// serve runs the server on ln. It returns once Serve has stopped and the
// shutdown watcher has exited.
func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	stop := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return s.srv.Shutdown(shutdownCtx)
		case <-stop:
			return nil
		}
	})

	err := s.srv.Serve(ln)
	close(stop)
	shutdownErr := g.Wait()
	if err != nil && err != http.ErrServerClosed {
		s.log.Error("http serve failed", "err", err)
		return errors.E(errors.Op("server.Run"), errors.KindIO, err)
	}
	return shutdownErr
}
