package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/spektr-org/progdash/engine"
	"github.com/spektr-org/progdash/helpers"
)

// ============================================================================
// SERVER — JSON API over the dashboard engine
// ============================================================================
// One dataset is live at a time. Reload builds a new one off to the side and
// swaps the pointer, so readers never see a half-loaded store. Sessions keep
// the dataset they were bound to and rebind lazily on their next request.
// ============================================================================

// Loader produces a fresh dataset, typically helpers.Load over the
// configured sources.
type Loader func(ctx context.Context) (*helpers.Dataset, error)

// Server serves the dashboard API.
type Server struct {
	load    Loader
	log     *zap.Logger
	engOpts []engine.Option
	ttl     time.Duration
	now     func() time.Time

	reloadMu sync.Mutex // serializes Reload
	current  atomic.Pointer[helpers.Dataset]
	reloads  atomic.Int64

	mu       sync.Mutex
	sessions map[string]*sessionEntry

	router *mux.Router
}

type sessionEntry struct {
	mu       sync.Mutex
	sess     *engine.Session
	bound    *helpers.Dataset
	lastUsed time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithEngineOptions passes options to every Execute and Session.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Server) {
		s.engOpts = append(s.engOpts, opts...)
	}
}

// WithSessionTTL sets how long an idle session survives PruneSessions.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// New loads the first dataset and builds the router.
func New(ctx context.Context, load Loader, opts ...Option) (*Server, error) {
	s := &Server{
		load:     load,
		log:      zap.NewNop(),
		ttl:      2 * time.Hour,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}

	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Dataset returns the live dataset.
func (s *Server) Dataset() *helpers.Dataset {
	return s.current.Load()
}

// Reload loads a new dataset and makes it live. On failure the previous
// dataset stays live. Concurrent calls from the scheduler, the file watcher
// and the API run one after another.
func (s *Server) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	ds, err := s.load(ctx)
	if err != nil {
		s.log.Error("reload failed", zap.Error(err))
		return errors.Wrap(err, "reload failed")
	}
	if _, err := engine.NewCascade(ds.Dashboard.Filters); err != nil {
		s.log.Error("reload rejected", zap.Error(err))
		return errors.Wrap(err, "reload rejected")
	}

	s.current.Store(ds)
	n := s.reloads.Add(1)
	s.log.Info("dataset live",
		zap.Int64("generation", n),
		zap.Int("rows", ds.Store.Len()),
		zap.Strings("sources", ds.Sources),
		zap.Duration("took", time.Since(start)))
	return nil
}

// ============================================================================
// SESSIONS
// ============================================================================

func (s *Server) createSession() (string, *sessionEntry, error) {
	ds := s.Dataset()
	sess, err := engine.NewSession(ds.Store, ds.Dashboard, s.engOpts...)
	if err != nil {
		return "", nil, err
	}
	entry := &sessionEntry{sess: sess, bound: ds, lastUsed: s.now()}
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = entry
	s.mu.Unlock()

	s.log.Debug("session created", zap.String("session", id))
	return id, entry, nil
}

// session looks up an entry and locks it, rebinding it to the live dataset
// first if a reload happened since its last request. Callers must unlock.
func (s *Server) session(id string) (*sessionEntry, bool) {
	s.mu.Lock()
	entry, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	entry.mu.Lock()
	entry.lastUsed = s.now()
	if live := s.Dataset(); entry.bound != live {
		if err := entry.sess.Rebind(live.Store, live.Dashboard); err != nil {
			s.log.Warn("session rebind failed", zap.String("session", id), zap.Error(err))
		} else {
			entry.bound = live
		}
	}
	return entry, true
}

func (s *Server) deleteSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// PruneSessions drops sessions idle for longer than the TTL and returns how
// many were dropped.
func (s *Server) PruneSessions() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, entry := range s.sessions {
		entry.mu.Lock()
		idle := entry.lastUsed.Before(cutoff)
		entry.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		s.log.Info("idle sessions pruned", zap.Int("count", n))
	}
	return n
}
