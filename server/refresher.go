package server

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ============================================================================
// REFRESHER — Scheduled and on-change reloads
// ============================================================================
// Two triggers, both optional:
//   - a cron schedule ("0 6 * * *", "@every 15m") in a configured time zone
//   - a watched source file; bursts of writes collapse into one reload once
//     the file has been quiet for the debounce window
// Extra cron jobs (session pruning) ride on the same scheduler.
// ============================================================================

// ReloadFunc performs one reload.
type ReloadFunc func(ctx context.Context) error

type cronJob struct {
	spec string
	fn   func()
}

// Refresher triggers reloads.
type Refresher struct {
	reload   ReloadFunc
	log      *zap.Logger
	schedule string
	loc      *time.Location
	watch    string
	debounce time.Duration
	jobs     []cronJob

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithSchedule reloads on a cron spec evaluated in loc (UTC if nil).
func WithSchedule(spec string, loc *time.Location) RefresherOption {
	return func(r *Refresher) {
		r.schedule = spec
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithWatch reloads when the file at path changes.
func WithWatch(path string) RefresherOption {
	return func(r *Refresher) {
		r.watch = path
	}
}

// WithDebounce sets the quiet period after the last file event. Default 500ms.
func WithDebounce(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d > 0 {
			r.debounce = d
		}
	}
}

// WithJob runs fn on a cron spec alongside the reload schedule.
func WithJob(spec string, fn func()) RefresherOption {
	return func(r *Refresher) {
		r.jobs = append(r.jobs, cronJob{spec: spec, fn: fn})
	}
}

// WithRefresherLogger sets the logger. Defaults to a no-op logger.
func WithRefresherLogger(l *zap.Logger) RefresherOption {
	return func(r *Refresher) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRefresher creates a Refresher. Nothing runs until Start.
func NewRefresher(reload ReloadFunc, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		reload:   reload,
		log:      zap.NewNop(),
		loc:      time.UTC,
		debounce: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start registers the schedule and the watch. Non-blocking.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}

	if r.schedule != "" || len(r.jobs) > 0 {
		c := cron.New(cron.WithLocation(r.loc))
		if r.schedule != "" {
			if _, err := c.AddFunc(r.schedule, func() { r.run(ctx, "schedule") }); err != nil {
				return errors.Wrapf(err, "invalid refresh schedule %q", r.schedule)
			}
		}
		for _, j := range r.jobs {
			if _, err := c.AddFunc(j.spec, j.fn); err != nil {
				return errors.Wrapf(err, "invalid job schedule %q", j.spec)
			}
		}
		r.cron = c
	}

	if r.watch != "" {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return errors.Wrap(err, "failed to create file watcher")
		}
		// Watch the directory: editors and exporters often replace the file.
		if err := w.Add(filepath.Dir(r.watch)); err != nil {
			w.Close()
			return errors.Wrapf(err, "failed to watch %s", r.watch)
		}
		r.watcher = w
		r.stopCh = make(chan struct{})
		r.doneCh = make(chan struct{})
		go r.watchLoop(ctx)
		r.log.Info("watching source", zap.String("path", r.watch))
	}

	if r.cron != nil {
		r.cron.Start()
		r.log.Info("refresh scheduled",
			zap.String("schedule", r.schedule),
			zap.String("location", r.loc.String()),
			zap.Int("jobs", len(r.jobs)))
	}

	r.running = true
	return nil
}

// Stop stops the scheduler and the watcher, waiting for a running reload.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false

	if r.cron != nil {
		<-r.cron.Stop().Done()
		r.cron = nil
	}
	if r.watcher != nil {
		close(r.stopCh)
		<-r.doneCh
		if err := r.watcher.Close(); err != nil {
			r.log.Warn("error closing watcher", zap.Error(err))
		}
		r.watcher = nil
	}
}

func (r *Refresher) run(ctx context.Context, trigger string) {
	if err := r.reload(ctx); err != nil {
		r.log.Warn("reload failed", zap.String("trigger", trigger), zap.Error(err))
		return
	}
	r.log.Debug("reloaded", zap.String("trigger", trigger))
}

func (r *Refresher) watchLoop(ctx context.Context) {
	defer close(r.doneCh)

	target := filepath.Clean(r.watch)
	var pending time.Time

	tick := r.debounce / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-r.stopCh:
			return

		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.Now()
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.log.Warn("watcher error", zap.Error(err))

		case <-ticker.C:
			if !pending.IsZero() && time.Since(pending) >= r.debounce {
				pending = time.Time{}
				r.run(ctx, "file change")
			}
		}
	}
}
