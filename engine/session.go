package engine

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ============================================================================
// SESSION — Orchestrator owning the store and the filter state
// ============================================================================
// A Session is the explicit replacement for a script's global state: it holds
// the record store for its lifetime plus the current selections, and derives
// everything else on demand through Execute. Not safe for concurrent use;
// callers serving several clients keep one Session per client and lock it.
// ============================================================================

// Session holds one user's view of a dashboard.
type Session struct {
	store   RecordView
	dash    Dashboard
	cascade *Cascade
	sel     Selections
	cfg     *config
}

// NewSession validates the dashboard's cascade and starts with every filter at All.
func NewSession(store RecordView, dash Dashboard, opts ...Option) (*Session, error) {
	cascade, err := NewCascade(dash.Filters)
	if err != nil {
		return nil, err
	}
	return &Session{
		store:   store,
		dash:    dash,
		cascade: cascade,
		sel:     Selections{},
		cfg:     applyOptions(opts),
	}, nil
}

// Select sets the accepted values of a filter field and drops downstream
// selections that are no longer offered. No values resets the field to All.
func (s *Session) Select(field string, values ...string) error {
	if !s.cascade.Has(field) {
		return errors.Wrapf(ErrUnknownField, "%q is not a filter", field)
	}
	before := s.sel
	s.sel = s.cascade.Reconcile(s.store, s.sel.With(field, values...))
	for _, f := range s.cascade.Downstream(field) {
		if before.HasFilter(f) && !s.sel.HasFilter(f) {
			s.cfg.Logger.Debug("stale selection cleared",
				zap.String("field", f),
				zap.String("changed", field))
		}
	}
	return nil
}

// Reset clears every selection.
func (s *Session) Reset() {
	s.sel = Selections{}
}

// Selections returns a copy of the current selections.
func (s *Session) Selections() Selections {
	return s.sel.Clone()
}

// Options returns the current option list of a filter field.
func (s *Session) Options(field string) ([]string, error) {
	if !s.cascade.Has(field) {
		return nil, errors.Wrapf(ErrUnknownField, "%q is not a filter", field)
	}
	return s.cascade.Options(s.store, field, s.sel), nil
}

// Snapshot recomputes the dashboard for the current selections.
func (s *Session) Snapshot() *Result {
	return execute(s.store, s.dash, s.cascade, s.sel, s.cfg)
}

// Rebind swaps in a freshly loaded store and its dashboard binding, then
// reconciles the selections against them. On error the session is unchanged.
func (s *Session) Rebind(store RecordView, dash Dashboard) error {
	cascade, err := NewCascade(dash.Filters)
	if err != nil {
		return err
	}
	s.store, s.dash, s.cascade = store, dash, cascade
	s.sel = cascade.Reconcile(store, s.sel.Restrict(cascade.Fields()))
	return nil
}

// Store returns the record store the session reads.
func (s *Session) Store() RecordView {
	return s.store
}
