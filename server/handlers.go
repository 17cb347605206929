package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/spektr-org/progdash/engine"
)

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/options/{field}", s.handleOptions).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/filters/{field}", s.handleSelect).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods(http.MethodPost)
	api.HandleFunc("/reload", s.handleReload).Methods(http.MethodPost)
	return r
}

type selectRequest struct {
	Values []string `json:"values"`
}

type sessionResponse struct {
	ID     string         `json:"id"`
	Result *engine.Result `json:"result"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ds := s.Dataset()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"rows":     ds.Store.Len(),
		"sources":  ds.Sources,
		"loadedAt": ds.LoadedAt.Format(time.RFC3339),
		"sessions": s.SessionCount(),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ds := s.Dataset()
	sel := selectionsFromQuery(r.URL.Query(), ds.Dashboard)

	res, err := engine.Execute(ds.Store, ds.Dashboard, sel, s.engOpts...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	ds := s.Dataset()
	field := filterField(ds.Dashboard, mux.Vars(r)["field"])
	if field == "" {
		writeError(w, http.StatusNotFound, errors.Wrapf(engine.ErrUnknownField, "%q is not a filter", mux.Vars(r)["field"]))
		return
	}

	cascade, err := engine.NewCascade(ds.Dashboard.Filters)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	sel := selectionsFromQuery(r.URL.Query(), ds.Dashboard)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"field":    field,
		"options":  cascade.Options(ds.Store, field, sel),
		"upstream": cascade.Upstream(field),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, entry, err := s.createSession()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	entry.mu.Lock()
	res := entry.sess.Snapshot()
	entry.mu.Unlock()
	writeJSON(w, http.StatusCreated, sessionResponse{ID: id, Result: res})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	entry, ok := s.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, errors.Errorf("session %q not found", id))
		return
	}
	res := entry.sess.Snapshot()
	entry.mu.Unlock()
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Result: res})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
		return
	}

	entry, ok := s.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, errors.Errorf("session %q not found", id))
		return
	}
	defer entry.mu.Unlock()

	field := filterField(entry.bound.Dashboard, vars["field"])
	if field == "" {
		field = vars["field"]
	}
	if err := entry.sess.Select(field, req.Values...); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, engine.ErrUnknownField) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Result: entry.sess.Snapshot()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	entry, ok := s.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, errors.Errorf("session %q not found", id))
		return
	}
	defer entry.mu.Unlock()
	entry.sess.Reset()
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Result: entry.sess.Snapshot()})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.deleteSession(id) {
		writeError(w, http.StatusNotFound, errors.Errorf("session %q not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	ds := s.Dataset()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows":     ds.Store.Len(),
		"sources":  ds.Sources,
		"loadedAt": ds.LoadedAt.Format(time.RFC3339),
	})
}

// ============================================================================
// HELPERS
// ============================================================================

// filterField maps a path or query key ("year", "Themes Pillar") to the
// dashboard's filter field, or "" if it names no filter.
func filterField(dash engine.Dashboard, key string) string {
	want := engine.NormalizeHeader(key)
	for _, f := range dash.Filters {
		if f.Field == want {
			return f.Field
		}
	}
	return ""
}

// selectionsFromQuery reads repeated query parameters as a filter's
// accepted values. Keys naming no filter are ignored.
func selectionsFromQuery(q url.Values, dash engine.Dashboard) engine.Selections {
	sel := engine.Selections{}
	for key, values := range q {
		field := filterField(dash, key)
		if field == "" {
			continue
		}
		sel = sel.With(field, append(sel[field], values...)...)
	}
	return sel
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Success: false, Error: err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}
