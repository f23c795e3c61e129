// Package http exposes an Inspector over a small JSON API.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/vizkit"
	"github.com/aretw0/vizkit/internal/logging"
	"github.com/aretw0/vizkit/internal/presentation/treeview"
	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/poll"
	"github.com/aretw0/vizkit/pkg/tree"
	"github.com/aretw0/vizkit/pkg/value"
)

// Inspector is the subset of vizkit.Inspector served over HTTP.
type Inspector interface {
	Trees() []vizkit.TreeSummary
	Tree(name string) (tree.NodeView, error)
	Edit(name string, path value.Path, input any) error
	SetExpanded(name string, path value.Path, expanded bool) error
	Apply() poll.CommitReport
	Cancel()
	PendingEdits() bool
}

// Server routes requests to an Inspector.
type Server struct {
	inspector Inspector
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithMetrics serves the gatherer on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler.
func NewHandler(inspector Inspector, opts ...Option) http.Handler {
	s := &Server{
		inspector: inspector,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/trees", s.ListTrees)
	r.Get("/trees/{name}", s.GetTree)
	r.Put("/trees/{name}/nodes", s.EditNode)
	r.Post("/trees/{name}/expand", s.ExpandNode)
	r.Get("/edits", s.GetEdits)
	r.Post("/edits/apply", s.ApplyEdits)
	r.Post("/edits/cancel", s.CancelEdits)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "vizkit-http",
		"version": strings.TrimSpace(vizkit.Version),
	})
}

// ListTrees handles GET /trees.
func (s *Server) ListTrees(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.inspector.Trees())
}

// GetTree handles GET /trees/{name}. ?format=markdown returns a markdown snapshot.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	view, err := s.inspector.Tree(name)
	if err != nil {
		s.fail(w, err, http.StatusInternalServerError)
		return
	}
	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		io.WriteString(w, treeview.Markdown(name, view))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// EditRequest is the body of PUT /trees/{name}/nodes.
type EditRequest struct {
	Value any `json:"value"`
}

// EditNode handles PUT /trees/{name}/nodes?path=a.b[0].
func (s *Server) EditNode(w http.ResponseWriter, r *http.Request) {
	path, ok := s.path(w, r)
	if !ok {
		return
	}
	var body EditRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("edit: invalid request body", "err", err)
		return
	}
	if n, ok := body.Value.(json.Number); ok {
		body.Value = number(n)
	}
	if err := s.inspector.Edit(chi.URLParam(r, "name"), path, body.Value); err != nil {
		s.fail(w, err, http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExpandNode handles POST /trees/{name}/expand?path=a.b&expanded=false.
func (s *Server) ExpandNode(w http.ResponseWriter, r *http.Request) {
	path, ok := s.path(w, r)
	if !ok {
		return
	}
	expanded := true
	if raw := r.URL.Query().Get("expanded"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "Invalid expanded flag", http.StatusBadRequest)
			return
		}
		expanded = b
	}
	if err := s.inspector.SetExpanded(chi.URLParam(r, "name"), path, expanded); err != nil {
		s.fail(w, err, http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetEdits handles GET /edits.
func (s *Server) GetEdits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"pending": s.inspector.PendingEdits()})
}

// CommitResponse reports the outcome of POST /edits/apply.
type CommitResponse struct {
	Written int             `json:"written"`
	Failed  []CommitFailure `json:"failed"`
}

// CommitFailure is one leaf that could not be written.
type CommitFailure struct {
	Tree  string `json:"tree"`
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ApplyEdits handles POST /edits/apply. Partial failures still answer 200;
// the failed leaves stay pending.
func (s *Server) ApplyEdits(w http.ResponseWriter, r *http.Request) {
	rep := s.inspector.Apply()
	resp := CommitResponse{Written: rep.Written, Failed: []CommitFailure{}}
	for _, f := range rep.Failed {
		resp.Failed = append(resp.Failed, CommitFailure{
			Tree:  f.Registration,
			Path:  f.Path.String(),
			Error: f.Err.Error(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// CancelEdits handles POST /edits/cancel.
func (s *Server) CancelEdits(w http.ResponseWriter, r *http.Request) {
	s.inspector.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// number keeps integers exact; anything else goes through as text and is
// parsed against the node's type.
func number(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	return n.String()
}

func (s *Server) path(w http.ResponseWriter, r *http.Request) (value.Path, bool) {
	path, err := value.ParsePath(r.URL.Query().Get("path"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return path, true
}

func (s *Server) fail(w http.ResponseWriter, err error, fallback int) {
	status := statusFor(err, fallback)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotEditable),
		errors.Is(err, domain.ErrReadOnly),
		errors.Is(err, value.ErrNotScalar):
		return http.StatusConflict
	case errors.Is(err, domain.ErrShapeMismatch),
		errors.Is(err, value.ErrOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
