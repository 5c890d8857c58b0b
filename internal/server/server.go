// Package server exposes the batch pipeline over HTTP for UI frontends.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/stockbatch-cli/internal/batch"
	"github.com/sells-group/stockbatch-cli/internal/catalog"
	"github.com/sells-group/stockbatch-cli/internal/cost"
	"github.com/sells-group/stockbatch-cli/internal/model"
	"github.com/sells-group/stockbatch-cli/internal/order"
	"github.com/sells-group/stockbatch-cli/internal/parse"
	"github.com/sells-group/stockbatch-cli/internal/resolve"
	"github.com/sells-group/stockbatch-cli/internal/store"
)

// Deps are the pipeline pieces the server serves. Each request runs its own
// resolution pass, so the resolver is built per request from Lookup and
// ResolveOpts.
type Deps struct {
	UserID      string
	Snapshot    func() *catalog.Snapshot
	Lookup      resolve.Lookup
	ResolveOpts resolve.Options
	Aggregator  *cost.Aggregator
	Creator     *order.Creator
	History     store.Store // optional

	AllowedOrigins []string
}

// Server is the HTTP API.
type Server struct {
	deps Deps
}

// New creates the server.
func New(deps Deps) *Server {
	return &Server{deps: deps}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	origins := s.deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/providers", s.handleProviders)
		r.Post("/batch/preview", s.handlePreview)
		r.Post("/batch/order", s.handleOrder)
		r.Get("/submissions", s.handleSubmissions)
	})
	return r
}

type batchRequest struct {
	Text string `json:"text"`
}

type previewResponse struct {
	Refs    []model.ParsedReference `json:"refs"`
	Items   []model.ResolvedItem    `json:"items"`
	Summary *cost.Summary           `json:"summary"`
	Stats   model.BatchStats        `json:"stats"`
}

type orderResponse struct {
	previewResponse
	Confirmation *order.Confirmation `json:"confirmation"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog not loaded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": snap.Providers()})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.startSession(w, r)
	if !ok {
		return
	}

	sess.ResolveAll(r.Context())
	summary, err := sess.Aggregate(r.Context())
	if err != nil {
		if errors.Is(err, cost.ErrBalanceUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "balance unavailable")
			return
		}
		zap.L().Error("server: preview failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "preview failed")
		return
	}

	writeJSON(w, http.StatusOK, previewResponse{
		Refs:    sess.Refs(),
		Items:   sess.Items(),
		Summary: summary,
		Stats:   sess.Stats(),
	})
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.startSession(w, r)
	if !ok {
		return
	}

	sess.ResolveAll(r.Context())
	conf, err := sess.Submit(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, cost.ErrBalanceUnavailable):
			writeError(w, http.StatusServiceUnavailable, "balance unavailable")
		case errors.Is(err, batch.ErrNotAffordable):
			writeError(w, http.StatusPaymentRequired, "total cost exceeds balance")
		case errors.Is(err, batch.ErrNothingToOrder):
			writeError(w, http.StatusUnprocessableEntity, "no resolvable items to order")
		default:
			zap.L().Error("server: order failed", zap.Error(err))
			writeError(w, http.StatusBadGateway, "order submission failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, orderResponse{
		previewResponse: previewResponse{
			Refs:    sess.Refs(),
			Items:   sess.Items(),
			Summary: sess.Summary(),
			Stats:   sess.Stats(),
		},
		Confirmation: conf,
	})
}

func (s *Server) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, http.StatusNotFound, "history not configured")
		return
	}
	subs, err := s.deps.History.ListSubmissions(r.Context(), s.deps.UserID, 50)
	if err != nil {
		zap.L().Error("server: list submissions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list submissions failed")
		return
	}
	if subs == nil {
		subs = []store.Submission{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

// startSession decodes the batch request and builds a one-shot session
// around a fresh resolver so concurrent requests never cancel each other.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request) (*batch.Session, bool) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	snap := s.deps.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog not loaded")
		return nil, false
	}

	sess := batch.NewSession(s.deps.UserID,
		parse.New(snap),
		resolve.New(s.deps.Lookup, s.deps.ResolveOpts),
		s.deps.Aggregator,
		s.deps.Creator,
	)
	sess.Parse(req.Text)
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
