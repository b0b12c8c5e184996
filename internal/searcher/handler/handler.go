// Package handler serves index lookups, query weights and rankings over
// HTTP with JSON responses.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/searcher/weighter"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/tfindex/pkg/logger"
)

// Index is what the handlers need from a built index.
type Index interface {
	weighter.Source
	ranker.Corpus
	SourceText(id string) ([]byte, error)
	Name() string
	Generation() time.Time
}

type Options struct {
	DefaultModel string
	DefaultLimit int
	MaxResults   int
	// Cache is optional; rankings are computed on every request without it.
	Cache *cache.RankCache
}

type Handler struct {
	ix       Index
	weighter *weighter.Weighter
	models   map[string]ranker.Model
	opts     Options
	logger   *slog.Logger
}

func New(ix Index, opts Options) (*Handler, error) {
	if opts.DefaultModel == "" {
		opts.DefaultModel = ranker.ModelBM25
	}
	if opts.DefaultLimit < 1 {
		opts.DefaultLimit = 10
	}
	if opts.MaxResults < opts.DefaultLimit {
		opts.MaxResults = opts.DefaultLimit
	}
	models := make(map[string]ranker.Model)
	for _, name := range []string{ranker.ModelBM25, ranker.ModelVector} {
		m, err := ranker.NewModel(name, ix)
		if err != nil {
			return nil, err
		}
		models[name] = m
	}
	if _, ok := models[opts.DefaultModel]; !ok {
		return nil, fmt.Errorf("%w: unknown default model %q", apperrors.ErrInvalidInput, opts.DefaultModel)
	}
	return &Handler{
		ix:       ix,
		weighter: weighter.New(ix, ix.Extractor()),
		models:   models,
		opts:     opts,
		logger:   slog.Default().With("component", "search-handler"),
	}, nil
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/documents/{id}", h.Document)
	mux.HandleFunc("GET /api/v1/documents/{id}/text", h.DocumentText)
	mux.HandleFunc("GET /api/v1/terms/{term}", h.Term)
	mux.HandleFunc("GET /api/v1/query", h.Query)
	mux.HandleFunc("GET /api/v1/rank", h.Rank)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
}

func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tf, err := h.weighter.ForDocument(id)
	if err != nil {
		h.fail(w, r, "document lookup failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"id": id, "terms": tf})
}

func (h *Handler) DocumentText(w http.ResponseWriter, r *http.Request) {
	text, err := h.ix.SourceText(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "text lookup failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(text); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) Term(w http.ResponseWriter, r *http.Request) {
	term := r.PathValue("term")
	docs, err := h.weighter.ForTerm(term)
	if err != nil {
		h.fail(w, r, "term lookup failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"term": term, "documents": docs})
}

func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	weights := h.weighter.ForQuery(q)
	if invocab, _ := strconv.ParseBool(r.URL.Query().Get("invocab")); invocab {
		weights = h.weighter.InVocabulary(weights)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"query": q, "weights": weights})
}

type rankResponse struct {
	Query     string             `json:"query"`
	Model     string             `json:"model"`
	Results   []ranker.ScoredDoc `json:"results"`
	CacheHit  bool               `json:"cache_hit"`
	LatencyMs int64              `json:"latency_ms"`
}

func (h *Handler) Rank(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit := h.opts.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, h.opts.MaxResults)
	}
	modelName := r.URL.Query().Get("model")
	if modelName == "" {
		modelName = h.opts.DefaultModel
	}
	model, ok := h.models[modelName]
	if !ok {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown model %q", modelName))
		return
	}

	compute := func(ctx context.Context) ([]ranker.ScoredDoc, error) {
		return ranker.Rank(ctx, model, q, limit)
	}
	var (
		results []ranker.ScoredDoc
		hit     bool
		err     error
	)
	if h.opts.Cache != nil {
		results, hit, err = h.opts.Cache.GetOrCompute(ctx, cache.Key{
			Index:      h.ix.Name(),
			Generation: h.ix.Generation(),
			Model:      modelName,
			Query:      q,
			Limit:      limit,
		}, compute)
	} else {
		results, err = compute(ctx)
	}
	if err != nil {
		h.fail(w, r, "ranking failed", err)
		return
	}

	resp := rankResponse{
		Query:     q,
		Model:     modelName,
		Results:   results,
		CacheHit:  hit,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	log.Info("rank completed",
		"query", q,
		"model", modelName,
		"returned", len(results),
		"cache_hit", hit,
		"latency_ms", resp.LatencyMs,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.opts.Cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.opts.Cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error(msg, "path", r.URL.Path, "error", err)
		h.writeError(w, status, msg)
		return
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
