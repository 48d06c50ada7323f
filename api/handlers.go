package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DeafMist/rss-article-fetcher/internal/config"
	"github.com/DeafMist/rss-article-fetcher/internal/elasticsearch"
	"github.com/DeafMist/rss-article-fetcher/internal/models"
	"github.com/DeafMist/rss-article-fetcher/internal/pipeline"
)

const maxBodyBytes = 10 << 20

type articleStore interface {
	Health(ctx context.Context) error
	SearchArticles(ctx context.Context, params elasticsearch.SearchParams) (*elasticsearch.SearchResult, error)
}

type batchRunner interface {
	Run(ctx context.Context, b models.SourceBatch) (models.ArticleFetchResponse, error)
}

type server struct {
	log      *slog.Logger
	cfg      *config.API
	es       articleStore
	pipeline batchRunner
	now      func() time.Time
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Route("/v1/articles", func(r chi.Router) {
		r.Get("/", s.handleSearch)
		r.Post("/fetch", s.handleFetch)
	})
	return r
}

func (s *server) timestamp() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

func (s *server) writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{
		Success:   false,
		Error:     msg,
		Timestamp: s.timestamp(),
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.es.Health(ctx); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleFetch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Validation Error: "+err.Error())
		return
	}

	batch, err := pipeline.DecodeRequest(body)
	if err != nil {
		s.log.Warn("rejected fetch request",
			slog.String("request_id", middleware.GetReqID(ctx)),
			slog.Any("err", err),
		)
		s.writeError(w, http.StatusBadRequest, "Validation Error: "+err.Error())
		return
	}

	resp, err := s.pipeline.Run(ctx, batch)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidRequest) {
			s.writeError(w, http.StatusBadRequest, "Validation Error: "+err.Error())
			return
		}
		s.log.Error("batch failed",
			slog.String("request_id", middleware.GetReqID(ctx)),
			slog.String("batch_id", batch.BatchID),
			slog.Any("err", err),
		)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	params := elasticsearch.SearchParams{
		Query:    strings.TrimSpace(q.Get("q")),
		TopicID:  strings.TrimSpace(q.Get("topic")),
		SourceID: strings.TrimSpace(q.Get("source")),
		From:     clampInt(q.Get("from"), 0, 10_000),
		Size:     clampInt(q.Get("size"), s.cfg.DefaultPage, s.cfg.MaxPage),
		Sort:     strings.TrimSpace(q.Get("sort")),
		Start:    parseTime(q.Get("start")),
		End:      parseTime(q.Get("end")),
	}

	result, err := s.es.SearchArticles(ctx, params)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts
	}
	return nil
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
