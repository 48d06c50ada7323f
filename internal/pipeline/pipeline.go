package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/DeafMist/rss-article-fetcher/internal/batch"
	"github.com/DeafMist/rss-article-fetcher/internal/enrich"
	"github.com/DeafMist/rss-article-fetcher/internal/filter"
	"github.com/DeafMist/rss-article-fetcher/internal/models"
	"github.com/DeafMist/rss-article-fetcher/internal/report"
)

// ErrInvalidRequest marks structurally malformed batch requests.
var ErrInvalidRequest = errors.New("Invalid sourceBatch object or required fields missing")

// Processor runs the concurrent fetch stage.
type Processor interface {
	Process(ctx context.Context, sources []models.Source) batch.Result
}

// Service runs a batch through fetch, enrichment, filtering and reporting.
type Service struct {
	processor Processor
	log       *slog.Logger
	now       func() time.Time
}

// New builds a Service around the fetch stage.
func New(processor Processor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{processor: processor, log: logger, now: time.Now}
}

// DecodeRequest parses a JSON {"sourceBatch": {...}} body and validates it.
func DecodeRequest(data []byte) (models.SourceBatch, error) {
	var req models.ArticleFetchRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return models.SourceBatch{}, fmt.Errorf("%w: decode body: %v", ErrInvalidRequest, err)
	}
	if err := Validate(&req); err != nil {
		return models.SourceBatch{}, err
	}
	return *req.SourceBatch, nil
}

// Validate rejects requests without a batch, a sources array, a batch id or
// a topic name.
func Validate(req *models.ArticleFetchRequest) error {
	if req == nil || req.SourceBatch == nil {
		return fmt.Errorf("%w: sourceBatch is required", ErrInvalidRequest)
	}
	return ValidateBatch(*req.SourceBatch)
}

// ValidateBatch checks the required fields of a single batch.
func ValidateBatch(b models.SourceBatch) error {
	switch {
	case b.Sources == nil:
		return fmt.Errorf("%w: sources array is required", ErrInvalidRequest)
	case b.BatchID == "":
		return fmt.Errorf("%w: batchId is required", ErrInvalidRequest)
	case b.TopicName == "":
		return fmt.Errorf("%w: topicName is required", ErrInvalidRequest)
	}
	return nil
}

// Run processes one batch. The only error it returns is ErrInvalidRequest;
// per-source failures are reported inside the response.
func (s *Service) Run(ctx context.Context, b models.SourceBatch) (models.ArticleFetchResponse, error) {
	if err := ValidateBatch(b); err != nil {
		return models.ArticleFetchResponse{}, err
	}

	s.log.Info("processing batch",
		slog.String("topic", b.TopicName),
		slog.String("batch_id", b.BatchID),
		slog.Int("sources", len(b.Sources)),
	)

	result := s.processor.Process(ctx, b.Sources)
	articles := enrich.Articles(result.Successful, b)
	filtered := filter.ExcludeNotKeywords(articles, b.RelationshipKeywords)

	resp := report.Build(report.Input{
		Batch:        b,
		Result:       result,
		FetchedCount: len(articles),
		Filtered:     filtered,
		ProcessedAt:  s.now(),
	})

	s.log.Info("batch completed",
		slog.String("topic", b.TopicName),
		slog.String("batch_id", b.BatchID),
		slog.Int("successful", resp.ProcessingStats.SuccessfulSources),
		slog.Int("failed", resp.ProcessingStats.FailedSources),
		slog.Int("articles", resp.ProcessingStats.TotalArticlesAfterFiltering),
		slog.Int("discarded", resp.ProcessingStats.TotalArticlesDiscarded),
		slog.Int64("elapsed_ms", resp.BatchDetails.ProcessingTimeMs),
	)
	return resp, nil
}
