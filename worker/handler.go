package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/rss-article-fetcher/internal/dedupe"
	"github.com/DeafMist/rss-article-fetcher/internal/models"
	"github.com/DeafMist/rss-article-fetcher/internal/pipeline"
	"github.com/DeafMist/rss-article-fetcher/internal/processing"
)

type articleIndexer interface {
	IndexArticle(ctx context.Context, doc models.ArticleDocument) error
}

type batchRunner interface {
	Run(ctx context.Context, b models.SourceBatch) (models.ArticleFetchResponse, error)
}

type handler struct {
	log       *slog.Logger
	pipeline  batchRunner
	indexer   articleIndexer
	seen      dedupe.Store
	publisher messageWriter
	now       func() time.Time
}

// processMessage runs one source batch, indexes the surviving articles and
// publishes the batch report keyed by batch id.
func (h *handler) processMessage(ctx context.Context, msg kafka.Message) error {
	b, err := pipeline.DecodeRequest(msg.Value)
	if err != nil {
		return err
	}

	resp, err := h.pipeline.Run(ctx, b)
	if err != nil {
		return err
	}

	fetchedAt := h.timestamp()
	indexed, skipped := 0, 0
	for _, article := range resp.Articles {
		doc := models.ArticleDocument{
			ID:              processing.BuildArticleID(article.SourceID, article.Link, article.GUID, article.Title),
			BatchID:         b.BatchID,
			FetchedAt:       fetchedAt,
			EnrichedArticle: article,
		}
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}

		dup, err := h.seen.IsSeen(ctx, doc.ID)
		if err != nil {
			h.log.Warn("dedupe lookup failed", slog.String("id", doc.ID), slog.Any("err", err))
		}
		if dup {
			h.log.Debug("duplicate article", slog.String("id", doc.ID))
			skipped++
			continue
		}

		if err := h.indexer.IndexArticle(ctx, doc); err != nil {
			return fmt.Errorf("index article %s: %w", doc.ID, err)
		}

		if err := h.seen.MarkSeen(ctx, doc.ID); err != nil {
			h.log.Warn("dedupe mark failed", slog.String("id", doc.ID), slog.Any("err", err))
		}
		indexed++
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	if err := h.publisher.WriteMessages(ctx, kafka.Message{
		Key:   []byte(b.BatchID),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("publish batch %s: %w", b.BatchID, err)
	}

	h.log.Info("batch indexed",
		slog.String("batch_id", b.BatchID),
		slog.Int("indexed", indexed),
		slog.Int("duplicates", skipped),
	)
	return nil
}

func (h *handler) timestamp() time.Time {
	if h.now != nil {
		return h.now().UTC()
	}
	return time.Now().UTC()
}
