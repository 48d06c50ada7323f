package report

import (
	"time"

	"github.com/DeafMist/rss-article-fetcher/internal/batch"
	"github.com/DeafMist/rss-article-fetcher/internal/filter"
	"github.com/DeafMist/rss-article-fetcher/internal/models"
)

// Input carries everything the report is assembled from.
type Input struct {
	Batch        models.SourceBatch
	Result       batch.Result
	FetchedCount int
	Filtered     filter.Result
	ProcessedAt  time.Time
}

// Build shapes the final batch response.
func Build(in Input) models.ArticleFetchResponse {
	articles := in.Filtered.Articles
	if articles == nil {
		articles = []models.EnrichedArticle{}
	}
	stats := in.Filtered.Stats
	if stats.KeywordDiscardStats == nil {
		stats.KeywordDiscardStats = map[string]int{}
	}

	return models.ArticleFetchResponse{
		Success: true,
		BatchDetails: models.BatchDetails{
			BatchID:          in.Batch.BatchID,
			BatchNumber:      in.Batch.BatchNumber,
			TotalBatches:     in.Batch.TotalBatches,
			TopicID:          in.Batch.TopicID,
			TopicName:        in.Batch.TopicName,
			ProcessedAt:      in.ProcessedAt.UTC(),
			ProcessingTimeMs: in.Result.ProcessingTimeMs,
		},
		ProcessingStats: models.ProcessingStats{
			TotalSourcesProcessed:       len(in.Result.Processed),
			SuccessfulSources:           len(in.Result.Successful),
			FailedSources:               len(in.Result.Failed),
			TotalArticlesFetched:        in.FetchedCount,
			TotalArticlesAfterFiltering: len(articles),
			TotalArticlesDiscarded:      stats.TotalDiscarded,
			FilteringApplied:            len(in.Batch.RelationshipKeywords) > 0,
		},
		FailedSources:            FailedSources(in.Result.Failed),
		DiscardedArticlesResults: stats,
		Articles:                 articles,
		RelationshipKeywords:     nonNil(in.Batch.RelationshipKeywords),
		TopicKeywords:            nonNil(in.Batch.Keywords),
	}
}

// FailedSources summarises failed sources for the response.
func FailedSources(failed []models.ProcessedSource) []models.FailedSourceInfo {
	out := make([]models.FailedSourceInfo, 0, len(failed))
	for _, ps := range failed {
		out = append(out, models.FailedSourceInfo{
			ID:          ps.ID,
			Name:        ps.Name,
			URL:         ps.URL,
			RSSFeedURL:  ps.RSSFeedURL,
			Error:       ps.Error,
			Success:     false,
			LastFetched: ps.LastFetched,
		})
	}
	return out
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
