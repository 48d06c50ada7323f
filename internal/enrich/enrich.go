package enrich

import "github.com/DeafMist/rss-article-fetcher/internal/models"

// Articles flattens the articles of successfully processed sources into
// enriched articles, keeping source order and feed order. Topic fields come
// from the source when set, otherwise from the batch.
func Articles(sources []models.ProcessedSource, batch models.SourceBatch) []models.EnrichedArticle {
	total := 0
	for _, ps := range sources {
		if ps.Success {
			total += len(ps.Articles)
		}
	}

	out := make([]models.EnrichedArticle, 0, total)
	for _, ps := range sources {
		if !ps.Success {
			continue
		}
		for _, a := range ps.Articles {
			out = append(out, enrichOne(a, ps, batch))
		}
	}
	return out
}

func enrichOne(a models.Article, ps models.ProcessedSource, batch models.SourceBatch) models.EnrichedArticle {
	a.SourceID = ps.ID
	a.SourceScore = ps.Score

	return models.EnrichedArticle{
		Article:               a,
		OriginalSourceID:      ps.ID,
		OriginalSourceName:    ps.Name,
		SourceName:            ps.Name,
		SourceRSSFeedURL:      ps.RSSFeedURL,
		SourceContentFetching: orDefault(ps.ContentFetching, models.ContentFetchingScraping),
		FeedLanguage:          ps.FeedLanguage,
		TopicID:               orDefault(ps.TopicID, batch.TopicID),
		TopicName:             orDefault(ps.TopicName, batch.TopicName),
	}
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
