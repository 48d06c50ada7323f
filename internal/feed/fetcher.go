package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/DeafMist/rss-article-fetcher/internal/models"
	"github.com/DeafMist/rss-article-fetcher/internal/processing"
)

// ErrNoFeedURL is reported for sources without a feed URL.
var ErrNoFeedURL = errors.New("No RSS feed URL provided")

// Fetcher turns one Source into one ProcessedSource. It never returns an error:
// every failure is recorded on the ProcessedSource.
type Fetcher struct {
	retriever Retriever
	log       *slog.Logger
	now       func() time.Time
}

// NewFetcher wires a Fetcher to its feed retriever.
func NewFetcher(retriever Retriever, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{
		retriever: retriever,
		log:       logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Fetch retrieves src's feed and maps its items into articles.
func (f *Fetcher) Fetch(ctx context.Context, src models.Source) models.ProcessedSource {
	if src.RSSFeedURL == "" {
		f.log.Warn("source has no feed url", slog.String("source", src.Name), slog.String("source_id", src.ID))
		return models.FailedSource(src, ErrNoFeedURL.Error(), f.now())
	}

	parsed, err := f.retriever.Retrieve(ctx, src.RSSFeedURL)
	if err == nil && parsed == nil {
		err = errors.New("empty feed document")
	}
	if err != nil {
		f.log.Warn("fetch feed failed",
			slog.String("source", src.Name),
			slog.String("url", src.RSSFeedURL),
			slog.Any("err", err),
		)
		return models.FailedSource(src, err.Error(), f.now())
	}

	articles := make([]models.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		articles = append(articles, toArticle(src, item))
	}

	out := models.ProcessedSource{
		Source:          src,
		Articles:        articles,
		ArticlesCount:   len(articles),
		LastFetched:     f.now(),
		FeedTitle:       firstString(parsed.Title, src.Name),
		FeedDescription: parsed.Description,
		FeedLanguage:    firstString(parsed.Language, src.Language),
		FeedLink:        firstString(parsed.Link, src.URL),
		Success:         true,
	}

	f.log.Debug("fetched feed",
		slog.String("source", src.Name),
		slog.Int("articles", len(articles)),
	)
	return out
}

func toArticle(src models.Source, item Item) models.Article {
	pubDate := processing.ToSafeISODate(processing.FirstNonEmpty(item.PubDate, item.ISODate))
	if pubDate == "" {
		pubDate = processing.ToSafeISODate(item.ISODate)
	}

	return models.Article{
		Title:                 processing.ToSafeString(item.Title),
		Description:           processing.ToSafeString(processing.FirstNonEmpty(item.ContentSnippet, item.Content)),
		Content:               processing.ToSafeString(item.Content),
		ContentSnippet:        processing.ToSafeString(item.ContentSnippet),
		Summary:               processing.ToSafeString(item.Summary),
		FullContentBody:       processing.ToSafeString(item.FullContentBody),
		ContentEncoded:        processing.ToSafeString(item.ContentEncoded),
		ContentSnippetEncoded: processing.ToSafeString(item.ContentEncodedSnippet),
		Link:                  processing.ToSafeString(item.Link),
		PubDate:               pubDate,
		Author:                processing.ToSafeString(processing.FirstNonEmpty(item.Creator, item.Author)),
		GUID:                  processing.ToSafeString(processing.FirstNonEmpty(item.GUID, item.ID)),
		Source:                src.Name,
		SourceID:              src.ID,
		SourceScore:           src.Score,
	}
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
