package pipeline

import (
	"log/slog"
	"net/http"

	"github.com/DeafMist/rss-article-fetcher/internal/batch"
	"github.com/DeafMist/rss-article-fetcher/internal/config"
	"github.com/DeafMist/rss-article-fetcher/internal/feed"
)

// NewFromConfig wires the HTTP retriever, fetcher and scheduler from fetch
// settings. A zero BatchDelay disables pacing.
func NewFromConfig(cfg config.Fetch, client *http.Client, logger *slog.Logger) *Service {
	retriever := feed.NewHTTPRetriever(feed.Config{
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
	}, client)

	delay := cfg.BatchDelay
	if delay == 0 {
		delay = -1
	}

	scheduler := batch.NewScheduler(
		feed.NewFetcher(retriever, logger),
		batch.Options{Size: cfg.BatchSize, Delay: delay},
		logger,
	)
	return New(scheduler, logger)
}
