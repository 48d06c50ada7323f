package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/DeafMist/rss-article-fetcher/internal/processing"
)

const (
	// DefaultTimeout bounds a single feed retrieval.
	DefaultTimeout = 20 * time.Second
	// DefaultUserAgent identifies the fetcher to feed servers.
	DefaultUserAgent = "RSS-Feed-Fetcher/1.0"
	// DefaultAccept lists the feed media types we ask for.
	DefaultAccept = "application/rss+xml, application/xml, text/xml, application/atom+xml, */*"

	maxFeedBytes = 10 << 20
)

// ErrTimeout is wrapped into retrieval errors caused by the per-fetch deadline.
var ErrTimeout = errors.New("request timed out")

// Config controls how feeds are requested.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	Accept    string
}

// DefaultConfig returns the stock retrieval settings.
func DefaultConfig() Config {
	return Config{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		Accept:    DefaultAccept,
	}
}

// Headers returns the request headers sent with every retrieval.
func (c Config) Headers() map[string]string {
	return map[string]string{
		"Accept":     c.Accept,
		"User-Agent": c.UserAgent,
	}
}

// HTTPRetriever downloads feeds over HTTP and parses them with gofeed.
type HTTPRetriever struct {
	client *http.Client
	parser *gofeed.Parser
	cfg    Config
}

// NewHTTPRetriever builds a retriever. A nil client uses a fresh http.Client;
// zero-valued config fields take their defaults.
func NewHTTPRetriever(cfg Config, client *http.Client) *HTTPRetriever {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Accept == "" {
		cfg.Accept = def.Accept
	}
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPRetriever{client: client, parser: gofeed.NewParser(), cfg: cfg}
}

// Retrieve fetches url and translates the parsed document into a Feed.
func (r *HTTPRetriever) Retrieve(ctx context.Context, url string) (*Feed, error) {
	ctx, cancel := context.WithTimeoutCause(ctx, r.cfg.Timeout,
		fmt.Errorf("%w after %s", ErrTimeout, r.cfg.Timeout))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range r.cfg.Headers() {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, r.wrapErr(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	parsed, err := r.parser.Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, r.wrapErr(ctx, err)
		}
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	return translate(parsed), nil
}

// wrapErr reports the per-fetch deadline as ErrTimeout. Cancellation or a
// deadline inherited from the caller is passed through with its own cause.
func (r *HTTPRetriever) wrapErr(ctx context.Context, err error) error {
	if ctx.Err() == nil {
		return err
	}
	cause := context.Cause(ctx)
	if errors.Is(cause, ErrTimeout) {
		return cause
	}
	if errors.Is(err, cause) {
		return err
	}
	return fmt.Errorf("%w: %v", cause, err)
}

func translate(parsed *gofeed.Feed) *Feed {
	out := &Feed{
		Title:       parsed.Title,
		Description: parsed.Description,
		Language:    parsed.Language,
		Link:        parsed.Link,
		Items:       make([]Item, 0, len(parsed.Items)),
	}
	for _, it := range parsed.Items {
		if it == nil {
			continue
		}
		out.Items = append(out.Items, translateItem(parsed.FeedType, it))
	}
	return out
}

// translateItem maps gofeed's unified item onto the raw slots. For RSS the
// <description> is the item content and <content:encoded> the encoded body;
// Atom and JSON feeds carry content and summary separately.
func translateItem(feedType string, it *gofeed.Item) Item {
	item := Item{
		Title:   optional(it.Title),
		Link:    optional(it.Link),
		GUID:    optional(it.GUID),
		PubDate: processing.FirstNonEmpty(optional(it.Published), optional(it.Updated)),
	}

	if it.PublishedParsed != nil {
		item.ISODate = *it.PublishedParsed
	} else if it.UpdatedParsed != nil {
		item.ISODate = *it.UpdatedParsed
	}

	if it.DublinCoreExt != nil && len(it.DublinCoreExt.Creator) > 0 {
		item.Creator = optional(it.DublinCoreExt.Creator[0])
	}
	if it.Author != nil {
		item.Author = processing.FirstNonEmpty(optional(it.Author.Name), optional(it.Author.Email))
	}

	if feedType == "rss" {
		item.Content = optional(it.Description)
		item.ContentEncoded = optional(it.Content)
	} else {
		item.Content = optional(it.Content)
		item.Summary = optional(it.Description)
	}
	item.ContentSnippet = optional(processing.StripHTML(item.Content))
	item.ContentEncodedSnippet = optional(processing.StripHTML(item.ContentEncoded))

	if body, ok := it.Custom["full_content_body"]; ok {
		item.FullContentBody = optional(body)
	}
	return item
}

// optional turns an empty string into nil so fallbacks skip it.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
