package feed

import "context"

// Feed is what a Retriever hands back: feed-level metadata plus raw items.
type Feed struct {
	Title       string
	Description string
	Language    string
	Link        string
	Items       []Item
}

// Item holds the loosely typed fields of one feed entry. Any slot may be nil;
// the Fetcher resolves fallbacks between slots in a fixed order.
type Item struct {
	Title                 any
	Link                  any
	Creator               any
	Author                any
	GUID                  any
	ID                    any
	PubDate               any
	ISODate               any
	Content               any
	ContentSnippet        any
	Summary               any
	FullContentBody       any
	ContentEncoded        any
	ContentEncodedSnippet any
}

// Retriever fetches and parses the feed published at url.
type Retriever interface {
	Retrieve(ctx context.Context, url string) (*Feed, error)
}

// RetrieverFunc adapts a function to the Retriever interface.
type RetrieverFunc func(ctx context.Context, url string) (*Feed, error)

// Retrieve calls f(ctx, url).
func (f RetrieverFunc) Retrieve(ctx context.Context, url string) (*Feed, error) {
	return f(ctx, url)
}
