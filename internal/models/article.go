package models

import "time"

// Article is the normalized representation of one feed item.
type Article struct {
	Title                 string  `json:"title"`
	Description           string  `json:"description"`
	Content               string  `json:"content"`
	ContentSnippet        string  `json:"contentSnippet"`
	Summary               string  `json:"summary"`
	FullContentBody       string  `json:"fullContentBody"`
	ContentEncoded        string  `json:"contentEncoded"`
	ContentSnippetEncoded string  `json:"contentSnippetEncoded"`
	Link                  string  `json:"link"`
	PubDate               string  `json:"pubDate"`
	Author                string  `json:"author"`
	GUID                  string  `json:"guid"`
	Source                string  `json:"source"`
	SourceID              string  `json:"sourceId"`
	SourceScore           float64 `json:"sourceScore"`
}

// EnrichedArticle is an Article tagged with its source and topic metadata.
type EnrichedArticle struct {
	Article
	OriginalSourceID      string `json:"originalSourceId"`
	OriginalSourceName    string `json:"originalSourceName"`
	SourceName            string `json:"sourceName"`
	SourceRSSFeedURL      string `json:"sourceRssFeedUrl"`
	SourceContentFetching string `json:"sourceContentFetching"`
	FeedLanguage          string `json:"feedLanguage"`
	TopicID               string `json:"topicId"`
	TopicName             string `json:"topicName"`
}

// ArticleDocument is the canonical structure stored in Elasticsearch.
type ArticleDocument struct {
	ID        string    `json:"id"`
	BatchID   string    `json:"batchId"`
	FetchedAt time.Time `json:"fetchedAt"`
	EnrichedArticle
}
