package models

import "time"

// ContentFetching modes a source can declare.
const (
	ContentFetchingScraping = "SCRAPING"
	ContentFetchingRSSOnly  = "RSS_ONLY"
)

// Source is one configured feed origin.
type Source struct {
	ID              string  `json:"id" yaml:"id"`
	Name            string  `json:"name" yaml:"name"`
	URL             string  `json:"url" yaml:"url"`
	RSSFeedURL      string  `json:"rssFeedUrl" yaml:"rssFeedUrl"`
	Score           float64 `json:"score" yaml:"score"`
	Language        string  `json:"language,omitempty" yaml:"language,omitempty"`
	ContentFetching string  `json:"contentFetching,omitempty" yaml:"contentFetching,omitempty"`
	TopicID         string  `json:"topicId,omitempty" yaml:"topicId,omitempty"`
	TopicName       string  `json:"topicName,omitempty" yaml:"topicName,omitempty"`
}

// ProcessedSource is the outcome of fetching a single Source. Exactly one is
// produced per input source; failures are carried in Error with Success=false.
type ProcessedSource struct {
	Source
	Articles        []Article `json:"articles"`
	ArticlesCount   int       `json:"articlesCount"`
	LastFetched     time.Time `json:"lastFetched"`
	FeedTitle       string    `json:"feedTitle,omitempty"`
	FeedDescription string    `json:"feedDescription,omitempty"`
	FeedLanguage    string    `json:"feedLanguage,omitempty"`
	FeedLink        string    `json:"feedLink,omitempty"`
	Error           string    `json:"error,omitempty"`
	Success         bool      `json:"success"`
}

// FailedSource builds the ProcessedSource recorded when src could not be fetched.
func FailedSource(src Source, msg string, at time.Time) ProcessedSource {
	return ProcessedSource{
		Source:      src,
		Articles:    []Article{},
		LastFetched: at,
		Error:       msg,
		Success:     false,
	}
}
