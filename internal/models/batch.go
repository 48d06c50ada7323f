package models

import "time"

// Relationship item types.
const (
	RelationshipNot     = "NOT"
	RelationshipInclude = "INCLUDE"
	RelationshipExclude = "EXCLUDE"
)

// KeywordItem wraps a single keyword string.
type KeywordItem struct {
	Keyword string `json:"keyword" yaml:"keyword"`
}

// RelationshipItem is one typed keyword set inside a RelationshipKeyword group.
type RelationshipItem struct {
	Type     string        `json:"type" yaml:"type"`
	Keywords []KeywordItem `json:"keywords" yaml:"keywords"`
}

// RelationshipKeyword groups relationship items. Only NOT items affect filtering.
type RelationshipKeyword struct {
	Items []RelationshipItem `json:"items" yaml:"items"`
}

// TopicKeyword is echoed back to callers untouched.
type TopicKeyword struct {
	Keyword string `json:"keyword" yaml:"keyword"`
	Type    string `json:"type" yaml:"type"`
}

// SourceBatch is the unit of work: one group of sources for one topic.
type SourceBatch struct {
	BatchID              string                `json:"batchId" yaml:"batchId"`
	BatchNumber          int                   `json:"batchNumber" yaml:"batchNumber"`
	TotalBatches         int                   `json:"totalBatches" yaml:"totalBatches"`
	TopicID              string                `json:"topicId" yaml:"topicId"`
	TopicName            string                `json:"topicName" yaml:"topicName"`
	Sources              []Source              `json:"sources" yaml:"sources"`
	RelationshipKeywords []RelationshipKeyword `json:"relationshipKeywords,omitempty" yaml:"relationshipKeywords,omitempty"`
	Keywords             []TopicKeyword        `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// ArticleFetchRequest is the body accepted by the fetch endpoint and the worker topic.
type ArticleFetchRequest struct {
	SourceBatch *SourceBatch `json:"sourceBatch" yaml:"sourceBatch"`
}

// DiscardStats accounts for every article removed by the keyword filter.
// TotalDiscarded always equals DiscardedByNoContent + DiscardedByNotKeywords.
type DiscardStats struct {
	TotalDiscarded         int            `json:"totalDiscarded"`
	DiscardedByNoContent   int            `json:"discardedByNoContent"`
	DiscardedByNotKeywords int            `json:"discardedByNotKeywords"`
	KeywordDiscardStats    map[string]int `json:"keywordDiscardStats"`
}

// NewDiscardStats returns zeroed stats with a non-nil keyword map.
func NewDiscardStats() DiscardStats {
	return DiscardStats{KeywordDiscardStats: map[string]int{}}
}

// BatchDetails identifies the batch and its timing.
type BatchDetails struct {
	BatchID          string    `json:"batchId"`
	BatchNumber      int       `json:"batchNumber"`
	TotalBatches     int       `json:"totalBatches"`
	TopicID          string    `json:"topicId"`
	TopicName        string    `json:"topicName"`
	ProcessedAt      time.Time `json:"processedAt"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
}

// ProcessingStats summarises source and article counts for a batch.
type ProcessingStats struct {
	TotalSourcesProcessed       int  `json:"totalSourcesProcessed"`
	SuccessfulSources           int  `json:"successfulSources"`
	FailedSources               int  `json:"failedSources"`
	TotalArticlesFetched        int  `json:"totalArticlesFetched"`
	TotalArticlesAfterFiltering int  `json:"totalArticlesAfterFiltering"`
	TotalArticlesDiscarded      int  `json:"totalArticlesDiscarded"`
	FilteringApplied            bool `json:"filteringApplied"`
}

// FailedSourceInfo is the per-source failure summary in a response.
type FailedSourceInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	RSSFeedURL  string    `json:"rssFeedUrl"`
	Error       string    `json:"error"`
	Success     bool      `json:"success"`
	LastFetched time.Time `json:"lastFetched"`
}

// ArticleFetchResponse is the structured report for one processed batch.
type ArticleFetchResponse struct {
	Success                  bool                  `json:"success"`
	BatchDetails             BatchDetails          `json:"batchDetails"`
	ProcessingStats          ProcessingStats       `json:"processingStats"`
	FailedSources            []FailedSourceInfo    `json:"failedSources"`
	DiscardedArticlesResults DiscardStats          `json:"discardedArticlesResults"`
	Articles                 []EnrichedArticle     `json:"articles"`
	RelationshipKeywords     []RelationshipKeyword `json:"relationshipKeywords"`
	TopicKeywords            []TopicKeyword        `json:"topicKeywords"`
}

// ErrorResponse is returned when a request cannot be processed at all.
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}
