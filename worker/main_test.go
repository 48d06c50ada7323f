package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/DeafMist/rss-article-fetcher/internal/batch"
	"github.com/DeafMist/rss-article-fetcher/internal/dedupe"
	"github.com/DeafMist/rss-article-fetcher/internal/feed"
	"github.com/DeafMist/rss-article-fetcher/internal/logger"
	"github.com/DeafMist/rss-article-fetcher/internal/models"
	"github.com/DeafMist/rss-article-fetcher/internal/pipeline"
	"github.com/DeafMist/rss-article-fetcher/internal/processing"
)

type stubIndexer struct {
	docs []models.ArticleDocument
	err  error
}

func (s *stubIndexer) IndexArticle(_ context.Context, doc models.ArticleDocument) error {
	if s.err != nil {
		return s.err
	}
	s.docs = append(s.docs, doc)
	return nil
}

type stubWriter struct {
	msgs  []kafka.Message
	fails int
}

func (s *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if s.fails > 0 {
		s.fails--
		return errors.New("broker unavailable")
	}
	s.msgs = append(s.msgs, msgs...)
	return nil
}

var fetchedAt = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func newHandler(idx *stubIndexer, pub *stubWriter) *handler {
	retriever := feed.RetrieverFunc(func(context.Context, string) (*feed.Feed, error) {
		return &feed.Feed{
			Title: "Energy Daily",
			Items: []feed.Item{
				{Title: "Solar farms expand", Link: "https://e.example.com/1", Content: "Cheap power"},
				{Title: "Wind turbines", GUID: "guid-2", Content: "Offshore"},
				{Title: "Bitcoin mining uses power", Link: "https://e.example.com/3"},
			},
		}, nil
	})
	scheduler := batch.NewScheduler(feed.NewFetcher(retriever, nil), batch.Options{Delay: -1}, nil)

	return &handler{
		log:       logger.Discard(),
		pipeline:  pipeline.New(scheduler, nil),
		indexer:   idx,
		seen:      dedupe.NewCache(100, time.Hour),
		publisher: pub,
		now:       func() time.Time { return fetchedAt },
	}
}

func batchMessage(t *testing.T) kafka.Message {
	t.Helper()
	req := models.ArticleFetchRequest{SourceBatch: &models.SourceBatch{
		BatchID:   "batch-7",
		TopicID:   "t1",
		TopicName: "Energy",
		Sources: []models.Source{
			{ID: "src-1", Name: "Energy Daily", RSSFeedURL: "https://e.example.com/rss"},
		},
		RelationshipKeywords: []models.RelationshipKeyword{{
			Items: []models.RelationshipItem{{
				Type:     models.RelationshipNot,
				Keywords: []models.KeywordItem{{Keyword: "Bitcoin"}},
			}},
		}},
	}}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return kafka.Message{Value: data}
}

func TestProcessMessageIndexesAndPublishes(t *testing.T) {
	idx := &stubIndexer{}
	pub := &stubWriter{}
	h := newHandler(idx, pub)

	require.NoError(t, h.processMessage(context.Background(), batchMessage(t)))

	require.Len(t, idx.docs, 2)
	first := idx.docs[0]
	require.Equal(t, processing.BuildArticleID("src-1", "https://e.example.com/1", "", "Solar farms expand"), first.ID)
	require.Equal(t, "batch-7", first.BatchID)
	require.True(t, first.FetchedAt.Equal(fetchedAt))
	require.Equal(t, "Energy", first.TopicName)
	require.Equal(t, processing.BuildArticleID("src-1", "", "guid-2", "Wind turbines"), idx.docs[1].ID)

	require.Len(t, pub.msgs, 1)
	require.Equal(t, "batch-7", string(pub.msgs[0].Key))

	var resp models.ArticleFetchResponse
	require.NoError(t, json.Unmarshal(pub.msgs[0].Value, &resp))
	require.True(t, resp.Success)
	require.Equal(t, 1, resp.DiscardedArticlesResults.DiscardedByNotKeywords)
	require.Equal(t, 1, resp.DiscardedArticlesResults.KeywordDiscardStats["bitcoin"])
}

func TestProcessMessageSkipsDuplicates(t *testing.T) {
	idx := &stubIndexer{}
	pub := &stubWriter{}
	h := newHandler(idx, pub)

	require.NoError(t, h.processMessage(context.Background(), batchMessage(t)))
	require.NoError(t, h.processMessage(context.Background(), batchMessage(t)))

	require.Len(t, idx.docs, 2)
	require.Len(t, pub.msgs, 2)
}

func TestProcessMessageRejectsInvalidBatch(t *testing.T) {
	idx := &stubIndexer{}
	pub := &stubWriter{}
	h := newHandler(idx, pub)

	err := h.processMessage(context.Background(), kafka.Message{Value: []byte(`{"sourceBatch":{"batchId":"b"}}`)})
	require.ErrorIs(t, err, pipeline.ErrInvalidRequest)
	require.Empty(t, idx.docs)
	require.Empty(t, pub.msgs)
}

func TestProcessMessageIndexFailure(t *testing.T) {
	idx := &stubIndexer{err: errors.New("es down")}
	pub := &stubWriter{}
	h := newHandler(idx, pub)

	err := h.processMessage(context.Background(), batchMessage(t))
	require.ErrorContains(t, err, "es down")
	require.Empty(t, pub.msgs)
}

func TestProcessMessagePublishFailure(t *testing.T) {
	h := newHandler(&stubIndexer{}, &stubWriter{fails: 1})

	err := h.processMessage(context.Background(), batchMessage(t))
	require.ErrorContains(t, err, "publish batch batch-7")
}

func TestSendToDLQAddsContext(t *testing.T) {
	w := &stubWriter{}
	msg := kafka.Message{Key: []byte("k"), Value: []byte("v"), Partition: 2, Offset: 41}

	require.True(t, sendToDLQ(context.Background(), logger.Discard(), w, msg, errors.New("bad batch")))
	require.Len(t, w.msgs, 1)

	headers := map[string]string{}
	for _, h := range w.msgs[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	require.Equal(t, "2", headers["original_partition"])
	require.Equal(t, "41", headers["original_offset"])
	require.Equal(t, "bad batch", headers["error"])
	require.NotEmpty(t, headers["timestamp"])
	require.Equal(t, []byte("v"), w.msgs[0].Value)
}

func TestSendToDLQStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := &stubWriter{fails: 10}
	require.False(t, sendToDLQ(ctx, logger.Discard(), w, kafka.Message{}, errors.New("x")))
	require.Empty(t, w.msgs)
}
