package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/rss-article-fetcher/internal/config"
	"github.com/DeafMist/rss-article-fetcher/internal/models"
	"github.com/DeafMist/rss-article-fetcher/internal/pipeline"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadBatchJSONEnvelope(t *testing.T) {
	path := writeFile(t, "req.json", `{"sourceBatch":{"batchId":"b1","topicName":"Energy","sources":[{"id":"s1","rssFeedUrl":"https://x/rss","score":2.5}]}}`)

	b, err := loadBatch(path, nil)
	require.NoError(t, err)
	require.Equal(t, "b1", b.BatchID)
	require.Len(t, b.Sources, 1)
	require.Equal(t, 2.5, b.Sources[0].Score)
}

func TestLoadBatchYAMLBare(t *testing.T) {
	path := writeFile(t, "batch.yaml", `
topicId: t1
topicName: Energy
sources:
  - id: s1
    name: Energy Daily
    rssFeedUrl: https://e.example.com/rss
    score: 3
relationshipKeywords:
  - items:
      - type: NOT
        keywords:
          - keyword: bitcoin
`)

	b, err := loadBatch(path, nil)
	require.NoError(t, err)
	require.NotEmpty(t, b.BatchID)
	require.Equal(t, "Energy", b.TopicName)
	require.Equal(t, "Energy Daily", b.Sources[0].Name)
	require.Equal(t, models.RelationshipNot, b.RelationshipKeywords[0].Items[0].Type)
	require.Equal(t, "bitcoin", b.RelationshipKeywords[0].Items[0].Keywords[0].Keyword)
}

func TestLoadBatchYAMLEnvelope(t *testing.T) {
	path := writeFile(t, "req.yml", `
sourceBatch:
  batchId: b9
  topicName: Climate
  sources: []
`)

	b, err := loadBatch(path, nil)
	require.NoError(t, err)
	require.Equal(t, "b9", b.BatchID)
	require.NotNil(t, b.Sources)
	require.Empty(t, b.Sources)
}

func TestLoadBatchStdin(t *testing.T) {
	b, err := loadBatch("-", strings.NewReader(`{"sourceBatch":{"batchId":"b2","topicName":"T","sources":[]}}`))
	require.NoError(t, err)
	require.Equal(t, "b2", b.BatchID)
}

func TestLoadBatchRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"req.json":  `{"sourceBatch":{"batchId":"b1","sources":[]}}`,
		"bad.json":  `{`,
		"empty.yml": `foo: bar`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadBatch(writeFile(t, name, body), nil)
			require.ErrorIs(t, err, pipeline.ErrInvalidRequest)
		})
	}

	_, err := loadBatch(filepath.Join(t.TempDir(), "missing.json"), nil)
	require.ErrorContains(t, err, "read request")
}

func TestOptionsApply(t *testing.T) {
	base := config.Fetch{BatchSize: 25, BatchDelay: time.Second, Timeout: 20 * time.Second, UserAgent: "a"}

	require.Equal(t, base, options{delay: -1}.apply(base))

	got := options{batchSize: 5, delay: 0, timeout: time.Second, userAgent: "b"}.apply(base)
	require.Equal(t, 5, got.BatchSize)
	require.Zero(t, got.BatchDelay)
	require.Equal(t, time.Second, got.Timeout)
	require.Equal(t, "b", got.UserAgent)
}

func TestRootCommandPrintsReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>C</title>
<item><title>Grid upgrade</title><link>https://c.example.com/1</link><description>Power</description></item>
</channel></rss>`))
	}))
	t.Cleanup(srv.Close)

	path := writeFile(t, "req.json", `{"sourceBatch":{"batchId":"b1","topicName":"Energy","sources":[{"id":"s1","name":"C","rssFeedUrl":"`+srv.URL+`"}]}}`)

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{path, "--delay", "0s", "--timeout", "5s"})
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	require.NoError(t, cmd.Execute())

	var resp models.ArticleFetchResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, 1, resp.ProcessingStats.SuccessfulSources)
	require.Len(t, resp.Articles, 1)
	require.Equal(t, "Grid upgrade", resp.Articles[0].Title)
	require.False(t, resp.ProcessingStats.FilteringApplied)
}

func TestRootCommandRequiresFile(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.Error(t, cmd.Execute())
}
