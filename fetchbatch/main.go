package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/DeafMist/rss-article-fetcher/internal/config"
	"github.com/DeafMist/rss-article-fetcher/internal/logger"
	"github.com/DeafMist/rss-article-fetcher/internal/models"
	"github.com/DeafMist/rss-article-fetcher/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type options struct {
	pretty    bool
	batchSize int
	delay     time.Duration
	timeout   time.Duration
	userAgent string
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "fetchbatch <request.json|request.yaml|->",
		Short: "Fetch one source batch and print the article report",
		Long: `Loads a source batch request from a JSON or YAML file (or stdin with "-"),
fetches every feed, applies NOT-keyword filtering and prints the response as JSON.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent the JSON output")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Sources fetched concurrently per chunk (overrides FETCH_BATCH_SIZE)")
	cmd.Flags().DurationVar(&opts.delay, "delay", -1, "Pause between chunks (overrides FETCH_BATCH_DELAY)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Per-feed timeout (overrides FETCH_TIMEOUT)")
	cmd.Flags().StringVar(&opts.userAgent, "user-agent", "", "User-Agent header (overrides FETCH_USER_AGENT)")

	return cmd
}

func run(cmd *cobra.Command, path string, opts options) error {
	log := logger.NewWithWriter(cmd.ErrOrStderr(), "fetchbatch", os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	cfg, err := config.LoadFetch()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = opts.apply(cfg)

	b, err := loadBatch(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	resp, err := pipeline.NewFromConfig(cfg, nil, log).Run(cmd.Context(), b)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(resp)
}

func (o options) apply(cfg config.Fetch) config.Fetch {
	if o.batchSize > 0 {
		cfg.BatchSize = o.batchSize
	}
	if o.delay >= 0 {
		cfg.BatchDelay = o.delay
	}
	if o.timeout > 0 {
		cfg.Timeout = o.timeout
	}
	if o.userAgent != "" {
		cfg.UserAgent = o.userAgent
	}
	return cfg
}

// loadBatch reads a request file. YAML is chosen by extension; stdin and
// everything else is parsed as JSON. The file may hold either the request
// envelope or a bare batch, and a missing batchId is generated.
func loadBatch(path string, stdin io.Reader) (models.SourceBatch, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return models.SourceBatch{}, fmt.Errorf("read request: %w", err)
	}

	unmarshal := json.Unmarshal
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	}

	var req models.ArticleFetchRequest
	if err := unmarshal(data, &req); err != nil {
		return models.SourceBatch{}, fmt.Errorf("%w: decode %s: %v", pipeline.ErrInvalidRequest, path, err)
	}
	if req.SourceBatch == nil {
		var bare models.SourceBatch
		if err := unmarshal(data, &bare); err != nil {
			return models.SourceBatch{}, fmt.Errorf("%w: decode %s: %v", pipeline.ErrInvalidRequest, path, err)
		}
		if bare.Sources == nil && bare.TopicName == "" {
			return models.SourceBatch{}, fmt.Errorf("%w: sourceBatch is required", pipeline.ErrInvalidRequest)
		}
		req.SourceBatch = &bare
	}
	if req.SourceBatch.BatchID == "" {
		req.SourceBatch.BatchID = uuid.NewString()
	}

	if err := pipeline.Validate(&req); err != nil {
		return models.SourceBatch{}, err
	}
	return *req.SourceBatch, nil
}
