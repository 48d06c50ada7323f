package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/DeafMist/rss-article-fetcher/internal/models"
)

const (
	// DefaultSize is the number of sources fetched concurrently per chunk.
	DefaultSize = 25
	// DefaultDelay is the pause between consecutive chunks.
	DefaultDelay = time.Second
)

// SourceFetcher fetches one source. Implementations report failures on the
// returned ProcessedSource instead of returning an error.
type SourceFetcher interface {
	Fetch(ctx context.Context, src models.Source) models.ProcessedSource
}

// Options tune chunking and pacing.
type Options struct {
	Size  int
	Delay time.Duration
}

// Result aggregates every processed source of one run.
type Result struct {
	Processed        []models.ProcessedSource
	Successful       []models.ProcessedSource
	Failed           []models.ProcessedSource
	ProcessingTimeMs int64
}

// Scheduler fetches sources in fixed-size concurrent chunks with a pacing
// pause between chunks.
type Scheduler struct {
	fetcher SourceFetcher
	opts    Options
	log     *slog.Logger

	now   func() time.Time
	pause func(ctx context.Context, d time.Duration)
}

// NewScheduler builds a scheduler; non-positive options fall back to defaults.
// A zero Delay keeps the default; use a negative Delay to disable pacing.
func NewScheduler(fetcher SourceFetcher, opts Options, logger *slog.Logger) *Scheduler {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.Delay == 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{
		fetcher: fetcher,
		opts:    opts,
		log:     logger,
		now:     time.Now,
		pause:   sleep,
	}
}

// Process fetches every source and returns exactly one ProcessedSource per
// input, in input order.
func (s *Scheduler) Process(ctx context.Context, sources []models.Source) Result {
	start := s.now()
	processed := make([]models.ProcessedSource, 0, len(sources))

	for i := 0; i < len(sources); i += s.opts.Size {
		end := min(i+s.opts.Size, len(sources))
		s.log.Info("processing chunk",
			slog.Int("chunk", i/s.opts.Size+1),
			slog.Int("from", i+1),
			slog.Int("to", end),
		)

		processed = append(processed, s.runChunk(ctx, sources[i:end])...)

		if end < len(sources) && s.opts.Delay > 0 {
			s.pause(ctx, s.opts.Delay)
		}
	}

	res := Result{
		Processed:        processed,
		Successful:       make([]models.ProcessedSource, 0, len(processed)),
		Failed:           make([]models.ProcessedSource, 0),
		ProcessingTimeMs: s.now().Sub(start).Milliseconds(),
	}
	for _, ps := range processed {
		if ps.Success {
			res.Successful = append(res.Successful, ps)
		} else {
			res.Failed = append(res.Failed, ps)
		}
	}
	return res
}

// runChunk fetches every source of chunk concurrently and waits for all of
// them. Results are written to the source's slot, never in completion order.
func (s *Scheduler) runChunk(ctx context.Context, chunk []models.Source) []models.ProcessedSource {
	out := make([]models.ProcessedSource, len(chunk))

	var wg sync.WaitGroup
	for idx, src := range chunk {
		wg.Add(1)
		go func(idx int, src models.Source) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("fetch task crashed",
						slog.String("source", src.Name),
						slog.Any("panic", r),
					)
					out[idx] = models.FailedSource(src, panicMessage(r), time.Now().UTC())
				}
			}()

			if err := ctx.Err(); err != nil {
				out[idx] = models.FailedSource(src, err.Error(), time.Now().UTC())
				return
			}
			out[idx] = s.fetcher.Fetch(ctx, src)
		}(idx, src)
	}
	wg.Wait()

	return out
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprintf("Unknown error occurred: %v", v)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
