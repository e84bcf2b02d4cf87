// Package pipeline coordinates the parallel extraction phase: one
// dispatcher feeding a bounded job queue, a fixed pool of converter
// workers, and a single reducer draining results into the sink.
//
// Shutdown is strictly cooperative. The dispatcher closes the job channel
// when the source is exhausted, which is the end-of-stream signal every
// worker sees. The result channel is closed only after all workers have
// been joined, so the reducer can never exit with results still in flight.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amestead/wikiextract/internal/pages"
	apperrors "github.com/amestead/wikiextract/pkg/errors"
	"github.com/amestead/wikiextract/pkg/logger"
	"github.com/amestead/wikiextract/pkg/metrics"
)

// queueFactor scales queue capacity with the worker count so a slow pool
// applies backpressure to the dispatcher instead of growing memory.
const queueFactor = 10

// reportInterval is how many writes pass between reducer throughput logs.
const reportInterval = 1000

// Job is one dispatched article. Seq increases strictly with dispatch
// order; it exists for diagnostics and is never used to reorder output.
type Job struct {
	Seq     int
	Record  *pages.Record
	BaseURL string
}

// Result is one converted article, owned by the reducer. Results arrive in
// completion order, not dispatch order.
type Result struct {
	Seq   int
	ID    string
	Title string
	Text  string
}

// Source yields article records; see pages.Collector.
type Source interface {
	Next() (*pages.Record, bool)
	Err() error
}

// Converter is the external transformation capability invoked by workers.
// Implementations must be safe for concurrent use.
type Converter interface {
	Convert(rec *pages.Record, baseURL string) (string, error)
}

// Sink persists one converted article and returns its location. It is
// invoked only from the reducer, never concurrently.
type Sink interface {
	Write(id, title, text string) (string, error)
}

// Observer is notified by the reducer after each successful write.
type Observer func(ctx context.Context, res Result, path string)

// Pipeline runs the dispatcher/worker/reducer topology. Workers share only
// the Converter's immutable state; jobs and results are transferred, never
// shared.
type Pipeline struct {
	workers   int
	converter Converter
	sink      Sink
	observers []Observer
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a Pipeline with the given worker count. metrics may be nil.
func New(workers int, converter Converter, sink Sink, m *metrics.Metrics, observers ...Observer) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		workers:   workers,
		converter: converter,
		sink:      sink,
		observers: observers,
		metrics:   m,
		logger:    logger.WithComponent("pipeline"),
	}
}

// Run drains the source through the worker pool and returns the number of
// articles the reducer wrote. Any worker, reducer, or source error halts
// the run; there is no job-level retry.
func (p *Pipeline) Run(ctx context.Context, src Source, baseURL string) (int, error) {
	capacity := queueFactor * p.workers
	jobs := make(chan Job, capacity)
	results := make(chan Result, capacity)

	g, ctx := errgroup.WithContext(ctx)
	var written int

	// Reducer starts first so results never back up unobserved.
	g.Go(func() error {
		intervalStart := time.Now()
		for res := range results {
			path, err := p.sink.Write(res.ID, res.Title, res.Text)
			if err != nil {
				return fmt.Errorf("writing article %q: %w", res.Title, err)
			}
			written++
			if p.metrics != nil {
				p.metrics.ArticlesWritten.Inc()
				p.metrics.ResultQueueDepth.Set(float64(len(results)))
			}
			for _, obs := range p.observers {
				obs(ctx, res, path)
			}
			if written%reportInterval == 0 {
				rate := float64(reportInterval) / time.Since(intervalStart).Seconds()
				p.logger.Info("articles written", "written", written, "rate_per_sec", fmt.Sprintf("%.1f", rate))
				intervalStart = time.Now()
			}
		}
		return nil
	})

	// Worker pool. The pool has its own WaitGroup so the result channel
	// can be closed only after every worker has exited.
	var workerWG sync.WaitGroup
	workerWG.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			defer workerWG.Done()
			for job := range jobs {
				start := time.Now()
				text, err := p.converter.Convert(job.Record, job.BaseURL)
				if err != nil {
					return fmt.Errorf("converting article %q (id %s): %w", job.Record.Title, job.Record.ID, err)
				}
				if p.metrics != nil {
					p.metrics.ConvertDuration.Observe(time.Since(start).Seconds())
				}
				res := Result{Seq: job.Seq, ID: job.Record.ID, Title: job.Record.Title, Text: text}
				select {
				case results <- res:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		workerWG.Wait()
		close(results)
	}()

	// Dispatcher: the main line of control.
	g.Go(func() error {
		defer close(jobs)
		seq := 0
		for {
			rec, ok := src.Next()
			if !ok {
				break
			}
			job := Job{Seq: seq, Record: rec, BaseURL: baseURL}
			select {
			case jobs <- job:
			case <-ctx.Done():
				return ctx.Err()
			}
			seq++
			if p.metrics != nil {
				p.metrics.JobsDispatched.Inc()
				p.metrics.JobQueueDepth.Set(float64(len(jobs)))
			}
		}
		if err := src.Err(); err != nil {
			return fmt.Errorf("reading page source: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return written, fmt.Errorf("%w: %w", apperrors.ErrPipelineAborted, err)
	}
	return written, nil
}
