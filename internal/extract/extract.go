// Package extract drives a whole run: header read, template collection,
// then the parallel page extraction pipeline.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/amestead/wikiextract/internal/convert"
	"github.com/amestead/wikiextract/internal/dump"
	"github.com/amestead/wikiextract/internal/pages"
	"github.com/amestead/wikiextract/internal/pipeline"
	"github.com/amestead/wikiextract/internal/sink"
	"github.com/amestead/wikiextract/internal/templates"
	"github.com/amestead/wikiextract/pkg/config"
	apperrors "github.com/amestead/wikiextract/pkg/errors"
	"github.com/amestead/wikiextract/pkg/logger"
	"github.com/amestead/wikiextract/pkg/metrics"
	"github.com/amestead/wikiextract/pkg/tracing"
)

// Deps carries the optional collaborators a run may be wired with. Every
// field may be nil.
type Deps struct {
	Metrics       *metrics.Metrics
	TemplateCache *templates.Cache
	Observers     []pipeline.Observer
}

// Summary reports what a finished run did.
type Summary struct {
	Articles  int
	Templates int
	Elapsed   time.Duration
}

// Rate returns articles per second over the extraction phase.
func (s *Summary) Rate() float64 {
	secs := s.Elapsed.Seconds()
	if secs == 0 {
		return 0
	}
	return float64(s.Articles) / secs
}

// Run processes one dump end to end. Template collection, when enabled,
// completes and the store freezes before the first worker starts.
func Run(ctx context.Context, cfg config.ExtractConfig, deps Deps) (*Summary, error) {
	log := logger.WithComponent("extract")

	ctx, run := tracing.Begin(ctx, "run")
	defer run.Report()
	defer run.Done()

	stream, err := dump.Open(cfg.Input)
	if err != nil {
		return nil, err
	}
	defer func() { stream.Close() }()

	_, header := tracing.Begin(ctx, "read_header")
	site, err := dump.ReadSiteInfo(stream)
	header.Done()
	if err != nil {
		return nil, fmt.Errorf("reading dump header: %w", err)
	}
	if len(cfg.Namespaces) > 0 {
		site.OverrideAccepted(cfg.Namespaces)
	}
	log.Info("dump header read",
		"base_url", site.BaseURL,
		"template_namespace", site.TemplateNamespace,
		"namespaces", len(site.Accepted),
	)

	var store *templates.Store
	var loaded int
	if cfg.ExpandTemplates {
		store = templates.NewStore()
		loadStart := time.Now()
		tplCtx, tpl := tracing.Begin(ctx, "collect_templates")
		loaded, stream, err = collectTemplates(tplCtx, cfg, deps, site, store, stream)
		tpl.Attr("templates", loaded)
		tpl.Done()
		if err != nil {
			return nil, err
		}
		store.Freeze()
		log.Info("templates loaded",
			"templates", loaded,
			"elapsed", time.Since(loadStart).Round(time.Millisecond),
		)
	}

	writer, err := sink.NewPageWriter(cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	converter := convert.New(store, site.TemplatePrefix())
	pipe := pipeline.New(cfg.Processes, converter, writer, deps.Metrics, deps.Observers...)

	log.Info("starting page extraction", "input", cfg.Input, "processes", cfg.Processes)
	extractStart := time.Now()
	collector := pages.NewCollector(stream, site, deps.Metrics)
	pipeCtx, extraction := tracing.Begin(ctx, "extract_pages")
	written, err := pipe.Run(pipeCtx, collector, site.BaseURL)
	extraction.Attr("articles", written)
	extraction.Done()
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Articles:  written,
		Templates: loaded,
		Elapsed:   time.Since(extractStart),
	}
	log.Info("extraction finished",
		"articles", summary.Articles,
		"elapsed", summary.Elapsed.Round(time.Millisecond),
		"rate_per_sec", fmt.Sprintf("%.1f", summary.Rate()),
	)
	return summary, nil
}

// collectTemplates runs the preprocessing pass and returns the stream to
// continue page collection on. When the main dump doubles as the template
// source it is read to the end and reopened, so the returned stream differs
// from the one passed in.
func collectTemplates(ctx context.Context, cfg config.ExtractConfig, deps Deps, site *dump.SiteInfo, store *templates.Store, stream *dump.Stream) (int, *dump.Stream, error) {
	// A warm Redis cache replaces the whole pass.
	if deps.TemplateCache != nil {
		n, err := deps.TemplateCache.Load(ctx, store)
		if err != nil {
			return 0, stream, fmt.Errorf("loading template cache: %w", err)
		}
		if n > 0 {
			return n, stream, nil
		}
	}

	collector := templates.NewCollector(site, store, deps.Metrics)

	if cfg.TemplateFile != "" {
		if _, err := os.Stat(cfg.TemplateFile); err == nil {
			tpl, err := dump.Open(cfg.TemplateFile)
			if err != nil {
				return 0, stream, err
			}
			defer tpl.Close()
			n, err := collector.Collect(tpl, nil)
			if err != nil {
				return 0, stream, err
			}
			saveCache(ctx, deps, store)
			return n, stream, nil
		}
	}

	// No usable template file: scan the main dump itself, which requires
	// reading it twice.
	if !stream.Replayable() {
		return 0, stream, fmt.Errorf("%w: supply an explicit template file to expand templates from stdin", apperrors.ErrNotReplayable)
	}

	var mirror *os.File
	if cfg.TemplateFile != "" {
		f, err := os.Create(cfg.TemplateFile)
		if err != nil {
			return 0, stream, fmt.Errorf("creating template mirror %s: %w", cfg.TemplateFile, err)
		}
		defer f.Close()
		mirror = f
	}

	n, err := collector.Collect(stream, mirrorWriter(mirror))
	if err != nil {
		return 0, stream, err
	}
	stream.Close()

	// Reopen for the page collection pass. The header block carries no
	// page tags, so the page collector can start from the top.
	reopened, err := dump.Open(cfg.Input)
	if err != nil {
		return 0, stream, err
	}
	saveCache(ctx, deps, store)
	return n, reopened, nil
}

func saveCache(ctx context.Context, deps Deps, store *templates.Store) {
	if deps.TemplateCache == nil || store.Len() == 0 {
		return
	}
	if err := deps.TemplateCache.Save(ctx, store); err != nil {
		slog.Default().Warn("template cache save failed", "error", err)
	}
}

// mirrorWriter keeps a typed nil *os.File from sneaking into a non-nil
// io.Writer interface.
func mirrorWriter(f *os.File) io.Writer {
	if f == nil {
		return nil
	}
	return f
}
