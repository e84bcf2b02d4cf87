// Command wikiextract converts a compressed encyclopedia dump into one
// cleaned markdown file per article, expanding cross-article template
// references collected in a preprocessing pass.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/amestead/wikiextract/internal/extract"
	"github.com/amestead/wikiextract/internal/manifest"
	"github.com/amestead/wikiextract/internal/pipeline"
	"github.com/amestead/wikiextract/internal/publisher"
	"github.com/amestead/wikiextract/internal/templates"
	"github.com/amestead/wikiextract/pkg/config"
	"github.com/amestead/wikiextract/pkg/kafka"
	"github.com/amestead/wikiextract/pkg/logger"
	"github.com/amestead/wikiextract/pkg/metrics"
	"github.com/amestead/wikiextract/pkg/postgres"
	"github.com/amestead/wikiextract/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	output := flag.String("o", "", "output directory")
	namespaces := flag.String("ns", "", "comma-separated accepted namespaces")
	templateFile := flag.String("templates", "", "use or create file containing templates")
	noTemplates := flag.Bool("no-templates", false, "do not expand templates")
	processes := flag.Int("processes", 0, "number of extraction workers")
	quiet := flag.Bool("q", false, "suppress progress reporting")
	debug := flag.Bool("debug", false, "print debug info")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <dump file | ->\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, *output, *namespaces, *templateFile, *noTemplates, *processes)
	if flag.NArg() > 0 {
		cfg.Extract.Input = flag.Arg(0)
	}
	if cfg.Extract.Input == "" {
		flag.Usage()
		os.Exit(2)
	}

	level := cfg.Logging.Level
	if *quiet {
		level = "quiet"
	}
	if *debug {
		level = "debug"
	}
	logger.Setup(level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		m.Serve(cfg.Metrics.Port)
		slog.Info("metrics endpoint started", "port", cfg.Metrics.Port)
	}

	deps := extract.Deps{Metrics: m}

	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(cfg.Redis)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		deps.TemplateCache = templates.NewCache(rdb, cfg.Redis)
	}

	if cfg.Postgres.Enabled {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		man, err := manifest.New(ctx, db)
		if err != nil {
			slog.Error("failed to prepare manifest", "error", err)
			os.Exit(1)
		}
		deps.Observers = append(deps.Observers, func(ctx context.Context, res pipeline.Result, path string) {
			man.Record(ctx, res.ID, res.Title, path, len(res.Text))
		})
	}

	if cfg.Kafka.Enabled {
		pub := publisher.New(kafka.NewProducer(cfg.Kafka))
		defer pub.Close()
		deps.Observers = append(deps.Observers, func(ctx context.Context, res pipeline.Result, path string) {
			pub.Publish(ctx, res.ID, res.Title, path, len(res.Text))
		})
	}

	summary, err := extract.Run(ctx, cfg.Extract, deps)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Warn("run interrupted")
		}
		slog.Error("extraction failed", "error", err)
		os.Exit(1)
	}

	slog.Info("done",
		"articles", summary.Articles,
		"templates", summary.Templates,
		"elapsed", summary.Elapsed.Round(time.Millisecond),
	)
}

// applyFlags lets command-line options override the config file.
func applyFlags(cfg *config.Config, output, namespaces, templateFile string, noTemplates bool, processes int) {
	if output != "" {
		cfg.Extract.OutputDir = output
	}
	if namespaces != "" {
		cfg.Extract.Namespaces = strings.Split(namespaces, ",")
	}
	if templateFile != "" {
		cfg.Extract.TemplateFile = templateFile
	}
	if noTemplates {
		cfg.Extract.ExpandTemplates = false
	}
	if processes > 0 {
		cfg.Extract.Processes = processes
	}
}
