package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/studentbridge/jobmatch/internal/bm25"
	"github.com/studentbridge/jobmatch/internal/corpus"
	"github.com/studentbridge/jobmatch/internal/indexcache"
	"github.com/studentbridge/jobmatch/pkg/config"
	"github.com/studentbridge/jobmatch/pkg/logger"
	"github.com/studentbridge/jobmatch/pkg/postgres"
)

// reindex rebuilds the cached index artifact offline so the service can
// start warm even after the corpus changes.
func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()

	var source corpus.Source
	switch cfg.Corpus.Source {
	case "postgres":
		pg, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		source = corpus.NewPostgresSource(pg, cfg.Corpus.Table)
	default:
		source = corpus.NewJSONLSource(cfg.Corpus.JSONLPaths)
	}

	start := time.Now()
	records, err := source.Load(ctx)
	if err != nil {
		slog.Error("failed to load job records", "error", err)
		os.Exit(1)
	}

	docs, indexMap, err := corpus.Build(records)
	if err != nil {
		slog.Error("failed to build corpus", "error", err)
		os.Exit(1)
	}

	index := bm25.Build(docs)
	fingerprint := corpus.Fingerprint(records)

	store := indexcache.NewStore(cfg.Cache.Dir)
	if err := store.Save(cfg.Cache.Key, fingerprint, index, indexMap); err != nil {
		slog.Error("failed to write index artifact", "error", err)
		os.Exit(1)
	}

	slog.Info("index artifact rebuilt",
		"key", cfg.Cache.Key,
		"records", len(records),
		"documents", index.DocCount(),
		"fingerprint", fingerprint[:12],
		"duration", time.Since(start),
	)
}
