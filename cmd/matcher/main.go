package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/studentbridge/jobmatch/internal/analysis"
	"github.com/studentbridge/jobmatch/internal/audit"
	"github.com/studentbridge/jobmatch/internal/corpus"
	"github.com/studentbridge/jobmatch/internal/indexcache"
	"github.com/studentbridge/jobmatch/internal/matching"
	"github.com/studentbridge/jobmatch/internal/results"
	"github.com/studentbridge/jobmatch/internal/server"
	"github.com/studentbridge/jobmatch/pkg/config"
	"github.com/studentbridge/jobmatch/pkg/health"
	"github.com/studentbridge/jobmatch/pkg/kafka"
	"github.com/studentbridge/jobmatch/pkg/logger"
	"github.com/studentbridge/jobmatch/pkg/metrics"
	"github.com/studentbridge/jobmatch/pkg/middleware"
	"github.com/studentbridge/jobmatch/pkg/postgres"
	"github.com/studentbridge/jobmatch/pkg/redis"
	"github.com/studentbridge/jobmatch/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting match service", "port", cfg.Server.Port, "corpus_source", cfg.Corpus.Source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var stats *metrics.Metrics
	if cfg.Metrics.Enabled {
		stats = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	var pgClient *postgres.Client
	if cfg.Corpus.Source == "postgres" {
		err := resilience.Retry(ctx, "postgres-connect", resilience.RetryConfig{MaxAttempts: 5}, func() error {
			var connErr error
			pgClient, connErr = postgres.New(cfg.Postgres)
			return connErr
		})
		if err != nil {
			slog.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
	} else if client, err := postgres.New(cfg.Postgres); err != nil {
		slog.Warn("postgres unavailable, audit log store disabled", "error", err)
	} else {
		pgClient = client
	}
	if pgClient != nil {
		defer pgClient.Close()
	}

	var source corpus.Source
	switch cfg.Corpus.Source {
	case "postgres":
		source = corpus.NewPostgresSource(pgClient, cfg.Corpus.Table)
	default:
		source = corpus.NewJSONLSource(cfg.Corpus.JSONLPaths)
	}

	cacheStore := indexcache.NewStore(cfg.Cache.Dir)
	provider := matching.NewProvider(source, cacheStore, cfg.Cache.Key, stats)

	// Fail fast: the corpus and index must be usable before serving.
	session, err := provider.Session(ctx)
	if err != nil {
		slog.Error("initial index build failed", "error", err)
		os.Exit(1)
	}
	slog.Info("matching session warmed",
		"documents", session.Index.DocCount(),
		"fingerprint", session.Fingerprint[:12],
	)

	var redisClient *redis.Client
	if client, err := redis.NewClient(cfg.Redis); err != nil {
		slog.Warn("redis unavailable, match results stored on disk", "error", err)
	} else {
		redisClient = client
		defer redisClient.Close()
	}
	resultStore := results.NewStore(redisClient, filepath.Join(cfg.Cache.Dir, "results"), cfg.Redis.ResultTTL)

	var auditStore *audit.LogStore
	if pgClient != nil {
		auditStore = audit.NewLogStore(pgClient)
	}
	auditProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.AuditTopic)
	defer auditProducer.Close()
	auditPublisher := audit.NewPublisher(auditProducer, 1024, stats)
	auditPublisher.Start(ctx)
	defer auditPublisher.Close()
	recorder := audit.NewRecorder(auditStore, auditPublisher)

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if provider.Ready() {
			return health.ComponentHealth{Status: health.StatusUp}
		}
		return health.ComponentHealth{Status: health.StatusDown, Message: "index not built"}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if pgClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := pgClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := server.New(provider, analysis.Disabled{}, resultStore, recorder, stats,
		cfg.Matcher.TopN, cfg.Matcher.MaxStudents)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/match", h.Match)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if stats != nil {
		chain = middleware.Metrics(stats)(chain)
	}
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("match service listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	// Wait for Shutdown to drain in-flight requests before the deferred
	// audit/store closes run.
	stop()
	<-shutdownDone

	slog.Info("match service stopped")
}
