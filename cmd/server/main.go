package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vanshika/fintrace/linkgraph/internal/config"
	"github.com/vanshika/fintrace/linkgraph/internal/dataset"
	"github.com/vanshika/fintrace/linkgraph/internal/graphdb"
	"github.com/vanshika/fintrace/linkgraph/internal/logging"
	"github.com/vanshika/fintrace/linkgraph/internal/metrics"
	"github.com/vanshika/fintrace/linkgraph/internal/repository"
	"github.com/vanshika/fintrace/linkgraph/internal/server"
	"github.com/vanshika/fintrace/linkgraph/internal/service"
)

type dataSource interface {
	service.DataSource
	server.Pinger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	source, closeSource, err := buildSource(ctx, logger, cfg)
	if err != nil {
		logger.Fatal("failed to create data source", zap.Error(err))
	}
	defer closeSource()

	opts := []service.Option{service.WithLogger(logger)}
	var metricsHandler http.Handler
	if cfg.HTTP.MetricsEnabled {
		collector := metrics.New()
		opts = append(opts, service.WithRecorder(collector))
		metricsHandler = collector.Handler()
	}
	analytics := service.NewAnalyticsService(source, opts...)

	// The server starts even when the first load fails; /healthz reports it and
	// the refresher or POST /refresh can recover.
	if info, err := analytics.Refresh(ctx); err != nil {
		logger.Error("initial load failed", zap.Error(err))
	} else {
		logger.Info("initial snapshot installed",
			zap.Int("users", info.Users),
			zap.Int("transactions", info.Transactions),
			zap.String("fingerprint", info.Fingerprint),
		)
	}
	go analytics.RunRefresher(ctx, cfg.Source.RefreshInterval)

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.SourceHealthService{Source: source, Analytics: analytics},
		API:              server.NewAPIHandlers(logger, analytics),
		Metrics:          metricsHandler,
		AllowedOrigins:   cfg.HTTP.AllowedOrigins(),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped unexpectedly", zap.Error(err))
	}
	logger.Info("server stopped")
}

func buildSource(ctx context.Context, logger *zap.Logger, cfg config.Config) (dataSource, func(), error) {
	switch cfg.Source.Kind {
	case config.SourceNeo4j:
		client, err := graphdb.NewNeo4jClient(ctx, graphdb.Options{
			URI:            cfg.Graph.URI,
			Database:       cfg.Graph.Database,
			Username:       cfg.Graph.Username,
			Password:       cfg.Graph.Password,
			MaxConnections: cfg.Graph.MaxConnections,
			FetchSize:      cfg.Graph.FetchSize,
			QueryTimeout:   cfg.Graph.QueryTimeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(context.Background()); err != nil {
				logger.Warn("closing graph client failed", zap.Error(err))
			}
		}
		return repository.New(client, logger), closeFn, nil
	default:
		return dataset.NewFileStore(cfg.Source.DatasetDir, logger), func() {}, nil
	}
}
