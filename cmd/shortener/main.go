package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/achufistov/shortypanel/internal/app/config"
	grpcapp "github.com/achufistov/shortypanel/internal/app/grpc"
	"github.com/achufistov/shortypanel/internal/app/handlers"
	"github.com/achufistov/shortypanel/internal/app/metrics"
	"github.com/achufistov/shortypanel/internal/app/service"
	"github.com/achufistov/shortypanel/internal/app/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// newLogger builds a production zap logger at the given level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}

// newStorage picks the backend: Postgres when a DSN is set, the snapshot file when a path is set,
// memory otherwise. A redis cache is put in front when an address is set.
func newStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	var store storage.Storage
	switch {
	case cfg.DatabaseDSN != "":
		db, err := storage.NewDBStorage(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		logger.Info("using postgres storage")
		store = db
	case cfg.FileStorage != "":
		fs, err := storage.NewFileStorage(cfg.FileStorage)
		if err != nil {
			return nil, fmt.Errorf("failed to open file storage: %w", err)
		}
		logger.Info("using file storage", zap.String("path", cfg.FileStorage))
		store = fs
	default:
		logger.Info("using in-memory storage")
		store = storage.NewMemStorage()
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		logger.Info("redirect cache enabled", zap.String("redis", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL.Duration))
		store = storage.NewCachedStorage(store, client, cfg.CacheTTL.Duration, logger)
	}
	return store, nil
}

// newRegistry returns a registry with the Go runtime and process collectors.
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// run serves HTTP and, when configured, gRPC until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := newStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", zap.Error(err))
		}
	}()

	m := metrics.New(newRegistry())
	svc := service.NewService(store, cfg, logger, service.WithMetrics(m))
	if err := svc.Bootstrap(ctx); err != nil {
		return err
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Service:       svc,
		Metrics:       m,
		Logger:        logger,
		TrustedSubnet: cfg.TrustedSubnet,
	})
	server := &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var grpcServer *grpc.Server
	if cfg.GRPCAddress != "" {
		grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(
			grpcapp.LoggingInterceptor(logger),
			grpcapp.AuthInterceptor(svc.Tokens()),
		))
		grpcapp.RegisterShortenerServer(grpcServer, grpcapp.NewServer(svc, logger))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server starting", zap.String("address", cfg.Address), zap.Bool("https", cfg.EnableHTTPS))
		var err error
		if cfg.EnableHTTPS {
			err = server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	if grpcServer != nil {
		g.Go(func() error {
			lis, err := net.Listen("tcp", cfg.GRPCAddress)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCAddress, err)
			}
			logger.Info("gRPC server starting", zap.String("address", cfg.GRPCAddress))
			if err = grpcServer.Serve(lis); errors.Is(err, grpc.ErrServerStopped) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
