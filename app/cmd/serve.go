package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"terranova/app/config"
	"terranova/app/usecase"
	"terranova/internal/domain/entity"
	"terranova/internal/domain/repository"
	"terranova/internal/infrastructure/demo"
	"terranova/internal/infrastructure/metrics"
	"terranova/internal/infrastructure/planapi"
	"terranova/internal/infrastructure/store/filesystem"
	"terranova/internal/infrastructure/store/memory"
	mongorepo "terranova/internal/infrastructure/store/mongodb"
	redisrepo "terranova/internal/infrastructure/store/redis"
	"terranova/internal/infrastructure/transport"
	"terranova/internal/infrastructure/validator"
)

func serveCmd(configPath *string) *cobra.Command {
	var pageURL string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the planner API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, pageURL)
		},
	}
	cmd.Flags().StringVar(&pageURL, "page-url", "", "page share links point at (default: request host)")
	return cmd
}

// stores bundles the session and map backends picked by config.
type stores struct {
	sessions repository.SessionRepository
	maps     repository.MapStore
	close    func(context.Context)
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.Session.Store {
	case "mongo":
		mongoCtx, mongoCancel := context.WithTimeout(ctx, 10*time.Second)
		defer mongoCancel()
		client, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			logger.Error("mongo connect failed", "err", err)
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		disconnect := func(ctx context.Context) {
			logger.Info("disconnecting mongo")
			if err := client.Disconnect(ctx); err != nil {
				logger.Error("mongo disconnect error", "err", err)
			}
		}
		fail := func(err error) (*stores, error) {
			disconnect(context.WithoutCancel(ctx))
			return nil, err
		}
		if err := client.Ping(mongoCtx, nil); err != nil {
			logger.Error("mongo ping failed", "err", err)
			return fail(fmt.Errorf("mongo ping: %w", err))
		}
		logger.Info("connected to mongo", "uri", cfg.Mongo.URI)
		db := client.Database(cfg.Mongo.Database)

		sessions, err := mongorepo.NewMongoSessionRepo(mongoCtx, db, logger)
		if err != nil {
			return fail(err)
		}
		maps, err := mongorepo.NewMongoMapRepo(mongoCtx, db, cfg.Session.TTL, logger)
		if err != nil {
			return fail(err)
		}
		return &stores{sessions: sessions, maps: maps, close: disconnect}, nil

	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("redis ping failed", "err", err)
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		logger.Info("connected to redis", "addr", cfg.Redis.Addr)
		maps, err := filesystem.NewMapRepository(cfg.Maps.Dir)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("init map dir: %w", err)
		}
		return &stores{
			sessions: redisrepo.NewSessionRepo(client),
			maps:     maps,
			close: func(context.Context) {
				logger.Info("closing redis")
				if err := client.Close(); err != nil {
					logger.Error("redis close error", "err", err)
				}
			},
		}, nil

	default:
		maps, err := filesystem.NewMapRepository(cfg.Maps.Dir)
		if err != nil {
			return nil, fmt.Errorf("init map dir: %w", err)
		}
		return &stores{
			sessions: memory.NewSessionRepo(),
			maps:     maps,
			close:    func(context.Context) {},
		}, nil
	}
}

// newPipeline builds the submit pipeline for the configured data source.
func newPipeline(cfg *config.Config, sessions repository.SessionRepository, logger *slog.Logger) (*usecase.PlanPipeline, error) {
	mode, err := usecase.ParseSourceMode(cfg.Planner.Source)
	if err != nil {
		return nil, err
	}
	var live repository.DataSource
	if mode != usecase.SourceDemo {
		client := planapi.NewClient(resolveBaseURL(cfg, logger), cfg.Planner.Timeout, logger)
		logger.Info("planner backend", "base_url", client.BaseURL(), "mode", mode)
		live = client
	}
	return usecase.NewPlanPipeline(
		live,
		demo.NewGenerator(uint64(time.Now().UnixNano())),
		sessions,
		validator.NewPlanAnalyzer(),
		mode,
		cfg.Session.TTL,
		logger,
	), nil
}

func runServe(parent context.Context, cfg *config.Config, pageURL string) error {
	logger := newLogger(os.Stdout)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}

	pipeline, err := newPipeline(cfg, st.sessions, logger)
	if err != nil {
		return err
	}
	sessionSvc := usecase.NewSessionService(st.sessions, st.maps, logger)

	janitor := usecase.NewSessionJanitor(st.sessions, st.maps, cfg.Session.JanitorInterval, logger)
	janitor.Start(ctx) // background purge

	// Transport (HTTP handlers)
	handler := transport.NewPlannerHandler(
		pipeline,
		sessionSvc,
		usecase.NewRevealer(cfg.Display.RevealStep),
		transport.HandlerOptions{
			DefaultVariant: entity.Variant(cfg.Planner.Variant),
			ViewportWidth:  cfg.Display.ViewportWidth,
			PageURL:        pageURL,
		},
		logger,
	)

	// Router and server
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", transport.ClientIDHeader}),
		handlers.ExposedHeaders([]string{"Content-Disposition"}),
	)(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(corsHandler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			logger.Info("starting metrics server", "addr", cfg.Metrics.Addr)
			if err := metrics.StartMetricsServer(cfg.Metrics.Addr); err != nil {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	go func() {
		logger.Info("starting HTTP server", "addr", addr, "source", pipeline.Mode(), "store", cfg.Session.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "err", err)
			cancel()
		}
	}()

	// OS signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	// Shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}

	janitor.Stop()
	st.close(shutdownCtx)

	logger.Info("service stopped")
	return nil
}
