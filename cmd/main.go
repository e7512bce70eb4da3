package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipegen/internal/api"
	"recipegen/internal/config"
	"recipegen/internal/generation"
	"recipegen/internal/logger"
	"recipegen/internal/models"
	"recipegen/internal/monitoring"
	"recipegen/internal/playground"
	"recipegen/internal/shell"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var (
	port        = flag.Int("port", 8080, "HTTP server port")
	metricsPort = flag.Int("metrics-port", 9090, "Metrics server port")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile     = flag.String("env-file", ".env", "Optional dotenv file")
)

func main() {
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	path := *configFile
	if v := os.Getenv("RECIPEGEN_CONFIG"); v != "" {
		path = v
	}

	// Load configuration
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)

	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector := monitoring.NewMetricsCollector()
	monitor := monitoring.NewMonitor(collector)

	generator, err := initializeGenerator(ctx, cfg, log, monitor)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize model provider")
	}

	store := shell.NewStore(func() *shell.Shell {
		return shell.New(generator,
			shell.WithIngredients(cfg.DefaultIngredients),
			shell.WithLogger(log),
			shell.WithContext(ctx),
		)
	})

	server, err := playground.NewPlaygroundServer(store, monitor, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize playground")
	}
	api.NewRecipeAPI(generator, monitor, log).RegisterRoutes(server.Router())

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = newMetricsServer(cfg, collector)
		go startMetricsServer(metricsServer, log)
	}

	go pruneSessions(ctx, store, monitor, cfg.Sessions, log)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Router(),
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Metrics server shutdown error")
			}
		}

		cancel() // Cancel main context
	}()

	log.Info().
		Int("port", cfg.Server.Port).
		Str("provider", cfg.Provider.Name).
		Str("model", generator.Model()).
		Msg("Starting recipe generator")
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	<-ctx.Done()
	store.Close()
	log.Info().Msg("Stopped")
}

// applyFlags lets explicitly passed flags win over the config file.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "metrics-port":
			cfg.Metrics.Port = *metricsPort
		}
	})
}

func initializeGenerator(ctx context.Context, cfg *config.Config, log zerolog.Logger, monitor *monitoring.Monitor) (*generation.Client, error) {
	registry := models.NewModelRegistry()
	registry.Register(cfg.Provider.Name, &models.ModelProvider{
		Name:        cfg.Provider.Model,
		Type:        models.ProviderType(cfg.Provider.Name),
		Endpoint:    cfg.Provider.BaseURL,
		Credentials: models.ModelCredentials{APIKey: cfg.APIKey},
	})

	provider, err := registry.GetProvider(ctx, cfg.Provider.Name)
	if err != nil {
		return nil, err
	}
	model, err := registry.Model(cfg.Provider.Name)
	if err != nil {
		return nil, err
	}

	return generation.New(provider,
		generation.WithModel(model),
		generation.WithTimeout(cfg.Provider.Timeout),
		generation.WithLogger(log),
		generation.WithRecorder(monitor),
	)
}

func newMetricsServer(cfg *config.Config, collector *monitoring.MetricsCollector) *http.Server {
	metricsRouter := gin.New()
	metricsRouter.Use(gin.Recovery())
	metricsRouter.GET(cfg.Metrics.Path, gin.WrapH(collector.Handler()))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: metricsRouter,
	}
}

func startMetricsServer(server *http.Server, log zerolog.Logger) {
	log.Info().Str("addr", server.Addr).Msg("Starting metrics server")
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Metrics server error")
	}
}

// pruneSessions drops browser sessions idle for longer than the configured TTL.
func pruneSessions(ctx context.Context, store *shell.Store, monitor *monitoring.Monitor, cfg config.SessionConfig, log zerolog.Logger) {
	if cfg.TTL <= 0 || cfg.SweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Prune(time.Now().Add(-cfg.TTL)); n > 0 {
				log.Debug().Int("removed", n).Msg("pruned idle sessions")
			}
			monitor.SetActiveSessions(store.Len())
		}
	}
}
