package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	domain_service "wallet-bundle-analyzer/internal/domain/service"
	"wallet-bundle-analyzer/internal/infrastructure/config"
	"wallet-bundle-analyzer/internal/infrastructure/logger"
	"wallet-bundle-analyzer/internal/infrastructure/messaging"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Positional arguments switch to one-shot mode: analyze them, print the report, exit
	addresses := os.Args[1:]
	oneShot := len(addresses) > 0

	log, err := logger.NewLoggerWithOptions(logger.Options{
		Level:     cfg.App.LogLevel,
		File:      cfg.App.LogFile,
		MaxSizeMB: cfg.App.LogMaxSize,
		Stderr:    oneShot,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	var analyzer domain_service.BundleAnalysisService
	options := []fx.Option{
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.Solana),
		fx.Supply(&cfg.NATS),
		fx.Supply(&cfg.Neo4J),
		fx.Provide(func() *zap.Logger { return log.Logger }),
		infrastructureModule,
		domainModule,
		applicationModule,
		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	}
	if oneShot {
		options = append(options, fx.Populate(&analyzer))
	} else {
		options = append(options,
			fx.Provide(messaging.NewNATSAnalysisWorker),
			fx.Invoke(startWorker),
			fx.Invoke(startHealthServer),
		)
	}

	app := fx.New(options...)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		os.Exit(1)
	}

	exitCode := 0
	if oneShot {
		exitCode = runOnce(analyzer, addresses, log)
	} else {
		// Wait for shutdown signal
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("Shutting down application...")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
	_ = log.Sync()
	os.Exit(exitCode)
}

// runOnce analyzes one bundle and writes the JSON report to stdout
func runOnce(analyzer domain_service.BundleAnalysisService, addresses []string, log *logger.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := analyzer.AnalyzeBundle(ctx, addresses)
	if err != nil {
		log.Error("Bundle analysis failed", zap.Error(err))
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Error("Failed to write report", zap.Error(err))
		return 1
	}
	return 0
}

// startWorker connects the NATS worker once the application starts
func startWorker(
	lifecycle fx.Lifecycle,
	worker *messaging.NATSAnalysisWorker,
	cfg *config.Config,
	log *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting analysis worker",
				zap.String("url", cfg.NATS.URL),
				zap.String("subject_prefix", cfg.NATS.SubjectPrefix),
				zap.Bool("enabled", cfg.NATS.Enabled))

			if err := worker.Start(ctx); err != nil {
				return fmt.Errorf("failed to start analysis worker: %w", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping analysis worker...")
			return worker.Stop()
		},
	})
}

// startHealthServer starts the health check server
func startHealthServer(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	worker *messaging.NATSAnalysisWorker,
	logger *logger.Logger,
) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]any{
			"status": "ok",
			"nats":   worker.IsConnected(),
		}
		w.Header().Set("Content-Type", "application/json")
		if cfg.NATS.Enabled && !worker.IsConnected() {
			status["status"] = "degraded"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting health server...", zap.Int("port", cfg.App.HTTPPort))

			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Health server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping health server...")
			return server.Shutdown(ctx)
		},
	})
}
