package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/visionq/internal/config"
	"github.com/cuemby/visionq/internal/health"
	"github.com/cuemby/visionq/internal/log"
	"github.com/cuemby/visionq/pkg/bus"
	"github.com/cuemby/visionq/pkg/cache"
	"github.com/cuemby/visionq/pkg/ingress"
	"github.com/cuemby/visionq/pkg/store"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "visionq-api",
	Short: "visionq ingress controller: upload, query and health HTTP surface",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", true, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgStore, err := store.NewPostgresStore(ctx, cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pgStore.Close()

	redisCache, err := cache.NewRedisCache(cfg.RedisURL, time.Hour)
	if err != nil {
		return fmt.Errorf("connect redis cache: %w", err)
	}
	defer redisCache.Close()

	resultChannel, err := bus.NewRedisResultChannel(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis result channel: %w", err)
	}
	defer resultChannel.Close()

	queue, err := bus.NewAMQPQueue(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer queue.Close()

	for _, dir := range []string{cfg.UploadsDir, cfg.QRCropsDir, cfg.ProcessedImagesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	checker := &health.Checker{
		Store:       pgStore,
		Cache:       redisCache,
		Directories: []string{cfg.UploadsDir, cfg.QRCropsDir, cfg.ProcessedImagesDir},
	}

	server := ingress.NewServer(&ingress.Server{
		Store:              pgStore,
		Queue:              queue,
		Results:            resultChannel,
		Health:             checker,
		DefaultCfg:         cfg.Detection,
		UploadsDir:         cfg.UploadsDir,
		MaxUploadSizeBytes: cfg.MaxUploadSizeBytes,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.APIPort),
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger := log.WithComponent("api")
	go func() {
		logger.Info().Int("port", cfg.APIPort).Msg("starting ingress controller")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}
