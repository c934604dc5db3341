package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cuemby/visionq/internal/config"
	"github.com/cuemby/visionq/internal/jobrunner"
	"github.com/cuemby/visionq/internal/log"
	"github.com/cuemby/visionq/pkg/bus"
	"github.com/cuemby/visionq/pkg/cache"
	"github.com/cuemby/visionq/pkg/modelcache"
	"github.com/cuemby/visionq/pkg/pipeline"
	"github.com/cuemby/visionq/pkg/store"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "visionq-worker",
	Short: "visionq worker runtime: dequeue, run the detection pipeline, commit results",
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

	detectorCache := modelcache.New()
	detector, err := detectorCache.Get(modelcache.Key{ModelPath: "default", ConfidenceThreshold: cfg.Detection.ConfidenceThreshold}, func(modelPath string) (pipeline.Detector, error) {
		return pipeline.NullDetector{}, nil
	})
	if err != nil {
		return fmt.Errorf("build detector: %w", err)
	}

	runner := &jobrunner.Runner{
		Queue:      queue,
		Results:    resultChannel,
		Store:      pgStore,
		Cache:      redisCache,
		Pipeline:   pipeline.New(detector, pipeline.NullQRSymbolDecoder{}),
		Loader:     pipeline.FileLoader{},
		DefaultCfg: cfg.Detection,
		WorkerID:   uuid.New().String(),
	}

	logger := log.WithComponent("worker")
	logger.Info().Str("worker_id", runner.WorkerID).Msg("starting worker runtime")

	runCtx, runCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runner.Run(runCtx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info().Msg("shutting down")
		runCancel()
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}
