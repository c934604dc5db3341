// Package jobrunner implements the Worker Runtime's job loop (C5):
// dequeue, mark processing, run the detection pipeline under a hard
// timeout, commit the terminal result, and acknowledge late.
package jobrunner

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/cuemby/visionq/internal/apperr"
	"github.com/cuemby/visionq/internal/log"
	"github.com/cuemby/visionq/internal/metrics"
	"github.com/cuemby/visionq/pkg/bus"
	"github.com/cuemby/visionq/pkg/cache"
	"github.com/cuemby/visionq/pkg/pipeline"
	"github.com/cuemby/visionq/pkg/store"
	"github.com/cuemby/visionq/pkg/task"
)

// JobTimeout is the hard per-task timeout named in §4.5/§5: a job that
// exceeds it is treated as a pipeline failure.
const JobTimeout = 300 * time.Second

// ImageLoader decodes the file at path into an image the pipeline can
// consume. It is an interface so tests can substitute a fake loader
// instead of touching the filesystem.
type ImageLoader interface {
	Load(path string) (pipeline.ImageSource, error)
}

// Runner drives the job loop against one bus.Queue.
type Runner struct {
	Queue       bus.Queue
	Results     bus.ResultChannel
	Store       store.Store
	Cache       cache.Cache
	Pipeline    *pipeline.Pipeline
	Loader      ImageLoader
	DefaultCfg  task.Config
	WorkerID    string
}

// Run consumes deliveries from the queue until ctx is cancelled,
// processing one job at a time (the queue's prefetch=1 setting is what
// actually bounds concurrency; Run itself is a simple sequential loop).
func (r *Runner) Run(ctx context.Context) error {
	deliveries, err := r.Queue.Consume(ctx)
	if err != nil {
		return err
	}

	heartbeat := time.NewTicker(10 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-heartbeat.C:
			if err := r.Cache.HeartbeatWorker(ctx, r.WorkerID); err != nil {
				log.Errorf("worker heartbeat failed", err)
			}
		case delivery, ok := <-deliveries:
			if !ok {
				return nil
			}
			r.handle(ctx, delivery)
		}
	}
}

func (r *Runner) handle(ctx context.Context, delivery bus.Delivery) {
	job := delivery.Job
	logger := log.WithTaskID(job.TaskID)
	timer := metrics.NewTimer()
	metrics.QueueDepth.Inc()
	defer metrics.QueueDepth.Dec()

	initial := task.ResultPayload{
		Status: task.StatusProcessing,
		TaskInfo: task.TaskInfo{
			TaskID:    job.TaskID,
			ImagePath: job.ImagePath,
			StartedAt: time.Now(),
			Metadata:  job.Metadata,
		},
	}
	if _, err := r.Store.SaveResult(ctx, job.TaskID, initial); err != nil {
		logger.Error().Err(err).Msg("failed to write initial processing result, redelivering")
		delivery.Nack(true)
		return
	}
	if err := r.Results.Publish(ctx, job.TaskID, bus.StateProcessing); err != nil {
		logger.Error().Err(err).Msg("failed to publish PROCESSING state")
	}

	cfg := r.DefaultCfg
	if job.Config != nil {
		cfg = cfg.Merge(*job.Config)
	}

	result, procErr := r.process(ctx, job, cfg)

	result.TaskInfo = initial.TaskInfo
	result.TaskInfo.ProcessedAt = time.Now()

	if procErr == nil {
		result.Status = task.StatusCompleted
		result.TaskInfo.Metadata = job.Metadata
		if cfg.RemoveSourceFile {
			removed := r.maybeRemoveSourceFile(job.ImagePath)
			result.SourceFileRemoved = &removed
		}
		metrics.TasksTotal.WithLabelValues(string(task.StatusCompleted)).Inc()
		metrics.ProcessingDuration.WithLabelValues(string(task.StatusCompleted)).Observe(timer.Duration().Seconds())
	} else {
		result.Status = task.StatusFailed
		result.Error = procErr.Error()
		metrics.TasksTotal.WithLabelValues(string(task.StatusFailed)).Inc()
		metrics.ProcessingDuration.WithLabelValues(string(task.StatusFailed)).Observe(timer.Duration().Seconds())
	}

	if _, err := r.Store.SaveResult(ctx, job.TaskID, result); err != nil {
		logger.Error().Err(err).Msg("failed to commit terminal result, redelivering")
		delivery.Nack(true)
		return
	}

	if procErr == nil {
		if err := r.Results.Publish(ctx, job.TaskID, bus.StateSuccess); err != nil {
			logger.Error().Err(err).Msg("failed to publish SUCCESS state")
		}
		delivery.Ack()
		return
	}

	if err := r.Results.Publish(ctx, job.TaskID, bus.StateFailure); err != nil {
		logger.Error().Err(err).Msg("failed to publish FAILURE state")
	}
	logger.Error().Err(procErr).Msg("job failed, recording failure and not redelivering")
	delivery.Ack()
}

func (r *Runner) process(ctx context.Context, job bus.Job, cfg task.Config) (task.ResultPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, JobTimeout)
	defer cancel()

	if _, err := os.Stat(job.ImagePath); err != nil {
		return task.ResultPayload{}, apperr.NewPipeline(err, "Imagem não encontrada: %s", job.ImagePath)
	}

	source, err := r.Loader.Load(job.ImagePath)
	if err != nil {
		return task.ResultPayload{}, apperr.NewPipeline(err, "failed to load image %s", job.ImagePath)
	}

	result, err := r.Pipeline.Process(ctx, source, cfg, pipeline.ProcessOptions{
		SaveQRCrops: cfg.SaveCrops,
	})
	if err != nil {
		var pipelineErr *apperr.PipelineError
		if errors.As(err, &pipelineErr) {
			return task.ResultPayload{}, pipelineErr
		}
		return task.ResultPayload{}, apperr.NewPipeline(err, "pipeline failed for %s", job.ImagePath)
	}
	return result, nil
}

// maybeRemoveSourceFile best-effort deletes the uploaded source file
// once processing succeeds. Failure here never fails the task; it is
// only recorded on the result payload.
func (r *Runner) maybeRemoveSourceFile(path string) bool {
	if err := os.Remove(path); err != nil {
		log.Errorf("best-effort source file removal failed", err)
		return false
	}
	return true
}
