// Package store defines the Result Store contract (C1) and its
// PostgreSQL implementation.
package store

import (
	"context"
	"time"

	"github.com/cuemby/visionq/pkg/task"
)

// TaskMetadata is the subset of a task row needed for status lookups
// and listings, without the (possibly large) result payload.
type TaskMetadata struct {
	TaskID    string      `db:"task_id" json:"task_id"`
	Status    task.Status `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	HasResult bool        `db:"has_result" json:"has_result"`
}

// StorageStats aggregates counts across all known tasks.
type StorageStats struct {
	TotalTasks   int            `json:"total_tasks"`
	StatusCounts map[string]int `json:"status_counts"`
	Timestamp    time.Time      `json:"timestamp"`
}

// HealthStatus is the outcome of a store connectivity check.
type HealthStatus struct {
	Healthy           bool      `json:"database_connected"`
	Timestamp         time.Time `json:"timestamp"`
	Error             string    `json:"error,omitempty"`
}

// Store is the Result Store contract (C1). Every method is safe for
// concurrent use; SaveResult/DeleteResult are single-transaction
// upserts/deletes across the two backing tables.
type Store interface {
	SaveResult(ctx context.Context, taskID string, payload task.ResultPayload) (bool, error)
	GetResult(ctx context.Context, taskID string) (*task.ResultPayload, bool, error)
	GetTaskMetadata(ctx context.Context, taskID string) (*TaskMetadata, bool, error)
	ListAllResults(ctx context.Context, limit int) ([]TaskMetadata, error)
	ListResultsByStatus(ctx context.Context, status task.Status, limit int) ([]TaskMetadata, error)
	ListResultsByPeriod(ctx context.Context, start, end time.Time, limit int) ([]TaskMetadata, error)
	DeleteResult(ctx context.Context, taskID string) (bool, error)
	GetStorageStats(ctx context.Context) (StorageStats, error)
	HealthCheck(ctx context.Context) HealthStatus
	Close() error
}
