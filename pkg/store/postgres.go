package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/cuemby/visionq/internal/apperr"
	"github.com/cuemby/visionq/internal/log"
	"github.com/cuemby/visionq/pkg/task"
)

// PostgresStore is the Store implementation backed by PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore opens a connection pool against connString.
//
// The pool is built with DefaultQueryExecMode overridden to
// QueryExecModeDescribeExec rather than pgx's default
// QueryExecModeCacheStatement: the default caches prepared statement
// plans keyed by SQL text, and a schema change (migration) applied
// while the process is already connected leaves those cached plans
// pointing at a stale result shape, producing "cached plan must not
// change result type" errors. DescribeExec still describes each query
// to get correct parameter OIDs for JSONB encoding, it just never
// caches the plan.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	connConfig, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres connection string: %w", err)
	}
	connConfig.DefaultQueryExecMode = pgx.QueryExecModeDescribeExec

	db := sqlx.NewDb(stdlib.OpenDB(*connConfig), "pgx")
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// SaveResult upserts both the vision_tasks and vision_results rows for
// taskID in a single transaction, matching the original's atomic
// two-table write.
func (s *PostgresStore) SaveResult(ctx context.Context, taskID string, payload task.ResultPayload) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, apperr.NewStore(err, "begin transaction for task %s", taskID)
	}
	defer tx.Rollback()

	body, err := json.Marshal(payload)
	if err != nil {
		return false, apperr.NewStore(err, "marshal result for task %s", taskID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vision_tasks (task_id, status, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (task_id) DO UPDATE SET status = EXCLUDED.status
	`, taskID, payload.Status)
	if err != nil {
		return false, apperr.NewStore(err, "upsert vision_tasks for task %s", taskID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vision_results (task_id, status, result, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (task_id) DO UPDATE SET status = EXCLUDED.status, result = EXCLUDED.result
	`, taskID, payload.Status, body)
	if err != nil {
		return false, apperr.NewStore(err, "upsert vision_results for task %s", taskID)
	}

	if err := tx.Commit(); err != nil {
		return false, apperr.NewStore(err, "commit result for task %s", taskID)
	}
	return true, nil
}

func (s *PostgresStore) GetResult(ctx context.Context, taskID string) (*task.ResultPayload, bool, error) {
	var body []byte
	err := s.db.GetContext(ctx, &body, `SELECT result FROM vision_results WHERE task_id = $1`, taskID)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperr.NewStore(err, "get result for task %s", taskID)
	}
	var payload task.ResultPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false, apperr.NewStore(err, "decode result for task %s", taskID)
	}
	return &payload, true, nil
}

// GetTaskMetadata returns the task row's status, deriving HasResult
// from the presence of a vision_results row rather than persisting a
// redundant column.
func (s *PostgresStore) GetTaskMetadata(ctx context.Context, taskID string) (*TaskMetadata, bool, error) {
	var row TaskMetadata
	err := s.db.GetContext(ctx, &row, `
		SELECT t.task_id, t.status, t.created_at,
		       EXISTS(SELECT 1 FROM vision_results r WHERE r.task_id = t.task_id) AS has_result
		FROM vision_tasks t
		WHERE t.task_id = $1
	`, taskID)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperr.NewStore(err, "get task metadata for task %s", taskID)
	}
	return &row, true, nil
}

func (s *PostgresStore) ListAllResults(ctx context.Context, limit int) ([]TaskMetadata, error) {
	return s.listWithMetadataQuery(ctx, `
		SELECT t.task_id, t.status, t.created_at,
		       EXISTS(SELECT 1 FROM vision_results r WHERE r.task_id = t.task_id) AS has_result
		FROM vision_tasks t ORDER BY t.created_at DESC LIMIT $1
	`, limit)
}

func (s *PostgresStore) ListResultsByStatus(ctx context.Context, status task.Status, limit int) ([]TaskMetadata, error) {
	var rows []TaskMetadata
	err := s.db.SelectContext(ctx, &rows, `
		SELECT t.task_id, t.status, t.created_at,
		       EXISTS(SELECT 1 FROM vision_results r WHERE r.task_id = t.task_id) AS has_result
		FROM vision_tasks t WHERE t.status = $1 ORDER BY t.created_at DESC LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, apperr.NewStore(err, "list results by status %s", status)
	}
	return rows, nil
}

func (s *PostgresStore) ListResultsByPeriod(ctx context.Context, start, end time.Time, limit int) ([]TaskMetadata, error) {
	var rows []TaskMetadata
	err := s.db.SelectContext(ctx, &rows, `
		SELECT t.task_id, t.status, t.created_at,
		       EXISTS(SELECT 1 FROM vision_results r WHERE r.task_id = t.task_id) AS has_result
		FROM vision_tasks t WHERE t.created_at BETWEEN $1 AND $2 ORDER BY t.created_at DESC LIMIT $3
	`, start, end, limit)
	if err != nil {
		return nil, apperr.NewStore(err, "list results by period")
	}
	return rows, nil
}

func (s *PostgresStore) listWithMetadataQuery(ctx context.Context, query string, limit int) ([]TaskMetadata, error) {
	var rows []TaskMetadata
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, apperr.NewStore(err, "list results")
	}
	return rows, nil
}

// DeleteResult removes both the task and result rows in one
// transaction, per the lifecycle note that a Task is destroyed only
// by explicit administrative deletion.
func (s *PostgresStore) DeleteResult(ctx context.Context, taskID string) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, apperr.NewStore(err, "begin delete transaction for task %s", taskID)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM vision_tasks WHERE task_id = $1`, taskID)
	if err != nil {
		return false, apperr.NewStore(err, "delete vision_tasks for task %s", taskID)
	}
	n, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vision_results WHERE task_id = $1`, taskID); err != nil {
		return false, apperr.NewStore(err, "delete vision_results for task %s", taskID)
	}
	if err := tx.Commit(); err != nil {
		return false, apperr.NewStore(err, "commit delete for task %s", taskID)
	}
	return n > 0, nil
}

func (s *PostgresStore) GetStorageStats(ctx context.Context) (StorageStats, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT count(*) FROM vision_tasks`); err != nil {
		return StorageStats{}, apperr.NewStore(err, "count vision_tasks")
	}

	type statusCount struct {
		Status task.Status `db:"status"`
		Count  int         `db:"count"`
	}
	var counts []statusCount
	if err := s.db.SelectContext(ctx, &counts, `
		SELECT status, count(*) AS count FROM vision_tasks GROUP BY status
	`); err != nil {
		return StorageStats{}, apperr.NewStore(err, "group vision_tasks by status")
	}

	byStatus := make(map[string]int, len(counts))
	for _, c := range counts {
		byStatus[string(c.Status)] = c.Count
	}
	return StorageStats{TotalTasks: total, StatusCounts: byStatus, Timestamp: time.Now()}, nil
}

func (s *PostgresStore) HealthCheck(ctx context.Context) HealthStatus {
	var one int
	if err := s.db.GetContext(ctx, &one, `SELECT 1`); err != nil {
		log.Errorf("postgres health check failed", err)
		return HealthStatus{Healthy: false, Timestamp: time.Now(), Error: err.Error()}
	}
	return HealthStatus{Healthy: true, Timestamp: time.Now()}
}
