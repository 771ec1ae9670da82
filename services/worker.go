package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-service/importer"
	"storefront-service/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	importQueueKey     = "catalog_import:queue"
	importJobKeyPrefix = "catalog_import:job:"
	importJobTTL       = 24 * time.Hour
	jobSaveTimeout     = 5 * time.Second
)

// queueEntry is what travels on the list. It carries the staged path so the
// file can be released even if the job record has expired.
type queueEntry struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// ImportQueue hands staged uploads to the background worker through a Redis
// list. Job state lives under its own key so clients can poll it.
type ImportQueue struct {
	rdb *redis.Client
}

func NewImportQueue(rdb *redis.Client) *ImportQueue {
	return &ImportQueue{rdb: rdb}
}

// Enqueue records a queued job for up and pushes its id. On success the
// worker owns the staged file.
func (q *ImportQueue) Enqueue(ctx context.Context, entity string, format importer.Format, up *importer.Upload) (*models.ImportJob, error) {
	now := time.Now().UTC()
	job := &models.ImportJob{
		ID:        uuid.NewString(),
		Entity:    entity,
		Format:    string(format),
		FilePath:  up.Path,
		FileName:  up.Name,
		Status:    models.ImportQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := q.save(ctx, job); err != nil {
		return nil, err
	}
	entry, err := json.Marshal(queueEntry{ID: job.ID, Path: up.Path})
	if err != nil {
		q.rdb.Del(ctx, jobKey(job.ID))
		return nil, fmt.Errorf("failed to marshal queue entry: %w", err)
	}
	if err := q.rdb.RPush(ctx, importQueueKey, entry).Err(); err != nil {
		q.rdb.Del(ctx, jobKey(job.ID))
		return nil, fmt.Errorf("failed to enqueue import job: %w", err)
	}
	return job, nil
}

func (q *ImportQueue) Get(ctx context.Context, id string) (*models.ImportJob, error) {
	val, err := q.rdb.Get(ctx, jobKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read import job: %w", err)
	}
	var job models.ImportJob
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		return nil, fmt.Errorf("failed to parse import job: %w", err)
	}
	return &job, nil
}

func (q *ImportQueue) save(ctx context.Context, job *models.ImportJob) error {
	job.UpdatedAt = time.Now().UTC()
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal import job: %w", err)
	}
	if err := q.rdb.Set(ctx, jobKey(job.ID), b, importJobTTL).Err(); err != nil {
		return fmt.Errorf("failed to store import job: %w", err)
	}
	return nil
}

func jobKey(id string) string {
	return importJobKeyPrefix + id
}

// StartImportWorker consumes queued jobs one at a time until ctx is done.
func StartImportWorker(ctx context.Context, q *ImportQueue, svc *ImportService) {
	if q == nil || svc == nil {
		zap.L().Warn("Import worker not started: missing dependencies")
		return
	}

	go func() {
		zap.L().Info("Import worker started", zap.String("queue", importQueueKey))
		for {
			if ctx.Err() != nil {
				zap.L().Info("Import worker stopping")
				return
			}

			res, err := q.rdb.BLPop(ctx, 5*time.Second, importQueueKey).Result()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				zap.L().Error("Redis BLPop failed", zap.Error(err))
				time.Sleep(500 * time.Millisecond)
				continue
			}
			if len(res) < 2 {
				continue
			}
			q.process(ctx, svc, res[1])
		}
	}()
}

func (q *ImportQueue) process(ctx context.Context, svc *ImportService, raw string) {
	var entry queueEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		zap.L().Error("Dropping malformed queue entry", zap.String("entry", raw), zap.Error(err))
		return
	}

	job, err := q.Get(ctx, entry.ID)
	if err != nil {
		zap.L().Error("Failed to load import job", zap.String("job", entry.ID), zap.Error(err))
		if entry.Path != "" {
			up := &importer.Upload{Path: entry.Path}
			if err := up.Release(); err != nil {
				zap.L().Warn("Failed to remove staged upload", zap.String("path", entry.Path), zap.Error(err))
			}
		}
		return
	}
	q.run(ctx, svc, job)
}

func (q *ImportQueue) run(ctx context.Context, svc *ImportService, job *models.ImportJob) {
	job.Status = models.ImportProcessing
	if err := q.save(ctx, job); err != nil {
		zap.L().Warn("Failed to update import job", zap.String("job", job.ID), zap.Error(err))
	}

	up := &importer.Upload{Path: job.FilePath, Name: job.FileName}
	format, err := importer.ParseFormat(job.Format)
	if err != nil {
		_ = up.Release()
		q.finish(job, models.ImportFailed, &models.ImportResult{Message: "Unsupported import format", Error: err.Error()})
		return
	}

	sum, err := svc.Import(ctx, job.Entity, format, up, importer.Options{})
	if err != nil {
		q.finish(job, models.ImportFailed, &models.ImportResult{Message: "Import could not be started", Error: err.Error()})
		return
	}

	result := svc.Result(job.Entity, format, sum, false)
	status := models.ImportDone
	if !sum.OK() {
		status = models.ImportFailed
	}
	q.finish(job, status, &result)
}

// finish stores the final status on its own context so a job interrupted by
// shutdown is still recorded.
func (q *ImportQueue) finish(job *models.ImportJob, status string, result *models.ImportResult) {
	job.Status = status
	job.Result = result

	ctx, cancel := context.WithTimeout(context.Background(), jobSaveTimeout)
	defer cancel()
	if err := q.save(ctx, job); err != nil {
		zap.L().Error("Failed to store import result", zap.String("job", job.ID), zap.Error(err))
	}
}
