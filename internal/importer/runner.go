package importer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ignite/crm-import/internal/domain"
	"github.com/ignite/crm-import/internal/pkg/distlock"
	"github.com/ignite/crm-import/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRowTimeout bounds a single sink call so one stuck remote
	// create cannot stall the rest of the batch.
	DefaultRowTimeout = 30 * time.Second

	// progressEvery controls how often progress is flushed to Redis.
	progressEvery = 25

	// runTTL keeps progress and results readable after the run finishes.
	runTTL = 24 * time.Hour

	// importLockKey serializes runs. Dedupe checks against a snapshot of the
	// contact list, so two concurrent runs could both create the same contact.
	importLockKey = "contact-import"

	// lockTTL expires abandoned locks if a run dies without releasing.
	// Live runs re-extend it on every progress flush.
	lockTTL = 30 * time.Minute
)

// ErrImportInProgress is returned when another run holds the import lock.
var ErrImportInProgress = errors.New("another import run is already in progress")

// Sink persists one candidate contact. Implemented by the Postgres
// repository in production and by fakes in tests.
type Sink interface {
	Create(ctx context.Context, in domain.ContactInput) error
}

// FailedRecord is a candidate the sink rejected, with the accumulated errors.
type FailedRecord struct {
	Candidate domain.ContactInput `json:"candidate"`
	Errors    []string            `json:"errors"`
}

// Summary carries the final import tallies.
type Summary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Duplicates int `json:"duplicates"`
}

// ImportResult is the final disposition of an import run. Immutable once the
// run completes.
type ImportResult struct {
	RunID       string                `json:"run_id"`
	Created     []domain.ContactInput `json:"created"`
	Failed      []FailedRecord        `json:"failed"`
	Skipped     []DuplicateMatch      `json:"skipped"`
	Summary     Summary               `json:"summary"`
	CompletedAt time.Time             `json:"completed_at"`
}

// RunProgress tracks a run in flight, stored in Redis under the run ID.
type RunProgress struct {
	RunID      string    `json:"run_id"`
	Status     string    `json:"status"` // processing, completed, canceled
	Total      int       `json:"total"`
	Processed  int       `json:"processed"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Duplicates int       `json:"duplicates"`
	StartedAt  time.Time `json:"started_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RunOptions configures one import run.
type RunOptions struct {
	// MergeDuplicates resolves detected duplicates via Merge and submits the
	// merged records. When false, duplicates are skipped and only counted.
	MergeDuplicates bool
	Merge           MergeOptions
	RowTimeout      time.Duration
}

// Runner submits validated candidates to the sink one at a time, strictly
// sequentially. A failure on one row is recorded and processing continues;
// there is no batching and no rollback.
type Runner struct {
	sink  Sink
	redis *redis.Client
	db    *sql.DB
}

// NewRunner creates a Runner. The Redis client may be nil, in which case
// progress tracking is disabled. The db handle is only used as a fallback
// lock backend (Postgres advisory locks) when Redis is unavailable.
func NewRunner(sink Sink, redisClient *redis.Client, db *sql.DB) *Runner {
	return &Runner{sink: sink, redis: redisClient, db: db}
}

// Run executes the submission loop for a detection result. Each sink call
// runs under a per-row timeout derived from ctx; canceling ctx stops the
// loop after the in-flight row and marks the remainder failed.
func (r *Runner) Run(ctx context.Context, runID string, detection DetectionResult, opts RunOptions) (*ImportResult, error) {
	if opts.MergeDuplicates {
		if err := opts.Merge.Validate(); err != nil {
			return nil, fmt.Errorf("invalid merge options: %w", err)
		}
	}
	rowTimeout := opts.RowTimeout
	if rowTimeout <= 0 {
		rowTimeout = DefaultRowTimeout
	}

	var lock distlock.DistLock
	if r.redis != nil || r.db != nil {
		// Lock bookkeeping runs detached so a canceled run still records its
		// remaining rows as failed instead of erroring out here.
		lock = distlock.NewLock(r.redis, r.db, importLockKey, lockTTL)
		acquired, err := lock.Acquire(context.WithoutCancel(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to acquire import lock: %w", err)
		}
		if !acquired {
			return nil, ErrImportInProgress
		}
		defer lock.Release(context.WithoutCancel(ctx))
	}

	// Assemble the submission queue: unique candidates first, then merged
	// duplicates when requested. Skipped duplicates are only counted.
	queue := append([]domain.ContactInput{}, detection.Unique...)
	var skipped []DuplicateMatch
	if opts.MergeDuplicates {
		for _, m := range detection.Duplicates {
			queue = append(queue, Merge(m, opts.Merge))
		}
	} else {
		skipped = append(skipped, detection.Duplicates...)
	}

	result := &ImportResult{
		RunID:   runID,
		Created: []domain.ContactInput{},
		Failed:  []FailedRecord{},
		Skipped: skipped,
	}
	progress := RunProgress{
		RunID:     runID,
		Status:    "processing",
		Total:     len(queue),
		StartedAt: time.Now(),
	}
	r.saveProgress(ctx, &progress)

	log.Printf("[Import] Run %s started: %d to create, %d duplicates (merge=%v)",
		runID, len(queue), detection.DuplicateCount, opts.MergeDuplicates)

	for i, candidate := range queue {
		if ctx.Err() != nil {
			// Run canceled: remaining rows go to the failed bucket so the
			// summary still accounts for every candidate.
			for _, rest := range queue[i:] {
				result.Failed = append(result.Failed, FailedRecord{
					Candidate: rest,
					Errors:    []string{fmt.Sprintf("import canceled: %v", ctx.Err())},
				})
			}
			progress.Status = "canceled"
			break
		}

		rowCtx, cancel := context.WithTimeout(ctx, rowTimeout)
		err := r.sink.Create(rowCtx, candidate)
		cancel()

		if err != nil {
			log.Printf("[Import] Run %s: row %d (%s) failed: %v",
				runID, i+1, logger.RedactEmail(candidate.Email), err)
			result.Failed = append(result.Failed, FailedRecord{
				Candidate: candidate,
				Errors:    []string{fmt.Sprintf("failed to create contact: %v", err)},
			})
		} else {
			result.Created = append(result.Created, candidate)
		}

		progress.Processed = i + 1
		progress.Successful = len(result.Created)
		progress.Failed = len(result.Failed)
		if progress.Processed%progressEvery == 0 {
			r.saveProgress(ctx, &progress)
			if lock != nil {
				// Slow sinks can outlast lockTTL; keep the lock alive for
				// the rest of the run.
				if err := lock.Extend(context.WithoutCancel(ctx), lockTTL); err != nil {
					log.Printf("[Import] Run %s: failed to extend import lock: %v", runID, err)
				}
			}
		}
	}

	result.Summary = Summary{
		Total:      len(queue) + len(skipped),
		Successful: len(result.Created),
		Failed:     len(result.Failed),
		Duplicates: len(skipped),
	}
	result.CompletedAt = time.Now()

	if progress.Status == "processing" {
		progress.Status = "completed"
	}
	progress.Duplicates = len(skipped)
	r.saveProgress(ctx, &progress)
	r.saveResult(ctx, result)

	log.Printf("[Import] Run %s %s: %d created, %d failed, %d skipped as duplicates",
		runID, progress.Status, result.Summary.Successful, result.Summary.Failed, result.Summary.Duplicates)

	return result, nil
}

// GetProgress retrieves run progress from Redis.
func (r *Runner) GetProgress(ctx context.Context, runID string) (*RunProgress, error) {
	if r.redis == nil {
		return nil, fmt.Errorf("progress tracking not configured")
	}
	data, err := r.redis.Get(ctx, progressKey(runID)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, err
	}
	var p RunProgress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetResult retrieves the final result of a completed run from Redis.
func (r *Runner) GetResult(ctx context.Context, runID string) (*ImportResult, error) {
	if r.redis == nil {
		return nil, fmt.Errorf("progress tracking not configured")
	}
	data, err := r.redis.Get(ctx, resultKey(runID)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("run %s has no result yet", runID)
	}
	if err != nil {
		return nil, err
	}
	var res ImportResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *Runner) saveProgress(ctx context.Context, p *RunProgress) {
	if r.redis == nil {
		return
	}
	p.UpdatedAt = time.Now()
	data, _ := json.Marshal(p)
	// Progress writes must survive run cancellation.
	if err := r.redis.Set(context.WithoutCancel(ctx), progressKey(p.RunID), data, runTTL).Err(); err != nil {
		log.Printf("[Import] Run %s: failed to save progress: %v", p.RunID, err)
	}
}

func (r *Runner) saveResult(ctx context.Context, res *ImportResult) {
	if r.redis == nil {
		return
	}
	data, _ := json.Marshal(res)
	if err := r.redis.Set(context.WithoutCancel(ctx), resultKey(res.RunID), data, runTTL).Err(); err != nil {
		log.Printf("[Import] Run %s: failed to save result: %v", res.RunID, err)
	}
}

func progressKey(runID string) string { return fmt.Sprintf("import:progress:%s", runID) }
func resultKey(runID string) string   { return fmt.Sprintf("import:result:%s", runID) }
