package work

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LexiconIndonesia/data-miner-service/common/db"
	"github.com/LexiconIndonesia/data-miner-service/common/models"
	"github.com/LexiconIndonesia/data-miner-service/repository"
	"github.com/jackc/pgx/v5/pgtype"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	jobLockKeyPrefix = "miner:run:"
	runningState     = "running"
	// jobLockTTL bounds how long a job can hold its run lock. A worker that
	// dies without cleanup stops blocking re-runs once the lock expires.
	jobLockTTL = 2 * time.Hour
)

// JobManager coordinates exclusive execution of mining jobs. The Redis run
// lock prevents two instances from picking up the same job; the DB row is
// the durable record.
type JobManager struct {
	db *db.DB
}

// NewJobManager creates a new JobManager.
func NewJobManager(dbConn *db.DB) *JobManager {
	return &JobManager{
		db: dbConn,
	}
}

func (jm *JobManager) lockKey(jobID string) string {
	return fmt.Sprintf("%s%s", jobLockKeyPrefix, jobID)
}

// Start acquires the run lock and moves the job to processing. It returns an
// error when the job is already running on some instance.
func (jm *JobManager) Start(ctx context.Context, jobID string) error {
	key := jm.lockKey(jobID)
	ok, err := jm.db.Redis.SetNX(ctx, key, runningState, jobLockTTL)
	if err != nil {
		return fmt.Errorf("failed to lock job %s: %w", jobID, err)
	}
	if !ok {
		return fmt.Errorf("job %s is already running", jobID)
	}

	if err := jm.updateStatus(ctx, jobID, models.JobStatusProcessing); err != nil {
		log.Warn().Err(err).Str("jobID", jobID).Msg("failed to persist job status to DB")
	}

	return nil
}

// IsRunning checks whether a job currently holds its run lock.
func (jm *JobManager) IsRunning(ctx context.Context, jobID string) (bool, error) {
	state, err := jm.db.Redis.Get(ctx, jm.lockKey(jobID))
	if err != nil {
		if errors.Is(err, redisv9.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get run state for %s: %w", jobID, err)
	}
	return state == runningState, nil
}

func (jm *JobManager) releaseLock(ctx context.Context, jobID string) error {
	if err := jm.db.Redis.Delete(ctx, jm.lockKey(jobID)); err != nil {
		return fmt.Errorf("failed to release lock for %s: %w", jobID, err)
	}
	return nil
}

// Complete records a successful run and releases the lock.
func (jm *JobManager) Complete(ctx context.Context, jobID string, contactsFound int, artifactURL string) error {
	if err := jm.releaseLock(ctx, jobID); err != nil {
		return err
	}

	if jm.db == nil || jm.db.Queries == nil {
		return nil
	}
	_, err := jm.db.Queries.CompleteMiningJob(ctx, repository.CompleteMiningJobParams{
		ID:            jobID,
		ContactsFound: int32(contactsFound),
		ArtifactUrl:   pgtype.Text{String: artifactURL, Valid: artifactURL != ""},
	})
	if err != nil {
		log.Warn().Err(err).Str("jobID", jobID).Msg("failed to persist job completion to DB")
	}
	return nil
}

// Fail records a failed run and releases the lock.
func (jm *JobManager) Fail(ctx context.Context, jobID, message string) error {
	if err := jm.releaseLock(ctx, jobID); err != nil {
		return err
	}
	return jm.finishWithStatus(ctx, jobID, models.JobStatusFailed, message)
}

// Cancel records a cancelled run and releases the lock.
func (jm *JobManager) Cancel(ctx context.Context, jobID string) error {
	if err := jm.releaseLock(ctx, jobID); err != nil {
		return err
	}
	return jm.finishWithStatus(ctx, jobID, models.JobStatusCancelled, "cancelled by user")
}

func (jm *JobManager) finishWithStatus(ctx context.Context, jobID string, status models.JobStatus, message string) error {
	if jm.db == nil || jm.db.Queries == nil {
		return nil
	}
	_, err := jm.db.Queries.FailMiningJob(ctx, repository.FailMiningJobParams{
		ID:      jobID,
		Status:  string(status),
		Message: pgtype.Text{String: message, Valid: message != ""},
	})
	if err != nil {
		log.Warn().Err(err).Str("jobID", jobID).Str("status", string(status)).Msg("failed to persist terminal job status to DB")
	}
	return nil
}

// ListRunningJobs returns job IDs holding a run lock. Used on startup to
// find jobs orphaned by a crash. It uses SCAN to avoid blocking Redis.
func (jm *JobManager) ListRunningJobs(ctx context.Context) ([]string, error) {
	var jobIDs []string
	pattern := fmt.Sprintf("%s*", jobLockKeyPrefix)

	iter := jm.db.Redis.GetClient().Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		jobIDs = append(jobIDs, strings.TrimPrefix(key, jobLockKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan for running jobs in Redis: %w", err)
	}

	return jobIDs, nil
}

// updateStatus upserts the processing state in the database.
func (jm *JobManager) updateStatus(ctx context.Context, jobID string, status models.JobStatus) error {
	if jm.db == nil || jm.db.Queries == nil {
		return nil
	}

	if _, err := jm.db.Queries.UpdateMiningJobStatus(ctx, repository.UpdateMiningJobStatusParams{
		ID:     jobID,
		Status: string(status),
	}); err != nil {
		return fmt.Errorf("update job status: %w", err)
	}

	return nil
}
