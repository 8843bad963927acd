package miner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/LexiconIndonesia/data-miner-service/common/db"
	"github.com/LexiconIndonesia/data-miner-service/common/messaging"
	"github.com/LexiconIndonesia/data-miner-service/common/models"
	"github.com/LexiconIndonesia/data-miner-service/common/storage"
	"github.com/LexiconIndonesia/data-miner-service/common/work"
	"github.com/LexiconIndonesia/data-miner-service/miner/artifact"
	"github.com/LexiconIndonesia/data-miner-service/repository"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// OrchestratorFactory builds a fresh orchestrator per job. Fetch state such
// as blocked domains and cookie jars must not leak between jobs.
type OrchestratorFactory func(job Job) *Orchestrator

// RunnerConfig tunes the background job runner.
type RunnerConfig struct {
	Workers    int
	QueueDepth int
	JobTimeout time.Duration
	Bucket     string
}

func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:    4,
		QueueDepth: 32,
		JobTimeout: 30 * time.Minute,
	}
}

// Runner consumes job dispatches from NATS, executes them on a worker pool,
// and uploads result artifacts. Cancellation arrives over a separate fanout
// subject because only the instance holding the job can stop it.
type Runner struct {
	cfg      RunnerConfig
	db       *db.DB
	nats     *messaging.NatsClient
	jobs     *work.JobManager
	pool     *work.Pool[*RunResult]
	store    storage.StorageService
	progress ProgressSink
	factory  OrchestratorFactory

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	// pending flags cancels that arrived while a job was still queued.
	pending map[string]bool
	deletes map[string]bool
}

func NewRunner(cfg RunnerConfig, dbConn *db.DB, natsClient *messaging.NatsClient, store storage.StorageService, factory OrchestratorFactory) (*Runner, error) {
	if factory == nil {
		return nil, errors.New("orchestrator factory is required")
	}
	poolCfg := work.DefaultPoolConfig()
	poolCfg.NumWorkers = cfg.Workers
	poolCfg.TaskChannelSize = cfg.QueueDepth
	poolCfg.TaskTimeout = cfg.JobTimeout
	pool, err := work.NewWorkerPoolWithConfig[*RunResult](poolCfg)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:      cfg,
		db:       dbConn,
		nats:     natsClient,
		jobs:     work.NewJobManager(dbConn),
		pool:     pool,
		store:    store,
		progress: NewDBProgress(dbConn),
		factory:  factory,
		cancels:  make(map[string]context.CancelFunc),
		pending:  make(map[string]bool),
		deletes:  make(map[string]bool),
	}, nil
}

// Start subscribes to the dispatch subjects and starts the pool. The run
// subject uses a queue group so exactly one instance picks up each job; the
// cancel subject fans out to all instances.
func (r *Runner) Start(ctx context.Context) error {
	r.pool.Start(ctx, "miner")

	go r.drainResults()

	if _, err := r.nats.QueueSubscribe(messaging.SubjectJobRun, messaging.QueueMiners, func(msg *nats.Msg) {
		r.handleRun(ctx, msg)
	}); err != nil {
		return fmt.Errorf("subscribing to job.run: %w", err)
	}

	if _, err := r.nats.Subscribe(messaging.SubjectJobCancel, func(msg *nats.Msg) {
		r.handleCancel(ctx, msg)
	}); err != nil {
		return fmt.Errorf("subscribing to job.cancel: %w", err)
	}

	if err := r.reconcile(ctx); err != nil {
		log.Warn().Err(err).Msg("startup reconciliation failed")
	}

	return nil
}

// Stop drains the pool.
func (r *Runner) Stop() {
	r.pool.Stop()
}

func (r *Runner) drainResults() {
	for res := range r.pool.Results() {
		if res.Error != nil {
			log.Warn().Err(res.Error).Str("jobID", res.TaskID).Dur("duration", res.Duration).Msg("mining job ended with error")
			continue
		}
		log.Info().Str("jobID", res.TaskID).Dur("duration", res.Duration).Msg("mining job finished")
	}
}

func (r *Runner) handleRun(ctx context.Context, msg *nats.Msg) {
	req, err := messaging.UnmarshalJobRun(msg.Data)
	if err != nil {
		log.Error().Err(err).Msg("malformed job.run message")
		return
	}

	row, err := r.db.Queries.GetMiningJob(ctx, req.JobID)
	if err != nil {
		log.Error().Err(err).Str("jobID", req.JobID).Msg("job not found for dispatch")
		return
	}
	if models.JobStatus(row.Status).Terminal() {
		log.Warn().Str("jobID", row.ID).Str("status", row.Status).Msg("ignoring dispatch for finished job")
		return
	}

	job := Job{
		ID:      row.ID,
		Keyword: row.Keyword,
		Country: row.Country,
		Kind:    models.DataKind(row.DataKind),
		Quota:   int(row.Quota),
	}

	task := work.MustNewTask(func(taskCtx context.Context) (*RunResult, error) {
		return r.execute(taskCtx, job)
	}, work.WithID[*RunResult](job.ID), work.WithTimeout[*RunResult](r.cfg.JobTimeout))

	if err := r.pool.AddTaskNonBlocking(task); err != nil {
		log.Error().Err(err).Str("jobID", job.ID).Msg("could not queue mining job")
		_ = r.jobs.Fail(ctx, job.ID, "worker queue full")
	}
}

func (r *Runner) handleCancel(ctx context.Context, msg *nats.Msg) {
	req, err := messaging.UnmarshalJobCancel(msg.Data)
	if err != nil {
		log.Error().Err(err).Msg("malformed job.cancel message")
		return
	}

	r.mu.Lock()
	cancel, running := r.cancels[req.JobID]
	if req.Delete {
		r.deletes[req.JobID] = true
	}
	if !running {
		r.pending[req.JobID] = true
	}
	r.mu.Unlock()

	if !running {
		// Either queued here, queued on another instance, or already
		// finished. Flip a still-pending row so the next status read
		// reports cancelled; deletion of finished jobs is handled
		// synchronously by the API.
		r.cancelPendingJob(ctx, req.JobID)
		return
	}

	log.Info().Str("jobID", req.JobID).Bool("delete", req.Delete).Msg("cancelling running job")
	cancel()
}

// cancelPendingJob marks a job cancelled while it is still waiting in a
// queue. A row some instance already moved to processing is left alone; the
// owner's run context handles it.
func (r *Runner) cancelPendingJob(ctx context.Context, jobID string) {
	if r.db == nil || r.db.Queries == nil {
		return
	}
	row, err := r.db.Queries.GetMiningJob(ctx, jobID)
	if err != nil || models.JobStatus(row.Status) != models.JobStatusPending {
		return
	}
	if err := r.jobs.Cancel(ctx, jobID); err != nil {
		log.Warn().Err(err).Str("jobID", jobID).Msg("failed to cancel queued job")
		return
	}
	r.progress.Publish(ctx, &models.StatusDoc{
		JobID:    jobID,
		Status:   models.JobStatusCancelled,
		Keyword:  row.Keyword,
		DataKind: models.DataKind(row.DataKind),
		Country:  row.Country,
		Quota:    int(row.Quota),
		Message:  "cancelled by user",
	})
	log.Info().Str("jobID", jobID).Msg("cancelled queued job")
}

// finalizeStatus maps the orchestrator's outcome to the job's terminal
// state. Deadline expiry is not a failure: the job completes with whatever
// it harvested. Only completed jobs produce an artifact.
func finalizeStatus(runErr error) (models.JobStatus, string) {
	switch {
	case runErr == nil:
		return models.JobStatusCompleted, ""
	case errors.Is(runErr, context.Canceled):
		return models.JobStatusCancelled, "cancelled by user"
	case errors.Is(runErr, context.DeadlineExceeded):
		return models.JobStatusCompleted, "time budget exceeded"
	default:
		return models.JobStatusFailed, runErr.Error()
	}
}

// execute is the pool task body for one job.
func (r *Runner) execute(ctx context.Context, job Job) (*RunResult, error) {
	if r.skipDequeued(ctx, job.ID) {
		log.Info().Str("jobID", job.ID).Msg("dropping job cancelled while queued")
		return nil, nil
	}

	if err := r.jobs.Start(ctx, job.ID); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancels[job.ID] = cancel
	r.mu.Unlock()

	defer func() {
		cancel()
		r.mu.Lock()
		delete(r.cancels, job.ID)
		wantDelete := r.deletes[job.ID]
		delete(r.deletes, job.ID)
		r.mu.Unlock()
		if wantDelete {
			r.deleteJob(job.ID)
		}
	}()

	orch := r.factory(job)
	result, runErr := orch.Run(runCtx, job)

	// Terminal bookkeeping runs on a fresh context: the run context may
	// already be cancelled.
	finishCtx, finishCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer finishCancel()

	status, message := finalizeStatus(runErr)
	switch status {
	case models.JobStatusCancelled:
		_ = r.jobs.Cancel(finishCtx, job.ID)
		r.publishTerminal(finishCtx, job, result, models.JobStatusCancelled, message, "")
		return result, nil
	case models.JobStatusFailed:
		_ = r.jobs.Fail(finishCtx, job.ID, message)
		r.publishTerminal(finishCtx, job, result, models.JobStatusFailed, message, "")
		return result, runErr
	}

	// Completed, possibly with a partial harvest after the time budget ran
	// out.
	artifactURL, err := r.uploadArtifact(finishCtx, job, result)
	if err != nil {
		_ = r.jobs.Fail(finishCtx, job.ID, "artifact upload failed: "+err.Error())
		r.publishTerminal(finishCtx, job, result, models.JobStatusFailed, err.Error(), "")
		return result, err
	}

	_ = r.jobs.Complete(finishCtx, job.ID, len(result.Contacts), artifactURL)
	r.publishTerminal(finishCtx, job, result, models.JobStatusCompleted, message, artifactURL)
	return result, nil
}

// skipDequeued reports whether a job coming off the queue was cancelled
// while it waited, either via the pending flag or a terminal DB row written
// by another instance.
func (r *Runner) skipDequeued(ctx context.Context, jobID string) bool {
	r.mu.Lock()
	cancelled := r.pending[jobID]
	delete(r.pending, jobID)
	wantDelete := cancelled && r.deletes[jobID]
	if cancelled {
		delete(r.deletes, jobID)
	}
	r.mu.Unlock()

	if !cancelled && r.db != nil && r.db.Queries != nil {
		row, err := r.db.Queries.GetMiningJob(ctx, jobID)
		cancelled = err == nil && models.JobStatus(row.Status).Terminal()
	}
	if wantDelete {
		r.deleteJob(jobID)
	}
	return cancelled
}

func (r *Runner) publishTerminal(ctx context.Context, job Job, result *RunResult, status models.JobStatus, message, artifactURL string) {
	doc := &models.StatusDoc{
		JobID:       job.ID,
		Status:      status,
		Keyword:     job.Keyword,
		DataKind:    job.Kind,
		Country:     job.Country,
		Quota:       job.Quota,
		Message:     message,
		ArtifactURL: artifactURL,
	}
	if result != nil {
		doc.Progress = result.Progress
		doc.PagesScanned = result.PagesScanned
		doc.ContactsFound = len(result.Contacts)
		doc.ElapsedTime = result.Elapsed.Seconds()
		if len(result.Contacts) > previewSize {
			doc.Preview = result.Contacts[:previewSize]
		} else {
			doc.Preview = result.Contacts
		}
	}
	if status == models.JobStatusCompleted {
		doc.Progress = 100
	}
	r.progress.Publish(ctx, doc)
}

func (r *Runner) uploadArtifact(ctx context.Context, job Job, result *RunResult) (string, error) {
	if r.store == nil {
		return "", nil
	}

	data, err := artifact.Write(string(job.Kind), result.Contacts)
	if err != nil {
		return "", fmt.Errorf("rendering artifact: %w", err)
	}

	name := artifact.Filename(job.Keyword, time.Now())
	objectName := fmt.Sprintf("mining/%s/%s", job.ID, name)
	if _, err := r.store.Upload(ctx, r.cfg.Bucket, objectName, data, artifact.ContentType()); err != nil {
		return "", fmt.Errorf("uploading artifact: %w", err)
	}

	url, err := r.store.GetSignedURL(ctx, r.cfg.Bucket, objectName, int64((7 * 24 * time.Hour).Seconds()))
	if err != nil {
		log.Warn().Err(err).Str("object", objectName).Msg("could not sign artifact url, returning object name")
		return objectName, nil
	}
	return url, nil
}

// deleteJob removes every trace of a job: DB row and status document. Called
// after a cancel-with-delete completes.
func (r *Runner) deleteJob(jobID string) {
	if r.db == nil || r.db.Queries == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.db.Queries.DeleteMiningJob(ctx, jobID); err != nil {
		log.Warn().Err(err).Str("jobID", jobID).Msg("failed to delete job row")
	}
	if r.db.Redis != nil {
		if err := r.db.Redis.DeleteJobStatus(ctx, jobID); err != nil {
			log.Warn().Err(err).Str("jobID", jobID).Msg("failed to delete job status doc")
		}
	}
}

// reconcile cleans up after an unclean shutdown. Jobs stuck in processing
// without a live run lock are marked failed; pending jobs are re-dispatched.
func (r *Runner) reconcile(ctx context.Context) error {
	rows, err := r.db.Queries.ListUnfinishedMiningJobs(ctx)
	if err != nil {
		return fmt.Errorf("listing unfinished jobs: %w", err)
	}

	for _, row := range rows {
		switch models.JobStatus(row.Status) {
		case models.JobStatusPending:
			if err := r.nats.PublishJobRun(row.ID); err != nil {
				log.Warn().Err(err).Str("jobID", row.ID).Msg("failed to re-dispatch pending job")
			} else {
				log.Info().Str("jobID", row.ID).Msg("re-dispatched pending job")
			}
		case models.JobStatusProcessing:
			running, err := r.jobs.IsRunning(ctx, row.ID)
			if err != nil {
				log.Warn().Err(err).Str("jobID", row.ID).Msg("failed to check run lock")
				continue
			}
			if running {
				// Another instance holds it.
				continue
			}
			if _, err := r.db.Queries.FailMiningJob(ctx, repository.FailMiningJobParams{
				ID:      row.ID,
				Status:  string(models.JobStatusFailed),
				Message: pgtype.Text{String: "interrupted by service restart", Valid: true},
			}); err != nil {
				log.Warn().Err(err).Str("jobID", row.ID).Msg("failed to mark orphaned job")
			} else {
				log.Info().Str("jobID", row.ID).Msg("marked orphaned job as failed")
			}
		}
	}
	return nil
}
