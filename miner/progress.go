package miner

import (
	"context"

	"github.com/LexiconIndonesia/data-miner-service/common/db"
	"github.com/LexiconIndonesia/data-miner-service/common/models"
	"github.com/LexiconIndonesia/data-miner-service/repository"
	"github.com/rs/zerolog/log"
)

// ProgressSink receives live progress while a job runs. Publishing is best
// effort; a failed write never stops the harvest.
type ProgressSink interface {
	Publish(ctx context.Context, doc *models.StatusDoc)
}

// DBProgress writes progress to the Redis status document and mirrors the
// counters to the job row.
type DBProgress struct {
	db *db.DB
}

func NewDBProgress(dbConn *db.DB) *DBProgress {
	return &DBProgress{db: dbConn}
}

func (p *DBProgress) Publish(ctx context.Context, doc *models.StatusDoc) {
	if p.db == nil {
		return
	}
	if p.db.Redis != nil {
		if err := p.db.Redis.SetJobStatus(ctx, doc); err != nil {
			log.Warn().Err(err).Str("jobID", doc.JobID).Msg("failed to publish status doc")
		}
	}
	if p.db.Queries != nil {
		err := p.db.Queries.UpdateMiningJobProgress(ctx, repository.UpdateMiningJobProgressParams{
			ID:            doc.JobID,
			PagesScanned:  int32(doc.PagesScanned),
			ContactsFound: int32(doc.ContactsFound),
		})
		if err != nil {
			log.Warn().Err(err).Str("jobID", doc.JobID).Msg("failed to persist job progress")
		}
	}
}

// NopProgress discards progress. Used by tests.
type NopProgress struct{}

func (NopProgress) Publish(context.Context, *models.StatusDoc) {}
