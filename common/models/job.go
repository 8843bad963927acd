package models

import (
	"encoding/json"
	"time"
)

// JobStatus is the lifecycle state of a mining job. Terminal states are
// completed, failed, and cancelled.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether the status can no longer change.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// DataKind selects what a mining job harvests.
type DataKind string

const (
	DataKindEmail DataKind = "email"
	DataKindPhone DataKind = "phone"
)

func (k DataKind) Valid() bool {
	return k == DataKindEmail || k == DataKindPhone
}

// CreateJobRequest is the API payload that starts a mining job.
type CreateJobRequest struct {
	Keyword  string `json:"keyword" validate:"required,min=2,max=200"`
	Country  string `json:"country" validate:"required,min=2,max=32"`
	DataKind string `json:"data_kind" validate:"required,oneof=email phone"`
	Quota    int    `json:"quota" validate:"required,min=1,max=500"`
}

// StatusDoc is the live progress document published to Redis while a job
// runs. The API reads it so progress does not require a DB round trip.
type StatusDoc struct {
	JobID    string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Keyword  string    `json:"keyword"`
	DataKind DataKind  `json:"data_kind"`
	Country  string    `json:"country"`
	Quota    int       `json:"quota"`
	// Progress is a percent in [0,100], non-decreasing until a terminal
	// state.
	Progress      int      `json:"progress"`
	PagesScanned  int      `json:"pages_scanned"`
	ContactsFound int      `json:"contacts_found"`
	// ElapsedTime is wall-clock seconds since the run started.
	ElapsedTime float64   `json:"elapsed_time"`
	Preview     []string  `json:"preview,omitempty"`
	Message     string    `json:"message,omitempty"`
	ArtifactURL string    `json:"artifact_url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (d *StatusDoc) ToJson() ([]byte, error) {
	return json.Marshal(d)
}

func StatusDocFromJson(j []byte) (*StatusDoc, error) {
	var d StatusDoc
	if err := json.Unmarshal(j, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
