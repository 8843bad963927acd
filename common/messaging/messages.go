package messaging

import "encoding/json"

// Constants for NATS subjects
const (
	SubjectJobRun    = "miner.job.run"
	SubjectJobCancel = "miner.job.cancel"

	// QueueMiners spreads job.run across service instances; cancel fans out
	// to every instance because only the one running the job can stop it.
	QueueMiners = "miners"
)

// JobRunMessage asks a worker to execute a mining job.
type JobRunMessage struct {
	JobID string `json:"job_id"`
}

// JobCancelMessage asks whichever worker holds the job to stop it.
type JobCancelMessage struct {
	JobID  string `json:"job_id"`
	Delete bool   `json:"delete,omitempty"`
}

func (m JobRunMessage) Marshal() ([]byte, error)    { return json.Marshal(m) }
func (m JobCancelMessage) Marshal() ([]byte, error) { return json.Marshal(m) }

func UnmarshalJobRun(data []byte) (JobRunMessage, error) {
	var m JobRunMessage
	err := json.Unmarshal(data, &m)
	return m, err
}

func UnmarshalJobCancel(data []byte) (JobCancelMessage, error) {
	var m JobCancelMessage
	err := json.Unmarshal(data, &m)
	return m, err
}
