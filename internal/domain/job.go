package domain

import "time"

// JobStatus is a scan job's position in the pipeline.
type JobStatus string

const (
	JobQueued         JobStatus = "QUEUED"
	JobCoreRunning    JobStatus = "CORE_RUNNING"
	JobStaticRunning  JobStatus = "STATIC_RUNNING"
	JobSandboxRunning JobStatus = "SANDBOX_RUNNING"
	JobDone           JobStatus = "DONE"
	JobError          JobStatus = "ERROR"
)

// Rank orders statuses for progress comparisons. DONE and ERROR share the
// final rank. Unknown statuses rank -1.
func (s JobStatus) Rank() int {
	switch s {
	case JobQueued:
		return 0
	case JobCoreRunning:
		return 1
	case JobStaticRunning:
		return 2
	case JobSandboxRunning:
		return 3
	case JobDone, JobError:
		return 4
	default:
		return -1
	}
}

// IsTerminal reports whether no further transitions are allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobDone || s == JobError
}

// Job is one submitted scan.
type Job struct {
	ID         string
	URL        string
	Status     JobStatus
	Data       map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
	FinishedAt *time.Time
}

// Snapshot is the externally visible state of a job.
type Snapshot struct {
	JobID  string         `json:"jobId"`
	Status JobStatus      `json:"status"`
	URL    string         `json:"url"`
	Data   map[string]any `json:"data"`
}

// Snapshot copies the job's visible state. Data is shallow-copied so later
// replacement of j.Data does not affect the returned value.
func (j *Job) Snapshot() Snapshot {
	data := make(map[string]any, len(j.Data))
	for k, v := range j.Data {
		data[k] = v
	}
	return Snapshot{JobID: j.ID, Status: j.Status, URL: j.URL, Data: data}
}

// ErrorPayload is the snapshot data of a failed job.
func ErrorPayload(msg string) map[string]any {
	return map[string]any{"error": msg}
}
