package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Target names the destination a sync job pushes the ledger to.
type Target string

const (
	// TargetNotion mirrors records into a Notion database.
	TargetNotion Target = "notion"
	// TargetBigQuery appends new records to the warehouse table.
	TargetBigQuery Target = "bigquery"
	// TargetBackup copies every stored key to the backup store.
	TargetBackup Target = "backup"
)

// Targets lists every supported target.
func Targets() []Target {
	return []Target{TargetNotion, TargetBigQuery, TargetBackup}
}

// ParseTarget accepts a target name case-insensitively.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Targets() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("ParseTarget: unknown sync target %q", s)
}

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is scheduled again.
	JobStatusRetrying JobStatus = "retrying"
)

// Finished reports whether the job will not run again.
func (s JobStatus) Finished() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

var (
	// ErrJobNotFound is returned by stores for unknown job ids.
	ErrJobNotFound = errors.New("job not found")
	// ErrQueueClosed is returned when publishing to a stopped queue.
	ErrQueueClosed = errors.New("queue is closed")
	// ErrTargetNotConfigured marks failures no retry can fix.
	ErrTargetNotConfigured = errors.New("sync target not configured")
)

// SyncJob is one request to push the ledger to a target.
type SyncJob struct {
	JobID  string `json:"job_id"`
	Target Target `json:"target"`

	// Month limits notion and bigquery syncs to one "YYYY-MM" bucket.
	Month  string `json:"month,omitempty"`
	DryRun bool   `json:"dry_run,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Summary is a one-line result written by the handler.
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Publisher enqueues jobs.
type Publisher interface {
	Publish(ctx context.Context, job *SyncJob) error
	Close() error
}

// Consumer runs a handler over queued jobs.
type Consumer interface {
	// Start launches the workers and returns immediately.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A returned error is retried unless it wraps
// ErrTargetNotConfigured.
type JobHandler func(ctx context.Context, job *SyncJob) error

// JobStore keeps job state for status queries.
type JobStore interface {
	SaveJob(ctx context.Context, job *SyncJob) error
	GetJob(ctx context.Context, jobID string) (*SyncJob, error)
	// ListJobs returns matching jobs, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*SyncJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	Target Target
	Status JobStatus
	Limit  int
	Offset int
}
