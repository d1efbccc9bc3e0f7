package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/upi-tracker/internal/jobs"
)

// Store is a concurrency-safe in-memory JobStore. Callers always receive
// copies.
type Store struct {
	mu          sync.RWMutex
	jobs        map[string]*jobs.SyncJob
	maxFinished int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMaxFinished keeps at most n completed or failed jobs, evicting the
// oldest first. Pending and running jobs are never evicted. n <= 0 keeps
// everything.
func WithMaxFinished(n int) StoreOption {
	return func(s *Store) { s.maxFinished = n }
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{jobs: make(map[string]*jobs.SyncJob)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) SaveJob(ctx context.Context, job *jobs.SyncJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy
	if jobCopy.Status.Finished() {
		s.evictLocked()
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("GetJob: %s: %w", jobID, jobs.ErrJobNotFound)
	}
	jobCopy := *job
	return &jobCopy, nil
}

func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*jobs.SyncJob{}
	for _, job := range s.jobs {
		if filter.Target != "" && job.Target != filter.Target {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		jobCopy := *job
		result = append(result, &jobCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].JobID < result[j].JobID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.SyncJob{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("UpdateJobStatus: %s: %w", jobID, jobs.ErrJobNotFound)
	}
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	if status.Finished() {
		s.evictLocked()
	}
	return nil
}

func (s *Store) evictLocked() {
	if s.maxFinished <= 0 {
		return
	}
	var finished []*jobs.SyncJob
	for _, job := range s.jobs {
		if job.Status.Finished() {
			finished = append(finished, job)
		}
	}
	if len(finished) <= s.maxFinished {
		return
	}
	sort.Slice(finished, func(i, j int) bool {
		if finished[i].CreatedAt.Equal(finished[j].CreatedAt) {
			return finished[i].JobID < finished[j].JobID
		}
		return finished[i].CreatedAt.Before(finished[j].CreatedAt)
	})
	for _, job := range finished[:len(finished)-s.maxFinished] {
		delete(s.jobs, job.JobID)
	}
}

var _ jobs.JobStore = (*Store)(nil)
