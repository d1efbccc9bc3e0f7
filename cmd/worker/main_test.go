package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/upi-tracker/internal/jobs"
	"github.com/dvloznov/upi-tracker/internal/jobs/inmemory"
)

func TestParseTargets(t *testing.T) {
	got, err := parseTargets("Notion, backup,,notion")
	require.NoError(t, err)
	assert.Equal(t, []jobs.Target{jobs.TargetNotion, jobs.TargetBackup}, got)

	_, err = parseTargets(" , ")
	assert.Error(t, err)

	_, err = parseTargets("backup,dropbox")
	assert.Error(t, err)
}

func TestWaitForJobs(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore()
	require.NoError(t, store.SaveJob(ctx, &jobs.SyncJob{JobID: "a", Status: jobs.JobStatusCompleted}))
	require.NoError(t, store.SaveJob(ctx, &jobs.SyncJob{JobID: "b", Status: jobs.JobStatusRunning}))

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = store.UpdateJobStatus(ctx, "b", jobs.JobStatusFailed, "boom")
	}()

	got, err := waitForJobs(ctx, store, []string{"a", "b"}, 5*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, jobs.JobStatusCompleted, got[0].Status)
	assert.Equal(t, jobs.JobStatusFailed, got[1].Status)
}

func TestWaitForJobs_Timeout(t *testing.T) {
	store := inmemory.NewStore()
	require.NoError(t, store.SaveJob(context.Background(), &jobs.SyncJob{JobID: "a", Status: jobs.JobStatusPending}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	got, err := waitForJobs(ctx, store, []string{"a"}, 5*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, got, 1)
	assert.Equal(t, jobs.JobStatusPending, got[0].Status)

	_, err = waitForJobs(context.Background(), store, []string{"missing"}, time.Millisecond)
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
}
