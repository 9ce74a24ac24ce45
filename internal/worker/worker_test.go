package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklist/backend/internal/services"
)

type fakeSweeper struct {
	mu    sync.Mutex
	calls []bool
	err   error
}

func (f *fakeSweeper) Sweep(ctx context.Context, dryRun bool) (*services.SweepReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dryRun)
	if f.err != nil {
		return nil, f.err
	}
	return &services.SweepReport{DryRun: dryRun}, nil
}

func (f *fakeSweeper) Calls() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.calls...)
}

func newTestWorker(t *testing.T) (*Worker, *JobQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	w := NewWorker(WorkerConfig{
		RedisClient:  client,
		PollInterval: 100 * time.Millisecond,
		Queues:       []string{DefaultQueue},
	})
	t.Cleanup(w.cancel)
	return w, NewJobQueue(client), mr
}

func queuedJobs(t *testing.T, mr *miniredis.Miniredis, queue string) []Job {
	t.Helper()
	if !mr.Exists(queue) {
		return nil
	}
	items, err := mr.List(queue)
	require.NoError(t, err)

	jobs := make([]Job, 0, len(items))
	for _, item := range items {
		var job Job
		require.NoError(t, json.Unmarshal([]byte(item), &job))
		jobs = append(jobs, job)
	}
	return jobs
}

func TestWorker_RunsSweepJob(t *testing.T) {
	w, queue, _ := newTestWorker(t)
	sweeper := &fakeSweeper{}
	w.RegisterHandler(JobTypeAutoDeleteSweep, SweepHandler(sweeper, nil))

	job, err := queue.Enqueue(context.Background(), DefaultQueue, JobTypeAutoDeleteSweep, SweepPayload(true))
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)

	size, err := queue.GetQueueSize(context.Background(), DefaultQueue)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)

	require.NoError(t, w.processNextJob())
	assert.Equal(t, []bool{true}, sweeper.Calls())
}

func TestWorker_RetriesOnOwnQueueThenDeadLetters(t *testing.T) {
	w, queue, mr := newTestWorker(t)
	sweeper := &fakeSweeper{err: errors.New("database unavailable")}
	w.RegisterHandler(JobTypeAutoDeleteSweep, SweepHandler(sweeper, nil))

	now := time.Date(2024, 3, 20, 6, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	_, err := queue.EnqueueAt(context.Background(), DefaultQueue, JobTypeAutoDeleteSweep, SweepPayload(false), now)
	require.NoError(t, err)

	require.NoError(t, w.processNextJob())
	retried := queuedJobs(t, mr, DefaultQueue)
	require.Len(t, retried, 1)
	assert.Equal(t, 1, retried[0].Attempts)
	assert.True(t, retried[0].ProcessAt.After(now))

	// Not due yet: the job goes back untouched.
	require.NoError(t, w.processNextJob())
	assert.Len(t, sweeper.Calls(), 1)
	require.Len(t, queuedJobs(t, mr, DefaultQueue), 1)

	now = now.Add(time.Hour)
	require.NoError(t, w.processNextJob())
	now = now.Add(time.Hour)
	require.NoError(t, w.processNextJob())
	assert.Len(t, sweeper.Calls(), 3)

	assert.Empty(t, queuedJobs(t, mr, DefaultQueue))
	dead, err := mr.List(DeadQueue)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Contains(t, dead[0], "database unavailable")
}

func TestWorker_UnknownJobTypeIsDeadLettered(t *testing.T) {
	w, queue, mr := newTestWorker(t)

	_, err := queue.Enqueue(context.Background(), DefaultQueue, JobType("mystery"), nil)
	require.NoError(t, err)

	require.NoError(t, w.processNextJob())
	dead, err := mr.List(DeadQueue)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Contains(t, dead[0], "no handler registered")
}

func TestWorker_RecoversHandlerPanic(t *testing.T) {
	w, queue, mr := newTestWorker(t)
	w.RegisterHandler(JobTypeAutoDeleteSweep, func(ctx context.Context, job *Job) error {
		panic("boom")
	})

	_, err := queue.Enqueue(context.Background(), DefaultQueue, JobTypeAutoDeleteSweep, SweepPayload(false))
	require.NoError(t, err)

	require.NoError(t, w.processNextJob())
	retried := queuedJobs(t, mr, DefaultQueue)
	require.Len(t, retried, 1)
	assert.Equal(t, 1, retried[0].Attempts)
}

func TestWorker_StartStop(t *testing.T) {
	w, queue, _ := newTestWorker(t)
	sweeper := &fakeSweeper{}
	w.RegisterHandler(JobTypeAutoDeleteSweep, SweepHandler(sweeper, nil))

	w.Start(2)
	_, err := queue.Enqueue(context.Background(), DefaultQueue, JobTypeAutoDeleteSweep, SweepPayload(false))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(sweeper.Calls()) == 1 }, 3*time.Second, 20*time.Millisecond)
	w.Stop()
}
