package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleSweep_RejectsBadSpec(t *testing.T) {
	s := New(time.UTC, nil)

	_, err := s.ScheduleSweep("not a cron spec", true, func(ctx context.Context, dryRun bool) error { return nil })
	assert.Error(t, err)

	_, err = s.ScheduleSweep("0 6 * * *", true, nil)
	assert.Error(t, err)
}

func TestScheduleSweep_NextRunUsesLocation(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	s := New(chicago, nil)
	id, err := s.ScheduleSweep("0 6 * * *", true, func(ctx context.Context, dryRun bool) error { return nil })
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	next := s.Next(id).In(chicago)
	assert.Equal(t, 6, next.Hour())
	assert.Equal(t, 0, next.Minute())
}

func TestRunSweep_PassesDryRunAndSwallowsErrors(t *testing.T) {
	s := New(time.UTC, nil)

	var got []bool
	s.runSweep(func(ctx context.Context, dryRun bool) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		got = append(got, dryRun)
		return errors.New("redis down")
	}, true)
	s.runSweep(func(ctx context.Context, dryRun bool) error {
		got = append(got, dryRun)
		return nil
	}, false)

	assert.Equal(t, []bool{true, false}, got)
}

func TestScheduleSweep_Fires(t *testing.T) {
	s := New(time.UTC, nil)
	fired := make(chan bool, 1)

	_, err := s.ScheduleSweep("@every 1s", false, func(ctx context.Context, dryRun bool) error {
		select {
		case fired <- dryRun:
		default:
		}
		return nil
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	select {
	case dryRun := <-fired:
		assert.False(t, dryRun)
	case <-time.After(3 * time.Second):
		t.Fatal("sweep did not fire")
	}
}
