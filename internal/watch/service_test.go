package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesInput(t *testing.T) {
	_, err := New("not a schedule", "", func(context.Context) error { return nil })
	assert.Error(t, err)

	_, err = New("@hourly", "", nil)
	assert.Error(t, err)

	svc, err := New("*/5 * * * *", "", func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestTriggerNow(t *testing.T) {
	var runs atomic.Int32
	svc, err := New("@hourly", "", func(context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, svc.TriggerNow(context.Background()))
	require.NoError(t, svc.TriggerNow(context.Background()))
	assert.EqualValues(t, 2, runs.Load())

	status := svc.Status()
	assert.EqualValues(t, 2, status.Runs)
	assert.Zero(t, status.Skips)
	assert.False(t, status.LastRun.IsZero())
	assert.NoError(t, status.LastErr)
}

func TestTriggerNowPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	svc, err := New("@hourly", "", func(context.Context) error { return boom })
	require.NoError(t, err)

	assert.ErrorIs(t, svc.TriggerNow(context.Background()), boom)
	assert.ErrorIs(t, svc.Status().LastErr, boom)
}

func TestScheduledSweepSkipsUnchangedTree(t *testing.T) {
	root := t.TempDir()
	po := filepath.Join(root, "i18n", "fr.po")
	require.NoError(t, os.MkdirAll(filepath.Dir(po), 0o755))
	require.NoError(t, os.WriteFile(po, []byte("msgid \"\"\n"), 0o644))

	var runs atomic.Int32
	svc, err := New("@hourly", root, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)
	ctx := context.Background()

	// first sweep always runs
	require.NoError(t, svc.sweep(ctx, false))
	assert.EqualValues(t, 1, runs.Load())

	// nothing changed since, so a scheduled sweep is a no-op
	assert.ErrorIs(t, svc.sweep(ctx, false), ErrNoChanges)
	assert.EqualValues(t, 1, runs.Load())
	assert.EqualValues(t, 1, svc.Status().Skips)

	// touching a catalog re-arms the schedule
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(po, future, future))
	require.NoError(t, svc.sweep(ctx, false))
	assert.EqualValues(t, 2, runs.Load())

	// a manual trigger ignores the gate entirely
	require.NoError(t, svc.TriggerNow(ctx))
	assert.EqualValues(t, 3, runs.Load())
}

func TestConcurrentTriggersCollapse(t *testing.T) {
	var runs atomic.Int32
	release := make(chan struct{})
	svc, err := New("@hourly", "", func(context.Context) error {
		runs.Add(1)
		<-release
		return nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = svc.TriggerNow(context.Background())
		}()
	}

	// let every trigger join the in-flight sweep before it finishes
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, runs.Load())
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestScheduleInfo(t *testing.T) {
	svc, err := New("@hourly", "", func(context.Context) error { return nil })
	require.NoError(t, err)

	ref := time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)
	info, err := svc.Schedule(ref)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, info.TimeUntilNext)
	assert.Equal(t, 30*time.Minute, info.TimeSinceLast)
}

func TestStartAndStop(t *testing.T) {
	svc, err := New("@hourly", "", func(context.Context) error { return nil })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Start(ctx))
	cancel()
	// stopping is asynchronous; just make sure nothing blows up
	time.Sleep(20 * time.Millisecond)
}
