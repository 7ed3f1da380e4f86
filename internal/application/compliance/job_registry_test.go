package compliance

import (
	"sync"
	"testing"
	"time"

	"github.com/otec/backoffice/internal/domain/compliance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taskFactory(runID string, courseID int64) func() *SyncTask {
	return func() *SyncTask {
		return newSyncTask(runID, courseID, func() {})
	}
}

func TestJobRegistry_BeginAndComplete(t *testing.T) {
	r := NewJobRegistry()
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	task, started := r.Begin(7, taskFactory("run-1", 7))
	require.True(t, started)
	assert.Equal(t, "run-1", task.RunID)

	job := r.Get(7)
	assert.Equal(t, compliance.SyncStateInProgress, job.State)
	assert.Equal(t, "run-1", job.RunID)
	assert.Equal(t, fixed, *job.StartedAt)
	assert.Nil(t, job.FinishedAt)

	require.True(t, r.Complete(7, "run-1", 3, 1, "synchronized 3 sworn statements"))

	job = r.Get(7)
	assert.Equal(t, compliance.SyncStateCompleted, job.State)
	assert.Equal(t, 3, job.Upserted)
	assert.Equal(t, 1, job.Skipped)
	assert.Equal(t, fixed, *job.FinishedAt)

	_, running := r.Running(7)
	assert.False(t, running)
}

func TestJobRegistry_BeginWhileInProgressReturnsExisting(t *testing.T) {
	r := NewJobRegistry()

	first, started := r.Begin(7, taskFactory("run-1", 7))
	require.True(t, started)

	second, started := r.Begin(7, func() *SyncTask {
		t.Fatal("no new task must be created while a run is in progress")
		return nil
	})
	assert.False(t, started)
	assert.Same(t, first, second)
}

func TestJobRegistry_StaleRunCannotOverwrite(t *testing.T) {
	r := NewJobRegistry()

	r.Begin(7, taskFactory("run-1", 7))
	require.True(t, r.Fail(7, "run-1", "boom"))

	_, started := r.Begin(7, taskFactory("run-2", 7))
	require.True(t, started)

	assert.False(t, r.Complete(7, "run-1", 10, 0, "late"))
	assert.False(t, r.Fail(7, "run-1", "late"))

	job := r.Get(7)
	assert.Equal(t, "run-2", job.RunID)
	assert.Equal(t, compliance.SyncStateInProgress, job.State)
}

func TestJobRegistry_TerminalStateIsFinal(t *testing.T) {
	r := NewJobRegistry()

	r.Begin(7, taskFactory("run-1", 7))
	require.True(t, r.Complete(7, "run-1", 1, 0, "done"))
	assert.False(t, r.Fail(7, "run-1", "late failure"))

	assert.Equal(t, compliance.SyncStateCompleted, r.Get(7).State)
}

func TestJobRegistry_UnknownCourse(t *testing.T) {
	r := NewJobRegistry()

	assert.Equal(t, compliance.SyncStateNotStarted, r.Get(1).State)
	assert.False(t, r.Complete(1, "run-x", 0, 0, ""))
	assert.Empty(t, r.RunningTasks())
}

func TestJobRegistry_ConcurrentBeginStartsOneRun(t *testing.T) {
	r := NewJobRegistry()

	var wg sync.WaitGroup
	var mu sync.Mutex
	startedCount := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, started := r.Begin(7, taskFactory("run", 7)); started {
				mu.Lock()
				startedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, startedCount)
	assert.Len(t, r.RunningTasks(), 1)
}
