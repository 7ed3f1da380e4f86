package compliance

import (
	"context"
	"sync/atomic"
)

// SyncTask is the handle of one background sync run
type SyncTask struct {
	RunID    string
	CourseID int64

	cancel    context.CancelFunc
	cancelled atomic.Bool
	done      chan struct{}
}

func newSyncTask(runID string, courseID int64, cancel context.CancelFunc) *SyncTask {
	return &SyncTask{
		RunID:    runID,
		CourseID: courseID,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Done is closed once the run has recorded its final state
func (t *SyncTask) Done() <-chan struct{} {
	return t.done
}

// Cancel stops the run. The run ends Failed with a cancellation message.
func (t *SyncTask) Cancel() {
	t.cancelled.Store(true)
	t.cancel()
}

// Wait blocks until the run finishes or ctx is done
func (t *SyncTask) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *SyncTask) wasCancelled() bool {
	return t.cancelled.Load()
}
