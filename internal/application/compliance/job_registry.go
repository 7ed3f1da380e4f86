package compliance

import (
	"sync"
	"time"

	"github.com/otec/backoffice/internal/domain/compliance"
)

type jobSlot struct {
	job  compliance.SyncJob
	task *SyncTask
}

// JobRegistry tracks the latest sync run per course. All transitions happen
// under one mutex and are keyed by run id, so a finished run can never
// overwrite the state of a newer one.
type JobRegistry struct {
	mu    sync.Mutex
	slots map[int64]*jobSlot
	now   func() time.Time
}

// NewJobRegistry creates an empty registry
func NewJobRegistry() *JobRegistry {
	return &JobRegistry{
		slots: make(map[int64]*jobSlot),
		now:   time.Now,
	}
}

// Begin records a new InProgress run for the course unless one is already in flight,
// in which case the in-flight task is returned and started is false
func (r *JobRegistry) Begin(courseID int64, newTask func() *SyncTask) (task *SyncTask, started bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slot, ok := r.slots[courseID]; ok && slot.job.State == compliance.SyncStateInProgress {
		return slot.task, false
	}

	task = newTask()
	startedAt := r.now()
	r.slots[courseID] = &jobSlot{
		job: compliance.SyncJob{
			CourseID:  courseID,
			RunID:     task.RunID,
			State:     compliance.SyncStateInProgress,
			Message:   "sync in progress",
			StartedAt: &startedAt,
		},
		task: task,
	}
	return task, true
}

// Complete marks the run Completed. Returns false if runID is no longer current.
func (r *JobRegistry) Complete(courseID int64, runID string, upserted, skipped int, message string) bool {
	return r.finish(courseID, runID, func(job *compliance.SyncJob) {
		job.State = compliance.SyncStateCompleted
		job.Message = message
		job.Upserted = upserted
		job.Skipped = skipped
	})
}

// Fail marks the run Failed. Returns false if runID is no longer current.
func (r *JobRegistry) Fail(courseID int64, runID, message string) bool {
	return r.finish(courseID, runID, func(job *compliance.SyncJob) {
		job.State = compliance.SyncStateFailed
		job.Message = message
	})
}

func (r *JobRegistry) finish(courseID int64, runID string, apply func(job *compliance.SyncJob)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[courseID]
	if !ok || slot.job.RunID != runID || slot.job.State != compliance.SyncStateInProgress {
		return false
	}
	apply(&slot.job)
	finishedAt := r.now()
	slot.job.FinishedAt = &finishedAt
	slot.task = nil
	return true
}

// Get returns a snapshot of the course's latest run, or a NotStarted job
func (r *JobRegistry) Get(courseID int64) compliance.SyncJob {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[courseID]
	if !ok {
		return compliance.NotStartedJob(courseID)
	}
	return slot.job
}

// Running returns the in-flight task of the course, if any
func (r *JobRegistry) Running(courseID int64) (*SyncTask, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[courseID]
	if !ok || slot.task == nil {
		return nil, false
	}
	return slot.task, true
}

// RunningTasks returns every in-flight task
func (r *JobRegistry) RunningTasks() []*SyncTask {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := make([]*SyncTask, 0, len(r.slots))
	for _, slot := range r.slots {
		if slot.task != nil {
			tasks = append(tasks, slot.task)
		}
	}
	return tasks
}
