package compliance

import "time"

// SyncState is the state of a course synchronization run
type SyncState string

const (
	SyncStateNotStarted SyncState = "NotStarted"
	SyncStateInProgress SyncState = "InProgress"
	SyncStateCompleted  SyncState = "Completed"
	SyncStateFailed     SyncState = "Failed"
)

// IsTerminal reports whether no further transition can happen for the run
func (s SyncState) IsTerminal() bool {
	return s == SyncStateCompleted || s == SyncStateFailed
}

// Progress returns the coarse completion percentage shown to pollers
func (s SyncState) Progress() int {
	switch s {
	case SyncStateInProgress:
		return 50
	case SyncStateCompleted:
		return 100
	default:
		return 0
	}
}

// SyncJob is a snapshot of the latest synchronization run for a course
type SyncJob struct {
	CourseID   int64      `json:"course_id"`
	RunID      string     `json:"run_id,omitempty"`
	State      SyncState  `json:"status"`
	Message    string     `json:"message"`
	Upserted   int        `json:"upserted"`
	Skipped    int        `json:"skipped"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NotStartedJob is the default snapshot for a course that never synced
func NotStartedJob(courseID int64) SyncJob {
	return SyncJob{
		CourseID: courseID,
		State:    SyncStateNotStarted,
		Message:  "sync not started",
	}
}

// Progress returns the coarse completion percentage of the job
func (j SyncJob) Progress() int {
	return j.State.Progress()
}
