package compliance

import (
	"time"

	"github.com/otec/backoffice/internal/domain/compliance"
)

// SyncStatusResponse is the pollable status of a course sync
type SyncStatusResponse struct {
	CourseID        int64      `json:"course_id"`
	RunID           string     `json:"run_id,omitempty"`
	Status          string     `json:"status"`
	ProgressPercent int        `json:"progress_percent"`
	Message         string     `json:"message"`
	Upserted        int        `json:"upserted"`
	Skipped         int        `json:"skipped"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

// TriggerResult is returned when a sync is requested
type TriggerResult struct {
	Task           *SyncTask          `json:"-"`
	AlreadyRunning bool               `json:"already_running"`
	Status         SyncStatusResponse `json:"status"`
}

// StatementResponse represents a sworn statement in API responses
type StatementResponse struct {
	ID               int64     `json:"id"`
	ExternalCourseID string    `json:"external_course_id"`
	TaxID            string    `json:"tax_id"`
	Name             string    `json:"name"`
	SessionCount     int       `json:"session_count"`
	Status           string    `json:"status"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ToSyncStatusResponse converts a job snapshot to a response
func ToSyncStatusResponse(job compliance.SyncJob) SyncStatusResponse {
	return SyncStatusResponse{
		CourseID:        job.CourseID,
		RunID:           job.RunID,
		Status:          string(job.State),
		ProgressPercent: job.Progress(),
		Message:         job.Message,
		Upserted:        job.Upserted,
		Skipped:         job.Skipped,
		StartedAt:       job.StartedAt,
		FinishedAt:      job.FinishedAt,
	}
}

// ToStatementResponse converts a domain SwornStatement to a response
func ToStatementResponse(s *compliance.SwornStatement) StatementResponse {
	return StatementResponse{
		ID:               s.ID,
		ExternalCourseID: s.ExternalCourseID,
		TaxID:            s.TaxID,
		Name:             s.Name,
		SessionCount:     s.SessionCount,
		Status:           string(s.Status),
		UpdatedAt:        s.UpdatedAt,
	}
}
