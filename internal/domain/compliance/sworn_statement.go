package compliance

import (
	"context"
	"strings"

	"github.com/otec/backoffice/internal/domain/shared"
)

// StatementStatus is the issuance status of a sworn statement
type StatementStatus string

const (
	StatementStatusPendiente StatementStatus = "Pendiente"
	StatementStatusEmitida   StatementStatus = "Emitida"
)

// IsValid checks if the status is a valid StatementStatus
func (s StatementStatus) IsValid() bool {
	return s == StatementStatusPendiente || s == StatementStatusEmitida
}

// ParseStatementStatus maps the registry's free-text status. Only "emitida"
// (any case) is issued; every other value, known or not, is pending.
func ParseStatementStatus(raw string) StatementStatus {
	if strings.EqualFold(strings.TrimSpace(raw), "emitida") {
		return StatementStatusEmitida
	}
	return StatementStatusPendiente
}

// SwornStatement is the compliance record for one participant of one course.
// (ExternalCourseID, TaxID) is the natural key.
type SwornStatement struct {
	shared.BaseEntity
	ExternalCourseID string          `json:"external_course_id"`
	TaxID            string          `json:"tax_id"`
	Name             string          `json:"name"`
	SessionCount     int             `json:"session_count"`
	Status           StatementStatus `json:"status"`
}

// StatementRepository defines persistence for sworn statements
type StatementRepository interface {
	// UpsertAll inserts or updates every statement by natural key in one unit of work
	UpsertAll(ctx context.Context, statements []SwornStatement) error
	FindByCourse(ctx context.Context, externalCourseID string) ([]SwornStatement, error)
	FindByKey(ctx context.Context, externalCourseID, taxID string) (*SwornStatement, error)
	UpdateStatus(ctx context.Context, id int64, status StatementStatus) error
}
