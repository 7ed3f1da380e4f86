package compliance

import (
	"context"
	"fmt"
	"strings"

	"github.com/otec/backoffice/internal/domain/compliance"
	"github.com/otec/backoffice/internal/domain/directory"
	"github.com/otec/backoffice/internal/domain/shared"
	"go.uber.org/zap"
)

// SyncStatusReader reports whether a course is being synchronized
type SyncStatusReader interface {
	IsRunning(courseID int64) bool
}

// StatementService exposes the synchronized sworn statements of a course
type StatementService struct {
	courses    directory.CourseRepository
	statements compliance.StatementRepository
	syncs      SyncStatusReader
	logger     *zap.Logger
}

// NewStatementService creates a new StatementService
func NewStatementService(
	courses directory.CourseRepository,
	statements compliance.StatementRepository,
	syncs SyncStatusReader,
	logger *zap.Logger,
) *StatementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatementService{
		courses:    courses,
		statements: statements,
		syncs:      syncs,
		logger:     logger,
	}
}

// ListForCourse returns the statements stored for the course's external id
func (s *StatementService) ListForCourse(ctx context.Context, courseID int64) ([]StatementResponse, error) {
	course, err := s.linkedCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	statements, err := s.statements.FindByCourse(ctx, strings.TrimSpace(course.ExternalID))
	if err != nil {
		return nil, err
	}

	responses := make([]StatementResponse, len(statements))
	for i := range statements {
		responses[i] = ToStatementResponse(&statements[i])
	}
	return responses, nil
}

// UpdateStatementStatus sets the issuance status of one statement by hand.
// Rejected while a sync of the same course is in flight.
func (s *StatementService) UpdateStatementStatus(ctx context.Context, courseID int64, taxID, status string) (*StatementResponse, error) {
	parsed, err := parseManualStatus(status)
	if err != nil {
		return nil, err
	}
	taxID = strings.TrimSpace(taxID)
	if taxID == "" {
		return nil, shared.NewValidationError("tax_id is required")
	}

	course, err := s.linkedCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if s.syncs != nil && s.syncs.IsRunning(courseID) {
		return nil, shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("sync in progress for course %d", courseID))
	}

	statement, err := s.statements.FindByKey(ctx, strings.TrimSpace(course.ExternalID), taxID)
	if err != nil {
		return nil, err
	}

	if statement.Status != parsed {
		if err := s.statements.UpdateStatus(ctx, statement.ID, parsed); err != nil {
			return nil, err
		}
		s.logger.Info("Sworn statement status updated",
			zap.Int64("course_id", courseID),
			zap.String("tax_id", taxID),
			zap.String("from", string(statement.Status)),
			zap.String("to", string(parsed)),
		)
		statement.Status = parsed
	}

	resp := ToStatementResponse(statement)
	return &resp, nil
}

func (s *StatementService) linkedCourse(ctx context.Context, courseID int64) (*directory.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.HasExternalID() {
		return nil, shared.NewValidationError("course %d missing external id", courseID)
	}
	return course, nil
}

// parseManualStatus accepts only the two known statuses, ignoring case
func parseManualStatus(raw string) (compliance.StatementStatus, error) {
	trimmed := strings.TrimSpace(raw)
	for _, st := range []compliance.StatementStatus{compliance.StatementStatusPendiente, compliance.StatementStatusEmitida} {
		if strings.EqualFold(trimmed, string(st)) {
			return st, nil
		}
	}
	return "", shared.NewValidationError("invalid statement status: %s", raw)
}
