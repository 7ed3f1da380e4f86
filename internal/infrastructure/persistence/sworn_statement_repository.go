package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/otec/backoffice/internal/domain/compliance"
	"github.com/otec/backoffice/internal/domain/shared"
	"github.com/otec/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSwornStatementRepository implements StatementRepository using GORM
type GormSwornStatementRepository struct {
	db *gorm.DB
}

// NewGormSwornStatementRepository creates a new GormSwornStatementRepository
func NewGormSwornStatementRepository(db *gorm.DB) *GormSwornStatementRepository {
	return &GormSwornStatementRepository{db: db}
}

// UpsertAll inserts or updates every statement by (external_course_id, tax_id)
// inside one transaction, so a failed batch leaves no partial sync behind
func (r *GormSwornStatementRepository) UpsertAll(ctx context.Context, statements []compliance.SwornStatement) error {
	if len(statements) == 0 {
		return nil
	}
	now := time.Now()
	// A single INSERT cannot touch the same key twice; the last occurrence wins
	index := make(map[[2]string]int, len(statements))
	rows := make([]models.SwornStatementModel, 0, len(statements))
	for i := range statements {
		row := *models.SwornStatementModelFromDomain(&statements[i])
		row.ID = 0
		row.CreatedAt = now
		row.UpdatedAt = now
		key := [2]string{row.ExternalCourseID, row.TaxID}
		if at, seen := index[key]; seen {
			rows[at] = row
			continue
		}
		index[key] = len(rows)
		rows = append(rows, row)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_course_id"}, {Name: "tax_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "session_count", "status", "updated_at"}),
		}).CreateInBatches(&rows, 200).Error
	})
}

// FindByCourse returns the statements of a course ordered by tax id
func (r *GormSwornStatementRepository) FindByCourse(ctx context.Context, externalCourseID string) ([]compliance.SwornStatement, error) {
	var rows []models.SwornStatementModel
	if err := r.db.WithContext(ctx).
		Where("external_course_id = ?", externalCourseID).
		Order("tax_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	statements := make([]compliance.SwornStatement, len(rows))
	for i := range rows {
		statements[i] = *rows[i].ToDomain()
	}
	return statements, nil
}

// FindByKey finds a statement by its natural key
func (r *GormSwornStatementRepository) FindByKey(ctx context.Context, externalCourseID, taxID string) (*compliance.SwornStatement, error) {
	var model models.SwornStatementModel
	if err := r.db.WithContext(ctx).
		Where("external_course_id = ? AND tax_id = ?", externalCourseID, taxID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("sworn statement", externalCourseID+"/"+taxID)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdateStatus changes the status of a statement
func (r *GormSwornStatementRepository) UpdateStatus(ctx context.Context, id int64, status compliance.StatementStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.SwornStatementModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("sworn statement", id)
	}
	return nil
}

var _ compliance.StatementRepository = (*GormSwornStatementRepository)(nil)
