package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/otec/backoffice/internal/domain/project"
	"github.com/otec/backoffice/internal/domain/shared"
	"github.com/otec/backoffice/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository implements ProjectRepository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// FindByID finds a project by its ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id int64) (*project.Project, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a project and locks its row (SELECT ... FOR UPDATE).
// Only meaningful inside a transaction.
func (r *GormProjectRepository) FindByIDForUpdate(ctx context.Context, id int64) (*project.Project, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormProjectRepository) find(db *gorm.DB, id int64) (*project.Project, error) {
	var model models.ProjectModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("project", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdateRealizedCost stores the derived realized cost
func (r *GormProjectRepository) UpdateRealizedCost(ctx context.Context, id int64, realizedCost decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProjectModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"realized_cost": realizedCost,
			"updated_at":    gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("project", id)
	}
	return nil
}

// Create inserts a project (directory-owned in production, used by seeds and tests)
func (r *GormProjectRepository) Create(ctx context.Context, p *project.Project) error {
	model := models.ProjectModelFromDomain(p)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	p.ID = model.ID
	return nil
}

// GormCostLineRepository implements CostLineRepository using GORM
type GormCostLineRepository struct {
	db *gorm.DB
}

// NewGormCostLineRepository creates a new GormCostLineRepository
func NewGormCostLineRepository(db *gorm.DB) *GormCostLineRepository {
	return &GormCostLineRepository{db: db}
}

// FindByID finds a cost line by its ID
func (r *GormCostLineRepository) FindByID(ctx context.Context, id int64) (*project.CostLine, error) {
	var model models.CostLineModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("cost line", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProject returns the project's cost lines ordered by id
func (r *GormCostLineRepository) FindByProject(ctx context.Context, projectID int64) ([]project.CostLine, error) {
	var rows []models.CostLineModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	lines := make([]project.CostLine, len(rows))
	for i := range rows {
		lines[i] = *rows[i].ToDomain()
	}
	return lines, nil
}

// Save creates or updates a cost line
func (r *GormCostLineRepository) Save(ctx context.Context, line *project.CostLine) error {
	model := models.CostLineModelFromDomain(line)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	line.ID = model.ID
	return nil
}

// Delete removes a cost line
func (r *GormCostLineRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.CostLineModel{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("cost line", id)
	}
	return nil
}

// SumRealized returns SUM(amount) over the project's enacted lines that count for profitability
func (r *GormCostLineRepository) SumRealized(ctx context.Context, projectID int64) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.CostLineModel{}).
		Select("SUM(amount)").
		Where("project_id = ? AND status = ? AND include_in_profitability = ?",
			projectID, project.CostLineStatusEnacted, true).
		Row().
		Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

var _ project.ProjectRepository = (*GormProjectRepository)(nil)
var _ project.CostLineRepository = (*GormCostLineRepository)(nil)
