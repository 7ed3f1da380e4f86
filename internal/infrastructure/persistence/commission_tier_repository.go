package persistence

import (
	"context"
	"errors"

	"github.com/otec/backoffice/internal/domain/commission"
	"github.com/otec/backoffice/internal/domain/shared"
	"github.com/otec/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCommissionTierRepository implements TierRepository using GORM
type GormCommissionTierRepository struct {
	db *gorm.DB
}

// NewGormCommissionTierRepository creates a new GormCommissionTierRepository
func NewGormCommissionTierRepository(db *gorm.DB) *GormCommissionTierRepository {
	return &GormCommissionTierRepository{db: db}
}

// FindByID finds a tier by its ID
func (r *GormCommissionTierRepository) FindByID(ctx context.Context, id int64) (*commission.Tier, error) {
	var model models.CommissionTierModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("commission tier", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByRole returns the role's tiers ordered by range_from
func (r *GormCommissionTierRepository) FindByRole(ctx context.Context, roleID int64) ([]commission.Tier, error) {
	var rows []models.CommissionTierModel
	if err := r.db.WithContext(ctx).
		Where("role_id = ?", roleID).
		Order("range_from ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	tiers := make([]commission.Tier, len(rows))
	for i := range rows {
		tiers[i] = *rows[i].ToDomain()
	}
	return tiers, nil
}

// Save creates or updates a tier
func (r *GormCommissionTierRepository) Save(ctx context.Context, tier *commission.Tier) error {
	model := models.CommissionTierModelFromDomain(tier)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return translateTierWriteError(err)
	}
	tier.ID = model.ID
	return nil
}

// Delete removes a tier
func (r *GormCommissionTierRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.CommissionTierModel{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("commission tier", id)
	}
	return nil
}

var _ commission.TierRepository = (*GormCommissionTierRepository)(nil)
