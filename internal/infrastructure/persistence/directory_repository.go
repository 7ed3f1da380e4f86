package persistence

import (
	"context"
	"errors"

	"github.com/otec/backoffice/internal/domain/directory"
	"github.com/otec/backoffice/internal/domain/shared"
	"github.com/otec/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRoleRepository implements RoleRepository using GORM
type GormRoleRepository struct {
	db *gorm.DB
}

// NewGormRoleRepository creates a new GormRoleRepository
func NewGormRoleRepository(db *gorm.DB) *GormRoleRepository {
	return &GormRoleRepository{db: db}
}

// FindByID finds a role by its ID
func (r *GormRoleRepository) FindByID(ctx context.Context, id int64) (*directory.Role, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a role and locks its row for the rest of the transaction
func (r *GormRoleRepository) FindByIDForUpdate(ctx context.Context, id int64) (*directory.Role, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormRoleRepository) find(db *gorm.DB, id int64) (*directory.Role, error) {
	var model models.RoleModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("role", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GormCourseRepository implements CourseRepository using GORM
type GormCourseRepository struct {
	db *gorm.DB
}

// NewGormCourseRepository creates a new GormCourseRepository
func NewGormCourseRepository(db *gorm.DB) *GormCourseRepository {
	return &GormCourseRepository{db: db}
}

// FindByID finds a course by its ID
func (r *GormCourseRepository) FindByID(ctx context.Context, id int64) (*directory.Course, error) {
	var model models.CourseModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("course", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GormCredentialRepository implements CredentialRepository using GORM
type GormCredentialRepository struct {
	db *gorm.DB
}

// NewGormCredentialRepository creates a new GormCredentialRepository
func NewGormCredentialRepository(db *gorm.DB) *GormCredentialRepository {
	return &GormCredentialRepository{db: db}
}

// FindByKey finds a credential by its key
func (r *GormCredentialRepository) FindByKey(ctx context.Context, key string) (*directory.SyncCredential, error) {
	var model models.SyncCredentialModel
	if err := r.db.WithContext(ctx).Where("credential_key = ?", key).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("credential", key)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindFirst returns the credential with the lowest id
func (r *GormCredentialRepository) FindFirst(ctx context.Context) (*directory.SyncCredential, error) {
	var model models.SyncCredentialModel
	if err := r.db.WithContext(ctx).Order("id ASC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "no credentials configured")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GormComplianceEntityRepository implements ComplianceEntityRepository using GORM
type GormComplianceEntityRepository struct {
	db *gorm.DB
}

// NewGormComplianceEntityRepository creates a new GormComplianceEntityRepository
func NewGormComplianceEntityRepository(db *gorm.DB) *GormComplianceEntityRepository {
	return &GormComplianceEntityRepository{db: db}
}

// FindFirst returns the single compliance entity row
func (r *GormComplianceEntityRepository) FindFirst(ctx context.Context) (*directory.ComplianceEntity, error) {
	var model models.ComplianceEntityModel
	if err := r.db.WithContext(ctx).Order("id ASC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "no entity configured")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ directory.RoleRepository = (*GormRoleRepository)(nil)
var _ directory.CourseRepository = (*GormCourseRepository)(nil)
var _ directory.CredentialRepository = (*GormCredentialRepository)(nil)
var _ directory.ComplianceEntityRepository = (*GormComplianceEntityRepository)(nil)
