package persistence

import (
	"context"

	appcommission "github.com/otec/backoffice/internal/application/commission"
	appproject "github.com/otec/backoffice/internal/application/project"
	"github.com/otec/backoffice/internal/domain/commission"
	"github.com/otec/backoffice/internal/domain/directory"
	"github.com/otec/backoffice/internal/domain/project"
	"gorm.io/gorm"
)

// GormTransactionScope implements the application transaction scopes using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// ProjectScope returns the scope used by the cost ledger.
func (s *GormTransactionScope) ProjectScope() appproject.TransactionScope {
	return projectScope{s}
}

// CommissionScope returns the scope used by the tier service.
func (s *GormTransactionScope) CommissionScope() appcommission.TransactionScope {
	return commissionScope{s}
}

func (s *GormTransactionScope) execute(ctx context.Context, fn func(repos *gormTransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type projectScope struct{ s *GormTransactionScope }

// Execute runs fn within a database transaction.
func (p projectScope) Execute(ctx context.Context, fn func(repos appproject.TransactionalRepositories) error) error {
	return p.s.execute(ctx, func(repos *gormTransactionalRepositories) error { return fn(repos) })
}

type commissionScope struct{ s *GormTransactionScope }

// Execute runs fn within a database transaction.
func (c commissionScope) Execute(ctx context.Context, fn func(repos appcommission.TransactionalRepositories) error) error {
	return c.s.execute(ctx, func(repos *gormTransactionalRepositories) error { return fn(repos) })
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// ProjectRepo returns the project repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProjectRepo() project.ProjectRepository {
	return NewGormProjectRepository(r.tx)
}

// CostLineRepo returns the cost line repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CostLineRepo() project.CostLineRepository {
	return NewGormCostLineRepository(r.tx)
}

// TierRepo returns the commission tier repository scoped to the current transaction.
func (r *gormTransactionalRepositories) TierRepo() commission.TierRepository {
	return NewGormCommissionTierRepository(r.tx)
}

// RoleRepo returns the role repository scoped to the current transaction.
func (r *gormTransactionalRepositories) RoleRepo() directory.RoleRepository {
	return NewGormRoleRepository(r.tx)
}

var _ appproject.TransactionScope = projectScope{}
var _ appcommission.TransactionScope = commissionScope{}
var _ appproject.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
var _ appcommission.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
