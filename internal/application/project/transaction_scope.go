package project

import (
	"context"

	"github.com/otec/backoffice/internal/domain/project"
)

// TransactionScope provides transactional access to project repositories.
// Everything done through the repositories inside Execute commits or rolls back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to project repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	// ProjectRepo returns the project repository scoped to the current transaction
	ProjectRepo() project.ProjectRepository
	// CostLineRepo returns the cost line repository scoped to the current transaction
	CostLineRepo() project.CostLineRepository
}
