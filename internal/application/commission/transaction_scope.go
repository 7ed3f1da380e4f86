package commission

import (
	"context"

	"github.com/otec/backoffice/internal/domain/commission"
	"github.com/otec/backoffice/internal/domain/directory"
)

// TransactionScope provides transactional access to commission repositories.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to commission repositories within a transaction.
type TransactionalRepositories interface {
	// TierRepo returns the tier repository scoped to the current transaction
	TierRepo() commission.TierRepository
	// RoleRepo returns the role repository scoped to the current transaction
	RoleRepo() directory.RoleRepository
}
