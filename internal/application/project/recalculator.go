package project

import (
	"context"
	"fmt"

	"github.com/otec/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Recalculator recomputes a project's derived realized cost inside the caller's transaction
type Recalculator interface {
	Recompute(ctx context.Context, repos TransactionalRepositories, projectID int64) (decimal.Decimal, error)
}

// RealizedCostRecalculator writes SUM(amount) of enacted, included lines to the project.
// Callers must hold the project row lock.
type RealizedCostRecalculator struct{}

// NewRealizedCostRecalculator creates a RealizedCostRecalculator
func NewRealizedCostRecalculator() *RealizedCostRecalculator {
	return &RealizedCostRecalculator{}
}

// Recompute reads the filtered sum and stores it. Any failure is a ConsistencyError
// so the surrounding transaction is aborted.
func (r *RealizedCostRecalculator) Recompute(ctx context.Context, repos TransactionalRepositories, projectID int64) (decimal.Decimal, error) {
	total, err := repos.CostLineRepo().SumRealized(ctx, projectID)
	if err != nil {
		return decimal.Zero, shared.NewConsistencyError(
			fmt.Sprintf("failed to sum realized cost of project %d", projectID), err)
	}
	if err := repos.ProjectRepo().UpdateRealizedCost(ctx, projectID, total); err != nil {
		return decimal.Zero, shared.NewConsistencyError(
			fmt.Sprintf("failed to store realized cost of project %d", projectID), err)
	}
	return total, nil
}

var _ Recalculator = (*RealizedCostRecalculator)(nil)
