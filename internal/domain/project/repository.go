package project

import (
	"context"

	"github.com/shopspring/decimal"
)

// ProjectRepository defines persistence for projects
type ProjectRepository interface {
	FindByID(ctx context.Context, id int64) (*Project, error)
	// FindByIDForUpdate loads the project and holds a row lock until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id int64) (*Project, error)
	UpdateRealizedCost(ctx context.Context, id int64, realizedCost decimal.Decimal) error
}

// CostLineRepository defines persistence for cost lines
type CostLineRepository interface {
	FindByID(ctx context.Context, id int64) (*CostLine, error)
	FindByProject(ctx context.Context, projectID int64) ([]CostLine, error)
	Save(ctx context.Context, line *CostLine) error
	Delete(ctx context.Context, id int64) error
	// SumRealized returns SUM(amount) over enacted, included lines of the project; zero when none
	SumRealized(ctx context.Context, projectID int64) (decimal.Decimal, error)
}
