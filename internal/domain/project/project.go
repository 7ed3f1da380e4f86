package project

import (
	"github.com/otec/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Project is the aggregate owning cost lines.
// RealizedCost is derived: it is only written by the recalculation engine.
type Project struct {
	shared.BaseEntity
	Name         string          `json:"name"`
	RealizedCost decimal.Decimal `json:"realized_cost"`
}
