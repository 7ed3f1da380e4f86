package project

import (
	"strings"

	"github.com/otec/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CostLineStatus represents the lifecycle status of a cost line
type CostLineStatus string

const (
	CostLineStatusPlanned   CostLineStatus = "planned"   // Budgeted, not spent yet
	CostLineStatusEnacted   CostLineStatus = "enacted"   // Actually incurred
	CostLineStatusCancelled CostLineStatus = "cancelled" // Dropped
)

// IsValid checks if the status is a valid CostLineStatus
func (s CostLineStatus) IsValid() bool {
	switch s {
	case CostLineStatusPlanned, CostLineStatusEnacted, CostLineStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of CostLineStatus
func (s CostLineStatus) String() string {
	return string(s)
}

// ParseCostLineStatus parses a status name case-insensitively
func ParseCostLineStatus(raw string) (CostLineStatus, error) {
	status := CostLineStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.IsValid() {
		return "", shared.NewValidationError("invalid cost line status %q", raw)
	}
	return status, nil
}

// CostLine is a single cost entry owned by a project
type CostLine struct {
	shared.BaseEntity
	ProjectID              int64           `json:"project_id"`
	Description            string          `json:"description"`
	Amount                 decimal.Decimal `json:"amount"`
	Status                 CostLineStatus  `json:"status"`
	IncludeInProfitability bool            `json:"include_in_profitability"`
}

// NewCostLine creates a new cost line for a project
func NewCostLine(projectID int64, description string, amount decimal.Decimal, status CostLineStatus, include bool) (*CostLine, error) {
	if projectID <= 0 {
		return nil, shared.NewValidationError("project id must be positive")
	}
	line := &CostLine{
		BaseEntity: shared.NewBaseEntity(),
		ProjectID:  projectID,
	}
	if err := line.apply(description, amount, status, include); err != nil {
		return nil, err
	}
	return line, nil
}

// Update changes the mutable fields of the cost line. The owning project never changes.
func (l *CostLine) Update(description string, amount decimal.Decimal, status CostLineStatus, include bool) error {
	if err := l.apply(description, amount, status, include); err != nil {
		return err
	}
	l.Touch()
	return nil
}

func (l *CostLine) apply(description string, amount decimal.Decimal, status CostLineStatus, include bool) error {
	if amount.IsNegative() {
		return shared.NewValidationError("amount cannot be negative")
	}
	if !status.IsValid() {
		return shared.NewValidationError("invalid cost line status %q", status)
	}
	if len(description) > 500 {
		return shared.NewValidationError("description cannot exceed 500 characters")
	}
	l.Description = description
	l.Amount = amount
	l.Status = status
	l.IncludeInProfitability = include
	return nil
}

// CountsTowardRealizedCost reports whether the line contributes to the project's realized cost
func (l *CostLine) CountsTowardRealizedCost() bool {
	return l.Status == CostLineStatusEnacted && l.IncludeInProfitability
}

// RealizedCost sums the lines that count toward realized cost. It mirrors the
// SQL aggregate used by the repositories and is the reference for tests.
func RealizedCost(lines []CostLine) decimal.Decimal {
	total := decimal.Zero
	for i := range lines {
		if lines[i].CountsTowardRealizedCost() {
			total = total.Add(lines[i].Amount)
		}
	}
	return total
}
