package project

import (
	"time"

	"github.com/otec/backoffice/internal/domain/project"
	"github.com/shopspring/decimal"
)

// CreateCostLineInput is the input for adding a cost line to a project
type CreateCostLineInput struct {
	Description            string
	Amount                 decimal.Decimal
	Status                 project.CostLineStatus
	IncludeInProfitability bool
}

// UpdateCostLineInput is the input for changing a cost line. Nil fields are left unchanged.
type UpdateCostLineInput struct {
	Description            *string
	Amount                 *decimal.Decimal
	Status                 *project.CostLineStatus
	IncludeInProfitability *bool
}

// CostLineResponse represents a cost line together with the owning project's new total
type CostLineResponse struct {
	ID                     int64           `json:"id"`
	ProjectID              int64           `json:"project_id"`
	Description            string          `json:"description"`
	Amount                 decimal.Decimal `json:"amount"`
	Status                 string          `json:"status"`
	IncludeInProfitability bool            `json:"include_in_profitability"`
	ProjectRealizedCost    decimal.Decimal `json:"project_realized_cost"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// ProjectResponse represents a project with its cost lines
type ProjectResponse struct {
	ID           int64              `json:"id"`
	Name         string             `json:"name"`
	RealizedCost decimal.Decimal    `json:"realized_cost"`
	CostLines    []CostLineResponse `json:"cost_lines,omitempty"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// ToCostLineResponse converts a domain CostLine to a response
func ToCostLineResponse(line *project.CostLine, realizedCost decimal.Decimal) CostLineResponse {
	return CostLineResponse{
		ID:                     line.ID,
		ProjectID:              line.ProjectID,
		Description:            line.Description,
		Amount:                 line.Amount,
		Status:                 line.Status.String(),
		IncludeInProfitability: line.IncludeInProfitability,
		ProjectRealizedCost:    realizedCost,
		CreatedAt:              line.CreatedAt,
		UpdatedAt:              line.UpdatedAt,
	}
}

// ToProjectResponse converts a domain Project and its lines to a response
func ToProjectResponse(p *project.Project, lines []project.CostLine) ProjectResponse {
	resp := ProjectResponse{
		ID:           p.ID,
		Name:         p.Name,
		RealizedCost: p.RealizedCost,
		UpdatedAt:    p.UpdatedAt,
	}
	if len(lines) > 0 {
		resp.CostLines = make([]CostLineResponse, len(lines))
		for i := range lines {
			resp.CostLines[i] = ToCostLineResponse(&lines[i], p.RealizedCost)
		}
	}
	return resp
}
