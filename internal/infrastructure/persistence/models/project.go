package models

import (
	"github.com/otec/backoffice/internal/domain/project"
	"github.com/shopspring/decimal"
)

// ProjectModel is the persistence model for the Project aggregate.
type ProjectModel struct {
	BaseModel
	Name         string          `gorm:"type:varchar(200);not null"`
	RealizedCost decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ProjectModel) TableName() string {
	return "projects"
}

// ToDomain converts the persistence model to a domain Project.
func (m *ProjectModel) ToDomain() *project.Project {
	return &project.Project{
		BaseEntity:   m.BaseModel.ToDomain(),
		Name:         m.Name,
		RealizedCost: m.RealizedCost,
	}
}

// ProjectModelFromDomain creates a persistence model from a domain Project.
func ProjectModelFromDomain(p *project.Project) *ProjectModel {
	m := &ProjectModel{
		Name:         p.Name,
		RealizedCost: p.RealizedCost,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// CostLineModel is the persistence model for the CostLine entity.
type CostLineModel struct {
	BaseModel
	ProjectID              int64                  `gorm:"not null;index:idx_cost_lines_project_status,priority:1"`
	Description            string                 `gorm:"type:varchar(500)"`
	Amount                 decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Status                 project.CostLineStatus `gorm:"type:varchar(20);not null;index:idx_cost_lines_project_status,priority:2"`
	IncludeInProfitability bool                   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CostLineModel) TableName() string {
	return "cost_lines"
}

// ToDomain converts the persistence model to a domain CostLine.
func (m *CostLineModel) ToDomain() *project.CostLine {
	return &project.CostLine{
		BaseEntity:             m.BaseModel.ToDomain(),
		ProjectID:              m.ProjectID,
		Description:            m.Description,
		Amount:                 m.Amount,
		Status:                 m.Status,
		IncludeInProfitability: m.IncludeInProfitability,
	}
}

// CostLineModelFromDomain creates a persistence model from a domain CostLine.
func CostLineModelFromDomain(l *project.CostLine) *CostLineModel {
	m := &CostLineModel{
		ProjectID:              l.ProjectID,
		Description:            l.Description,
		Amount:                 l.Amount,
		Status:                 l.Status,
		IncludeInProfitability: l.IncludeInProfitability,
	}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m
}
