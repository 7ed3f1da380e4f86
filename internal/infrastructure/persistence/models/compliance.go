package models

import "github.com/otec/backoffice/internal/domain/compliance"

// SwornStatementModel is the persistence model for a sworn statement.
// (external_course_id, tax_id) is unique so upserts can target it.
type SwornStatementModel struct {
	BaseModel
	ExternalCourseID string                     `gorm:"type:varchar(50);not null;uniqueIndex:idx_sworn_statements_course_tax,priority:1"`
	TaxID            string                     `gorm:"type:varchar(20);not null;uniqueIndex:idx_sworn_statements_course_tax,priority:2"`
	Name             string                     `gorm:"type:varchar(200)"`
	SessionCount     int                        `gorm:"not null;default:0"`
	Status           compliance.StatementStatus `gorm:"type:varchar(20);not null;default:'Pendiente'"`
}

// TableName returns the table name for GORM
func (SwornStatementModel) TableName() string {
	return "sworn_statements"
}

// ToDomain converts the persistence model to a domain SwornStatement.
func (m *SwornStatementModel) ToDomain() *compliance.SwornStatement {
	return &compliance.SwornStatement{
		BaseEntity:       m.BaseModel.ToDomain(),
		ExternalCourseID: m.ExternalCourseID,
		TaxID:            m.TaxID,
		Name:             m.Name,
		SessionCount:     m.SessionCount,
		Status:           m.Status,
	}
}

// SwornStatementModelFromDomain creates a persistence model from a domain SwornStatement.
func SwornStatementModelFromDomain(s *compliance.SwornStatement) *SwornStatementModel {
	m := &SwornStatementModel{
		ExternalCourseID: s.ExternalCourseID,
		TaxID:            s.TaxID,
		Name:             s.Name,
		SessionCount:     s.SessionCount,
		Status:           s.Status,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}
