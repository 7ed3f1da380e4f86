package models

import "github.com/otec/backoffice/internal/domain/directory"

// RoleModel is the persistence model for a role.
type RoleModel struct {
	BaseModel
	Name string `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (RoleModel) TableName() string {
	return "roles"
}

// ToDomain converts the persistence model to a domain Role.
func (m *RoleModel) ToDomain() *directory.Role {
	return &directory.Role{BaseEntity: m.BaseModel.ToDomain(), Name: m.Name}
}

// CourseModel is the persistence model for a course.
type CourseModel struct {
	BaseModel
	Name       string  `gorm:"type:varchar(200);not null"`
	ExternalID *string `gorm:"type:varchar(50);index"`
	Modality   string  `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (CourseModel) TableName() string {
	return "courses"
}

// ToDomain converts the persistence model to a domain Course.
func (m *CourseModel) ToDomain() *directory.Course {
	c := &directory.Course{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Modality:   m.Modality,
	}
	if m.ExternalID != nil {
		c.ExternalID = *m.ExternalID
	}
	return c
}

// SyncCredentialModel is the persistence model for a registry login.
type SyncCredentialModel struct {
	BaseModel
	Key      string `gorm:"column:credential_key;type:varchar(100);not null;uniqueIndex"`
	Username string `gorm:"type:varchar(100);not null"`
	Password string `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (SyncCredentialModel) TableName() string {
	return "sync_credentials"
}

// ToDomain converts the persistence model to a domain SyncCredential.
func (m *SyncCredentialModel) ToDomain() *directory.SyncCredential {
	return &directory.SyncCredential{
		BaseEntity: m.BaseModel.ToDomain(),
		Key:        m.Key,
		Username:   m.Username,
		Password:   m.Password,
	}
}

// ComplianceEntityModel is the persistence model for the compliance entity.
type ComplianceEntityModel struct {
	BaseModel
	TaxID string `gorm:"type:varchar(20);not null"`
	Name  string `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (ComplianceEntityModel) TableName() string {
	return "compliance_entities"
}

// ToDomain converts the persistence model to a domain ComplianceEntity.
func (m *ComplianceEntityModel) ToDomain() *directory.ComplianceEntity {
	return &directory.ComplianceEntity{
		BaseEntity: m.BaseModel.ToDomain(),
		TaxID:      m.TaxID,
		Name:       m.Name,
	}
}
