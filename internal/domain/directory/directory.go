// Package directory holds the read model of records owned by the directory
// module: courses, roles, sync credentials and the compliance entity.
package directory

import (
	"context"
	"strings"

	"github.com/otec/backoffice/internal/domain/shared"
)

// Course is a training course that may be linked to the external compliance registry
type Course struct {
	shared.BaseEntity
	Name       string `json:"name"`
	ExternalID string `json:"external_id"`
	Modality   string `json:"modality"`
}

// HasExternalID reports whether the course is linked to the external registry
func (c *Course) HasExternalID() bool {
	return strings.TrimSpace(c.ExternalID) != ""
}

// Role is a commission-earning role
type Role struct {
	shared.BaseEntity
	Name string `json:"name"`
}

// SyncCredential holds the login data for the external compliance service
type SyncCredential struct {
	shared.BaseEntity
	Key      string `json:"key"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// ComplianceEntity is the organization on whose behalf statements are synchronized
type ComplianceEntity struct {
	shared.BaseEntity
	TaxID string `json:"tax_id"`
	Name  string `json:"name"`
}

// CourseRepository reads courses
type CourseRepository interface {
	FindByID(ctx context.Context, id int64) (*Course, error)
}

// RoleRepository reads roles
type RoleRepository interface {
	FindByID(ctx context.Context, id int64) (*Role, error)
	// FindByIDForUpdate locks the role row for the rest of the transaction
	FindByIDForUpdate(ctx context.Context, id int64) (*Role, error)
}

// CredentialRepository reads sync credentials
type CredentialRepository interface {
	FindByKey(ctx context.Context, key string) (*SyncCredential, error)
	// FindFirst returns the credential with the lowest id
	FindFirst(ctx context.Context) (*SyncCredential, error)
}

// ComplianceEntityRepository reads the single compliance entity row
type ComplianceEntityRepository interface {
	FindFirst(ctx context.Context) (*ComplianceEntity, error)
}
