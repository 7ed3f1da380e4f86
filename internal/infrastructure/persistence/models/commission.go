package models

import (
	"github.com/otec/backoffice/internal/domain/commission"
	"github.com/shopspring/decimal"
)

// CommissionTierModel is the persistence model for a commission tier.
// On PostgreSQL an exclusion constraint forbids overlapping ranges per role.
type CommissionTierModel struct {
	BaseModel
	RoleID    int64           `gorm:"not null;index"`
	RangeFrom decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	RangeTo   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Rate      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (CommissionTierModel) TableName() string {
	return "commission_tiers"
}

// ToDomain converts the persistence model to a domain Tier.
func (m *CommissionTierModel) ToDomain() *commission.Tier {
	return &commission.Tier{
		BaseEntity: m.BaseModel.ToDomain(),
		RoleID:     m.RoleID,
		RangeFrom:  m.RangeFrom,
		RangeTo:    m.RangeTo,
		Rate:       m.Rate,
	}
}

// CommissionTierModelFromDomain creates a persistence model from a domain Tier.
func CommissionTierModelFromDomain(t *commission.Tier) *CommissionTierModel {
	m := &CommissionTierModel{
		RoleID:    t.RoleID,
		RangeFrom: t.RangeFrom,
		RangeTo:   t.RangeTo,
		Rate:      t.Rate,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}
