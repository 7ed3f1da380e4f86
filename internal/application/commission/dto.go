package commission

import (
	"time"

	"github.com/otec/backoffice/internal/domain/commission"
	"github.com/shopspring/decimal"
)

// TierInput is the input for creating (ID zero) or updating a tier
type TierInput struct {
	ID        int64
	RoleID    int64
	RangeFrom decimal.Decimal
	RangeTo   decimal.Decimal
	Rate      decimal.Decimal
}

// TierResponse represents a commission tier in API responses
type TierResponse struct {
	ID        int64           `json:"id"`
	RoleID    int64           `json:"role_id"`
	RangeFrom decimal.Decimal `json:"range_from"`
	RangeTo   decimal.Decimal `json:"range_to"`
	Rate      decimal.Decimal `json:"rate"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// RateResponse is the result of resolving a margin for a role
type RateResponse struct {
	RoleID  int64           `json:"role_id"`
	Margin  decimal.Decimal `json:"margin"`
	Rate    decimal.Decimal `json:"rate"`
	Matched bool            `json:"matched"`
}

// ToTierResponse converts a domain Tier to a response
func ToTierResponse(t *commission.Tier) TierResponse {
	return TierResponse{
		ID:        t.ID,
		RoleID:    t.RoleID,
		RangeFrom: t.RangeFrom,
		RangeTo:   t.RangeTo,
		Rate:      t.Rate,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
