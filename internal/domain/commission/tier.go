package commission

import (
	"github.com/otec/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Tier maps a half-open margin range [RangeFrom, RangeTo) to a commission rate for a role
type Tier struct {
	shared.BaseEntity
	RoleID    int64           `json:"role_id"`
	RangeFrom decimal.Decimal `json:"range_from"`
	RangeTo   decimal.Decimal `json:"range_to"`
	Rate      decimal.Decimal `json:"rate"`
}

// NewTier creates a validated tier
func NewTier(roleID int64, from, to, rate decimal.Decimal) (*Tier, error) {
	t := &Tier{
		BaseEntity: shared.NewBaseEntity(),
		RoleID:     roleID,
	}
	if err := t.SetRange(from, to, rate); err != nil {
		return nil, err
	}
	return t, nil
}

// SetRange replaces the range and rate after validating them
func (t *Tier) SetRange(from, to, rate decimal.Decimal) error {
	if err := ValidateRange(from, to, rate); err != nil {
		return err
	}
	t.RangeFrom = from
	t.RangeTo = to
	t.Rate = rate
	t.Touch()
	return nil
}

// ValidateRange checks the non-negativity and ordering rules for a tier
func ValidateRange(from, to, rate decimal.Decimal) error {
	if from.IsNegative() {
		return shared.NewValidationError("range_from cannot be negative")
	}
	if to.IsNegative() {
		return shared.NewValidationError("range_to cannot be negative")
	}
	if rate.IsNegative() {
		return shared.NewValidationError("rate cannot be negative")
	}
	if from.GreaterThanOrEqual(to) {
		return shared.NewValidationError("range_from %s must be lower than range_to %s", from.String(), to.String())
	}
	return nil
}

// Overlaps reports whether two half-open intervals intersect. Covers containment,
// partial overlap on either side and identical bounds. Adjacent tiers do not overlap.
func (t *Tier) Overlaps(from, to decimal.Decimal) bool {
	return from.LessThan(t.RangeTo) && t.RangeFrom.LessThan(to)
}

// Covers reports whether margin falls inside [RangeFrom, RangeTo)
func (t *Tier) Covers(margin decimal.Decimal) bool {
	return t.RangeFrom.LessThanOrEqual(margin) && margin.LessThan(t.RangeTo)
}

// RangeLabel renders the tier interval, e.g. "[0, 10)"
func (t *Tier) RangeLabel() string {
	return "[" + t.RangeFrom.String() + ", " + t.RangeTo.String() + ")"
}

// FindConflict returns the first tier of existing that overlaps [from, to),
// ignoring the tier with id excludeID. Returns nil when there is no conflict.
func FindConflict(existing []Tier, from, to decimal.Decimal, excludeID int64) *Tier {
	for i := range existing {
		if excludeID != 0 && existing[i].ID == excludeID {
			continue
		}
		if existing[i].Overlaps(from, to) {
			return &existing[i]
		}
	}
	return nil
}

// ConflictError builds the validation error that names the conflicting tier
func ConflictError(conflict *Tier) *shared.DomainError {
	return shared.NewValidationError("range overlaps existing tier %d %s for role %d",
		conflict.ID, conflict.RangeLabel(), conflict.RoleID)
}

// FindCovering returns the tier covering margin, or nil when none does
func FindCovering(tiers []Tier, margin decimal.Decimal) *Tier {
	for i := range tiers {
		if tiers[i].Covers(margin) {
			return &tiers[i]
		}
	}
	return nil
}

// ResolveRate returns the rate of the tier covering margin, or zero when none does
func ResolveRate(tiers []Tier, margin decimal.Decimal) decimal.Decimal {
	if tier := FindCovering(tiers, margin); tier != nil {
		return tier.Rate
	}
	return decimal.Zero
}
