package commission

import "context"

// TierRepository defines persistence for commission tiers
type TierRepository interface {
	FindByID(ctx context.Context, id int64) (*Tier, error)
	// FindByRole returns the role's tiers ordered by range_from
	FindByRole(ctx context.Context, roleID int64) ([]Tier, error)
	Save(ctx context.Context, tier *Tier) error
	Delete(ctx context.Context, id int64) error
}
