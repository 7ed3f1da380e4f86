package commission

import (
	"context"

	"github.com/otec/backoffice/internal/domain/commission"
	"github.com/otec/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TierService validates and resolves commission tiers
type TierService struct {
	txScope  TransactionScope
	tierRepo commission.TierRepository
}

// NewTierService creates a new TierService
func NewTierService(txScope TransactionScope, tierRepo commission.TierRepository) *TierService {
	return &TierService{
		txScope:  txScope,
		tierRepo: tierRepo,
	}
}

// CreateOrUpdateTier validates and stores a tier. Writers for the same role are
// serialized by locking the role row before the overlap check.
func (s *TierService) CreateOrUpdateTier(ctx context.Context, input TierInput) (*TierResponse, error) {
	if err := commission.ValidateRange(input.RangeFrom, input.RangeTo, input.Rate); err != nil {
		return nil, err
	}

	var tier *commission.Tier
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.RoleRepo().FindByIDForUpdate(ctx, input.RoleID); err != nil {
			return err
		}

		var err error
		if input.ID == 0 {
			tier, err = commission.NewTier(input.RoleID, input.RangeFrom, input.RangeTo, input.Rate)
			if err != nil {
				return err
			}
		} else {
			tier, err = repos.TierRepo().FindByID(ctx, input.ID)
			if err != nil {
				return err
			}
			if tier.RoleID != input.RoleID {
				return shared.NewValidationError("tier %d belongs to role %d and cannot move to role %d",
					tier.ID, tier.RoleID, input.RoleID)
			}
		}

		existing, err := repos.TierRepo().FindByRole(ctx, input.RoleID)
		if err != nil {
			return err
		}
		if conflict := commission.FindConflict(existing, input.RangeFrom, input.RangeTo, input.ID); conflict != nil {
			return commission.ConflictError(conflict)
		}

		if err := tier.SetRange(input.RangeFrom, input.RangeTo, input.Rate); err != nil {
			return err
		}
		return repos.TierRepo().Save(ctx, tier)
	})
	if err != nil {
		return nil, err
	}

	resp := ToTierResponse(tier)
	return &resp, nil
}

// ResolveRate returns the rate of the role's tier covering margin, or zero when none does
func (s *TierService) ResolveRate(ctx context.Context, margin decimal.Decimal, roleID int64) (*RateResponse, error) {
	tiers, err := s.tierRepo.FindByRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return &RateResponse{
		RoleID:  roleID,
		Margin:  margin,
		Rate:    commission.ResolveRate(tiers, margin),
		Matched: commission.FindCovering(tiers, margin) != nil,
	}, nil
}

// ListTiers returns the role's tiers ordered by range_from
func (s *TierService) ListTiers(ctx context.Context, roleID int64) ([]TierResponse, error) {
	tiers, err := s.tierRepo.FindByRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	resp := make([]TierResponse, len(tiers))
	for i := range tiers {
		resp[i] = ToTierResponse(&tiers[i])
	}
	return resp, nil
}

// DeleteTier removes a tier. It takes the role lock so it cannot interleave
// with an overlap check on the same role.
func (s *TierService) DeleteTier(ctx context.Context, id int64) error {
	tier, err := s.tierRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.RoleRepo().FindByIDForUpdate(ctx, tier.RoleID); err != nil {
			return err
		}
		return repos.TierRepo().Delete(ctx, id)
	})
}
