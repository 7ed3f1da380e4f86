package project

import (
	"context"

	"github.com/otec/backoffice/internal/domain/project"
	"github.com/otec/backoffice/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CostLedgerService is the only writer of cost lines. Every mutation locks the
// owning project, writes the line and recomputes realized cost in one transaction.
type CostLedgerService struct {
	txScope      TransactionScope
	projectRepo  project.ProjectRepository
	costLineRepo project.CostLineRepository
	recalculator Recalculator
	metrics      *telemetry.BusinessMetrics
	logger       *zap.Logger
}

// NewCostLedgerService creates a new CostLedgerService
func NewCostLedgerService(
	txScope TransactionScope,
	projectRepo project.ProjectRepository,
	costLineRepo project.CostLineRepository,
	recalculator Recalculator,
	logger *zap.Logger,
) *CostLedgerService {
	if recalculator == nil {
		recalculator = NewRealizedCostRecalculator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CostLedgerService{
		txScope:      txScope,
		projectRepo:  projectRepo,
		costLineRepo: costLineRepo,
		recalculator: recalculator,
		logger:       logger,
	}
}

// SetMetrics attaches business metrics. Recalculations are not counted without them.
func (s *CostLedgerService) SetMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

// CreateCostLine adds a cost line to a project
func (s *CostLedgerService) CreateCostLine(ctx context.Context, projectID int64, input CreateCostLineInput) (*CostLineResponse, error) {
	line, err := project.NewCostLine(projectID, input.Description, input.Amount, input.Status, input.IncludeInProfitability)
	if err != nil {
		return nil, err
	}

	var total decimal.Decimal
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.ProjectRepo().FindByIDForUpdate(ctx, projectID); err != nil {
			return err
		}
		if err := repos.CostLineRepo().Save(ctx, line); err != nil {
			return err
		}
		total, err = s.recalculator.Recompute(ctx, repos, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRecalculation(ctx, "create")

	resp := ToCostLineResponse(line, total)
	return &resp, nil
}

// UpdateCostLine changes a cost line. Realized cost is recomputed on every update.
func (s *CostLedgerService) UpdateCostLine(ctx context.Context, lineID int64, input UpdateCostLineInput) (*CostLineResponse, error) {
	// The project id is immutable, so reading it before taking the lock is safe
	existing, err := s.costLineRepo.FindByID(ctx, lineID)
	if err != nil {
		return nil, err
	}
	projectID := existing.ProjectID

	var (
		line  *project.CostLine
		total decimal.Decimal
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.ProjectRepo().FindByIDForUpdate(ctx, projectID); err != nil {
			return err
		}
		line, err = repos.CostLineRepo().FindByID(ctx, lineID)
		if err != nil {
			return err
		}

		description, amount, status, include := line.Description, line.Amount, line.Status, line.IncludeInProfitability
		if input.Description != nil {
			description = *input.Description
		}
		if input.Amount != nil {
			amount = *input.Amount
		}
		if input.Status != nil {
			status = *input.Status
		}
		if input.IncludeInProfitability != nil {
			include = *input.IncludeInProfitability
		}
		if err := line.Update(description, amount, status, include); err != nil {
			return err
		}
		if err := repos.CostLineRepo().Save(ctx, line); err != nil {
			return err
		}
		total, err = s.recalculator.Recompute(ctx, repos, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRecalculation(ctx, "update")

	resp := ToCostLineResponse(line, total)
	return &resp, nil
}

// DeleteCostLine removes a cost line and returns the owning project with its new total
func (s *CostLedgerService) DeleteCostLine(ctx context.Context, lineID int64) (*ProjectResponse, error) {
	existing, err := s.costLineRepo.FindByID(ctx, lineID)
	if err != nil {
		return nil, err
	}
	projectID := existing.ProjectID

	var p *project.Project
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err = repos.ProjectRepo().FindByIDForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		if err := repos.CostLineRepo().Delete(ctx, lineID); err != nil {
			return err
		}
		p.RealizedCost, err = s.recalculator.Recompute(ctx, repos, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRecalculation(ctx, "delete")

	resp := ToProjectResponse(p, nil)
	return &resp, nil
}

// RecomputeProject re-derives realized cost under the project lock.
// Used to repair rows written before the ledger enforced the invariant.
func (s *CostLedgerService) RecomputeProject(ctx context.Context, projectID int64) (*ProjectResponse, error) {
	var (
		p        *project.Project
		previous decimal.Decimal
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		p, err = repos.ProjectRepo().FindByIDForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		previous = p.RealizedCost
		p.RealizedCost, err = s.recalculator.Recompute(ctx, repos, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRecalculation(ctx, "recompute")

	if !previous.Equal(p.RealizedCost) {
		s.metrics.RecordDriftRepair(ctx)
		s.logger.Warn("realized cost drift repaired",
			zap.Int64("project_id", projectID),
			zap.String("previous", previous.String()),
			zap.String("recomputed", p.RealizedCost.String()),
		)
	}

	resp := ToProjectResponse(p, nil)
	return &resp, nil
}

// GetProject returns a project with its cost lines
func (s *CostLedgerService) GetProject(ctx context.Context, projectID int64) (*ProjectResponse, error) {
	p, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	lines, err := s.costLineRepo.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	resp := ToProjectResponse(p, lines)
	return &resp, nil
}
