package project_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	appproject "github.com/otec/backoffice/internal/application/project"
	"github.com/otec/backoffice/internal/domain/project"
	"github.com/otec/backoffice/internal/domain/shared"
	"github.com/otec/backoffice/internal/infrastructure/persistence"
	"github.com/otec/backoffice/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, persistence.AutoMigrate(db))
	return db
}

func newLedger(t *testing.T, db *gorm.DB, recalculator appproject.Recalculator) *appproject.CostLedgerService {
	t.Helper()
	return appproject.NewCostLedgerService(
		persistence.NewGormTransactionScope(db).ProjectScope(),
		persistence.NewGormProjectRepository(db),
		persistence.NewGormCostLineRepository(db),
		recalculator,
		zaptest.NewLogger(t),
	)
}

func seedProject(t *testing.T, db *gorm.DB, name string) int64 {
	t.Helper()
	p := &models.ProjectModel{Name: name}
	require.NoError(t, db.Create(p).Error)
	return p.ID
}

func storedRealizedCost(t *testing.T, db *gorm.DB, projectID int64) decimal.Decimal {
	t.Helper()
	p, err := persistence.NewGormProjectRepository(db).FindByID(context.Background(), projectID)
	require.NoError(t, err)
	return p.RealizedCost
}

func assertInvariant(t *testing.T, db *gorm.DB, projectID int64) {
	t.Helper()
	lines, err := persistence.NewGormCostLineRepository(db).FindByProject(context.Background(), projectID)
	require.NoError(t, err)
	want := project.RealizedCost(lines)
	got := storedRealizedCost(t, db, projectID)
	assert.True(t, want.Equal(got), "realized_cost %s, sum of enacted included lines %s", got, want)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func statusPtr(s project.CostLineStatus) *project.CostLineStatus { return &s }

func TestCostLedger_LineLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ledger := newLedger(t, db, nil)
	ctx := context.Background()
	projectID := seedProject(t, db, "Warehouse training")

	created, err := ledger.CreateCostLine(ctx, projectID, appproject.CreateCostLineInput{
		Description:            "Instructor fees",
		Amount:                 dec("100000"),
		Status:                 project.CostLineStatusPlanned,
		IncludeInProfitability: true,
	})
	require.NoError(t, err)
	assert.True(t, created.ProjectRealizedCost.IsZero())
	assert.True(t, storedRealizedCost(t, db, projectID).IsZero())

	updated, err := ledger.UpdateCostLine(ctx, created.ID, appproject.UpdateCostLineInput{
		Status: statusPtr(project.CostLineStatusEnacted),
	})
	require.NoError(t, err)
	assert.True(t, dec("100000").Equal(updated.ProjectRealizedCost))
	assert.True(t, dec("100000").Equal(storedRealizedCost(t, db, projectID)))

	deleted, err := ledger.DeleteCostLine(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted.RealizedCost.IsZero())
	assert.True(t, storedRealizedCost(t, db, projectID).IsZero())
}

func TestCostLedger_OnlyEnactedIncludedLinesCount(t *testing.T) {
	db := setupTestDB(t)
	ledger := newLedger(t, db, nil)
	ctx := context.Background()
	projectID := seedProject(t, db, "Forklift course")

	inputs := []appproject.CreateCostLineInput{
		{Description: "a", Amount: dec("100.50"), Status: project.CostLineStatusEnacted, IncludeInProfitability: true},
		{Description: "b", Amount: dec("200"), Status: project.CostLineStatusEnacted, IncludeInProfitability: false},
		{Description: "c", Amount: dec("300"), Status: project.CostLineStatusPlanned, IncludeInProfitability: true},
		{Description: "d", Amount: dec("400"), Status: project.CostLineStatusCancelled, IncludeInProfitability: true},
		{Description: "e", Amount: dec("0.25"), Status: project.CostLineStatusEnacted, IncludeInProfitability: true},
	}
	for _, in := range inputs {
		_, err := ledger.CreateCostLine(ctx, projectID, in)
		require.NoError(t, err)
		assertInvariant(t, db, projectID)
	}

	assert.True(t, dec("100.75").Equal(storedRealizedCost(t, db, projectID)))

	got, err := ledger.GetProject(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, got.CostLines, len(inputs))
	assert.True(t, dec("100.75").Equal(got.RealizedCost))
}

func TestCostLedger_CreateExcludedLineDoesNotCount(t *testing.T) {
	db := setupTestDB(t)
	ledger := newLedger(t, db, nil)
	ctx := context.Background()
	projectID := seedProject(t, db, "Crane operator course")

	created, err := ledger.CreateCostLine(ctx, projectID, appproject.CreateCostLineInput{
		Description:            "venue rental",
		Amount:                 dec("100000"),
		Status:                 project.CostLineStatusEnacted,
		IncludeInProfitability: false,
	})
	require.NoError(t, err)
	assert.False(t, created.IncludeInProfitability)
	assert.True(t, created.ProjectRealizedCost.IsZero())

	reloaded, err := persistence.NewGormCostLineRepository(db).FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IncludeInProfitability)
	assert.True(t, storedRealizedCost(t, db, projectID).IsZero())
	assertInvariant(t, db, projectID)
}

func TestCostLedger_UpdateSequenceKeepsInvariant(t *testing.T) {
	db := setupTestDB(t)
	ledger := newLedger(t, db, nil)
	ctx := context.Background()
	projectID := seedProject(t, db, "Excavator course")

	line, err := ledger.CreateCostLine(ctx, projectID, appproject.CreateCostLineInput{
		Description: "Venue", Amount: dec("50"), Status: project.CostLineStatusEnacted, IncludeInProfitability: true,
	})
	require.NoError(t, err)

	amount := dec("75")
	exclude := false
	include := true
	steps := []appproject.UpdateCostLineInput{
		{Amount: &amount},
		{IncludeInProfitability: &exclude},
		{IncludeInProfitability: &include},
		{Status: statusPtr(project.CostLineStatusCancelled)},
		{Status: statusPtr(project.CostLineStatusEnacted)},
	}
	want := []string{"75", "0", "75", "0", "75"}

	for i, step := range steps {
		resp, err := ledger.UpdateCostLine(ctx, line.ID, step)
		require.NoError(t, err)
		assert.True(t, dec(want[i]).Equal(resp.ProjectRealizedCost), "step %d", i)
		assertInvariant(t, db, projectID)
	}
}

func TestCostLedger_ValidationAndNotFound(t *testing.T) {
	db := setupTestDB(t)
	ledger := newLedger(t, db, nil)
	ctx := context.Background()
	projectID := seedProject(t, db, "P")

	_, err := ledger.CreateCostLine(ctx, projectID, appproject.CreateCostLineInput{
		Amount: dec("-1"), Status: project.CostLineStatusEnacted,
	})
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = ledger.CreateCostLine(ctx, 404, appproject.CreateCostLineInput{
		Amount: dec("1"), Status: project.CostLineStatusEnacted,
	})
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = ledger.UpdateCostLine(ctx, 404, appproject.UpdateCostLineInput{})
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = ledger.DeleteCostLine(ctx, 404)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = ledger.GetProject(ctx, 404)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

type failingRecalculator struct{}

func (failingRecalculator) Recompute(context.Context, appproject.TransactionalRepositories, int64) (decimal.Decimal, error) {
	return decimal.Zero, shared.NewConsistencyError("failed to sum realized cost", errors.New("disk I/O error"))
}

func TestCostLedger_RecomputeFailureRollsBackMutation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	projectID := seedProject(t, db, "P")

	good := newLedger(t, db, nil)
	line, err := good.CreateCostLine(ctx, projectID, appproject.CreateCostLineInput{
		Description: "kept", Amount: dec("10"), Status: project.CostLineStatusEnacted, IncludeInProfitability: true,
	})
	require.NoError(t, err)

	broken := newLedger(t, db, failingRecalculator{})

	_, err = broken.CreateCostLine(ctx, projectID, appproject.CreateCostLineInput{
		Description: "lost", Amount: dec("99"), Status: project.CostLineStatusEnacted, IncludeInProfitability: true,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConsistency))

	amount := dec("500")
	_, err = broken.UpdateCostLine(ctx, line.ID, appproject.UpdateCostLineInput{Amount: &amount})
	assert.True(t, errors.Is(err, shared.ErrConsistency))

	_, err = broken.DeleteCostLine(ctx, line.ID)
	assert.True(t, errors.Is(err, shared.ErrConsistency))

	lines, err := persistence.NewGormCostLineRepository(db).FindByProject(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0].Description)
	assert.True(t, dec("10").Equal(lines[0].Amount))
	assert.True(t, dec("10").Equal(storedRealizedCost(t, db, projectID)))
}

func TestCostLedger_RecomputeProjectRepairsDrift(t *testing.T) {
	db := setupTestDB(t)
	ledger := newLedger(t, db, nil)
	ctx := context.Background()
	projectID := seedProject(t, db, "P")

	_, err := ledger.CreateCostLine(ctx, projectID, appproject.CreateCostLineInput{
		Description: "x", Amount: dec("42"), Status: project.CostLineStatusEnacted, IncludeInProfitability: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.ProjectModel{}).Where("id = ?", projectID).
		Update("realized_cost", dec("1")).Error)

	resp, err := ledger.RecomputeProject(ctx, projectID)
	require.NoError(t, err)
	assert.True(t, dec("42").Equal(resp.RealizedCost))
	assertInvariant(t, db, projectID)
}

func TestCostLedger_ConcurrentWritersKeepInvariant(t *testing.T) {
	db := setupTestDB(t)
	ledger := newLedger(t, db, nil)
	ctx := context.Background()
	projectID := seedProject(t, db, "Busy project")

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers*2)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			line, err := ledger.CreateCostLine(ctx, projectID, appproject.CreateCostLineInput{
				Description:            fmt.Sprintf("line %d", i),
				Amount:                 decimal.NewFromInt(int64(i + 1)),
				Status:                 project.CostLineStatusPlanned,
				IncludeInProfitability: true,
			})
			if err != nil {
				errs <- err
				return
			}
			if i%2 == 0 {
				_, err = ledger.UpdateCostLine(ctx, line.ID, appproject.UpdateCostLineInput{
					Status: statusPtr(project.CostLineStatusEnacted),
				})
				if err != nil {
					errs <- err
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// enacted lines are i = 0,2,4,6,8 with amounts 1,3,5,7,9
	assert.True(t, decimal.NewFromInt(25).Equal(storedRealizedCost(t, db, projectID)))
	assertInvariant(t, db, projectID)
}
