package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Sync run outcomes recorded on sworn_statement_sync_runs_total
const (
	SyncOutcomeCompleted = "completed"
	SyncOutcomeFailed    = "failed"
	SyncOutcomeCancelled = "cancelled"
)

// BusinessMetrics records cost ledger and sworn statement sync activity.
// A nil *BusinessMetrics is valid and records nothing.
type BusinessMetrics struct {
	syncRuns           *Counter
	syncDuration       *Histogram
	statementsUpserted *Counter
	recordsSkipped     *Counter
	recalculations     *Counter
	driftRepairs       *Counter
}

// NewBusinessMetrics creates the business instruments on meter.
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var (
		bm  BusinessMetrics
		err error
	)

	if bm.syncRuns, err = NewCounter(meter,
		"sworn_statement_sync_runs_total",
		"Finished sworn statement sync runs by outcome",
		"{run}",
	); err != nil {
		return nil, err
	}

	if bm.syncDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "sworn_statement_sync_duration_seconds",
		Description: "Wall time of sworn statement sync runs",
		Unit:        "s",
		Boundaries:  SyncDurationBuckets,
	}); err != nil {
		return nil, err
	}

	if bm.statementsUpserted, err = NewCounter(meter,
		"sworn_statements_upserted_total",
		"Sworn statements written by completed sync runs",
		"{statement}",
	); err != nil {
		return nil, err
	}

	if bm.recordsSkipped, err = NewCounter(meter,
		"sworn_statement_records_skipped_total",
		"Registry records dropped for lacking a tax id",
		"{record}",
	); err != nil {
		return nil, err
	}

	if bm.recalculations, err = NewCounter(meter,
		"realized_cost_recalculations_total",
		"Realized cost recalculations by ledger operation",
		"{recalculation}",
	); err != nil {
		return nil, err
	}

	if bm.driftRepairs, err = NewCounter(meter,
		"realized_cost_drift_repairs_total",
		"Recomputes that found a stored realized cost out of line",
		"{repair}",
	); err != nil {
		return nil, err
	}

	return &bm, nil
}

// RecordSyncRun records a finished run. Counts are only added for completed runs.
func (bm *BusinessMetrics) RecordSyncRun(ctx context.Context, outcome string, d time.Duration, upserted, skipped int) {
	if bm == nil {
		return
	}
	bm.syncRuns.Inc(ctx, AttrSyncOutcome.String(outcome))
	bm.syncDuration.RecordDuration(ctx, d, AttrSyncOutcome.String(outcome))
	if outcome != SyncOutcomeCompleted {
		return
	}
	bm.statementsUpserted.Add(ctx, int64(upserted))
	bm.recordsSkipped.Add(ctx, int64(skipped))
}

// RecordRecalculation records one realized cost recalculation
func (bm *BusinessMetrics) RecordRecalculation(ctx context.Context, operation string) {
	if bm == nil {
		return
	}
	bm.recalculations.Inc(ctx, AttrLedgerOp.String(operation))
}

// RecordDriftRepair records a recompute that changed the stored total
func (bm *BusinessMetrics) RecordDriftRepair(ctx context.Context) {
	if bm == nil {
		return
	}
	bm.driftRepairs.Inc(ctx)
}
