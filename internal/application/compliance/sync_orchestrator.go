package compliance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/otec/backoffice/internal/domain/compliance"
	"github.com/otec/backoffice/internal/domain/directory"
	"github.com/otec/backoffice/internal/domain/shared"
	"github.com/otec/backoffice/internal/infrastructure/logger"
	"github.com/otec/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SyncConfig bounds a sync run
type SyncConfig struct {
	// JobTimeout caps the whole background run
	JobTimeout time.Duration
	// LockTTL is the lifetime of the cross-instance course lock
	LockTTL time.Duration
}

// DefaultSyncConfig returns the default run bounds
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		JobTimeout: 2 * time.Minute,
		LockTTL:    shared.DefaultLockConfig().TTL,
	}
}

// SyncOrchestrator runs sworn statement synchronizations in the background
// and keeps a pollable per-course status.
type SyncOrchestrator struct {
	courses     directory.CourseRepository
	credentials directory.CredentialRepository
	entities    directory.ComplianceEntityRepository
	statements  compliance.StatementRepository
	gateway     compliance.DeclarationGateway
	locker      shared.KeyLocker
	registry    *JobRegistry
	metrics     *telemetry.BusinessMetrics
	config      SyncConfig
	logger      *zap.Logger

	// mu orders run registration against shutdown so wg.Add never races wg.Wait
	mu      sync.Mutex
	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

// SyncDependencies groups the collaborators of the orchestrator
type SyncDependencies struct {
	Courses     directory.CourseRepository
	Credentials directory.CredentialRepository
	Entities    directory.ComplianceEntityRepository
	Statements  compliance.StatementRepository
	Gateway     compliance.DeclarationGateway
	Locker      shared.KeyLocker
	// Metrics is optional
	Metrics *telemetry.BusinessMetrics
}

// NewSyncOrchestrator creates a new SyncOrchestrator
func NewSyncOrchestrator(deps SyncDependencies, cfg SyncConfig, logger *zap.Logger) *SyncOrchestrator {
	defaults := DefaultSyncConfig()
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = defaults.JobTimeout
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaults.LockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	baseCtx, stop := context.WithCancel(context.Background())
	return &SyncOrchestrator{
		courses:     deps.Courses,
		credentials: deps.Credentials,
		entities:    deps.Entities,
		statements:  deps.Statements,
		gateway:     deps.Gateway,
		locker:      deps.Locker,
		registry:    NewJobRegistry(),
		metrics:     deps.Metrics,
		config:      cfg,
		logger:      logger,
		baseCtx:     baseCtx,
		stop:        stop,
	}
}

// TriggerSync starts a background run for the course and returns immediately.
// While a run is in flight for the same course the existing task is returned
// and AlreadyRunning is set.
func (o *SyncOrchestrator) TriggerSync(ctx context.Context, courseID int64, credentialKey string) (*TriggerResult, error) {
	if courseID <= 0 {
		return nil, shared.NewValidationError("course_id must be positive")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.baseCtx.Err(); err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "sync orchestrator is shut down")
	}

	var jobCtx context.Context
	task, started := o.registry.Begin(courseID, func() *SyncTask {
		var cancel context.CancelFunc
		// the run outlives the request but keeps its values (request id, trace)
		jobCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), o.config.JobTimeout)
		stopOnShutdown := context.AfterFunc(o.baseCtx, cancel)
		return newSyncTask(uuid.NewString(), courseID, func() {
			stopOnShutdown()
			cancel()
		})
	})

	if !started {
		o.logger.Info("Sync already in progress, returning running task",
			zap.Int64("course_id", courseID),
			zap.String("run_id", task.RunID),
		)
		return &TriggerResult{
			Task:           task,
			AlreadyRunning: true,
			Status:         o.GetStatus(courseID),
		}, nil
	}

	o.logger.Info("Sync triggered",
		zap.Int64("course_id", courseID),
		zap.String("run_id", task.RunID),
		zap.String("credential_key", credentialKey),
	)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.run(jobCtx, task, credentialKey)
	}()

	return &TriggerResult{
		Task:   task,
		Status: o.GetStatus(courseID),
	}, nil
}

// GetStatus returns the status of the latest run for the course.
// Unknown courses report NotStarted.
func (o *SyncOrchestrator) GetStatus(courseID int64) SyncStatusResponse {
	return ToSyncStatusResponse(o.registry.Get(courseID))
}

// IsRunning reports whether a run is in flight for the course
func (o *SyncOrchestrator) IsRunning(courseID int64) bool {
	_, ok := o.registry.Running(courseID)
	return ok
}

// Cancel stops the in-flight run of the course. Returns false when nothing is running.
func (o *SyncOrchestrator) Cancel(courseID int64) bool {
	task, ok := o.registry.Running(courseID)
	if !ok {
		return false
	}
	task.Cancel()
	o.logger.Info("Sync cancellation requested",
		zap.Int64("course_id", courseID),
		zap.String("run_id", task.RunID),
	)
	return true
}

// Shutdown cancels every in-flight run and waits for them to record their state
func (o *SyncOrchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.stop()
	running := o.registry.RunningTasks()
	o.mu.Unlock()

	for _, task := range running {
		o.logger.Info("Waiting for cancelled sync run",
			zap.Int64("course_id", task.CourseID),
			zap.String("run_id", task.RunID),
		)
	}

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for sync runs: %w", ctx.Err())
	}
}

type syncOutcome struct {
	upserted int
	skipped  int
}

func (o *SyncOrchestrator) run(ctx context.Context, task *SyncTask, credentialKey string) {
	defer close(task.done)
	defer task.cancel()

	ctx, span := telemetry.StartServiceSpan(ctx, "sworn_statement_sync", "run")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCourseID, task.CourseID,
		telemetry.SpanAttrRunID, task.RunID,
	)

	ctx, log := logger.WithCourseID(ctx, o.logger, task.CourseID)
	ctx, log = logger.WithSyncRunID(ctx, log, task.RunID)

	started := time.Now()
	outcome, err := o.execute(ctx, task.CourseID, credentialKey, log)
	if err != nil {
		message := o.failureMessage(ctx, task, err)
		telemetry.RecordError(span, err)
		result := telemetry.SyncOutcomeFailed
		if message == msgSyncCancelled {
			result = telemetry.SyncOutcomeCancelled
		}
		o.metrics.RecordSyncRun(ctx, result, time.Since(started), 0, 0)
		if !o.registry.Fail(task.CourseID, task.RunID, message) {
			log.Warn("Stale sync run result discarded", zap.String("message", message))
			return
		}
		log.Warn("Sync failed", zap.String("message", message), zap.Error(err))
		return
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrUpserted, outcome.upserted,
		telemetry.SpanAttrSkipped, outcome.skipped,
	)
	telemetry.SetOK(span)
	o.metrics.RecordSyncRun(ctx, telemetry.SyncOutcomeCompleted, time.Since(started), outcome.upserted, outcome.skipped)

	message := fmt.Sprintf("synchronized %d sworn statements", outcome.upserted)
	if !o.registry.Complete(task.CourseID, task.RunID, outcome.upserted, outcome.skipped, message) {
		log.Warn("Stale sync run result discarded", zap.String("message", message))
		return
	}
	log.Info("Sync completed",
		zap.Int("upserted", outcome.upserted),
		zap.Int("skipped", outcome.skipped),
	)
}

const msgSyncCancelled = "sync cancelled"

func (o *SyncOrchestrator) failureMessage(ctx context.Context, task *SyncTask, err error) string {
	switch {
	case task.wasCancelled() || (errors.Is(ctx.Err(), context.Canceled) && o.baseCtx.Err() != nil):
		return msgSyncCancelled
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Sprintf("sync timed out after %s", o.config.JobTimeout)
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Error()
	}
	return err.Error()
}

func (o *SyncOrchestrator) execute(ctx context.Context, courseID int64, credentialKey string, log *zap.Logger) (*syncOutcome, error) {
	lock, err := o.locker.Obtain(ctx, courseLockKey(courseID), o.config.LockTTL)
	if err != nil {
		if errors.Is(err, shared.ErrLockNotObtained) {
			return nil, shared.NewDomainError(shared.CodeInvalidState, "sync already running on another instance")
		}
		return nil, fmt.Errorf("obtaining course lock: %w", err)
	}
	defer func() {
		// the run context may already be done; release on a short detached context
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil {
			log.Warn("Failed to release course lock", zap.Error(err))
		}
	}()

	course, err := o.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.HasExternalID() {
		return nil, shared.NewValidationError("course %d missing external id", courseID)
	}

	credential, err := o.resolveCredential(ctx, credentialKey)
	if err != nil {
		return nil, err
	}

	entity, err := o.entities.FindFirst(ctx)
	if err != nil {
		return nil, err
	}

	query := compliance.DeclarationQuery{
		Username:     credential.Username,
		Password:     credential.Password,
		EntityTaxID:  compliance.StripCheckDigit(entity.TaxID),
		DocumentType: compliance.DocumentTypeForModality(course.Modality),
		CourseIDs:    []string{strings.TrimSpace(course.ExternalID)},
	}

	span := telemetry.SpanFromContext(ctx)
	telemetry.SetAttribute(span, telemetry.SpanAttrDocType, query.DocumentType)

	records, err := o.gateway.FetchDeclarations(ctx, query)
	if err != nil {
		return nil, err
	}
	telemetry.AddEvent(span, "registry_responded", telemetry.SpanAttrRecords, len(records))

	statements, skipped, foreign := toStatements(records, strings.TrimSpace(course.ExternalID))
	if skipped > 0 {
		log.Info("Skipped records without tax id", zap.Int("skipped", skipped))
	}
	if len(foreign) > 0 {
		log.Warn("Skipped records of other courses",
			zap.String("external_course_id", strings.TrimSpace(course.ExternalID)),
			zap.Strings("foreign_course_ids", foreign),
		)
	}
	skipped += len(foreign)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.statements.UpsertAll(ctx, statements); err != nil {
		return nil, err
	}

	return &syncOutcome{upserted: len(statements), skipped: skipped}, nil
}

func courseLockKey(courseID int64) string {
	return fmt.Sprintf("sync:course:%d", courseID)
}

func (o *SyncOrchestrator) resolveCredential(ctx context.Context, key string) (*directory.SyncCredential, error) {
	if key = strings.TrimSpace(key); key != "" {
		return o.credentials.FindByKey(ctx, key)
	}
	return o.credentials.FindFirst(ctx)
}

// toStatements maps registry records of the requested course to statements.
// Records without a tax id cannot be keyed and are counted as skipped.
// Records naming another course are left out and their codes returned.
func toStatements(records []compliance.DeclarationRecord, courseExternalID string) ([]compliance.SwornStatement, int, []string) {
	statements := make([]compliance.SwornStatement, 0, len(records))
	skipped := 0
	var foreign []string
	for _, rec := range records {
		code := strings.TrimSpace(rec.ExternalCourseID)
		if code != "" && code != courseExternalID {
			foreign = append(foreign, code)
			continue
		}
		taxID := strings.TrimSpace(rec.TaxID)
		if taxID == "" {
			skipped++
			continue
		}
		statements = append(statements, compliance.SwornStatement{
			ExternalCourseID: courseExternalID,
			TaxID:            taxID,
			Name:             strings.TrimSpace(rec.Name),
			SessionCount:     rec.Sessions,
			Status:           compliance.ParseStatementStatus(rec.Status),
		})
	}
	return statements, skipped, foreign
}
