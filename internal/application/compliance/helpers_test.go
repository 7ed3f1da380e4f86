package compliance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/otec/backoffice/internal/domain/compliance"
	"github.com/otec/backoffice/internal/infrastructure/cache"
	"github.com/otec/backoffice/internal/infrastructure/persistence"
	"github.com/otec/backoffice/internal/infrastructure/persistence/models"
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
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, persistence.AutoMigrate(db))
	return db
}

func seedCourse(t *testing.T, db *gorm.DB, externalID, modality string) int64 {
	t.Helper()
	course := &models.CourseModel{Name: "Forklift safety", Modality: modality}
	if externalID != "" {
		course.ExternalID = &externalID
	}
	require.NoError(t, db.Create(course).Error)
	return course.ID
}

func seedCredential(t *testing.T, db *gorm.DB, key, username string) {
	t.Helper()
	require.NoError(t, db.Create(&models.SyncCredentialModel{
		Key:      key,
		Username: username,
		Password: "secret-" + key,
	}).Error)
}

func seedEntity(t *testing.T, db *gorm.DB, taxID string) {
	t.Helper()
	require.NoError(t, db.Create(&models.ComplianceEntityModel{TaxID: taxID, Name: "Capacita SpA"}).Error)
}

// seedDirectory creates a linked in-person course with a credential and an entity
func seedDirectory(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	courseID := seedCourse(t, db, "EXT-1", "Presencial")
	seedCredential(t, db, "main", "otec-user")
	seedEntity(t, db, "76.123.456-7")
	return courseID
}

// fakeGateway returns scripted records. When block is set, calls wait for it
// to close or for their context to end.
type fakeGateway struct {
	mu      sync.Mutex
	records []compliance.DeclarationRecord
	err     error
	block   chan struct{}
	queries []compliance.DeclarationQuery
	started chan struct{}
}

func newFakeGateway(records ...compliance.DeclarationRecord) *fakeGateway {
	return &fakeGateway{records: records, started: make(chan struct{}, 16)}
}

func (g *fakeGateway) FetchDeclarations(ctx context.Context, query compliance.DeclarationQuery) ([]compliance.DeclarationRecord, error) {
	g.mu.Lock()
	g.queries = append(g.queries, query)
	block := g.block
	records := append([]compliance.DeclarationRecord(nil), g.records...)
	err := g.err
	g.mu.Unlock()

	g.started <- struct{}{}

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return records, err
}

func (g *fakeGateway) setRecords(records ...compliance.DeclarationRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.records = records
}

func (g *fakeGateway) calls() []compliance.DeclarationQuery {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]compliance.DeclarationQuery(nil), g.queries...)
}

func (g *fakeGateway) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(2 * time.Second):
		t.Fatal("gateway was not called")
	}
}

type orchestratorFixture struct {
	db           *gorm.DB
	gateway      *fakeGateway
	locker       *cache.InMemoryKeyLocker
	orchestrator *SyncOrchestrator
}

func newOrchestratorFixture(t *testing.T, cfg SyncConfig) *orchestratorFixture {
	t.Helper()
	db := setupTestDB(t)
	gateway := newFakeGateway()
	locker := cache.NewInMemoryKeyLocker()
	t.Cleanup(func() { _ = locker.Close() })

	o := NewSyncOrchestrator(SyncDependencies{
		Courses:     persistence.NewGormCourseRepository(db),
		Credentials: persistence.NewGormCredentialRepository(db),
		Entities:    persistence.NewGormComplianceEntityRepository(db),
		Statements:  persistence.NewGormSwornStatementRepository(db),
		Gateway:     gateway,
		Locker:      locker,
	}, cfg, zaptest.NewLogger(t))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.Shutdown(ctx)
	})

	return &orchestratorFixture{db: db, gateway: gateway, locker: locker, orchestrator: o}
}

// syncAndWait triggers a run and blocks until it records its final state
func (f *orchestratorFixture) syncAndWait(t *testing.T, courseID int64, credentialKey string) SyncStatusResponse {
	t.Helper()
	result, err := f.orchestrator.TriggerSync(context.Background(), courseID, credentialKey)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, result.Task.Wait(ctx))
	return f.orchestrator.GetStatus(courseID)
}

func countStatements(t *testing.T, db *gorm.DB, externalCourseID, taxID string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.SwornStatementModel{}).
		Where("external_course_id = ? AND tax_id = ?", externalCourseID, taxID).
		Count(&count).Error)
	return count
}
