package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	appproject "github.com/otec/backoffice/internal/application/project"
	"github.com/otec/backoffice/internal/infrastructure/persistence"
	"github.com/otec/backoffice/internal/infrastructure/persistence/models"
	"github.com/otec/backoffice/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type ledgerFixture struct {
	db     *gorm.DB
	engine *gin.Engine
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	db := setupTestDB(t)
	svc := appproject.NewCostLedgerService(
		persistence.NewGormTransactionScope(db).ProjectScope(),
		persistence.NewGormProjectRepository(db),
		persistence.NewGormCostLineRepository(db),
		nil,
		zaptest.NewLogger(t),
	)
	h := NewCostLedgerHandler(svc)

	engine := newTestEngine(func(r *gin.Engine) {
		r.GET("/projects/:id", h.GetProject)
		r.POST("/projects/:id/cost-lines", h.CreateCostLine)
		r.POST("/projects/:id/recompute", h.RecomputeProject)
		r.PUT("/cost-lines/:id", h.UpdateCostLine)
		r.DELETE("/cost-lines/:id", h.DeleteCostLine)
	})
	return &ledgerFixture{db: db, engine: engine}
}

func (f *ledgerFixture) seedProject(t *testing.T) int64 {
	t.Helper()
	p := &models.ProjectModel{Name: "Welding course Q3"}
	require.NoError(t, f.db.Create(p).Error)
	return p.ID
}

func (f *ledgerFixture) createLine(t *testing.T, projectID int64, body string) appproject.CostLineResponse {
	t.Helper()
	w := perform(t, f.engine, http.MethodPost, fmt.Sprintf("/projects/%d/cost-lines", projectID), body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[appproject.CostLineResponse](t, w).Data
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestCostLedgerHandler_CreateCostLine(t *testing.T) {
	f := newLedgerFixture(t)
	projectID := f.seedProject(t)

	line := f.createLine(t, projectID, `{"description":"Venue rental","amount":"1250.50","status":"Enacted"}`)
	assert.Equal(t, projectID, line.ProjectID)
	assert.Equal(t, "enacted", line.Status)
	assert.True(t, line.IncludeInProfitability)
	requireDecimal(t, "1250.50", line.Amount)
	requireDecimal(t, "1250.50", line.ProjectRealizedCost)

	planned := f.createLine(t, projectID, `{"description":"Catering","amount":"300","status":"planned"}`)
	requireDecimal(t, "1250.50", planned.ProjectRealizedCost)

	excluded := f.createLine(t, projectID, `{"amount":"99.5","status":"enacted","include_in_profitability":false}`)
	assert.False(t, excluded.IncludeInProfitability)
	requireDecimal(t, "1250.50", excluded.ProjectRealizedCost)
}

func TestCostLedgerHandler_CreateCostLineRejections(t *testing.T) {
	f := newLedgerFixture(t)
	projectID := f.seedProject(t)
	path := fmt.Sprintf("/projects/%d/cost-lines", projectID)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{"missing amount", path, `{"status":"enacted"}`, http.StatusBadRequest, dto.ErrCodeValidation, "amount"},
		{"negative amount", path, `{"amount":"-1","status":"enacted"}`, http.StatusBadRequest, dto.ErrCodeValidation, "amount"},
		{"missing status", path, `{"amount":"10"}`, http.StatusBadRequest, dto.ErrCodeValidation, "status"},
		{"unknown status", path, `{"amount":"10","status":"paid"}`, http.StatusBadRequest, dto.ErrCodeValidation, ""},
		{"malformed json", path, `{"amount":`, http.StatusBadRequest, dto.ErrCodeBadRequest, ""},
		{"bad project id", "/projects/abc/cost-lines", `{"amount":"10","status":"enacted"}`, http.StatusBadRequest, dto.ErrCodeValidation, ""},
		{"unknown project", "/projects/9999/cost-lines", `{"amount":"10","status":"enacted"}`, http.StatusNotFound, dto.ErrCodeNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(t, f.engine, http.MethodPost, tt.path, tt.body)
			info := requireError(t, w, tt.wantStatus, tt.wantCode)
			if tt.wantField != "" {
				require.NotEmpty(t, info.Details)
				assert.Equal(t, tt.wantField, info.Details[0].Field)
			}
		})
	}

	w := perform(t, f.engine, http.MethodGet, fmt.Sprintf("/projects/%d", projectID), "")
	require.Equal(t, http.StatusOK, w.Code)
	proj := decode[appproject.ProjectResponse](t, w).Data
	assert.Empty(t, proj.CostLines)
	requireDecimal(t, "0", proj.RealizedCost)
}

func TestCostLedgerHandler_UpdateCostLine(t *testing.T) {
	f := newLedgerFixture(t)
	projectID := f.seedProject(t)
	line := f.createLine(t, projectID, `{"amount":"100","status":"planned"}`)
	requireDecimal(t, "0", line.ProjectRealizedCost)

	path := fmt.Sprintf("/cost-lines/%d", line.ID)

	w := perform(t, f.engine, http.MethodPut, path, `{"status":"enacted"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[appproject.CostLineResponse](t, w).Data
	assert.Equal(t, "enacted", updated.Status)
	requireDecimal(t, "100", updated.ProjectRealizedCost)

	w = perform(t, f.engine, http.MethodPut, path, `{"amount":"250.25","description":"Venue, two days"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated = decode[appproject.CostLineResponse](t, w).Data
	assert.Equal(t, "Venue, two days", updated.Description)
	requireDecimal(t, "250.25", updated.ProjectRealizedCost)

	w = perform(t, f.engine, http.MethodPut, path, `{"include_in_profitability":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	requireDecimal(t, "0", decode[appproject.CostLineResponse](t, w).Data.ProjectRealizedCost)

	w = perform(t, f.engine, http.MethodPut, path, `{"status":"void"}`)
	requireError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	w = perform(t, f.engine, http.MethodPut, path, `{"amount":"-5"}`)
	info := requireError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	require.NotEmpty(t, info.Details)
	assert.Equal(t, "amount", info.Details[0].Field)

	w = perform(t, f.engine, http.MethodPut, "/cost-lines/424242", `{"status":"enacted"}`)
	requireError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
}

func TestCostLedgerHandler_DeleteCostLine(t *testing.T) {
	f := newLedgerFixture(t)
	projectID := f.seedProject(t)
	keep := f.createLine(t, projectID, `{"amount":"40","status":"enacted"}`)
	drop := f.createLine(t, projectID, `{"amount":"60","status":"enacted"}`)
	requireDecimal(t, "100", drop.ProjectRealizedCost)

	w := perform(t, f.engine, http.MethodDelete, fmt.Sprintf("/cost-lines/%d", drop.ID), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	proj := decode[appproject.ProjectResponse](t, w).Data
	assert.Equal(t, projectID, proj.ID)
	requireDecimal(t, "40", proj.RealizedCost)

	w = perform(t, f.engine, http.MethodDelete, fmt.Sprintf("/cost-lines/%d", drop.ID), "")
	requireError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)

	w = perform(t, f.engine, http.MethodGet, fmt.Sprintf("/projects/%d", projectID), "")
	require.Equal(t, http.StatusOK, w.Code)
	proj = decode[appproject.ProjectResponse](t, w).Data
	require.Len(t, proj.CostLines, 1)
	assert.Equal(t, keep.ID, proj.CostLines[0].ID)
}

func TestCostLedgerHandler_RecomputeProject(t *testing.T) {
	f := newLedgerFixture(t)
	projectID := f.seedProject(t)
	f.createLine(t, projectID, `{"amount":"75","status":"enacted"}`)

	// drift the stored total behind the service's back
	require.NoError(t, f.db.Model(&models.ProjectModel{}).
		Where("id = ?", projectID).
		Update("realized_cost", decimal.NewFromInt(1)).Error)

	w := perform(t, f.engine, http.MethodGet, fmt.Sprintf("/projects/%d", projectID), "")
	require.Equal(t, http.StatusOK, w.Code)
	requireDecimal(t, "1", decode[appproject.ProjectResponse](t, w).Data.RealizedCost)

	w = perform(t, f.engine, http.MethodPost, fmt.Sprintf("/projects/%d/recompute", projectID), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	requireDecimal(t, "75", decode[appproject.ProjectResponse](t, w).Data.RealizedCost)

	w = perform(t, f.engine, http.MethodPost, "/projects/31337/recompute", "")
	requireError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
}

func TestCostLedgerHandler_GetProjectNotFound(t *testing.T) {
	f := newLedgerFixture(t)

	w := perform(t, f.engine, http.MethodGet, "/projects/77", "")
	requireError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)

	w = perform(t, f.engine, http.MethodGet, "/projects/0", "")
	requireError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}
