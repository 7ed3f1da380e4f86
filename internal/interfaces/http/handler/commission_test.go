package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	appcommission "github.com/otec/backoffice/internal/application/commission"
	"github.com/otec/backoffice/internal/infrastructure/persistence"
	"github.com/otec/backoffice/internal/infrastructure/persistence/models"
	"github.com/otec/backoffice/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commissionFixture struct {
	engine *gin.Engine
	roleID int64
}

func newCommissionFixture(t *testing.T) *commissionFixture {
	t.Helper()
	db := setupTestDB(t)
	svc := appcommission.NewTierService(
		persistence.NewGormTransactionScope(db).CommissionScope(),
		persistence.NewGormCommissionTierRepository(db),
	)
	h := NewCommissionHandler(svc)

	role := &models.RoleModel{Name: "Account manager"}
	require.NoError(t, db.Create(role).Error)

	engine := newTestEngine(func(r *gin.Engine) {
		r.GET("/commission/tiers", h.ListTiers)
		r.POST("/commission/tiers", h.CreateTier)
		r.PUT("/commission/tiers/:id", h.UpdateTier)
		r.DELETE("/commission/tiers/:id", h.DeleteTier)
		r.GET("/commission/rate", h.ResolveRate)
	})
	return &commissionFixture{engine: engine, roleID: role.ID}
}

func (f *commissionFixture) tierBody(from, to, rate string) string {
	return fmt.Sprintf(`{"role_id":%d,"range_from":"%s","range_to":"%s","rate":"%s"}`, f.roleID, from, to, rate)
}

func (f *commissionFixture) createTier(t *testing.T, from, to, rate string) appcommission.TierResponse {
	t.Helper()
	w := perform(t, f.engine, http.MethodPost, "/commission/tiers", f.tierBody(from, to, rate))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[appcommission.TierResponse](t, w).Data
}

func (f *commissionFixture) resolve(t *testing.T, margin string) appcommission.RateResponse {
	t.Helper()
	w := perform(t, f.engine, http.MethodGet, fmt.Sprintf("/commission/rate?role_id=%d&margin=%s", f.roleID, margin), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[appcommission.RateResponse](t, w).Data
}

func TestCommissionHandler_CreateTier(t *testing.T) {
	f := newCommissionFixture(t)

	tier := f.createTier(t, "0", "10", "2.5")
	assert.Positive(t, tier.ID)
	assert.Equal(t, f.roleID, tier.RoleID)
	requireDecimal(t, "0", tier.RangeFrom)
	requireDecimal(t, "10", tier.RangeTo)
	requireDecimal(t, "2.5", tier.Rate)

	// half-open ranges may touch
	f.createTier(t, "10", "20", "4")
}

func TestCommissionHandler_CreateTierOverlapNamesConflict(t *testing.T) {
	f := newCommissionFixture(t)
	existing := f.createTier(t, "10", "20", "4")

	w := perform(t, f.engine, http.MethodPost, "/commission/tiers", f.tierBody("15", "25", "5"))
	info := requireError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	assert.Contains(t, info.Message, fmt.Sprintf("overlaps existing tier %d", existing.ID))

	w = perform(t, f.engine, http.MethodGet, fmt.Sprintf("/commission/tiers?role_id=%d", f.roleID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]appcommission.TierResponse](t, w).Data, 1)
}

func TestCommissionHandler_CreateTierRejections(t *testing.T) {
	f := newCommissionFixture(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{"missing rate", fmt.Sprintf(`{"role_id":%d,"range_from":"0","range_to":"5"}`, f.roleID), http.StatusBadRequest, dto.ErrCodeValidation, "rate"},
		{"negative from", f.tierBody("-1", "5", "1"), http.StatusBadRequest, dto.ErrCodeValidation, "range_from"},
		{"missing role", `{"range_from":"0","range_to":"5","rate":"1"}`, http.StatusBadRequest, dto.ErrCodeValidation, "role_id"},
		{"empty range", f.tierBody("5", "5", "1"), http.StatusBadRequest, dto.ErrCodeValidation, ""},
		{"inverted range", f.tierBody("8", "2", "1"), http.StatusBadRequest, dto.ErrCodeValidation, ""},
		{"unknown role", `{"role_id":9999,"range_from":"0","range_to":"5","rate":"1"}`, http.StatusNotFound, dto.ErrCodeNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(t, f.engine, http.MethodPost, "/commission/tiers", tt.body)
			info := requireError(t, w, tt.wantStatus, tt.wantCode)
			if tt.wantField != "" {
				require.NotEmpty(t, info.Details)
				assert.Equal(t, tt.wantField, info.Details[0].Field)
			}
		})
	}
}

func TestCommissionHandler_UpdateTier(t *testing.T) {
	f := newCommissionFixture(t)
	low := f.createTier(t, "0", "10", "1")
	f.createTier(t, "20", "30", "3")

	// widening over itself is not an overlap
	w := perform(t, f.engine, http.MethodPut, fmt.Sprintf("/commission/tiers/%d", low.ID), f.tierBody("0", "20", "1.5"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[appcommission.TierResponse](t, w).Data
	assert.Equal(t, low.ID, updated.ID)
	requireDecimal(t, "20", updated.RangeTo)
	requireDecimal(t, "1.5", updated.Rate)

	w = perform(t, f.engine, http.MethodPut, fmt.Sprintf("/commission/tiers/%d", low.ID), f.tierBody("0", "25", "1.5"))
	requireError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	w = perform(t, f.engine, http.MethodPut, "/commission/tiers/5555", f.tierBody("40", "50", "1"))
	requireError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
}

func TestCommissionHandler_DeleteTier(t *testing.T) {
	f := newCommissionFixture(t)
	tier := f.createTier(t, "0", "10", "1")

	w := perform(t, f.engine, http.MethodDelete, fmt.Sprintf("/commission/tiers/%d", tier.ID), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = perform(t, f.engine, http.MethodDelete, fmt.Sprintf("/commission/tiers/%d", tier.ID), "")
	requireError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)

	// the freed range can be reused
	f.createTier(t, "5", "15", "2")
}

func TestCommissionHandler_ListTiersOrdered(t *testing.T) {
	f := newCommissionFixture(t)
	f.createTier(t, "20", "30", "3")
	f.createTier(t, "0", "10", "1")
	f.createTier(t, "10", "20", "2")

	w := perform(t, f.engine, http.MethodGet, fmt.Sprintf("/commission/tiers?role_id=%d", f.roleID), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tiers := decode[[]appcommission.TierResponse](t, w).Data
	require.Len(t, tiers, 3)
	requireDecimal(t, "0", tiers[0].RangeFrom)
	requireDecimal(t, "10", tiers[1].RangeFrom)
	requireDecimal(t, "20", tiers[2].RangeFrom)

	w = perform(t, f.engine, http.MethodGet, "/commission/tiers", "")
	info := requireError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	require.NotEmpty(t, info.Details)
	assert.Equal(t, "role_id", info.Details[0].Field)
}

func TestCommissionHandler_ResolveRate(t *testing.T) {
	f := newCommissionFixture(t)
	f.createTier(t, "0", "10", "1")
	f.createTier(t, "10", "20", "2.5")

	tests := []struct {
		margin      string
		wantRate    string
		wantMatched bool
	}{
		{"0", "1", true},
		{"9.99", "1", true},
		{"10", "2.5", true},
		{"19.9999", "2.5", true},
		{"20", "0", false},
		{"-1", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.margin, func(t *testing.T) {
			rate := f.resolve(t, tt.margin)
			assert.Equal(t, f.roleID, rate.RoleID)
			requireDecimal(t, tt.margin, rate.Margin)
			requireDecimal(t, tt.wantRate, rate.Rate)
			assert.Equal(t, tt.wantMatched, rate.Matched)
		})
	}
}

func TestCommissionHandler_ResolveRateRoleWithoutTiers(t *testing.T) {
	f := newCommissionFixture(t)

	w := perform(t, f.engine, http.MethodGet, "/commission/rate?role_id=808&margin=12", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rate := decode[appcommission.RateResponse](t, w).Data
	requireDecimal(t, "0", rate.Rate)
	assert.False(t, rate.Matched)
}

func TestCommissionHandler_ResolveRateRejections(t *testing.T) {
	f := newCommissionFixture(t)

	tests := []struct {
		name      string
		query     string
		wantField string
	}{
		{"missing margin", fmt.Sprintf("role_id=%d", f.roleID), "margin"},
		{"non numeric margin", fmt.Sprintf("role_id=%d&margin=lots", f.roleID), "margin"},
		{"missing role", "margin=5", "role_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(t, f.engine, http.MethodGet, "/commission/rate?"+tt.query, "")
			info := requireError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
			require.NotEmpty(t, info.Details)
			assert.Equal(t, tt.wantField, info.Details[0].Field)
		})
	}
}
