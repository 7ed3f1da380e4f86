package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	appcommission "github.com/otec/backoffice/internal/application/commission"
	"github.com/shopspring/decimal"
)

// CommissionHandler handles commission tier endpoints
type CommissionHandler struct {
	BaseHandler
	tierService *appcommission.TierService
}

// NewCommissionHandler creates a new CommissionHandler
func NewCommissionHandler(tierService *appcommission.TierService) *CommissionHandler {
	return &CommissionHandler{
		tierService: tierService,
	}
}

// TierRequest represents a request to create or replace a commission tier.
// Ranges are half-open: range_from is included, range_to is not.
// @Description Request body for a commission tier
type TierRequest struct {
	RoleID    int64            `json:"role_id" binding:"required,gt=0" example:"3"`
	RangeFrom *decimal.Decimal `json:"range_from" binding:"required,decimal_gte=0" swaggertype:"string" example:"10"`
	RangeTo   *decimal.Decimal `json:"range_to" binding:"required,decimal_gte=0" swaggertype:"string" example:"20"`
	Rate      *decimal.Decimal `json:"rate" binding:"required,decimal_gte=0" swaggertype:"string" example:"0.05"`
}

// RoleQuery selects the tiers of one role
type RoleQuery struct {
	RoleID int64 `form:"role_id" binding:"required,gt=0"`
}

// RateQuery asks for the rate of a role at a given margin
type RateQuery struct {
	RoleID int64  `form:"role_id" binding:"required,gt=0"`
	Margin string `form:"margin" binding:"required,decimal"`
}

// CreateTier godoc
// @ID           createCommissionTier
// @Summary      Create a commission tier
// @Description  Creates a tier for a role. A tier overlapping another tier of the same role is rejected.
// @Tags         commission
// @Accept       json
// @Produce      json
// @Param        request body TierRequest true "Tier"
// @Success      201 {object} APIResponse[appcommission.TierResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /commission/tiers [post]
func (h *CommissionHandler) CreateTier(c *gin.Context) {
	var req TierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	tier, err := h.tierService.CreateOrUpdateTier(c.Request.Context(), req.toInput(0))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, tier)
}

// UpdateTier godoc
// @ID           updateCommissionTier
// @Summary      Update a commission tier
// @Description  Replaces the range and rate of a tier. The tier is excluded from its own overlap check.
// @Tags         commission
// @Accept       json
// @Produce      json
// @Param        id path int true "Tier ID"
// @Param        request body TierRequest true "Tier"
// @Success      200 {object} APIResponse[appcommission.TierResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /commission/tiers/{id} [put]
func (h *CommissionHandler) UpdateTier(c *gin.Context) {
	tierID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	tier, err := h.tierService.CreateOrUpdateTier(c.Request.Context(), req.toInput(tierID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tier)
}

// DeleteTier godoc
// @ID           deleteCommissionTier
// @Summary      Delete a commission tier
// @Tags         commission
// @Param        id path int true "Tier ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /commission/tiers/{id} [delete]
func (h *CommissionHandler) DeleteTier(c *gin.Context) {
	tierID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.tierService.DeleteTier(c.Request.Context(), tierID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ListTiers godoc
// @ID           listCommissionTiers
// @Summary      List the tiers of a role
// @Tags         commission
// @Produce      json
// @Param        role_id query int true "Role ID"
// @Success      200 {object} APIResponse[[]appcommission.TierResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /commission/tiers [get]
func (h *CommissionHandler) ListTiers(c *gin.Context) {
	var q RoleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	tiers, err := h.tierService.ListTiers(c.Request.Context(), q.RoleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tiers)
}

// ResolveRate godoc
// @ID           resolveCommissionRate
// @Summary      Resolve a commission rate
// @Description  Returns the rate of the role's tier covering the margin, or 0 when no tier covers it
// @Tags         commission
// @Produce      json
// @Param        role_id query int true "Role ID"
// @Param        margin query string true "Margin" example(15.5)
// @Success      200 {object} APIResponse[appcommission.RateResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /commission/rate [get]
func (h *CommissionHandler) ResolveRate(c *gin.Context) {
	var q RateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	margin, err := decimal.NewFromString(strings.TrimSpace(q.Margin))
	if err != nil {
		h.BadRequest(c, "margin must be a decimal number")
		return
	}

	rate, err := h.tierService.ResolveRate(c.Request.Context(), margin, q.RoleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rate)
}

func (r *TierRequest) toInput(id int64) appcommission.TierInput {
	return appcommission.TierInput{
		ID:        id,
		RoleID:    r.RoleID,
		RangeFrom: *r.RangeFrom,
		RangeTo:   *r.RangeTo,
		Rate:      *r.Rate,
	}
}
