package handler

import (
	"github.com/gin-gonic/gin"
	appproject "github.com/otec/backoffice/internal/application/project"
	"github.com/otec/backoffice/internal/domain/project"
	"github.com/shopspring/decimal"
)

// CostLedgerHandler handles project cost line endpoints
type CostLedgerHandler struct {
	BaseHandler
	ledgerService *appproject.CostLedgerService
}

// NewCostLedgerHandler creates a new CostLedgerHandler
func NewCostLedgerHandler(ledgerService *appproject.CostLedgerService) *CostLedgerHandler {
	return &CostLedgerHandler{
		ledgerService: ledgerService,
	}
}

// CreateCostLineRequest represents a request to add a cost line to a project
// @Description Request body for adding a cost line
type CreateCostLineRequest struct {
	Description            string           `json:"description" binding:"max=500" example:"Venue rental"`
	Amount                 *decimal.Decimal `json:"amount" binding:"required,decimal_gte=0" swaggertype:"string" example:"1250.50"`
	Status                 string           `json:"status" binding:"required" example:"enacted"`
	IncludeInProfitability *bool            `json:"include_in_profitability" example:"true"`
}

// UpdateCostLineRequest represents a partial update of a cost line
// @Description Request body for changing a cost line; omitted fields are kept
type UpdateCostLineRequest struct {
	Description            *string          `json:"description" binding:"omitempty,max=500" example:"Venue rental (2 days)"`
	Amount                 *decimal.Decimal `json:"amount" binding:"omitempty,decimal_gte=0" swaggertype:"string" example:"2500"`
	Status                 *string          `json:"status" example:"cancelled"`
	IncludeInProfitability *bool            `json:"include_in_profitability" example:"false"`
}

// CreateCostLine godoc
// @ID           createProjectCostLine
// @Summary      Add a cost line
// @Description  Adds a cost line to the project and recomputes its realized cost in the same transaction
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id path int true "Project ID"
// @Param        request body CreateCostLineRequest true "Cost line"
// @Success      201 {object} APIResponse[appproject.CostLineResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /projects/{id}/cost-lines [post]
func (h *CostLedgerHandler) CreateCostLine(c *gin.Context) {
	projectID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateCostLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	status, err := project.ParseCostLineStatus(req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	include := true
	if req.IncludeInProfitability != nil {
		include = *req.IncludeInProfitability
	}

	line, err := h.ledgerService.CreateCostLine(c.Request.Context(), projectID, appproject.CreateCostLineInput{
		Description:            req.Description,
		Amount:                 *req.Amount,
		Status:                 status,
		IncludeInProfitability: include,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, line)
}

// UpdateCostLine godoc
// @ID           updateCostLine
// @Summary      Update a cost line
// @Description  Changes a cost line and recomputes the owning project's realized cost
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id path int true "Cost line ID"
// @Param        request body UpdateCostLineRequest true "Changed fields"
// @Success      200 {object} APIResponse[appproject.CostLineResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /cost-lines/{id} [put]
func (h *CostLedgerHandler) UpdateCostLine(c *gin.Context) {
	lineID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateCostLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	input := appproject.UpdateCostLineInput{
		Description:            req.Description,
		Amount:                 req.Amount,
		IncludeInProfitability: req.IncludeInProfitability,
	}
	if req.Status != nil {
		status, err := project.ParseCostLineStatus(*req.Status)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		input.Status = &status
	}

	line, err := h.ledgerService.UpdateCostLine(c.Request.Context(), lineID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, line)
}

// DeleteCostLine godoc
// @ID           deleteCostLine
// @Summary      Delete a cost line
// @Description  Removes a cost line and returns the owning project with its recomputed realized cost
// @Tags         projects
// @Produce      json
// @Param        id path int true "Cost line ID"
// @Success      200 {object} APIResponse[appproject.ProjectResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /cost-lines/{id} [delete]
func (h *CostLedgerHandler) DeleteCostLine(c *gin.Context) {
	lineID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	proj, err := h.ledgerService.DeleteCostLine(c.Request.Context(), lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, proj)
}

// GetProject godoc
// @ID           getProject
// @Summary      Get a project
// @Description  Returns a project with its realized cost and cost lines
// @Tags         projects
// @Produce      json
// @Param        id path int true "Project ID"
// @Success      200 {object} APIResponse[appproject.ProjectResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /projects/{id} [get]
func (h *CostLedgerHandler) GetProject(c *gin.Context) {
	projectID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	proj, err := h.ledgerService.GetProject(c.Request.Context(), projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, proj)
}

// RecomputeProject godoc
// @ID           recomputeProject
// @Summary      Recompute realized cost
// @Description  Recomputes the project's realized cost from its cost lines
// @Tags         projects
// @Produce      json
// @Param        id path int true "Project ID"
// @Success      200 {object} APIResponse[appproject.ProjectResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /projects/{id}/recompute [post]
func (h *CostLedgerHandler) RecomputeProject(c *gin.Context) {
	projectID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	proj, err := h.ledgerService.RecomputeProject(c.Request.Context(), projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, proj)
}
