package handler

import (
	"github.com/gin-gonic/gin"
	appcompliance "github.com/otec/backoffice/internal/application/compliance"
)

// ComplianceHandler handles sworn statement synchronization endpoints
type ComplianceHandler struct {
	BaseHandler
	orchestrator     *appcompliance.SyncOrchestrator
	statementService *appcompliance.StatementService
}

// NewComplianceHandler creates a new ComplianceHandler
func NewComplianceHandler(orchestrator *appcompliance.SyncOrchestrator, statementService *appcompliance.StatementService) *ComplianceHandler {
	return &ComplianceHandler{
		orchestrator:     orchestrator,
		statementService: statementService,
	}
}

// TriggerSyncRequest optionally names the registry credential to use
// @Description Request body for starting a sync; may be empty
type TriggerSyncRequest struct {
	CredentialKey string `json:"credential_key" binding:"max=100" example:"main"`
}

// UpdateStatementRequest sets the issuance status of a sworn statement
// @Description Request body for a manual status change
type UpdateStatementRequest struct {
	Status string `json:"status" binding:"required" example:"Emitida"`
}

// CancelSyncResponse reports the outcome of a cancellation request
type CancelSyncResponse struct {
	Cancelled bool                             `json:"cancelled"`
	Status    appcompliance.SyncStatusResponse `json:"status"`
}

// TriggerSync godoc
// @ID           triggerSwornStatementSync
// @Summary      Start a sworn statement sync
// @Description  Starts a background sync of the course's sworn statements and returns immediately.
// @Description  While a sync of the course is in progress the running task is returned with already_running set.
// @Tags         compliance
// @Accept       json
// @Produce      json
// @Param        id path int true "Course ID"
// @Param        request body TriggerSyncRequest false "Credential selection"
// @Success      202 {object} APIResponse[appcompliance.TriggerResult]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Router       /courses/{id}/sworn-statements/sync [post]
func (h *ComplianceHandler) TriggerSync(c *gin.Context) {
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TriggerSyncRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}

	result, err := h.orchestrator.TriggerSync(c.Request.Context(), courseID, req.CredentialKey)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, result)
}

// GetSyncStatus godoc
// @ID           getSwornStatementSyncStatus
// @Summary      Get sync status
// @Description  Returns the state and progress of the course's latest sync. Courses never synced report NotStarted.
// @Tags         compliance
// @Produce      json
// @Param        id path int true "Course ID"
// @Success      200 {object} APIResponse[appcompliance.SyncStatusResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /courses/{id}/sworn-statements/sync [get]
func (h *ComplianceHandler) GetSyncStatus(c *gin.Context) {
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	h.Success(c, h.orchestrator.GetStatus(courseID))
}

// CancelSync godoc
// @ID           cancelSwornStatementSync
// @Summary      Cancel a running sync
// @Description  Cancels the course's in-flight sync, which then ends Failed. cancelled is false when nothing was running.
// @Tags         compliance
// @Produce      json
// @Param        id path int true "Course ID"
// @Success      200 {object} APIResponse[CancelSyncResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /courses/{id}/sworn-statements/sync [delete]
func (h *ComplianceHandler) CancelSync(c *gin.Context) {
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	cancelled := h.orchestrator.Cancel(courseID)
	h.Success(c, CancelSyncResponse{
		Cancelled: cancelled,
		Status:    h.orchestrator.GetStatus(courseID),
	})
}

// ListStatements godoc
// @ID           listSwornStatements
// @Summary      List sworn statements
// @Description  Returns the synchronized sworn statements of a course ordered by tax id
// @Tags         compliance
// @Produce      json
// @Param        id path int true "Course ID"
// @Success      200 {object} APIResponse[[]appcompliance.StatementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /courses/{id}/sworn-statements [get]
func (h *ComplianceHandler) ListStatements(c *gin.Context) {
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	statements, err := h.statementService.ListForCourse(c.Request.Context(), courseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, statements)
}

// UpdateStatement godoc
// @ID           updateSwornStatement
// @Summary      Set a sworn statement status
// @Description  Sets the status (Pendiente or Emitida) of one participant's statement. Rejected while a sync of the course is running.
// @Tags         compliance
// @Accept       json
// @Produce      json
// @Param        id path int true "Course ID"
// @Param        tax_id path string true "Participant tax id"
// @Param        request body UpdateStatementRequest true "Status"
// @Success      200 {object} APIResponse[appcompliance.StatementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /courses/{id}/sworn-statements/{tax_id} [patch]
func (h *ComplianceHandler) UpdateStatement(c *gin.Context) {
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	statement, err := h.statementService.UpdateStatementStatus(c.Request.Context(), courseID, c.Param("tax_id"), req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, statement)
}
