package router

import (
	"github.com/gin-gonic/gin"
	"github.com/otec/backoffice/internal/interfaces/http/handler"
)

// Handlers bundles the handlers served by the API
type Handlers struct {
	CostLedger *handler.CostLedgerHandler
	Commission *handler.CommissionHandler
	Compliance *handler.ComplianceHandler
	System     *handler.SystemHandler

	// SyncTriggerLimit guards sync triggers; nil disables it
	SyncTriggerLimit gin.HandlerFunc
}

// RegisterAPI adds the domain groups of the backoffice API to r
func RegisterAPI(r *Router, h Handlers) *Router {
	projects := NewDomainGroup("projects", "/projects").
		GET("/:id", h.CostLedger.GetProject).
		POST("/:id/cost-lines", h.CostLedger.CreateCostLine).
		POST("/:id/recompute", h.CostLedger.RecomputeProject)

	costLines := NewDomainGroup("cost-lines", "/cost-lines").
		PUT("/:id", h.CostLedger.UpdateCostLine).
		DELETE("/:id", h.CostLedger.DeleteCostLine)

	commission := NewDomainGroup("commission", "/commission").
		GET("/tiers", h.Commission.ListTiers).
		POST("/tiers", h.Commission.CreateTier).
		PUT("/tiers/:id", h.Commission.UpdateTier).
		DELETE("/tiers/:id", h.Commission.DeleteTier).
		GET("/rate", h.Commission.ResolveRate)

	trigger := []gin.HandlerFunc{h.Compliance.TriggerSync}
	if h.SyncTriggerLimit != nil {
		trigger = append([]gin.HandlerFunc{h.SyncTriggerLimit}, trigger...)
	}
	courses := NewDomainGroup("courses", "/courses").
		POST("/:id/sworn-statements/sync", trigger...).
		GET("/:id/sworn-statements/sync", h.Compliance.GetSyncStatus).
		DELETE("/:id/sworn-statements/sync", h.Compliance.CancelSync).
		GET("/:id/sworn-statements", h.Compliance.ListStatements).
		PATCH("/:id/sworn-statements/:tax_id", h.Compliance.UpdateStatement)

	system := NewDomainGroup("system", "").
		GET("/health", h.System.Health)

	return r.Register(projects).
		Register(costLines).
		Register(commission).
		Register(courses).
		Register(system)
}
