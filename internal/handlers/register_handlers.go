package handlers

import (
	"github.com/gin-gonic/gin"

	portssvc "github.com/coopfin/sacco_core_app/internal/core/ports/services"
	"github.com/coopfin/sacco_core_app/internal/middleware"
	"github.com/coopfin/sacco_core_app/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
) {
	// Actor and SACCO identification applies to the entire v1 group.
	// Authentication happens upstream of this engine.
	v1 := r.Group("/api/v1", middleware.ActorContextMiddleware())

	registerTransactionRoutes(v1, services.Transaction, services.Reversal)
	registerLoanRoutes(v1, services.Loan)
	registerLedgerRoutes(v1, services.Ledger)
	registerBatchRoutes(v1, services.Batch)
}
