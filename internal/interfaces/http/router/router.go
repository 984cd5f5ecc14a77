// Package router wires HTTP middleware and routes.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tradelane/backend/internal/infrastructure/config"
	"github.com/tradelane/backend/internal/infrastructure/logger"
	"github.com/tradelane/backend/internal/interfaces/http/handler"
	"github.com/tradelane/backend/internal/interfaces/http/middleware"
)

// Handlers groups the handlers the router mounts
type Handlers struct {
	Document   *handler.DocumentHandler
	Billing    *handler.BillingHandler
	Governance *handler.GovernanceHandler
	System     *handler.SystemHandler
}

// New builds the gin engine with middleware and all API routes
func New(cfg *config.Config, log *zap.Logger, h Handlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORSWithConfig(corsCfg),
	)

	engine.GET("/health", h.System.Health)

	v1 := engine.Group("/api/v1")
	{
		v1.GET("/system/info", h.System.GetSystemInfo)

		documents := v1.Group("/documents")
		{
			documents.POST("", h.Document.Create)
			documents.GET("", h.Document.List)
			documents.GET("/:id", h.Document.Get)
			documents.PUT("/:id", h.Document.Update)
			documents.POST("/:id/transition", h.Document.Transition)
			documents.DELETE("/:id", h.Document.Archive)
		}

		billing := v1.Group("/billing")
		{
			billing.POST("/account", h.Billing.RegisterAccount)
			billing.GET("/account", h.Billing.GetAccount)
			billing.GET("/quarters", h.Billing.ListQuarters)
			billing.GET("/quarters/:key", h.Billing.GetQuarter)
			billing.POST("/quarters/:key/recompute", h.Billing.RecomputeQuarter)
			billing.POST("/quarters/:key/pay", h.Billing.MarkQuarterPaid)
			billing.POST("/quarters/:key/waive", h.Billing.WaiveQuarter)
		}

		governance := v1.Group("/governance")
		{
			governance.POST("/rules", h.Governance.CreateRule)
			governance.GET("/rules", h.Governance.ListRules)
			governance.PUT("/rules/:id", h.Governance.UpdateRule)
			governance.PATCH("/rules/:id/enabled", h.Governance.SetRuleEnabled)
			governance.DELETE("/rules/:id", h.Governance.DeleteRule)
			governance.POST("/evaluate", h.Governance.Evaluate)
		}
	}

	return engine
}
