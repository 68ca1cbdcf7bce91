package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/siproka/siproka-backend/internal/http/handlers"
	httpMW "github.com/siproka/siproka-backend/internal/http/middleware"
	"github.com/siproka/siproka-backend/internal/observability"
	"github.com/siproka/siproka-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	AuthMiddleware *httpMW.AuthMiddleware

	PlanHandler     *httpH.PlanHandler
	ProposalHandler *httpH.ProposalHandler
	DocumentHandler *httpH.DocumentHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS())
	r.Use(otelgin.Middleware("siproka-backend"))
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	if cfg.Metrics != nil {
		r.Use(httpMW.Metrics(cfg.Metrics))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api/v1")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Yearly plans
		if cfg.PlanHandler != nil {
			api.POST("/plans", cfg.PlanHandler.SubmitPlan)
			api.GET("/plans", cfg.PlanHandler.FindPlan)
			api.GET("/plans/:id", cfg.PlanHandler.GetPlan)
			api.POST("/plans/:id/review", cfg.PlanHandler.ReviewPlan)
			api.GET("/plans/:id/ledger", cfg.PlanHandler.GetPlanLedger)
			api.GET("/plans/:id/history", cfg.PlanHandler.GetPlanHistory)
		}

		// Activity proposals
		if cfg.ProposalHandler != nil {
			api.POST("/plans/:id/proposals", cfg.ProposalHandler.SubmitProposal)
			api.GET("/plans/:id/proposals", cfg.ProposalHandler.ListProposals)
			api.GET("/proposals/:id", cfg.ProposalHandler.GetProposal)
			api.POST("/proposals/:id/review", cfg.ProposalHandler.ReviewProposal)
			api.POST("/proposals/:id/resubmit", cfg.ProposalHandler.ResubmitProposal)
			api.POST("/proposals/:id/complete", cfg.ProposalHandler.CompleteProposal)
			api.POST("/proposals/:id/withdraw", cfg.ProposalHandler.WithdrawProposal)
			api.GET("/proposals/:id/history", cfg.ProposalHandler.GetProposalHistory)

			// Closing reports
			api.POST("/proposals/:id/report", cfg.ProposalHandler.SubmitReport)
			api.POST("/proposals/:id/report/review", cfg.ProposalHandler.ReviewReport)
			api.POST("/proposals/:id/report/resubmit", cfg.ProposalHandler.ResubmitReport)

			// Discussion threads
			api.POST("/proposals/:id/comments", cfg.ProposalHandler.AddComment)
			api.GET("/proposals/:id/comments", cfg.ProposalHandler.ListComments)
			api.DELETE("/comments/:id", cfg.ProposalHandler.DeleteComment)
		}

		// Document blobs
		if cfg.DocumentHandler != nil {
			api.POST("/documents", cfg.DocumentHandler.Upload)
			api.GET("/documents", cfg.DocumentHandler.Download)
		}
	}

	return r
}
