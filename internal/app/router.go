package app

import (
	"github.com/gin-gonic/gin"

	internalhttp "github.com/siproka/siproka-backend/internal/http"
	httpMW "github.com/siproka/siproka-backend/internal/http/middleware"
	"github.com/siproka/siproka-backend/internal/observability"
	"github.com/siproka/siproka-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, metrics *observability.Metrics, h Handlers, auth *httpMW.AuthMiddleware) *gin.Engine {
	log.Info("Wiring router...")
	return internalhttp.NewRouter(internalhttp.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		AuthMiddleware:  auth,
		PlanHandler:     h.Plan,
		ProposalHandler: h.Proposal,
		DocumentHandler: h.Document,
		HealthHandler:   h.Health,
	})
}
