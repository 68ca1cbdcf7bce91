package app

import (
	httpH "github.com/siproka/siproka-backend/internal/http/handlers"
	"github.com/siproka/siproka-backend/internal/platform/logger"
)

type Handlers struct {
	Plan     *httpH.PlanHandler
	Proposal *httpH.ProposalHandler
	Document *httpH.DocumentHandler
	Health   *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Plan:     httpH.NewPlanHandler(log, s.Workflow, s.Queries),
		Proposal: httpH.NewProposalHandler(log, s.Workflow, s.Queries),
		Document: httpH.NewDocumentHandler(log, s.Documents),
		Health:   httpH.NewHealthHandler(),
	}
}
