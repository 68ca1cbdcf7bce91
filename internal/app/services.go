package app

import (
	"gorm.io/gorm"

	dataagg "github.com/siproka/siproka-backend/internal/data/aggregates"
	"github.com/siproka/siproka-backend/internal/observability"
	"github.com/siproka/siproka-backend/internal/platform/logger"
	"github.com/siproka/siproka-backend/internal/services"
)

type Services struct {
	Workflow  services.WorkflowService
	Queries   services.QueryService
	Documents services.DocumentService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	base := dataagg.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: dataagg.NewObservabilityHooks(metrics),
	}

	planAgg := dataagg.NewPlanAggregate(dataagg.PlanAggregateDeps{
		Base:      base,
		Plans:     r.Plan,
		Versions:  r.PlanVersion,
		Decisions: r.PlanDecision,
		Ledgers:   r.Ledger,
		Audit:     r.Audit,
	})

	proposalAgg := dataagg.NewProposalAggregate(dataagg.ProposalAggregateDeps{
		Base:      base,
		Plans:     r.Plan,
		Proposals: r.Proposal,
		Decisions: r.ProposalDecision,
		Slots:     r.Slot,
		SlotFiles: r.SlotFile,
		Reports:   r.Report,
		Ledgers:   r.Ledger,
		Audit:     r.Audit,
	})

	return Services{
		Workflow:  services.NewWorkflowService(log, cfg.Topology, planAgg, proposalAgg, c.Events),
		Queries:   services.NewQueryService(db, log, r.Plan, r.Proposal, r.SlotFile, r.Ledger, r.Audit, r.Comment),
		Documents: services.NewDocumentService(log, c.Blobs),
	}
}
