package app

import (
	"gorm.io/gorm"

	"github.com/siproka/siproka-backend/internal/data/repos"
	"github.com/siproka/siproka-backend/internal/platform/logger"
)

type Repos struct {
	Plan             repos.PlanRepo
	PlanVersion      repos.PlanVersionRepo
	PlanDecision     repos.PlanDecisionRepo
	Proposal         repos.ProposalRepo
	ProposalDecision repos.ProposalDecisionRepo
	Slot             repos.SlotRepo
	SlotFile         repos.SlotFileRepo
	Report           repos.ReportRepo
	Ledger           repos.LedgerRepo
	Audit            repos.AuditRepo
	Comment          repos.CommentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Plan:             repos.NewPlanRepo(db, log),
		PlanVersion:      repos.NewPlanVersionRepo(db, log),
		PlanDecision:     repos.NewPlanDecisionRepo(db, log),
		Proposal:         repos.NewProposalRepo(db, log),
		ProposalDecision: repos.NewProposalDecisionRepo(db, log),
		Slot:             repos.NewSlotRepo(db, log),
		SlotFile:         repos.NewSlotFileRepo(db, log),
		Report:           repos.NewReportRepo(db, log),
		Ledger:           repos.NewLedgerRepo(db, log),
		Audit:            repos.NewAuditRepo(db, log),
		Comment:          repos.NewCommentRepo(db, log),
	}
}
