package db

import (
	"gorm.io/gorm"

	types "github.com/siproka/siproka-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// Plan (RKT) + versions + per-role decisions
		&types.PlanDocument{},
		&types.PlanVersion{},
		&types.PlanDecision{},

		// Activity proposals + review decisions + attachment slots
		&types.ActivityProposal{},
		&types.ProposalDecision{},
		&types.DocumentSlot{},
		&types.SlotFile{},
		&types.ReportingRecord{},

		// Ledger + audit + discussion
		&types.BudgetLedger{},
		&types.AuditEntry{},
		&types.Comment{},
	)
}
