package aggregates

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/siproka/siproka-backend/internal/config"
	"github.com/siproka/siproka-backend/internal/data/repos"
	repotest "github.com/siproka/siproka-backend/internal/data/repos/testutil"
	types "github.com/siproka/siproka-backend/internal/domain"
	domainagg "github.com/siproka/siproka-backend/internal/domain/aggregates"
	"github.com/siproka/siproka-backend/internal/domain/workflow"
)

// Two submissions race for the last of the ceiling. The row lock on the
// ledger must serialize them so exactly one wins; the loser sees
// budget_exceeded, never a double commit. This test needs real transactions,
// so it writes through the shared connection and cleans up after itself.
func TestConcurrentSubmissionsNeverOvershootCeiling(t *testing.T) {
	db := repotest.DB(t)
	log := repotest.Logger(t)
	cfg := config.Default()
	ctx := context.Background()

	plan := repotest.SeedPlan(t, ctx, db, workflow.PlanApproved)
	repotest.SeedLedger(t, ctx, db, plan.ID, 8_000_000, 0)
	t.Cleanup(func() {
		db.Where("plan_id = ?", plan.ID).Delete(&types.BudgetLedger{})
		var ids []uuid.UUID
		db.Model(&types.ActivityProposal{}).Where("plan_id = ?", plan.ID).Pluck("id", &ids)
		if len(ids) > 0 {
			db.Where("proposal_id IN ?", ids).Delete(&types.ProposalDecision{})
			db.Where("slot_id IN (?)", db.Model(&types.DocumentSlot{}).Select("id").Where("proposal_id IN ?", ids)).Delete(&types.SlotFile{})
			db.Where("proposal_id IN ?", ids).Delete(&types.DocumentSlot{})
			db.Where("document_id IN ?", ids).Delete(&types.AuditEntry{})
		}
		db.Where("plan_id = ?", plan.ID).Delete(&types.ActivityProposal{})
		db.Where("id = ?", plan.ID).Delete(&types.PlanDocument{})
	})

	agg := NewProposalAggregate(ProposalAggregateDeps{
		Base:      BaseDeps{DB: db},
		Plans:     repos.NewPlanRepo(db, log),
		Proposals: repos.NewProposalRepo(db, log),
		Decisions: repos.NewProposalDecisionRepo(db, log),
		Slots:     repos.NewSlotRepo(db, log),
		SlotFiles: repos.NewSlotFileRepo(db, log),
		Reports:   repos.NewReportRepo(db, log),
		Ledgers:   repos.NewLedgerRepo(db, log),
		Audit:     repos.NewAuditRepo(db, log),
	})

	submit := func() error {
		_, err := agg.Submit(ctx, domainagg.SubmitProposalInput{
			Actor:           reviewer(workflow.RoleKetua),
			Cfg:             cfg,
			PlanID:          plan.ID,
			DivisionID:      uuid.New(),
			Title:           "racing activity",
			RequestedBudget: 5_000_000,
			Documents:       proposalDocs(),
		})
		return err
	}

	var g errgroup.Group
	results := make([]error, 2)
	for i := range results {
		i := i
		g.Go(func() error {
			results[i] = submit()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	var wins, losses int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case domainagg.IsCode(err, domainagg.CodeBudgetExceeded):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("want exactly one winner and one budget_exceeded, got wins=%d losses=%d", wins, losses)
	}

	ledger, err := repos.NewLedgerRepo(db, log).GetByPlanID(ctx, db, plan.ID)
	if err != nil {
		t.Fatalf("ledger lookup: %v", err)
	}
	if ledger.Committed != 5_000_000 {
		t.Fatalf("ledger committed: want=5000000 got=%d", ledger.Committed)
	}
}
