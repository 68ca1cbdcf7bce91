package aggregates

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siproka/siproka-backend/internal/config"
	"github.com/siproka/siproka-backend/internal/data/repos"
	repotest "github.com/siproka/siproka-backend/internal/data/repos/testutil"
	domainagg "github.com/siproka/siproka-backend/internal/domain/aggregates"
	"github.com/siproka/siproka-backend/internal/domain/workflow"
)

func newProposalAggregate(t *testing.T, tx *gorm.DB) domainagg.ProposalAggregate {
	t.Helper()
	log := repotest.Logger(t)
	return NewProposalAggregate(ProposalAggregateDeps{
		Base: BaseDeps{
			DB:       tx,
			Runner:   NewGormTxRunner(tx),
			CASGuard: NewCASGuard(tx),
		},
		Plans:     repos.NewPlanRepo(tx, log),
		Proposals: repos.NewProposalRepo(tx, log),
		Decisions: repos.NewProposalDecisionRepo(tx, log),
		Slots:     repos.NewSlotRepo(tx, log),
		SlotFiles: repos.NewSlotFileRepo(tx, log),
		Reports:   repos.NewReportRepo(tx, log),
		Ledgers:   repos.NewLedgerRepo(tx, log),
		Audit:     repos.NewAuditRepo(tx, log),
	})
}

func proposalDocs() []domainagg.SlotUpload {
	return []domainagg.SlotUpload{
		{Name: "Proposal", FileRef: "proposals/act/proposal.pdf"},
		{Name: "RAB", FileRef: "proposals/act/rab.xlsx"},
	}
}

func submitProposal(t *testing.T, ctx context.Context, agg domainagg.ProposalAggregate, cfg config.Snapshot, planID uuid.UUID, budget int64) domainagg.ProposalResult {
	t.Helper()
	res, err := agg.Submit(ctx, domainagg.SubmitProposalInput{
		Actor:           reviewer(workflow.RoleKetua),
		Cfg:             cfg,
		PlanID:          planID,
		DivisionID:      uuid.New(),
		Title:           "leadership training",
		RequestedBudget: budget,
		Documents:       proposalDocs(),
	})
	if err != nil {
		t.Fatalf("Submit proposal: %v", err)
	}
	return res
}

func approveGate(t *testing.T, ctx context.Context, agg domainagg.ProposalAggregate, cfg config.Snapshot, proposalID uuid.UUID, tier workflow.Tier) domainagg.ProposalResult {
	t.Helper()
	var out domainagg.ProposalResult
	var err error
	for _, role := range cfg.GateRoles(workflow.StageProposal, tier) {
		out, err = agg.Review(ctx, domainagg.ReviewProposalInput{
			Actor:      reviewer(role),
			Cfg:        cfg,
			ProposalID: proposalID,
			Role:       role,
			Tier:       tier,
			Decision:   workflow.DecisionApproved,
		})
		if err != nil {
			t.Fatalf("approve %s/%s: %v", tier, role, err)
		}
	}
	return out
}

func TestProposalSubmitHoldsBudgetAndRefusesOvershoot(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newProposalAggregate(t, tx)
	cfg := config.Default()
	ctx := context.Background()

	plan := repotest.SeedPlan(t, ctx, tx, workflow.PlanApproved)
	repotest.SeedLedger(t, ctx, tx, plan.ID, 8_000_000, 0)

	first := submitProposal(t, ctx, agg, cfg, plan.ID, 5_000_000)
	if first.Proposal.Status != workflow.ProposalWaitingInternal {
		t.Fatalf("status: want=%s got=%s", workflow.ProposalWaitingInternal, first.Proposal.Status)
	}
	if first.Ledger.Committed != 5_000_000 || first.Ledger.Available != 3_000_000 {
		t.Fatalf("ledger after first hold: %+v", first.Ledger)
	}
	if len(first.Proposal.Slots) != len(cfg.ProposalSlots) {
		t.Fatalf("slots: want=%d got=%d", len(cfg.ProposalSlots), len(first.Proposal.Slots))
	}

	_, err := agg.Submit(ctx, domainagg.SubmitProposalInput{
		Actor:           reviewer(workflow.RoleKetua),
		Cfg:             cfg,
		PlanID:          plan.ID,
		DivisionID:      uuid.New(),
		Title:           "annual gathering",
		RequestedBudget: 4_000_000,
		Documents:       proposalDocs(),
	})
	if !domainagg.IsCode(err, domainagg.CodeBudgetExceeded) {
		t.Fatalf("expected budget_exceeded code, got %v", err)
	}

	// The failed submission must leave nothing behind.
	log := repotest.Logger(t)
	ledger, err := repos.NewLedgerRepo(tx, log).GetByPlanID(ctx, tx, plan.ID)
	if err != nil {
		t.Fatalf("ledger lookup: %v", err)
	}
	if ledger.Committed != 5_000_000 {
		t.Fatalf("ledger committed: want=5000000 got=%d", ledger.Committed)
	}
	proposals, err := repos.NewProposalRepo(tx, log).ListByPlanID(ctx, tx, plan.ID)
	if err != nil {
		t.Fatalf("proposal list: %v", err)
	}
	if len(proposals) != 1 {
		t.Fatalf("proposals: want=1 got=%d", len(proposals))
	}
}

func TestProposalSubmitValidatesSlotSchemaAndPlanState(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newProposalAggregate(t, tx)
	cfg := config.Default()
	ctx := context.Background()

	pending := repotest.SeedPlan(t, ctx, tx, workflow.PlanPendingReview)
	_, err := agg.Submit(ctx, domainagg.SubmitProposalInput{
		Actor:           reviewer(workflow.RoleKetua),
		Cfg:             cfg,
		PlanID:          pending.ID,
		DivisionID:      uuid.New(),
		Title:           "too early",
		RequestedBudget: 1_000_000,
		Documents:       proposalDocs(),
	})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("expected precondition code, got %v", err)
	}

	approved := repotest.SeedPlan(t, ctx, tx, workflow.PlanApproved)
	repotest.SeedLedger(t, ctx, tx, approved.ID, 8_000_000, 0)

	_, err = agg.Submit(ctx, domainagg.SubmitProposalInput{
		Actor:           reviewer(workflow.RoleKetua),
		Cfg:             cfg,
		PlanID:          approved.ID,
		DivisionID:      uuid.New(),
		Title:           "bad slot",
		RequestedBudget: 1_000_000,
		Documents: []domainagg.SlotUpload{
			{Name: "Proposal", FileRef: "a.pdf"},
			{Name: "RAB", FileRef: "b.xlsx"},
			{Name: "Brosur", FileRef: "c.pdf"},
		},
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code for unknown slot, got %v", err)
	}

	_, err = agg.Submit(ctx, domainagg.SubmitProposalInput{
		Actor:           reviewer(workflow.RoleKetua),
		Cfg:             cfg,
		PlanID:          approved.ID,
		DivisionID:      uuid.New(),
		Title:           "missing required slot",
		RequestedBudget: 1_000_000,
		Documents:       []domainagg.SlotUpload{{Name: "Proposal", FileRef: "a.pdf"}},
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code for missing required slot, got %v", err)
	}
}

func TestProposalTierProgressionAndScopedReset(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newProposalAggregate(t, tx)
	cfg := config.Default()
	ctx := context.Background()

	plan := repotest.SeedPlan(t, ctx, tx, workflow.PlanApproved)
	repotest.SeedLedger(t, ctx, tx, plan.ID, 8_000_000, 0)
	res := submitProposal(t, ctx, agg, cfg, plan.ID, 5_000_000)

	out := approveGate(t, ctx, agg, cfg, res.Proposal.ID, workflow.TierInternal)
	if out.Proposal.Status != workflow.ProposalWaitingExternal {
		t.Fatalf("status after internal gate: want=%s got=%s", workflow.ProposalWaitingExternal, out.Proposal.Status)
	}

	out, err := agg.Review(ctx, domainagg.ReviewProposalInput{
		Actor:      reviewer(workflow.RoleBanggar),
		Cfg:        cfg,
		ProposalID: res.Proposal.ID,
		Role:       workflow.RoleBanggar,
		Tier:       workflow.TierExternal,
		Decision:   workflow.DecisionRejected,
		Note:       "unit costs above standard rates",
	})
	if err != nil {
		t.Fatalf("external reject: %v", err)
	}
	if out.Proposal.Status != workflow.ProposalRevisionExternal {
		t.Fatalf("status after external rejection: want=%s got=%s", workflow.ProposalRevisionExternal, out.Proposal.Status)
	}

	lower := int64(4_500_000)
	out, err = agg.Resubmit(ctx, domainagg.ResubmitProposalInput{
		Actor:           reviewer(workflow.RoleKetua),
		Cfg:             cfg,
		ProposalID:      res.Proposal.ID,
		RequestedBudget: &lower,
		Replacements:    []domainagg.SlotUpload{{Name: "RAB", FileRef: "proposals/act/rab-v2.xlsx"}},
		Note:            "rates aligned with the standard table",
	})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if out.Proposal.Status != workflow.ProposalWaitingExternal {
		t.Fatalf("status after resubmit: want=%s got=%s", workflow.ProposalWaitingExternal, out.Proposal.Status)
	}
	if out.Ledger.Committed != lower {
		t.Fatalf("ledger after budget change: want=%d got=%d", lower, out.Ledger.Committed)
	}

	// The internal tier's approvals survive; only the rejecting tier resets.
	for _, d := range out.Proposal.Decisions {
		if d.Stage != workflow.StageProposal {
			continue
		}
		switch d.Tier {
		case workflow.TierInternal:
			if d.Status != workflow.DecisionApproved {
				t.Fatalf("internal %s lost its approval: got=%s", d.Role, d.Status)
			}
		case workflow.TierExternal:
			if d.Status != workflow.DecisionWaiting {
				t.Fatalf("external %s not reset: got=%s", d.Role, d.Status)
			}
		}
	}

	// The replaced file is archived, not deleted.
	for _, slot := range out.Proposal.Slots {
		if slot.Name != "RAB" {
			continue
		}
		if len(slot.Files) != 2 {
			t.Fatalf("RAB files: want=2 got=%d", len(slot.Files))
		}
		var archived int
		for _, f := range slot.Files {
			if f.Archived {
				archived++
			}
		}
		if archived != 1 {
			t.Fatalf("RAB archived files: want=1 got=%d", archived)
		}
	}

	out = approveGate(t, ctx, agg, cfg, res.Proposal.ID, workflow.TierExternal)
	if out.Proposal.Status != workflow.ProposalApproved {
		t.Fatalf("status after external gate: want=%s got=%s", workflow.ProposalApproved, out.Proposal.Status)
	}
}

func TestProposalCompleteAndWithdraw(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newProposalAggregate(t, tx)
	cfg := config.Default()
	ctx := context.Background()

	plan := repotest.SeedPlan(t, ctx, tx, workflow.PlanApproved)
	repotest.SeedLedger(t, ctx, tx, plan.ID, 8_000_000, 0)

	res := submitProposal(t, ctx, agg, cfg, plan.ID, 3_000_000)
	approveGate(t, ctx, agg, cfg, res.Proposal.ID, workflow.TierInternal)
	approveGate(t, ctx, agg, cfg, res.Proposal.ID, workflow.TierExternal)

	out, err := agg.Complete(ctx, domainagg.CompleteProposalInput{
		Actor:      reviewer(workflow.RoleKetua),
		ProposalID: res.Proposal.ID,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Proposal.Status != workflow.ProposalCompleted {
		t.Fatalf("status: want=%s got=%s", workflow.ProposalCompleted, out.Proposal.Status)
	}
	// Completion does not release the commitment.
	if out.Ledger.Committed != 3_000_000 {
		t.Fatalf("ledger after complete: want=3000000 got=%d", out.Ledger.Committed)
	}

	// A completed proposal can no longer be withdrawn.
	_, err = agg.Withdraw(ctx, domainagg.WithdrawProposalInput{
		Actor:      reviewer(workflow.RoleKetua),
		ProposalID: res.Proposal.ID,
	})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("expected precondition code, got %v", err)
	}

	second := submitProposal(t, ctx, agg, cfg, plan.ID, 2_000_000)
	out, err = agg.Withdraw(ctx, domainagg.WithdrawProposalInput{
		Actor:      reviewer(workflow.RoleKetua),
		ProposalID: second.Proposal.ID,
		Note:       "activity cancelled",
	})
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if out.Proposal.Status != workflow.ProposalWithdrawn {
		t.Fatalf("status: want=%s got=%s", workflow.ProposalWithdrawn, out.Proposal.Status)
	}
	if out.Ledger.Committed != 3_000_000 {
		t.Fatalf("ledger after withdraw: want=3000000 got=%d", out.Ledger.Committed)
	}
}

func TestProposalReviewRequiresMatchingGateState(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newProposalAggregate(t, tx)
	cfg := config.Default()
	ctx := context.Background()

	plan := repotest.SeedPlan(t, ctx, tx, workflow.PlanApproved)
	repotest.SeedLedger(t, ctx, tx, plan.ID, 8_000_000, 0)
	res := submitProposal(t, ctx, agg, cfg, plan.ID, 1_000_000)

	// External reviews are refused while the internal gate is open.
	_, err := agg.Review(ctx, domainagg.ReviewProposalInput{
		Actor:      reviewer(workflow.RoleSekjen),
		Cfg:        cfg,
		ProposalID: res.Proposal.ID,
		Role:       workflow.RoleSekjen,
		Tier:       workflow.TierExternal,
		Decision:   workflow.DecisionApproved,
	})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("expected precondition code, got %v", err)
	}

	// An external role cannot vote on the internal gate.
	_, err = agg.Review(ctx, domainagg.ReviewProposalInput{
		Actor:      reviewer(workflow.RoleSekjen),
		Cfg:        cfg,
		ProposalID: res.Proposal.ID,
		Role:       workflow.RoleSekjen,
		Tier:       workflow.TierInternal,
		Decision:   workflow.DecisionApproved,
	})
	if !domainagg.IsCode(err, domainagg.CodeUnauthorized) {
		t.Fatalf("expected unauthorized code, got %v", err)
	}
}
