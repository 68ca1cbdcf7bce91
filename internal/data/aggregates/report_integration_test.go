package aggregates

import (
	"context"
	"testing"

	"github.com/siproka/siproka-backend/internal/config"
	repotest "github.com/siproka/siproka-backend/internal/data/repos/testutil"
	domainagg "github.com/siproka/siproka-backend/internal/domain/aggregates"
	"github.com/siproka/siproka-backend/internal/domain/workflow"
)

func reportDocs() []domainagg.SlotUpload {
	return []domainagg.SlotUpload{
		{Name: "LPJ Naratif", FileRef: "reports/act/lpj-naratif.pdf"},
		{Name: "LPJ Keuangan", FileRef: "reports/act/lpj-keuangan.xlsx"},
	}
}

func TestReportLifecycleThroughBothGates(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newProposalAggregate(t, tx)
	cfg := config.Default()
	ctx := context.Background()

	plan := repotest.SeedPlan(t, ctx, tx, workflow.PlanApproved)
	repotest.SeedLedger(t, ctx, tx, plan.ID, 8_000_000, 0)
	res := submitProposal(t, ctx, agg, cfg, plan.ID, 5_000_000)
	approveGate(t, ctx, agg, cfg, res.Proposal.ID, workflow.TierInternal)
	approveGate(t, ctx, agg, cfg, res.Proposal.ID, workflow.TierExternal)

	out, err := agg.SubmitReport(ctx, domainagg.SubmitReportInput{
		Actor:          reviewer(workflow.RoleBendahara),
		Cfg:            cfg,
		ProposalID:     res.Proposal.ID,
		RealizedBudget: 4_800_000,
		Documents:      reportDocs(),
	})
	if err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}
	if out.Proposal.Status != workflow.ProposalWaitingReview {
		t.Fatalf("status: want=%s got=%s", workflow.ProposalWaitingReview, out.Proposal.Status)
	}
	if out.Proposal.Report == nil || out.Proposal.Report.Status != "UNDER_REVIEW" {
		t.Fatalf("report record: %+v", out.Proposal.Report)
	}

	// A second report for the same proposal is refused.
	_, err = agg.SubmitReport(ctx, domainagg.SubmitReportInput{
		Actor:          reviewer(workflow.RoleBendahara),
		Cfg:            cfg,
		ProposalID:     res.Proposal.ID,
		RealizedBudget: 4_800_000,
		Documents:      reportDocs(),
	})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("expected precondition code, got %v", err)
	}

	for _, role := range cfg.GateRoles(workflow.StageReport, workflow.TierInternal) {
		out, err = agg.ReviewReport(ctx, domainagg.ReviewReportInput{
			Actor:      reviewer(role),
			Cfg:        cfg,
			ProposalID: res.Proposal.ID,
			Role:       role,
			Tier:       workflow.TierInternal,
			Decision:   workflow.DecisionApproved,
		})
		if err != nil {
			t.Fatalf("internal report review %s: %v", role, err)
		}
	}
	if out.Proposal.Status != workflow.ProposalWaitingExternalReport {
		t.Fatalf("status after internal report gate: want=%s got=%s", workflow.ProposalWaitingExternalReport, out.Proposal.Status)
	}

	for _, role := range cfg.GateRoles(workflow.StageReport, workflow.TierExternal) {
		out, err = agg.ReviewReport(ctx, domainagg.ReviewReportInput{
			Actor:      reviewer(role),
			Cfg:        cfg,
			ProposalID: res.Proposal.ID,
			Role:       role,
			Tier:       workflow.TierExternal,
			Decision:   workflow.DecisionApproved,
		})
		if err != nil {
			t.Fatalf("external report review %s: %v", role, err)
		}
	}
	if out.Proposal.Status != workflow.ProposalDone {
		t.Fatalf("status after external report gate: want=%s got=%s", workflow.ProposalDone, out.Proposal.Status)
	}
	if out.Proposal.Report == nil || out.Proposal.Report.Status != "ACCEPTED" {
		t.Fatalf("report not accepted: %+v", out.Proposal.Report)
	}
}

func TestReportRejectionAndResubmission(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newProposalAggregate(t, tx)
	cfg := config.Default()
	ctx := context.Background()

	plan := repotest.SeedPlan(t, ctx, tx, workflow.PlanApproved)
	repotest.SeedLedger(t, ctx, tx, plan.ID, 8_000_000, 0)
	res := submitProposal(t, ctx, agg, cfg, plan.ID, 5_000_000)
	approveGate(t, ctx, agg, cfg, res.Proposal.ID, workflow.TierInternal)
	approveGate(t, ctx, agg, cfg, res.Proposal.ID, workflow.TierExternal)

	if _, err := agg.SubmitReport(ctx, domainagg.SubmitReportInput{
		Actor:          reviewer(workflow.RoleBendahara),
		Cfg:            cfg,
		ProposalID:     res.Proposal.ID,
		RealizedBudget: 5_200_000,
		Documents:      reportDocs(),
	}); err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}

	out, err := agg.ReviewReport(ctx, domainagg.ReviewReportInput{
		Actor:      reviewer(workflow.RoleBendahara),
		Cfg:        cfg,
		ProposalID: res.Proposal.ID,
		Role:       workflow.RoleBendahara,
		Tier:       workflow.TierInternal,
		Decision:   workflow.DecisionRejected,
		Note:       "realized spend exceeds the request without receipts",
	})
	if err != nil {
		t.Fatalf("reject report: %v", err)
	}
	if out.Proposal.Status != workflow.ProposalRevisionReport {
		t.Fatalf("status after report rejection: want=%s got=%s", workflow.ProposalRevisionReport, out.Proposal.Status)
	}

	corrected := int64(4_900_000)
	out, err = agg.ResubmitReport(ctx, domainagg.ResubmitReportInput{
		Actor:          reviewer(workflow.RoleBendahara),
		Cfg:            cfg,
		ProposalID:     res.Proposal.ID,
		RealizedBudget: &corrected,
		Replacements:   []domainagg.SlotUpload{{Name: "LPJ Keuangan", FileRef: "reports/act/lpj-keuangan-v2.xlsx"}},
		Note:           "receipts attached, figure corrected",
	})
	if err != nil {
		t.Fatalf("ResubmitReport: %v", err)
	}
	if out.Proposal.Status != workflow.ProposalWaitingReview {
		t.Fatalf("status after report resubmit: want=%s got=%s", workflow.ProposalWaitingReview, out.Proposal.Status)
	}
	if out.Proposal.Report == nil || out.Proposal.Report.RealizedBudget != corrected {
		t.Fatalf("report figure not updated: %+v", out.Proposal.Report)
	}
	// Realized spend never touches the ledger.
	if out.Ledger.Committed != 5_000_000 {
		t.Fatalf("ledger after report resubmit: want=5000000 got=%d", out.Ledger.Committed)
	}

	// Proposal-stage decisions stay untouched by report-gate resets.
	for _, d := range out.Proposal.Decisions {
		if d.Stage == workflow.StageProposal && d.Status != workflow.DecisionApproved {
			t.Fatalf("proposal-stage decision %s/%s lost its verdict: got=%s", d.Tier, d.Role, d.Status)
		}
	}
}

func TestReportRequiresExecutedProposal(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newProposalAggregate(t, tx)
	cfg := config.Default()
	ctx := context.Background()

	plan := repotest.SeedPlan(t, ctx, tx, workflow.PlanApproved)
	repotest.SeedLedger(t, ctx, tx, plan.ID, 8_000_000, 0)
	res := submitProposal(t, ctx, agg, cfg, plan.ID, 1_000_000)

	_, err := agg.SubmitReport(ctx, domainagg.SubmitReportInput{
		Actor:          reviewer(workflow.RoleBendahara),
		Cfg:            cfg,
		ProposalID:     res.Proposal.ID,
		RealizedBudget: 900_000,
		Documents:      reportDocs(),
	})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("expected precondition code, got %v", err)
	}
}
