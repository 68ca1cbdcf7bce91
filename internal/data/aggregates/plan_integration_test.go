package aggregates

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siproka/siproka-backend/internal/config"
	"github.com/siproka/siproka-backend/internal/data/repos"
	repotest "github.com/siproka/siproka-backend/internal/data/repos/testutil"
	domainagg "github.com/siproka/siproka-backend/internal/domain/aggregates"
	"github.com/siproka/siproka-backend/internal/domain/workflow"
)

func newPlanAggregate(t *testing.T, tx *gorm.DB) domainagg.PlanAggregate {
	t.Helper()
	log := repotest.Logger(t)
	return NewPlanAggregate(PlanAggregateDeps{
		Base: BaseDeps{
			DB:       tx,
			Runner:   NewGormTxRunner(tx),
			CASGuard: NewCASGuard(tx),
		},
		Plans:     repos.NewPlanRepo(tx, log),
		Versions:  repos.NewPlanVersionRepo(tx, log),
		Decisions: repos.NewPlanDecisionRepo(tx, log),
		Ledgers:   repos.NewLedgerRepo(tx, log),
		Audit:     repos.NewAuditRepo(tx, log),
	})
}

func reviewer(role workflow.Role) domainagg.Actor {
	return domainagg.Actor{ID: uuid.New(), Roles: []workflow.Role{role}}
}

func submitPlan(t *testing.T, ctx context.Context, agg domainagg.PlanAggregate, cfg config.Snapshot) domainagg.PlanResult {
	t.Helper()
	res, err := agg.Submit(ctx, domainagg.SubmitPlanInput{
		Actor:          reviewer(workflow.RoleKetua),
		Cfg:            cfg,
		OrgID:          uuid.New(),
		Period:         "2026",
		FileRef:        "plans/2026/rkt.pdf",
		ProposedBudget: 10_000_000,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return res
}

func TestPlanFullApprovalSetsCeilingFromBudgetAuthority(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newPlanAggregate(t, tx)
	cfg := config.Default()
	ctx := context.Background()

	res := submitPlan(t, ctx, agg, cfg)
	if res.Plan.Status != workflow.PlanPendingReview {
		t.Fatalf("status after submit: want=%s got=%s", workflow.PlanPendingReview, res.Plan.Status)
	}
	if len(res.Plan.Decisions) != len(cfg.Plan.RequiredRoles) {
		t.Fatalf("decision rows: want=%d got=%d", len(cfg.Plan.RequiredRoles), len(res.Plan.Decisions))
	}

	amount := int64(8_000_000)
	for _, role := range []workflow.Role{workflow.RoleSekjen, workflow.RoleDagri, workflow.RoleKeu} {
		out, err := agg.Review(ctx, domainagg.ReviewPlanInput{
			Actor:    reviewer(role),
			Cfg:      cfg,
			PlanID:   res.Plan.ID,
			Role:     role,
			Decision: workflow.DecisionApproved,
		})
		if err != nil {
			t.Fatalf("Review %s: %v", role, err)
		}
		if out.Plan.Status != workflow.PlanPendingReview {
			t.Fatalf("plan advanced early on %s: got=%s", role, out.Plan.Status)
		}
	}

	out, err := agg.Review(ctx, domainagg.ReviewPlanInput{
		Actor:    reviewer(workflow.RoleBanggar),
		Cfg:      cfg,
		PlanID:   res.Plan.ID,
		Role:     workflow.RoleBanggar,
		Decision: workflow.DecisionApproved,
		Amount:   &amount,
	})
	if err != nil {
		t.Fatalf("Review banggar: %v", err)
	}
	if out.Plan.Status != workflow.PlanApproved {
		t.Fatalf("status after final approval: want=%s got=%s", workflow.PlanApproved, out.Plan.Status)
	}
	if out.Plan.ApprovedBudgetCeiling == nil || *out.Plan.ApprovedBudgetCeiling != amount {
		t.Fatalf("ceiling: want=%d got=%v", amount, out.Plan.ApprovedBudgetCeiling)
	}

	log := repotest.Logger(t)
	ledger, err := repos.NewLedgerRepo(tx, log).GetByPlanID(ctx, tx, res.Plan.ID)
	if err != nil {
		t.Fatalf("ledger lookup: %v", err)
	}
	if ledger.Ceiling != amount || ledger.Committed != 0 {
		t.Fatalf("ledger: want ceiling=%d committed=0 got ceiling=%d committed=%d", amount, ledger.Ceiling, ledger.Committed)
	}

	entries, err := repos.NewAuditRepo(tx, log).ListByDocument(ctx, tx, "plan", res.Plan.ID)
	if err != nil {
		t.Fatalf("audit lookup: %v", err)
	}
	// submitted + 4 reviews + approved
	if len(entries) != 6 {
		t.Fatalf("audit entries: want=6 got=%d", len(entries))
	}
	if entries[len(entries)-1].Action != "plan.approved" {
		t.Fatalf("last audit action: want=plan.approved got=%s", entries[len(entries)-1].Action)
	}
}

func TestPlanCeilingFallsBackToProposedTotal(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newPlanAggregate(t, tx)
	cfg := config.Default()
	ctx := context.Background()

	res := submitPlan(t, ctx, agg, cfg)
	var out domainagg.PlanResult
	var err error
	for _, role := range cfg.Plan.RequiredRoles {
		out, err = agg.Review(ctx, domainagg.ReviewPlanInput{
			Actor:    reviewer(role),
			Cfg:      cfg,
			PlanID:   res.Plan.ID,
			Role:     role,
			Decision: workflow.DecisionApproved,
		})
		if err != nil {
			t.Fatalf("Review %s: %v", role, err)
		}
	}
	if out.Plan.Status != workflow.PlanApproved {
		t.Fatalf("status: want=%s got=%s", workflow.PlanApproved, out.Plan.Status)
	}
	if out.Plan.ApprovedBudgetCeiling == nil || *out.Plan.ApprovedBudgetCeiling != res.Plan.ProposedBudgetTotal {
		t.Fatalf("ceiling fallback: want=%d got=%v", res.Plan.ProposedBudgetTotal, out.Plan.ApprovedBudgetCeiling)
	}
}

func TestPlanRejectionKeepsPendingAndResubmissionResetsAllDecisions(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newPlanAggregate(t, tx)
	cfg := config.Default()
	ctx := context.Background()

	res := submitPlan(t, ctx, agg, cfg)
	orgID := res.Plan.OrgID

	if _, err := agg.Review(ctx, domainagg.ReviewPlanInput{
		Actor:    reviewer(workflow.RoleSekjen),
		Cfg:      cfg,
		PlanID:   res.Plan.ID,
		Role:     workflow.RoleSekjen,
		Decision: workflow.DecisionApproved,
	}); err != nil {
		t.Fatalf("approve sekjen: %v", err)
	}
	out, err := agg.Review(ctx, domainagg.ReviewPlanInput{
		Actor:    reviewer(workflow.RoleDagri),
		Cfg:      cfg,
		PlanID:   res.Plan.ID,
		Role:     workflow.RoleDagri,
		Decision: workflow.DecisionRejected,
		Note:     "budget narrative does not match the annex",
	})
	if err != nil {
		t.Fatalf("reject dagri: %v", err)
	}
	if out.Plan.Status != workflow.PlanPendingReview {
		t.Fatalf("rejection must not terminate the plan: got=%s", out.Plan.Status)
	}

	// Missing change log is refused.
	_, err = agg.Submit(ctx, domainagg.SubmitPlanInput{
		Actor:          reviewer(workflow.RoleKetua),
		Cfg:            cfg,
		OrgID:          orgID,
		Period:         "2026",
		FileRef:        "plans/2026/rkt-v2.pdf",
		ProposedBudget: 9_500_000,
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got %v", err)
	}

	out, err = agg.Submit(ctx, domainagg.SubmitPlanInput{
		Actor:          reviewer(workflow.RoleKetua),
		Cfg:            cfg,
		OrgID:          orgID,
		Period:         "2026",
		FileRef:        "plans/2026/rkt-v2.pdf",
		ProposedBudget: 9_500_000,
		ChangeLog:      "reduced ceremonial spend, fixed annex totals",
	})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if out.Plan.CurrentVersion != 2 {
		t.Fatalf("version: want=2 got=%d", out.Plan.CurrentVersion)
	}
	if len(out.Plan.Versions) != 2 {
		t.Fatalf("version rows: want=2 got=%d", len(out.Plan.Versions))
	}
	for _, d := range out.Plan.Decisions {
		if d.Status != workflow.DecisionWaiting {
			t.Fatalf("decision %s not reset: got=%s", d.Role, d.Status)
		}
		if d.ReviewerID != nil {
			t.Fatalf("decision %s kept its reviewer after reset", d.Role)
		}
	}

	// A second resubmission with no new rejection is refused.
	_, err = agg.Submit(ctx, domainagg.SubmitPlanInput{
		Actor:          reviewer(workflow.RoleKetua),
		Cfg:            cfg,
		OrgID:          orgID,
		Period:         "2026",
		FileRef:        "plans/2026/rkt-v3.pdf",
		ProposedBudget: 9_000_000,
		ChangeLog:      "more cuts",
	})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("expected precondition code, got %v", err)
	}
}

func TestPlanRejectionStandsUntilNewVersion(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newPlanAggregate(t, tx)
	cfg := config.Default()
	ctx := context.Background()

	res := submitPlan(t, ctx, agg, cfg)
	orgID := res.Plan.OrgID

	for _, role := range []workflow.Role{workflow.RoleSekjen, workflow.RoleKeu, workflow.RoleBanggar} {
		if _, err := agg.Review(ctx, domainagg.ReviewPlanInput{
			Actor:    reviewer(role),
			Cfg:      cfg,
			PlanID:   res.Plan.ID,
			Role:     role,
			Decision: workflow.DecisionApproved,
		}); err != nil {
			t.Fatalf("approve %s: %v", role, err)
		}
	}
	if _, err := agg.Review(ctx, domainagg.ReviewPlanInput{
		Actor:    reviewer(workflow.RoleDagri),
		Cfg:      cfg,
		PlanID:   res.Plan.ID,
		Role:     workflow.RoleDagri,
		Decision: workflow.DecisionRejected,
		Note:     "activity calendar overlaps the audit window",
	}); err != nil {
		t.Fatalf("reject dagri: %v", err)
	}

	// The rejecting reviewer cannot flip their own verdict in place; doing
	// so would approve the plan without a new version ever being published.
	_, err := agg.Review(ctx, domainagg.ReviewPlanInput{
		Actor:    reviewer(workflow.RoleDagri),
		Cfg:      cfg,
		PlanID:   res.Plan.ID,
		Role:     workflow.RoleDagri,
		Decision: workflow.DecisionApproved,
	})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("expected precondition code, got %v", err)
	}

	out, err := agg.Submit(ctx, domainagg.SubmitPlanInput{
		Actor:          reviewer(workflow.RoleKetua),
		Cfg:            cfg,
		OrgID:          orgID,
		Period:         "2026",
		FileRef:        "plans/2026/rkt-v2.pdf",
		ProposedBudget: 10_000_000,
		ChangeLog:      "moved the ceremony out of the audit window",
	})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if out.Plan.Status != workflow.PlanPendingReview {
		t.Fatalf("resubmission must not approve the plan by itself: got=%s", out.Plan.Status)
	}

	// After the new version the reviewer decides again from WAITING.
	if _, err := agg.Review(ctx, domainagg.ReviewPlanInput{
		Actor:    reviewer(workflow.RoleDagri),
		Cfg:      cfg,
		PlanID:   res.Plan.ID,
		Role:     workflow.RoleDagri,
		Decision: workflow.DecisionApproved,
	}); err != nil {
		t.Fatalf("approve dagri after resubmit: %v", err)
	}
}

func TestPlanReviewAuthorization(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newPlanAggregate(t, tx)
	cfg := config.Default()
	ctx := context.Background()

	res := submitPlan(t, ctx, agg, cfg)

	// ketua is not part of the plan review body.
	_, err := agg.Review(ctx, domainagg.ReviewPlanInput{
		Actor:    reviewer(workflow.RoleKetua),
		Cfg:      cfg,
		PlanID:   res.Plan.ID,
		Role:     workflow.RoleKetua,
		Decision: workflow.DecisionApproved,
	})
	if !domainagg.IsCode(err, domainagg.CodeUnauthorized) {
		t.Fatalf("expected unauthorized code, got %v", err)
	}

	// Claiming a role the actor does not hold is refused.
	_, err = agg.Review(ctx, domainagg.ReviewPlanInput{
		Actor:    reviewer(workflow.RoleKeu),
		Cfg:      cfg,
		PlanID:   res.Plan.ID,
		Role:     workflow.RoleSekjen,
		Decision: workflow.DecisionApproved,
	})
	if !domainagg.IsCode(err, domainagg.CodeUnauthorized) {
		t.Fatalf("expected unauthorized code, got %v", err)
	}

	// Rejection without a note is refused.
	_, err = agg.Review(ctx, domainagg.ReviewPlanInput{
		Actor:    reviewer(workflow.RoleSekjen),
		Cfg:      cfg,
		PlanID:   res.Plan.ID,
		Role:     workflow.RoleSekjen,
		Decision: workflow.DecisionRejected,
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestPlanSubmitHonorsAdministrativeGates(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg := newPlanAggregate(t, tx)
	ctx := context.Background()

	closed := config.Default()
	closed.Submissions.Open = false
	_, err := agg.Submit(ctx, domainagg.SubmitPlanInput{
		Actor:          reviewer(workflow.RoleKetua),
		Cfg:            closed,
		OrgID:          uuid.New(),
		Period:         "2026",
		FileRef:        "plans/rkt.pdf",
		ProposedBudget: 1_000_000,
	})
	if !domainagg.IsCode(err, domainagg.CodeSubmissionsClosed) {
		t.Fatalf("expected submissions_closed code, got %v", err)
	}

	late := config.Default()
	past := time.Now().UTC().Add(-24 * time.Hour)
	late.Submissions.Deadline = &past
	_, err = agg.Submit(ctx, domainagg.SubmitPlanInput{
		Actor:          reviewer(workflow.RoleKetua),
		Cfg:            late,
		OrgID:          uuid.New(),
		Period:         "2026",
		FileRef:        "plans/rkt.pdf",
		ProposedBudget: 1_000_000,
	})
	if !domainagg.IsCode(err, domainagg.CodeDeadlineExceeded) {
		t.Fatalf("expected deadline_exceeded code, got %v", err)
	}
}
