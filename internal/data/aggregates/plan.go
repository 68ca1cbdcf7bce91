package aggregates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siproka/siproka-backend/internal/data/repos"
	types "github.com/siproka/siproka-backend/internal/domain"
	domainagg "github.com/siproka/siproka-backend/internal/domain/aggregates"
	"github.com/siproka/siproka-backend/internal/domain/workflow"
	"github.com/siproka/siproka-backend/internal/platform/dbctx"
)

type PlanAggregateDeps struct {
	Base BaseDeps

	Plans     repos.PlanRepo
	Versions  repos.PlanVersionRepo
	Decisions repos.PlanDecisionRepo
	Ledgers   repos.LedgerRepo
	Audit     repos.AuditRepo
}

type planAggregate struct {
	deps PlanAggregateDeps
}

func NewPlanAggregate(deps PlanAggregateDeps) domainagg.PlanAggregate {
	deps.Base = deps.Base.withDefaults()
	return &planAggregate{deps: deps}
}

func (a *planAggregate) Submit(ctx context.Context, in domainagg.SubmitPlanInput) (domainagg.PlanResult, error) {
	const op = "Plan.Submit"
	var out domainagg.PlanResult

	if in.OrgID == uuid.Nil {
		return out, MapError(op, ValidationError("org id is required"))
	}
	if in.Period == "" {
		return out, MapError(op, ValidationError("period is required"))
	}
	if in.FileRef == "" {
		return out, MapError(op, ValidationError("plan file is required"))
	}
	if in.ProposedBudget <= 0 {
		return out, MapError(op, ValidationError("proposed budget must be positive"))
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		existing, err := a.deps.Plans.GetByOrgPeriod(dbc.Ctx, dbc.Tx, in.OrgID, in.Period)
		switch {
		case err == nil:
			return a.resubmit(dbc, in, existing, &out)
		case errors.Is(err, gorm.ErrRecordNotFound):
			return a.firstSubmit(dbc, in, &out)
		default:
			return err
		}
	})
	return out, err
}

func (a *planAggregate) firstSubmit(dbc dbctx.Context, in domainagg.SubmitPlanInput, out *domainagg.PlanResult) error {
	// Administrative gates apply to initial submissions only; revision
	// loops stay open so a rejected plan can always be fixed.
	if !in.Cfg.SubmissionsOpen() {
		return ErrSubmissionsClosed
	}
	if in.Cfg.DeadlinePassed(time.Now().UTC()) {
		return ErrDeadlineExceeded
	}

	plan := &types.PlanDocument{
		ID:                  uuid.New(),
		OrgID:               in.OrgID,
		Period:              in.Period,
		Status:              workflow.PlanPendingReview,
		CurrentVersion:      1,
		ProposedBudgetTotal: in.ProposedBudget,
	}
	if err := a.deps.Plans.Create(dbc.Ctx, dbc.Tx, plan); err != nil {
		return err
	}

	proposed := in.ProposedBudget
	version := &types.PlanVersion{
		ID:             uuid.New(),
		PlanID:         plan.ID,
		VersionNumber:  1,
		FileRef:        in.FileRef,
		UploadedBy:     in.Actor.ID,
		ChangeLog:      in.ChangeLog,
		ProposedBudget: &proposed,
	}
	if err := a.deps.Versions.Create(dbc.Ctx, dbc.Tx, version); err != nil {
		return err
	}

	decisions := make([]*types.PlanDecision, 0, len(in.Cfg.Plan.RequiredRoles))
	for _, role := range in.Cfg.Plan.RequiredRoles {
		decisions = append(decisions, &types.PlanDecision{
			ID:     uuid.New(),
			PlanID: plan.ID,
			Role:   role,
			Status: workflow.DecisionWaiting,
		})
	}
	if err := a.deps.Decisions.CreateMany(dbc.Ctx, dbc.Tx, decisions); err != nil {
		return err
	}

	entry := &types.AuditEntry{
		ID:           uuid.New(),
		DocumentKind: types.DocumentKindPlan,
		DocumentID:   plan.ID,
		Action:       types.AuditPlanSubmitted,
		ActorID:      in.Actor.ID,
		VersionRef:   "v1",
		Context:      auditContext(map[string]any{"proposed_budget": in.ProposedBudget}),
	}
	if err := a.deps.Audit.Append(dbc.Ctx, dbc.Tx, entry); err != nil {
		return err
	}

	full, err := a.deps.Plans.GetFull(dbc.Ctx, dbc.Tx, plan.ID)
	if err != nil {
		return err
	}
	out.Plan = full
	out.Audit = entry
	return nil
}

func (a *planAggregate) resubmit(dbc dbctx.Context, in domainagg.SubmitPlanInput, plan *types.PlanDocument, out *domainagg.PlanResult) error {
	if plan.Status != workflow.PlanPendingReview {
		return PreconditionError("plan is already approved")
	}
	if in.ChangeLog == "" {
		return ValidationError("a change log is required when superseding a previous version")
	}
	decisions, err := a.deps.Decisions.ListByPlanID(dbc.Ctx, dbc.Tx, plan.ID)
	if err != nil {
		return err
	}
	rejected := false
	for _, d := range decisions {
		if d.Status == workflow.DecisionRejected {
			rejected = true
			break
		}
	}
	if !rejected {
		return PreconditionError("resubmission is only allowed after a rejection")
	}

	nextVersion := plan.CurrentVersion + 1
	proposed := in.ProposedBudget
	version := &types.PlanVersion{
		ID:             uuid.New(),
		PlanID:         plan.ID,
		VersionNumber:  nextVersion,
		FileRef:        in.FileRef,
		UploadedBy:     in.Actor.ID,
		ChangeLog:      in.ChangeLog,
		ProposedBudget: &proposed,
	}
	if err := a.deps.Versions.Create(dbc.Ctx, dbc.Tx, version); err != nil {
		return err
	}

	// A resubmission invalidates every prior decision, not just the
	// rejecting one: stale approvals must not survive a changed document.
	if err := a.deps.Decisions.ResetAll(dbc.Ctx, dbc.Tx, plan.ID); err != nil {
		return err
	}

	ok, err := a.deps.Base.CASGuard.UpdateBySequence(dbc, types.PlanDocument{}.TableName(), plan.ID, plan.Sequence, map[string]any{
		"current_version":       nextVersion,
		"proposed_budget_total": in.ProposedBudget,
		"updated_at":            time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := RequireCASSuccess(ok, "plan was modified concurrently"); err != nil {
		return err
	}

	entry := &types.AuditEntry{
		ID:           uuid.New(),
		DocumentKind: types.DocumentKindPlan,
		DocumentID:   plan.ID,
		Action:       types.AuditPlanResubmitted,
		ActorID:      in.Actor.ID,
		Note:         in.ChangeLog,
		VersionRef:   fmt.Sprintf("v%d", nextVersion),
		Context:      auditContext(map[string]any{"proposed_budget": in.ProposedBudget}),
	}
	if err := a.deps.Audit.Append(dbc.Ctx, dbc.Tx, entry); err != nil {
		return err
	}

	full, err := a.deps.Plans.GetFull(dbc.Ctx, dbc.Tx, plan.ID)
	if err != nil {
		return err
	}
	out.Plan = full
	out.Audit = entry
	return nil
}

func (a *planAggregate) Review(ctx context.Context, in domainagg.ReviewPlanInput) (domainagg.PlanResult, error) {
	const op = "Plan.Review"
	var out domainagg.PlanResult

	if in.Decision != workflow.DecisionApproved && in.Decision != workflow.DecisionRejected {
		return out, MapError(op, ValidationError("decision must be APPROVED or REJECTED"))
	}
	if in.Decision == workflow.DecisionRejected && in.Note == "" {
		return out, MapError(op, ValidationError("a note is required when rejecting"))
	}
	if !workflow.HasRole(in.Cfg.Plan.RequiredRoles, in.Role) {
		return out, MapError(op, UnauthorizedError("role is not a required plan reviewer"))
	}
	if !workflow.HasRole(in.Actor.Roles, in.Role) {
		return out, MapError(op, UnauthorizedError("actor does not hold the acting role"))
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		plan, err := a.deps.Plans.GetByID(dbc.Ctx, dbc.Tx, in.PlanID)
		if err != nil {
			return err
		}
		if plan.Status != workflow.PlanPendingReview {
			return PreconditionError("plan is not under review")
		}

		decisions, err := a.deps.Decisions.ListByPlanID(dbc.Ctx, dbc.Tx, plan.ID)
		if err != nil {
			return err
		}

		// A rejection stands until the org publishes a new version; the
		// rejecting reviewer cannot overwrite their own verdict in place.
		byRole := make(map[workflow.Role]workflow.DecisionStatus, len(decisions))
		for _, d := range decisions {
			byRole[d.Role] = d.Status
		}
		if byRole[in.Role] == workflow.DecisionRejected {
			return PreconditionError("a rejected decision stands until a new version is submitted")
		}

		now := time.Now().UTC()
		if err := a.deps.Decisions.Update(dbc.Ctx, dbc.Tx, plan.ID, in.Role, map[string]any{
			"status":         in.Decision,
			"note":           in.Note,
			"reviewer_id":    in.Actor.ID,
			"acting_role":    in.Actor.ActingRole,
			"reviewed_at":    now,
			"attachment_ref": in.AttachmentRef,
			"amount":         in.Amount,
			"updated_at":     now,
		}); err != nil {
			return err
		}
		byRole[in.Role] = in.Decision

		entry := &types.AuditEntry{
			ID:            uuid.New(),
			DocumentKind:  types.DocumentKindPlan,
			DocumentID:    plan.ID,
			Action:        types.AuditPlanReviewed,
			ActorID:       in.Actor.ID,
			Role:          in.Role,
			Note:          in.Note,
			AttachmentRef: in.AttachmentRef,
			VersionRef:    fmt.Sprintf("v%d", plan.CurrentVersion),
		}
		if err := a.deps.Audit.Append(dbc.Ctx, dbc.Tx, entry); err != nil {
			return err
		}

		if workflow.Fold(byRole, in.Cfg.Plan.RequiredRoles) == workflow.OutcomeAdvance {
			if err := a.approve(dbc, in, plan, decisions); err != nil {
				return err
			}
		}

		full, err := a.deps.Plans.GetFull(dbc.Ctx, dbc.Tx, plan.ID)
		if err != nil {
			return err
		}
		out.Plan = full
		out.Audit = entry
		return nil
	})
	return out, err
}

// approve finalizes the review stage: the binding ceiling comes from the
// designated budget authority's amount, falling back to the proposed total
// when that role recorded no figure.
func (a *planAggregate) approve(dbc dbctx.Context, in domainagg.ReviewPlanInput, plan *types.PlanDocument, decisions []*types.PlanDecision) error {
	ceiling := plan.ProposedBudgetTotal
	for _, d := range decisions {
		if d.Role == in.Cfg.Plan.CeilingRole && d.Amount != nil {
			ceiling = *d.Amount
		}
	}
	if in.Role == in.Cfg.Plan.CeilingRole && in.Amount != nil {
		ceiling = *in.Amount
	}
	if ceiling <= 0 {
		return InvariantError("approved ceiling must be positive")
	}

	ok, err := a.deps.Base.CASGuard.UpdateBySequence(dbc, types.PlanDocument{}.TableName(), plan.ID, plan.Sequence, map[string]any{
		"status":                  workflow.PlanApproved,
		"approved_budget_ceiling": ceiling,
		"updated_at":              time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := RequireCASSuccess(ok, "plan was modified concurrently"); err != nil {
		return err
	}

	if err := a.deps.Ledgers.Create(dbc.Ctx, dbc.Tx, &types.BudgetLedger{
		ID:      uuid.New(),
		PlanID:  plan.ID,
		Ceiling: ceiling,
	}); err != nil {
		return err
	}

	return a.deps.Audit.Append(dbc.Ctx, dbc.Tx, &types.AuditEntry{
		ID:           uuid.New(),
		DocumentKind: types.DocumentKindPlan,
		DocumentID:   plan.ID,
		Action:       types.AuditPlanApproved,
		ActorID:      in.Actor.ID,
		Role:         in.Role,
		VersionRef:   fmt.Sprintf("v%d", plan.CurrentVersion),
		Context:      auditContext(map[string]any{"approved_budget_ceiling": ceiling}),
	})
}
