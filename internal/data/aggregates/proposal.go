package aggregates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/siproka/siproka-backend/internal/config"
	"github.com/siproka/siproka-backend/internal/data/repos"
	types "github.com/siproka/siproka-backend/internal/domain"
	domainagg "github.com/siproka/siproka-backend/internal/domain/aggregates"
	"github.com/siproka/siproka-backend/internal/domain/workflow"
	"github.com/siproka/siproka-backend/internal/platform/dbctx"
)

type ProposalAggregateDeps struct {
	Base BaseDeps

	Plans     repos.PlanRepo
	Proposals repos.ProposalRepo
	Decisions repos.ProposalDecisionRepo
	Slots     repos.SlotRepo
	SlotFiles repos.SlotFileRepo
	Reports   repos.ReportRepo
	Ledgers   repos.LedgerRepo
	Audit     repos.AuditRepo
}

type proposalAggregate struct {
	deps   ProposalAggregateDeps
	ledger ledgerOps
}

func NewProposalAggregate(deps ProposalAggregateDeps) domainagg.ProposalAggregate {
	deps.Base = deps.Base.withDefaults()
	return &proposalAggregate{deps: deps, ledger: ledgerOps{ledgers: deps.Ledgers}}
}

// validateUploads checks a document batch against the declared slot schema.
// Unknown slot names are rejected; when requireAll is set every required slot
// must be covered by the batch.
func validateUploads(schema []config.SlotDef, docs []domainagg.SlotUpload, requireAll bool) error {
	known := make(map[string]bool, len(schema))
	for _, def := range schema {
		known[def.Name] = true
	}
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if doc.Name == "" || doc.FileRef == "" {
			return ValidationError("every document needs a slot name and a file reference")
		}
		if !known[doc.Name] {
			return ValidationError(fmt.Sprintf("unknown document slot %q", doc.Name))
		}
		if seen[doc.Name] {
			return ValidationError(fmt.Sprintf("duplicate document slot %q", doc.Name))
		}
		seen[doc.Name] = true
	}
	if requireAll {
		for _, def := range schema {
			if def.Required && !seen[def.Name] {
				return ValidationError(fmt.Sprintf("required document slot %q is missing", def.Name))
			}
		}
	}
	return nil
}

// createStage materializes one stage's declared slots with their initial
// files, plus WAITING decision rows for both review tiers of that stage.
func (a *proposalAggregate) createStage(dbc dbctx.Context, proposalID uuid.UUID, actorID uuid.UUID, cfg config.Snapshot, stage workflow.Stage, docs []domainagg.SlotUpload) error {
	byName := make(map[string]string, len(docs))
	for _, doc := range docs {
		byName[doc.Name] = doc.FileRef
	}

	schema := cfg.Slots(stage)
	slots := make([]*types.DocumentSlot, 0, len(schema))
	for _, def := range schema {
		slots = append(slots, &types.DocumentSlot{
			ID:         uuid.New(),
			ProposalID: proposalID,
			Stage:      stage,
			Name:       def.Name,
			Required:   def.Required,
		})
	}
	if err := a.deps.Slots.CreateMany(dbc.Ctx, dbc.Tx, slots); err != nil {
		return err
	}
	for _, slot := range slots {
		ref, ok := byName[slot.Name]
		if !ok {
			continue
		}
		file := &types.SlotFile{
			ID:         uuid.New(),
			SlotID:     slot.ID,
			FileRef:    ref,
			UploadedBy: actorID,
		}
		if err := a.deps.SlotFiles.Create(dbc.Ctx, dbc.Tx, file); err != nil {
			return err
		}
		if err := a.deps.Slots.SetCurrentFile(dbc.Ctx, dbc.Tx, slot.ID, file.ID); err != nil {
			return err
		}
	}

	var decisions []*types.ProposalDecision
	for _, tier := range []workflow.Tier{workflow.TierInternal, workflow.TierExternal} {
		for _, role := range cfg.GateRoles(stage, tier) {
			decisions = append(decisions, &types.ProposalDecision{
				ID:         uuid.New(),
				ProposalID: proposalID,
				Stage:      stage,
				Tier:       tier,
				Role:       role,
				Status:     workflow.DecisionWaiting,
			})
		}
	}
	return a.deps.Decisions.CreateMany(dbc.Ctx, dbc.Tx, decisions)
}

func (a *proposalAggregate) finish(dbc dbctx.Context, proposalID uuid.UUID, planID uuid.UUID, out *domainagg.ProposalResult, entry *types.AuditEntry, ledger *domainagg.LedgerSnapshot) error {
	if err := a.deps.Audit.Append(dbc.Ctx, dbc.Tx, entry); err != nil {
		return err
	}
	if ledger == nil {
		snap, err := a.ledger.snapshot(dbc, planID)
		if err != nil {
			return err
		}
		ledger = &snap
	}
	full, err := a.deps.Proposals.GetFull(dbc.Ctx, dbc.Tx, proposalID)
	if err != nil {
		return err
	}
	out.Proposal = full
	out.Ledger = *ledger
	out.Audit = entry
	return nil
}

func (a *proposalAggregate) Submit(ctx context.Context, in domainagg.SubmitProposalInput) (domainagg.ProposalResult, error) {
	const op = "Proposal.Submit"
	var out domainagg.ProposalResult

	if in.PlanID == uuid.Nil || in.DivisionID == uuid.Nil {
		return out, MapError(op, ValidationError("plan id and division id are required"))
	}
	if in.Title == "" {
		return out, MapError(op, ValidationError("title is required"))
	}
	if in.RequestedBudget <= 0 {
		return out, MapError(op, ValidationError("requested budget must be positive"))
	}
	if len(in.Documents) == 0 {
		return out, MapError(op, ValidationError("at least one document is required"))
	}
	if err := validateUploads(in.Cfg.Slots(workflow.StageProposal), in.Documents, true); err != nil {
		return out, MapError(op, err)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		plan, err := a.deps.Plans.GetByID(dbc.Ctx, dbc.Tx, in.PlanID)
		if err != nil {
			return err
		}
		if plan.Status != workflow.PlanApproved {
			return PreconditionError("plan is not approved")
		}

		// The hold happens before anything else is written: if the ceiling
		// check fails the whole transaction rolls back and no proposal row
		// ever becomes visible.
		snap, err := a.ledger.hold(dbc, plan.ID, in.RequestedBudget)
		if err != nil {
			return err
		}

		proposal := &types.ActivityProposal{
			ID:              uuid.New(),
			PlanID:          plan.ID,
			OrgID:           plan.OrgID,
			DivisionID:      in.DivisionID,
			Title:           in.Title,
			Status:          workflow.ProposalWaitingInternal,
			RequestedBudget: in.RequestedBudget,
		}
		if err := a.deps.Proposals.Create(dbc.Ctx, dbc.Tx, proposal); err != nil {
			return err
		}
		if err := a.createStage(dbc, proposal.ID, in.Actor.ID, in.Cfg, workflow.StageProposal, in.Documents); err != nil {
			return err
		}

		entry := &types.AuditEntry{
			ID:           uuid.New(),
			DocumentKind: types.DocumentKindProposal,
			DocumentID:   proposal.ID,
			Action:       types.AuditProposalSubmitted,
			ActorID:      in.Actor.ID,
			Context:      auditContext(map[string]any{"requested_budget": in.RequestedBudget}),
		}
		return a.finish(dbc, proposal.ID, plan.ID, &out, entry, &snap)
	})
	return out, err
}

func (a *proposalAggregate) Review(ctx context.Context, in domainagg.ReviewProposalInput) (domainagg.ProposalResult, error) {
	return a.reviewGate(ctx, "Proposal.Review", workflow.StageProposal, types.AuditProposalReviewed, gateReview{
		proposalID:    in.ProposalID,
		actor:         in.Actor,
		cfg:           in.Cfg,
		role:          in.Role,
		tier:          in.Tier,
		decision:      in.Decision,
		note:          in.Note,
		attachmentRef: in.AttachmentRef,
	})
}

// gateReview carries the fields common to proposal-stage and report-stage
// review calls.
type gateReview struct {
	proposalID    uuid.UUID
	actor         domainagg.Actor
	cfg           config.Snapshot
	role          workflow.Role
	tier          workflow.Tier
	decision      workflow.DecisionStatus
	note          string
	attachmentRef string
}

func (a *proposalAggregate) reviewGate(ctx context.Context, op string, stage workflow.Stage, action string, in gateReview) (domainagg.ProposalResult, error) {
	var out domainagg.ProposalResult

	if in.decision != workflow.DecisionApproved && in.decision != workflow.DecisionRejected {
		return out, MapError(op, ValidationError("decision must be APPROVED or REJECTED"))
	}
	if in.decision == workflow.DecisionRejected && in.note == "" {
		return out, MapError(op, ValidationError("a note is required when rejecting"))
	}
	if in.tier != workflow.TierInternal && in.tier != workflow.TierExternal {
		return out, MapError(op, ValidationError("tier must be INTERNAL or EXTERNAL"))
	}
	if !workflow.HasRole(in.cfg.GateRoles(stage, in.tier), in.role) {
		return out, MapError(op, UnauthorizedError("role is not a reviewer of this gate"))
	}
	if !workflow.HasRole(in.actor.Roles, in.role) {
		return out, MapError(op, UnauthorizedError("actor does not hold the acting role"))
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		proposal, err := a.deps.Proposals.GetByID(dbc.Ctx, dbc.Tx, in.proposalID)
		if err != nil {
			return err
		}
		if proposal.Status != workflow.WaitingStatus(stage, in.tier) {
			return PreconditionError("proposal is not waiting on this gate")
		}

		now := time.Now().UTC()
		if err := a.deps.Decisions.Update(dbc.Ctx, dbc.Tx, proposal.ID, stage, in.tier, in.role, map[string]any{
			"status":         in.decision,
			"note":           in.note,
			"reviewer_id":    in.actor.ID,
			"acting_role":    in.actor.ActingRole,
			"reviewed_at":    now,
			"attachment_ref": in.attachmentRef,
			"updated_at":     now,
		}); err != nil {
			return err
		}

		decisions, err := a.deps.Decisions.ListByGate(dbc.Ctx, dbc.Tx, proposal.ID, stage, in.tier)
		if err != nil {
			return err
		}
		byRole := make(map[workflow.Role]workflow.DecisionStatus, len(decisions))
		for _, d := range decisions {
			byRole[d.Role] = d.Status
		}

		var next workflow.ProposalStatus
		switch workflow.Fold(byRole, in.cfg.GateRoles(stage, in.tier)) {
		case workflow.OutcomeAdvance:
			next = workflow.AdvanceStatus(stage, in.tier)
		case workflow.OutcomeRevise:
			next = workflow.RevisionStatus(stage, in.tier)
		}
		if next != "" {
			ok, err := a.deps.Base.CASGuard.UpdateBySequence(dbc, types.ActivityProposal{}.TableName(), proposal.ID, proposal.Sequence, map[string]any{
				"status":     next,
				"updated_at": now,
			})
			if err != nil {
				return err
			}
			if err := RequireCASSuccess(ok, "proposal was modified concurrently"); err != nil {
				return err
			}
			if next == workflow.ProposalDone {
				if err := a.deps.Reports.Update(dbc.Ctx, dbc.Tx, proposal.ID, map[string]any{
					"status":     types.ReportStatusAccepted,
					"updated_at": now,
				}); err != nil {
					return err
				}
			}
		}

		entry := &types.AuditEntry{
			ID:            uuid.New(),
			DocumentKind:  types.DocumentKindProposal,
			DocumentID:    proposal.ID,
			Action:        action,
			ActorID:       in.actor.ID,
			Role:          in.role,
			Note:          in.note,
			AttachmentRef: in.attachmentRef,
		}
		return a.finish(dbc, proposal.ID, proposal.PlanID, &out, entry, nil)
	})
	return out, err
}

func (a *proposalAggregate) Resubmit(ctx context.Context, in domainagg.ResubmitProposalInput) (domainagg.ProposalResult, error) {
	const op = "Proposal.Resubmit"
	var out domainagg.ProposalResult

	if in.RequestedBudget != nil && *in.RequestedBudget <= 0 {
		return out, MapError(op, ValidationError("requested budget must be positive"))
	}
	if err := validateUploads(in.Cfg.Slots(workflow.StageProposal), in.Replacements, false); err != nil {
		return out, MapError(op, err)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		proposal, err := a.deps.Proposals.GetByID(dbc.Ctx, dbc.Tx, in.ProposalID)
		if err != nil {
			return err
		}
		if err := RequireStatusAllowed(string(proposal.Status),
			string(workflow.ProposalRevisionInternal), string(workflow.ProposalRevisionExternal)); err != nil {
			return err
		}
		stage, tier, _ := workflow.GateFor(proposal.Status)

		updates := map[string]any{
			"status":     workflow.WaitingStatus(stage, tier),
			"updated_at": time.Now().UTC(),
		}
		var snap *domainagg.LedgerSnapshot
		if in.RequestedBudget != nil && *in.RequestedBudget != proposal.RequestedBudget {
			// The hold tracks the latest requested figure, so a revision that
			// raises the budget re-runs the ceiling check for the difference.
			s, err := a.ledger.adjust(dbc, proposal.PlanID, *in.RequestedBudget-proposal.RequestedBudget)
			if err != nil {
				return err
			}
			snap = &s
			updates["requested_budget"] = *in.RequestedBudget
		}

		if err := a.replaceFiles(dbc, proposal.ID, stage, in.Actor.ID, in.Replacements); err != nil {
			return err
		}

		// Only the rejecting tier's decisions reset; the other gate's
		// verdicts stand.
		if err := a.deps.Decisions.ResetGate(dbc.Ctx, dbc.Tx, proposal.ID, stage, tier); err != nil {
			return err
		}

		ok, err := a.deps.Base.CASGuard.UpdateBySequence(dbc, types.ActivityProposal{}.TableName(), proposal.ID, proposal.Sequence, updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "proposal was modified concurrently"); err != nil {
			return err
		}

		entry := &types.AuditEntry{
			ID:           uuid.New(),
			DocumentKind: types.DocumentKindProposal,
			DocumentID:   proposal.ID,
			Action:       types.AuditProposalResubmitted,
			ActorID:      in.Actor.ID,
			Note:         in.Note,
		}
		if in.RequestedBudget != nil {
			entry.Context = auditContext(map[string]any{"requested_budget": *in.RequestedBudget})
		}
		return a.finish(dbc, proposal.ID, proposal.PlanID, &out, entry, snap)
	})
	return out, err
}

// replaceFiles archives each replaced slot's current file and installs the
// new one. Slots not named in the batch keep their current file.
func (a *proposalAggregate) replaceFiles(dbc dbctx.Context, proposalID uuid.UUID, stage workflow.Stage, actorID uuid.UUID, docs []domainagg.SlotUpload) error {
	if len(docs) == 0 {
		return nil
	}
	slots, err := a.deps.Slots.ListByStage(dbc.Ctx, dbc.Tx, proposalID, stage)
	if err != nil {
		return err
	}
	byName := make(map[string]*types.DocumentSlot, len(slots))
	for _, slot := range slots {
		byName[slot.Name] = slot
	}
	for _, doc := range docs {
		slot, ok := byName[doc.Name]
		if !ok {
			return ValidationError(fmt.Sprintf("unknown document slot %q", doc.Name))
		}
		if slot.CurrentFileID != nil {
			if err := a.deps.SlotFiles.Archive(dbc.Ctx, dbc.Tx, *slot.CurrentFileID); err != nil {
				return err
			}
		}
		file := &types.SlotFile{
			ID:         uuid.New(),
			SlotID:     slot.ID,
			FileRef:    doc.FileRef,
			UploadedBy: actorID,
		}
		if err := a.deps.SlotFiles.Create(dbc.Ctx, dbc.Tx, file); err != nil {
			return err
		}
		if err := a.deps.Slots.SetCurrentFile(dbc.Ctx, dbc.Tx, slot.ID, file.ID); err != nil {
			return err
		}
	}
	return nil
}

func (a *proposalAggregate) Complete(ctx context.Context, in domainagg.CompleteProposalInput) (domainagg.ProposalResult, error) {
	const op = "Proposal.Complete"
	var out domainagg.ProposalResult

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		proposal, err := a.deps.Proposals.GetByID(dbc.Ctx, dbc.Tx, in.ProposalID)
		if err != nil {
			return err
		}
		if proposal.Status != workflow.ProposalApproved {
			return PreconditionError("only an approved proposal can be completed")
		}
		ok, err := a.deps.Base.CASGuard.UpdateBySequence(dbc, types.ActivityProposal{}.TableName(), proposal.ID, proposal.Sequence, map[string]any{
			"status":     workflow.ProposalCompleted,
			"updated_at": time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "proposal was modified concurrently"); err != nil {
			return err
		}
		entry := &types.AuditEntry{
			ID:           uuid.New(),
			DocumentKind: types.DocumentKindProposal,
			DocumentID:   proposal.ID,
			Action:       types.AuditProposalCompleted,
			ActorID:      in.Actor.ID,
			Note:         in.Note,
		}
		return a.finish(dbc, proposal.ID, proposal.PlanID, &out, entry, nil)
	})
	return out, err
}

func (a *proposalAggregate) Withdraw(ctx context.Context, in domainagg.WithdrawProposalInput) (domainagg.ProposalResult, error) {
	const op = "Proposal.Withdraw"
	var out domainagg.ProposalResult

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		proposal, err := a.deps.Proposals.GetByID(dbc.Ctx, dbc.Tx, in.ProposalID)
		if err != nil {
			return err
		}
		if err := RequireStatusAllowed(string(proposal.Status),
			string(workflow.ProposalWaitingInternal), string(workflow.ProposalRevisionInternal),
			string(workflow.ProposalWaitingExternal), string(workflow.ProposalRevisionExternal)); err != nil {
			return err
		}

		// Withdrawal is the one path that gives the reservation back.
		var snap *domainagg.LedgerSnapshot
		if workflow.LedgerHeld(proposal.Status) {
			released, err := a.ledger.release(dbc, proposal.PlanID, proposal.RequestedBudget)
			if err != nil {
				return err
			}
			snap = &released
		}

		ok, err := a.deps.Base.CASGuard.UpdateBySequence(dbc, types.ActivityProposal{}.TableName(), proposal.ID, proposal.Sequence, map[string]any{
			"status":     workflow.ProposalWithdrawn,
			"updated_at": time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "proposal was modified concurrently"); err != nil {
			return err
		}

		entry := &types.AuditEntry{
			ID:           uuid.New(),
			DocumentKind: types.DocumentKindProposal,
			DocumentID:   proposal.ID,
			Action:       types.AuditProposalWithdrawn,
			ActorID:      in.Actor.ID,
			Note:         in.Note,
		}
		return a.finish(dbc, proposal.ID, proposal.PlanID, &out, entry, snap)
	})
	return out, err
}
