package aggregates

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/siproka/siproka-backend/internal/domain"
	domainagg "github.com/siproka/siproka-backend/internal/domain/aggregates"
	"github.com/siproka/siproka-backend/internal/domain/workflow"
	"github.com/siproka/siproka-backend/internal/platform/dbctx"
)

func (a *proposalAggregate) SubmitReport(ctx context.Context, in domainagg.SubmitReportInput) (domainagg.ProposalResult, error) {
	const op = "Report.Submit"
	var out domainagg.ProposalResult

	if in.RealizedBudget <= 0 {
		return out, MapError(op, ValidationError("realized budget must be positive"))
	}
	if len(in.Documents) == 0 {
		return out, MapError(op, ValidationError("at least one document is required"))
	}
	if err := validateUploads(in.Cfg.Slots(workflow.StageReport), in.Documents, true); err != nil {
		return out, MapError(op, err)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		proposal, err := a.deps.Proposals.GetByID(dbc.Ctx, dbc.Tx, in.ProposalID)
		if err != nil {
			return err
		}
		if err := RequireStatusAllowed(string(proposal.Status),
			string(workflow.ProposalApproved), string(workflow.ProposalCompleted)); err != nil {
			return err
		}
		if _, err := a.deps.Reports.GetByProposalID(dbc.Ctx, dbc.Tx, proposal.ID); err == nil {
			return PreconditionError("a report was already submitted for this proposal")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		report := &types.ReportingRecord{
			ID:             uuid.New(),
			ProposalID:     proposal.ID,
			RealizedBudget: in.RealizedBudget,
			Status:         types.ReportStatusUnderReview,
			SubmittedBy:    in.Actor.ID,
		}
		if err := a.deps.Reports.Create(dbc.Ctx, dbc.Tx, report); err != nil {
			return err
		}
		if err := a.createStage(dbc, proposal.ID, in.Actor.ID, in.Cfg, workflow.StageReport, in.Documents); err != nil {
			return err
		}

		ok, err := a.deps.Base.CASGuard.UpdateBySequence(dbc, types.ActivityProposal{}.TableName(), proposal.ID, proposal.Sequence, map[string]any{
			"status":     workflow.ProposalWaitingReview,
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
			Action:       types.AuditReportSubmitted,
			ActorID:      in.Actor.ID,
			Context:      auditContext(map[string]any{"realized_budget": in.RealizedBudget}),
		}
		return a.finish(dbc, proposal.ID, proposal.PlanID, &out, entry, nil)
	})
	return out, err
}

func (a *proposalAggregate) ReviewReport(ctx context.Context, in domainagg.ReviewReportInput) (domainagg.ProposalResult, error) {
	return a.reviewGate(ctx, "Report.Review", workflow.StageReport, types.AuditReportReviewed, gateReview{
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

func (a *proposalAggregate) ResubmitReport(ctx context.Context, in domainagg.ResubmitReportInput) (domainagg.ProposalResult, error) {
	const op = "Report.Resubmit"
	var out domainagg.ProposalResult

	if in.RealizedBudget != nil && *in.RealizedBudget <= 0 {
		return out, MapError(op, ValidationError("realized budget must be positive"))
	}
	if err := validateUploads(in.Cfg.Slots(workflow.StageReport), in.Replacements, false); err != nil {
		return out, MapError(op, err)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		proposal, err := a.deps.Proposals.GetByID(dbc.Ctx, dbc.Tx, in.ProposalID)
		if err != nil {
			return err
		}
		if err := RequireStatusAllowed(string(proposal.Status),
			string(workflow.ProposalRevisionReport), string(workflow.ProposalRevisionExternalReport)); err != nil {
			return err
		}
		stage, tier, _ := workflow.GateFor(proposal.Status)

		now := time.Now().UTC()
		if in.RealizedBudget != nil {
			// Realized spend is reporting data; it never touches the ledger,
			// which tracks the approved request.
			if err := a.deps.Reports.Update(dbc.Ctx, dbc.Tx, proposal.ID, map[string]any{
				"realized_budget": *in.RealizedBudget,
				"updated_at":      now,
			}); err != nil {
				return err
			}
		}

		if err := a.replaceFiles(dbc, proposal.ID, stage, in.Actor.ID, in.Replacements); err != nil {
			return err
		}
		if err := a.deps.Decisions.ResetGate(dbc.Ctx, dbc.Tx, proposal.ID, stage, tier); err != nil {
			return err
		}

		ok, err := a.deps.Base.CASGuard.UpdateBySequence(dbc, types.ActivityProposal{}.TableName(), proposal.ID, proposal.Sequence, map[string]any{
			"status":     workflow.WaitingStatus(stage, tier),
			"updated_at": now,
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
			Action:       types.AuditReportResubmitted,
			ActorID:      in.Actor.ID,
			Note:         in.Note,
		}
		if in.RealizedBudget != nil {
			entry.Context = auditContext(map[string]any{"realized_budget": *in.RealizedBudget})
		}
		return a.finish(dbc, proposal.ID, proposal.PlanID, &out, entry, nil)
	})
	return out, err
}
