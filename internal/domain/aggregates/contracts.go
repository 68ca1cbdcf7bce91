package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/siproka/siproka-backend/internal/config"
	types "github.com/siproka/siproka-backend/internal/domain"
	"github.com/siproka/siproka-backend/internal/domain/workflow"
)

// Actor is the resolved caller of a mutation. Roles is the actor's effective
// role set for this request (granted roles plus an explicit master-override
// delegation); ActingRole, when set, is the delegated role the action is
// performed under and is what the audit trail records.
type Actor struct {
	ID         uuid.UUID
	Roles      []workflow.Role
	ActingRole workflow.Role
}

// LedgerSnapshot is the read-only view of a plan's ledger returned with
// every proposal mutation.
type LedgerSnapshot struct {
	Ceiling   int64 `json:"ceiling"`
	Committed int64 `json:"committed"`
	Available int64 `json:"available"`
}

// SlotUpload pairs a declared slot name with the blob reference of the file
// to place in it. The blob must already be durably stored; no aggregate ever
// waits on external I/O inside its transaction.
type SlotUpload struct {
	Name    string
	FileRef string
}

// PlanResult is the collaborator contract of plan mutations: the new state,
// and the audit entry the mutation appended.
type PlanResult struct {
	Plan  *types.PlanDocument `json:"plan"`
	Audit *types.AuditEntry   `json:"audit"`
}

// ProposalResult additionally carries the plan ledger snapshot taken inside
// the same transaction.
type ProposalResult struct {
	Proposal *types.ActivityProposal `json:"proposal"`
	Ledger   LedgerSnapshot          `json:"ledger"`
	Audit    *types.AuditEntry       `json:"audit"`
}

type SubmitPlanInput struct {
	Actor          Actor
	Cfg            config.Snapshot
	OrgID          uuid.UUID
	Period         string
	FileRef        string
	ProposedBudget int64
	ChangeLog      string
}

type ReviewPlanInput struct {
	Actor         Actor
	Cfg           config.Snapshot
	PlanID        uuid.UUID
	Role          workflow.Role
	Decision      workflow.DecisionStatus
	Note          string
	Amount        *int64
	AttachmentRef string
}

type SubmitProposalInput struct {
	Actor           Actor
	Cfg             config.Snapshot
	PlanID          uuid.UUID
	DivisionID      uuid.UUID
	Title           string
	RequestedBudget int64
	Documents       []SlotUpload
}

type ReviewProposalInput struct {
	Actor         Actor
	Cfg           config.Snapshot
	ProposalID    uuid.UUID
	Role          workflow.Role
	Tier          workflow.Tier
	Decision      workflow.DecisionStatus
	Note          string
	AttachmentRef string
}

type ResubmitProposalInput struct {
	Actor           Actor
	Cfg             config.Snapshot
	ProposalID      uuid.UUID
	RequestedBudget *int64 // nil keeps the current figure
	Replacements    []SlotUpload
	Note            string
}

type CompleteProposalInput struct {
	Actor      Actor
	ProposalID uuid.UUID
	Note       string
}

type WithdrawProposalInput struct {
	Actor      Actor
	ProposalID uuid.UUID
	Note       string
}

type SubmitReportInput struct {
	Actor          Actor
	Cfg            config.Snapshot
	ProposalID     uuid.UUID
	RealizedBudget int64
	Documents      []SlotUpload
}

type ReviewReportInput struct {
	Actor         Actor
	Cfg           config.Snapshot
	ProposalID    uuid.UUID
	Role          workflow.Role
	Tier          workflow.Tier
	Decision      workflow.DecisionStatus
	Note          string
	AttachmentRef string
}

type ResubmitReportInput struct {
	Actor          Actor
	Cfg            config.Snapshot
	ProposalID     uuid.UUID
	RealizedBudget *int64
	Replacements   []SlotUpload
	Note           string
}

// PlanAggregate owns the plan document lifecycle: submission, revision
// loops and the multi-role review that sets the budget ceiling.
type PlanAggregate interface {
	Submit(ctx context.Context, in SubmitPlanInput) (PlanResult, error)
	Review(ctx context.Context, in ReviewPlanInput) (PlanResult, error)
}

// ProposalAggregate owns the activity proposal lifecycle across both review
// tiers, execution, the closing report and the plan's budget ledger.
type ProposalAggregate interface {
	Submit(ctx context.Context, in SubmitProposalInput) (ProposalResult, error)
	Review(ctx context.Context, in ReviewProposalInput) (ProposalResult, error)
	Resubmit(ctx context.Context, in ResubmitProposalInput) (ProposalResult, error)
	Complete(ctx context.Context, in CompleteProposalInput) (ProposalResult, error)
	Withdraw(ctx context.Context, in WithdrawProposalInput) (ProposalResult, error)
	SubmitReport(ctx context.Context, in SubmitReportInput) (ProposalResult, error)
	ReviewReport(ctx context.Context, in ReviewReportInput) (ProposalResult, error)
	ResubmitReport(ctx context.Context, in ResubmitReportInput) (ProposalResult, error)
}
