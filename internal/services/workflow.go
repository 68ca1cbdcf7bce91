package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/siproka/siproka-backend/internal/clients/redis"
	"github.com/siproka/siproka-backend/internal/config"
	domainagg "github.com/siproka/siproka-backend/internal/domain/aggregates"
	"github.com/siproka/siproka-backend/internal/domain/workflow"
	"github.com/siproka/siproka-backend/internal/platform/ctxutil"
	"github.com/siproka/siproka-backend/internal/platform/logger"
)

// WorkflowService is the orchestration seam between HTTP and the aggregates.
// It resolves the acting party from the request context, pins the topology
// snapshot for the call, and broadcasts an event after a committed change.
// It never opens a transaction itself; that is the aggregates' job.
type WorkflowService interface {
	SubmitPlan(ctx context.Context, in domainagg.SubmitPlanInput) (domainagg.PlanResult, error)
	ReviewPlan(ctx context.Context, actingRole workflow.Role, in domainagg.ReviewPlanInput) (domainagg.PlanResult, error)

	SubmitProposal(ctx context.Context, in domainagg.SubmitProposalInput) (domainagg.ProposalResult, error)
	ReviewProposal(ctx context.Context, actingRole workflow.Role, in domainagg.ReviewProposalInput) (domainagg.ProposalResult, error)
	ResubmitProposal(ctx context.Context, in domainagg.ResubmitProposalInput) (domainagg.ProposalResult, error)
	CompleteProposal(ctx context.Context, in domainagg.CompleteProposalInput) (domainagg.ProposalResult, error)
	WithdrawProposal(ctx context.Context, in domainagg.WithdrawProposalInput) (domainagg.ProposalResult, error)

	SubmitReport(ctx context.Context, in domainagg.SubmitReportInput) (domainagg.ProposalResult, error)
	ReviewReport(ctx context.Context, actingRole workflow.Role, in domainagg.ReviewReportInput) (domainagg.ProposalResult, error)
	ResubmitReport(ctx context.Context, in domainagg.ResubmitReportInput) (domainagg.ProposalResult, error)
}

type workflowService struct {
	log       *logger.Logger
	cfg       config.Snapshot
	plans     domainagg.PlanAggregate
	proposals domainagg.ProposalAggregate
	events    redis.EventBus
}

func NewWorkflowService(
	baseLog *logger.Logger,
	cfg config.Snapshot,
	plans domainagg.PlanAggregate,
	proposals domainagg.ProposalAggregate,
	events redis.EventBus,
) WorkflowService {
	return &workflowService{
		log:       baseLog.With("service", "WorkflowService"),
		cfg:       cfg,
		plans:     plans,
		proposals: proposals,
		events:    events,
	}
}

// resolveActor turns the identity layer's request data into the aggregate's
// actor, honoring master-override delegation.
func (s *workflowService) resolveActor(ctx context.Context, actingRole workflow.Role) (domainagg.Actor, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return domainagg.Actor{}, domainagg.NewError(domainagg.CodeUnauthorized, "resolveActor", "no authenticated actor on request", nil)
	}
	granted := make([]workflow.Role, 0, len(rd.Roles))
	for _, r := range rd.Roles {
		granted = append(granted, workflow.Role(r))
	}
	actor := domainagg.Actor{
		ID:    rd.ActorID,
		Roles: workflow.EffectiveRoles(granted, actingRole),
	}
	// Record the delegation only when it was actually honored: a non-master
	// naming a role they lack is simply not authorized as that role, and
	// must not leave a fabricated acting_role in the decision row.
	if actingRole != "" && workflow.HasRole(granted, workflow.RoleMaster) && !workflow.HasRole(granted, actingRole) {
		actor.ActingRole = actingRole
	}
	return actor, nil
}

// Event delivery is best effort; the state change already committed and must
// not be undone by a flaky broker.
func (s *workflowService) publishPlan(res domainagg.PlanResult) {
	if s.events == nil || res.Plan == nil || res.Audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.events.Publish(ctx, redis.WorkflowEvent{
		DocumentKind: "plan",
		DocumentID:   res.Plan.ID,
		Action:       res.Audit.Action,
		Status:       string(res.Plan.Status),
		ActorID:      res.Audit.ActorID,
		At:           time.Now().UTC(),
	})
	if err != nil {
		s.log.Warn("workflow event publish failed", "action", res.Audit.Action, "error", err)
	}
}

func (s *workflowService) publishProposal(res domainagg.ProposalResult) {
	if s.events == nil || res.Proposal == nil || res.Audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.events.Publish(ctx, redis.WorkflowEvent{
		DocumentKind: "proposal",
		DocumentID:   res.Proposal.ID,
		Action:       res.Audit.Action,
		Status:       string(res.Proposal.Status),
		ActorID:      res.Audit.ActorID,
		At:           time.Now().UTC(),
	})
	if err != nil {
		s.log.Warn("workflow event publish failed", "action", res.Audit.Action, "error", err)
	}
}

func (s *workflowService) SubmitPlan(ctx context.Context, in domainagg.SubmitPlanInput) (domainagg.PlanResult, error) {
	actor, err := s.resolveActor(ctx, "")
	if err != nil {
		return domainagg.PlanResult{}, err
	}
	in.Actor = actor
	in.Cfg = s.cfg
	if rd := ctxutil.GetRequestData(ctx); rd != nil && in.OrgID == uuid.Nil {
		in.OrgID = rd.OrgID
	}
	res, err := s.plans.Submit(ctx, in)
	if err != nil {
		return res, err
	}
	s.publishPlan(res)
	return res, nil
}

func (s *workflowService) ReviewPlan(ctx context.Context, actingRole workflow.Role, in domainagg.ReviewPlanInput) (domainagg.PlanResult, error) {
	actor, err := s.resolveActor(ctx, actingRole)
	if err != nil {
		return domainagg.PlanResult{}, err
	}
	in.Actor = actor
	in.Cfg = s.cfg
	res, err := s.plans.Review(ctx, in)
	if err != nil {
		return res, err
	}
	s.publishPlan(res)
	return res, nil
}

func (s *workflowService) SubmitProposal(ctx context.Context, in domainagg.SubmitProposalInput) (domainagg.ProposalResult, error) {
	actor, err := s.resolveActor(ctx, "")
	if err != nil {
		return domainagg.ProposalResult{}, err
	}
	in.Actor = actor
	in.Cfg = s.cfg
	res, err := s.proposals.Submit(ctx, in)
	if err != nil {
		return res, err
	}
	s.publishProposal(res)
	return res, nil
}

func (s *workflowService) ReviewProposal(ctx context.Context, actingRole workflow.Role, in domainagg.ReviewProposalInput) (domainagg.ProposalResult, error) {
	actor, err := s.resolveActor(ctx, actingRole)
	if err != nil {
		return domainagg.ProposalResult{}, err
	}
	in.Actor = actor
	in.Cfg = s.cfg
	res, err := s.proposals.Review(ctx, in)
	if err != nil {
		return res, err
	}
	s.publishProposal(res)
	return res, nil
}

func (s *workflowService) ResubmitProposal(ctx context.Context, in domainagg.ResubmitProposalInput) (domainagg.ProposalResult, error) {
	actor, err := s.resolveActor(ctx, "")
	if err != nil {
		return domainagg.ProposalResult{}, err
	}
	in.Actor = actor
	in.Cfg = s.cfg
	res, err := s.proposals.Resubmit(ctx, in)
	if err != nil {
		return res, err
	}
	s.publishProposal(res)
	return res, nil
}

func (s *workflowService) CompleteProposal(ctx context.Context, in domainagg.CompleteProposalInput) (domainagg.ProposalResult, error) {
	actor, err := s.resolveActor(ctx, "")
	if err != nil {
		return domainagg.ProposalResult{}, err
	}
	in.Actor = actor
	res, err := s.proposals.Complete(ctx, in)
	if err != nil {
		return res, err
	}
	s.publishProposal(res)
	return res, nil
}

func (s *workflowService) WithdrawProposal(ctx context.Context, in domainagg.WithdrawProposalInput) (domainagg.ProposalResult, error) {
	actor, err := s.resolveActor(ctx, "")
	if err != nil {
		return domainagg.ProposalResult{}, err
	}
	in.Actor = actor
	res, err := s.proposals.Withdraw(ctx, in)
	if err != nil {
		return res, err
	}
	s.publishProposal(res)
	return res, nil
}

func (s *workflowService) SubmitReport(ctx context.Context, in domainagg.SubmitReportInput) (domainagg.ProposalResult, error) {
	actor, err := s.resolveActor(ctx, "")
	if err != nil {
		return domainagg.ProposalResult{}, err
	}
	in.Actor = actor
	in.Cfg = s.cfg
	res, err := s.proposals.SubmitReport(ctx, in)
	if err != nil {
		return res, err
	}
	s.publishProposal(res)
	return res, nil
}

func (s *workflowService) ReviewReport(ctx context.Context, actingRole workflow.Role, in domainagg.ReviewReportInput) (domainagg.ProposalResult, error) {
	actor, err := s.resolveActor(ctx, actingRole)
	if err != nil {
		return domainagg.ProposalResult{}, err
	}
	in.Actor = actor
	in.Cfg = s.cfg
	res, err := s.proposals.ReviewReport(ctx, in)
	if err != nil {
		return res, err
	}
	s.publishProposal(res)
	return res, nil
}

func (s *workflowService) ResubmitReport(ctx context.Context, in domainagg.ResubmitReportInput) (domainagg.ProposalResult, error) {
	actor, err := s.resolveActor(ctx, "")
	if err != nil {
		return domainagg.ProposalResult{}, err
	}
	in.Actor = actor
	in.Cfg = s.cfg
	res, err := s.proposals.ResubmitReport(ctx, in)
	if err != nil {
		return res, err
	}
	s.publishProposal(res)
	return res, nil
}
