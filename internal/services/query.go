package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siproka/siproka-backend/internal/data/repos"
	types "github.com/siproka/siproka-backend/internal/domain"
	domainagg "github.com/siproka/siproka-backend/internal/domain/aggregates"
	"github.com/siproka/siproka-backend/internal/domain/workflow"
	"github.com/siproka/siproka-backend/internal/platform/ctxutil"
	"github.com/siproka/siproka-backend/internal/platform/logger"
)

// PlanView is the read projection of a plan with its ledger, when one exists.
type PlanView struct {
	Plan   *types.PlanDocument       `json:"plan"`
	Ledger *domainagg.LedgerSnapshot `json:"ledger,omitempty"`
}

// ProposalView decorates each document slot with its revision count so
// reviewers can tell at a glance how often a file was replaced.
type ProposalView struct {
	Proposal     *types.ActivityProposal   `json:"proposal"`
	SlotVersions map[string]int64          `json:"slot_versions"`
	Ledger       *domainagg.LedgerSnapshot `json:"ledger,omitempty"`
}

// QueryService is the read side: full documents, audit history and the
// comment thread. It never mutates workflow state.
type QueryService interface {
	GetPlan(ctx context.Context, planID uuid.UUID) (*PlanView, error)
	GetPlanByOrgPeriod(ctx context.Context, orgID uuid.UUID, period string) (*PlanView, error)
	GetPlanLedger(ctx context.Context, planID uuid.UUID) (*domainagg.LedgerSnapshot, error)
	GetProposal(ctx context.Context, proposalID uuid.UUID) (*ProposalView, error)
	ListProposals(ctx context.Context, planID uuid.UUID) ([]*types.ActivityProposal, error)
	GetHistory(ctx context.Context, documentKind string, documentID uuid.UUID) ([]*types.AuditEntry, error)

	AddComment(ctx context.Context, proposalID uuid.UUID, role workflow.Role, body string) (*types.Comment, error)
	ListComments(ctx context.Context, proposalID uuid.UUID) ([]*types.Comment, error)
	DeleteComment(ctx context.Context, commentID uuid.UUID) error
}

type queryService struct {
	db        *gorm.DB
	log       *logger.Logger
	plans     repos.PlanRepo
	proposals repos.ProposalRepo
	slotFiles repos.SlotFileRepo
	ledgers   repos.LedgerRepo
	audit     repos.AuditRepo
	comments  repos.CommentRepo
}

func NewQueryService(
	db *gorm.DB,
	baseLog *logger.Logger,
	plans repos.PlanRepo,
	proposals repos.ProposalRepo,
	slotFiles repos.SlotFileRepo,
	ledgers repos.LedgerRepo,
	audit repos.AuditRepo,
	comments repos.CommentRepo,
) QueryService {
	return &queryService{
		db:        db,
		log:       baseLog.With("service", "QueryService"),
		plans:     plans,
		proposals: proposals,
		slotFiles: slotFiles,
		ledgers:   ledgers,
		audit:     audit,
		comments:  comments,
	}
}

func (s *queryService) ledgerSnapshot(ctx context.Context, planID uuid.UUID) (*domainagg.LedgerSnapshot, error) {
	ledger, err := s.ledgers.GetByPlanID(ctx, s.db, planID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domainagg.LedgerSnapshot{
		Ceiling:   ledger.Ceiling,
		Committed: ledger.Committed,
		Available: ledger.Available(),
	}, nil
}

func (s *queryService) planView(ctx context.Context, plan *types.PlanDocument) (*PlanView, error) {
	snap, err := s.ledgerSnapshot(ctx, plan.ID)
	if err != nil {
		return nil, MapReadError("Query.GetPlan", err)
	}
	return &PlanView{Plan: plan, Ledger: snap}, nil
}

func (s *queryService) GetPlan(ctx context.Context, planID uuid.UUID) (*PlanView, error) {
	plan, err := s.plans.GetFull(ctx, s.db, planID)
	if err != nil {
		return nil, MapReadError("Query.GetPlan", err)
	}
	return s.planView(ctx, plan)
}

func (s *queryService) GetPlanByOrgPeriod(ctx context.Context, orgID uuid.UUID, period string) (*PlanView, error) {
	head, err := s.plans.GetByOrgPeriod(ctx, s.db, orgID, period)
	if err != nil {
		return nil, MapReadError("Query.GetPlanByOrgPeriod", err)
	}
	plan, err := s.plans.GetFull(ctx, s.db, head.ID)
	if err != nil {
		return nil, MapReadError("Query.GetPlanByOrgPeriod", err)
	}
	return s.planView(ctx, plan)
}

// GetPlanLedger returns the ledger alone, requiring an approved plan; before
// approval there is no ledger row and the call is a not_found.
func (s *queryService) GetPlanLedger(ctx context.Context, planID uuid.UUID) (*domainagg.LedgerSnapshot, error) {
	ledger, err := s.ledgers.GetByPlanID(ctx, s.db, planID)
	if err != nil {
		return nil, MapReadError("Query.GetPlanLedger", err)
	}
	return &domainagg.LedgerSnapshot{
		Ceiling:   ledger.Ceiling,
		Committed: ledger.Committed,
		Available: ledger.Available(),
	}, nil
}

func (s *queryService) GetProposal(ctx context.Context, proposalID uuid.UUID) (*ProposalView, error) {
	proposal, err := s.proposals.GetFull(ctx, s.db, proposalID)
	if err != nil {
		return nil, MapReadError("Query.GetProposal", err)
	}

	// A slot's version is the count of archived files plus the current one.
	versions := make(map[string]int64, len(proposal.Slots))
	for _, slot := range proposal.Slots {
		archived, err := s.slotFiles.CountArchived(ctx, s.db, slot.ID)
		if err != nil {
			return nil, MapReadError("Query.GetProposal", err)
		}
		v := archived
		if slot.CurrentFileID != nil {
			v++
		}
		versions[string(slot.Stage)+"/"+slot.Name] = v
	}

	snap, err := s.ledgerSnapshot(ctx, proposal.PlanID)
	if err != nil {
		return nil, MapReadError("Query.GetProposal", err)
	}
	return &ProposalView{Proposal: proposal, SlotVersions: versions, Ledger: snap}, nil
}

func (s *queryService) ListProposals(ctx context.Context, planID uuid.UUID) ([]*types.ActivityProposal, error) {
	out, err := s.proposals.ListByPlanID(ctx, s.db, planID)
	if err != nil {
		return nil, MapReadError("Query.ListProposals", err)
	}
	return out, nil
}

func (s *queryService) GetHistory(ctx context.Context, documentKind string, documentID uuid.UUID) ([]*types.AuditEntry, error) {
	documentKind = strings.ToLower(strings.TrimSpace(documentKind))
	if documentKind != types.DocumentKindPlan && documentKind != types.DocumentKindProposal {
		return nil, domainagg.NewError(domainagg.CodeValidation, "Query.GetHistory", "document kind must be plan or proposal", nil)
	}
	out, err := s.audit.ListByDocument(ctx, s.db, documentKind, documentID)
	if err != nil {
		return nil, MapReadError("Query.GetHistory", err)
	}
	return out, nil
}

func (s *queryService) AddComment(ctx context.Context, proposalID uuid.UUID, role workflow.Role, body string) (*types.Comment, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return nil, domainagg.NewError(domainagg.CodeUnauthorized, "Query.AddComment", "no authenticated actor on request", nil)
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, "Query.AddComment", "comment body must not be empty", nil)
	}
	if _, err := s.proposals.GetByID(ctx, s.db, proposalID); err != nil {
		return nil, MapReadError("Query.AddComment", err)
	}
	comment := &types.Comment{
		ID:         uuid.New(),
		ProposalID: proposalID,
		AuthorID:   rd.ActorID,
		Role:       role,
		Body:       body,
	}
	if err := s.comments.Create(ctx, s.db, comment); err != nil {
		return nil, MapReadError("Query.AddComment", err)
	}
	return comment, nil
}

func (s *queryService) ListComments(ctx context.Context, proposalID uuid.UUID) ([]*types.Comment, error) {
	out, err := s.comments.ListByProposalID(ctx, s.db, proposalID)
	if err != nil {
		return nil, MapReadError("Query.ListComments", err)
	}
	return out, nil
}

func (s *queryService) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	if err := s.comments.SoftDelete(ctx, s.db, commentID); err != nil {
		return MapReadError("Query.DeleteComment", err)
	}
	return nil
}

// MapReadError maps read-side failures into the same typed error scheme the
// aggregates use, so HTTP status mapping stays uniform.
func MapReadError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*domainagg.Error); ok {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainagg.Wrap(domainagg.CodeNotFound, op, err)
	}
	return domainagg.Wrap(domainagg.CodeInternal, op, err)
}
