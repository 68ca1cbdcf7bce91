package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/siproka/siproka-backend/internal/domain"
	"github.com/siproka/siproka-backend/internal/domain/workflow"
	"github.com/siproka/siproka-backend/internal/platform/logger"
)

type ProposalDecisionRepo interface {
	CreateMany(ctx context.Context, tx *gorm.DB, decisions []*types.ProposalDecision) error
	ListByGate(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, stage workflow.Stage, tier workflow.Tier) ([]*types.ProposalDecision, error)
	Update(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, stage workflow.Stage, tier workflow.Tier, role workflow.Role, updates map[string]any) error
	// ResetGate flips the decisions of exactly one stage/tier gate back to
	// WAITING. Other tiers and the report's own decisions are never touched.
	ResetGate(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, stage workflow.Stage, tier workflow.Tier) error
}

type proposalDecisionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProposalDecisionRepo(db *gorm.DB, baseLog *logger.Logger) ProposalDecisionRepo {
	return &proposalDecisionRepo{db: db, log: baseLog.With("repo", "ProposalDecisionRepo")}
}

func (r *proposalDecisionRepo) CreateMany(ctx context.Context, tx *gorm.DB, decisions []*types.ProposalDecision) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(decisions) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&decisions).Error
}

func (r *proposalDecisionRepo) ListByGate(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, stage workflow.Stage, tier workflow.Tier) ([]*types.ProposalDecision, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ProposalDecision
	if err := transaction.WithContext(ctx).
		Where("proposal_id = ? AND stage = ? AND tier = ?", proposalID, stage, tier).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *proposalDecisionRepo) Update(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, stage workflow.Stage, tier workflow.Tier, role workflow.Role, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ProposalDecision{}).
		Where("proposal_id = ? AND stage = ? AND tier = ? AND role = ?", proposalID, stage, tier, role).
		Updates(updates).Error
}

func (r *proposalDecisionRepo) ResetGate(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, stage workflow.Stage, tier workflow.Tier) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ProposalDecision{}).
		Where("proposal_id = ? AND stage = ? AND tier = ?", proposalID, stage, tier).
		Updates(map[string]any{
			"status":         workflow.DecisionWaiting,
			"note":           "",
			"reviewer_id":    nil,
			"acting_role":    "",
			"reviewed_at":    nil,
			"attachment_ref": "",
			"updated_at":     time.Now().UTC(),
		}).Error
}
