package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/siproka/siproka-backend/internal/domain"
	"github.com/siproka/siproka-backend/internal/platform/logger"
)

type ProposalRepo interface {
	Create(ctx context.Context, tx *gorm.DB, proposal *types.ActivityProposal) error
	GetByID(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID) (*types.ActivityProposal, error)
	GetFull(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID) (*types.ActivityProposal, error)
	ListByPlanID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.ActivityProposal, error)
}

type proposalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProposalRepo(db *gorm.DB, baseLog *logger.Logger) ProposalRepo {
	return &proposalRepo{db: db, log: baseLog.With("repo", "ProposalRepo")}
}

func (r *proposalRepo) Create(ctx context.Context, tx *gorm.DB, proposal *types.ActivityProposal) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(proposal).Error
}

func (r *proposalRepo) GetByID(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID) (*types.ActivityProposal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var proposal types.ActivityProposal
	if err := transaction.WithContext(ctx).
		Where("id = ?", proposalID).
		First(&proposal).Error; err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (r *proposalRepo) GetFull(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID) (*types.ActivityProposal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var proposal types.ActivityProposal
	if err := transaction.WithContext(ctx).
		Preload("Slots", func(db *gorm.DB) *gorm.DB { return db.Order("stage ASC, name ASC") }).
		Preload("Slots.Files", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Decisions").
		Preload("Report").
		Where("id = ?", proposalID).
		First(&proposal).Error; err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (r *proposalRepo) ListByPlanID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.ActivityProposal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ActivityProposal
	if err := transaction.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
