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

type PlanDecisionRepo interface {
	CreateMany(ctx context.Context, tx *gorm.DB, decisions []*types.PlanDecision) error
	ListByPlanID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.PlanDecision, error)
	Update(ctx context.Context, tx *gorm.DB, planID uuid.UUID, role workflow.Role, updates map[string]any) error
	// ResetAll flips every decision of the plan back to WAITING and clears
	// the reviewer fields. Used on resubmission: a changed document
	// invalidates every prior decision, not just the rejecting one.
	ResetAll(ctx context.Context, tx *gorm.DB, planID uuid.UUID) error
}

type planDecisionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanDecisionRepo(db *gorm.DB, baseLog *logger.Logger) PlanDecisionRepo {
	return &planDecisionRepo{db: db, log: baseLog.With("repo", "PlanDecisionRepo")}
}

func (r *planDecisionRepo) CreateMany(ctx context.Context, tx *gorm.DB, decisions []*types.PlanDecision) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(decisions) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&decisions).Error
}

func (r *planDecisionRepo) ListByPlanID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.PlanDecision, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.PlanDecision
	if err := transaction.WithContext(ctx).
		Where("plan_id = ?", planID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *planDecisionRepo) Update(ctx context.Context, tx *gorm.DB, planID uuid.UUID, role workflow.Role, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.PlanDecision{}).
		Where("plan_id = ? AND role = ?", planID, role).
		Updates(updates).Error
}

func (r *planDecisionRepo) ResetAll(ctx context.Context, tx *gorm.DB, planID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.PlanDecision{}).
		Where("plan_id = ?", planID).
		Updates(map[string]any{
			"status":         workflow.DecisionWaiting,
			"note":           "",
			"reviewer_id":    nil,
			"acting_role":    "",
			"reviewed_at":    nil,
			"attachment_ref": "",
			"amount":         nil,
			"updated_at":     time.Now().UTC(),
		}).Error
}
