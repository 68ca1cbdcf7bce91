package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/siproka/siproka-backend/internal/domain"
	"github.com/siproka/siproka-backend/internal/platform/logger"
)

type PlanVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, version *types.PlanVersion) error
	ListByPlanID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.PlanVersion, error)
}

type planVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanVersionRepo(db *gorm.DB, baseLog *logger.Logger) PlanVersionRepo {
	return &planVersionRepo{db: db, log: baseLog.With("repo", "PlanVersionRepo")}
}

func (r *planVersionRepo) Create(ctx context.Context, tx *gorm.DB, version *types.PlanVersion) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(version).Error
}

func (r *planVersionRepo) ListByPlanID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.PlanVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.PlanVersion
	if err := transaction.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("version_number ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
