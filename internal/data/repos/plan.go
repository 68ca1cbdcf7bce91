package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/siproka/siproka-backend/internal/domain"
	"github.com/siproka/siproka-backend/internal/platform/logger"
)

type PlanRepo interface {
	Create(ctx context.Context, tx *gorm.DB, plan *types.PlanDocument) error
	GetByID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (*types.PlanDocument, error)
	GetByOrgPeriod(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, period string) (*types.PlanDocument, error)
	GetFull(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (*types.PlanDocument, error)
}

type planRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanRepo(db *gorm.DB, baseLog *logger.Logger) PlanRepo {
	return &planRepo{db: db, log: baseLog.With("repo", "PlanRepo")}
}

func (r *planRepo) Create(ctx context.Context, tx *gorm.DB, plan *types.PlanDocument) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(plan).Error
}

func (r *planRepo) GetByID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (*types.PlanDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var plan types.PlanDocument
	if err := transaction.WithContext(ctx).
		Where("id = ?", planID).
		First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepo) GetByOrgPeriod(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, period string) (*types.PlanDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var plan types.PlanDocument
	if err := transaction.WithContext(ctx).
		Where("org_id = ? AND period = ?", orgID, period).
		First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepo) GetFull(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (*types.PlanDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var plan types.PlanDocument
	if err := transaction.WithContext(ctx).
		Preload("Versions", func(db *gorm.DB) *gorm.DB { return db.Order("version_number ASC") }).
		Preload("Decisions", func(db *gorm.DB) *gorm.DB { return db.Order("role ASC") }).
		Where("id = ?", planID).
		First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}
