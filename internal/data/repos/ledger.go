package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/siproka/siproka-backend/internal/domain"
	"github.com/siproka/siproka-backend/internal/platform/logger"
)

type LedgerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, ledger *types.BudgetLedger) error
	GetByPlanID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (*types.BudgetLedger, error)
	// GetByPlanIDForUpdate takes the plan's ledger row lock, making the
	// enclosing transaction the single writer for that plan's budget. Every
	// check-then-commit on the ledger must go through this read.
	GetByPlanIDForUpdate(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (*types.BudgetLedger, error)
	SetCommitted(ctx context.Context, tx *gorm.DB, planID uuid.UUID, committed int64) error
}

type ledgerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLedgerRepo(db *gorm.DB, baseLog *logger.Logger) LedgerRepo {
	return &ledgerRepo{db: db, log: baseLog.With("repo", "LedgerRepo")}
}

func (r *ledgerRepo) Create(ctx context.Context, tx *gorm.DB, ledger *types.BudgetLedger) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(ledger).Error
}

func (r *ledgerRepo) GetByPlanID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (*types.BudgetLedger, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ledger types.BudgetLedger
	if err := transaction.WithContext(ctx).
		Where("plan_id = ?", planID).
		First(&ledger).Error; err != nil {
		return nil, err
	}
	return &ledger, nil
}

func (r *ledgerRepo) GetByPlanIDForUpdate(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (*types.BudgetLedger, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ledger types.BudgetLedger
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("plan_id = ?", planID).
		First(&ledger).Error; err != nil {
		return nil, err
	}
	return &ledger, nil
}

func (r *ledgerRepo) SetCommitted(ctx context.Context, tx *gorm.DB, planID uuid.UUID, committed int64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.BudgetLedger{}).
		Where("plan_id = ?", planID).
		Updates(map[string]any{
			"committed":  committed,
			"updated_at": time.Now().UTC(),
		}).Error
}
