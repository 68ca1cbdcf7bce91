package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/siproka/siproka-backend/internal/domain"
	"github.com/siproka/siproka-backend/internal/platform/logger"
)

type ReportRepo interface {
	Create(ctx context.Context, tx *gorm.DB, report *types.ReportingRecord) error
	GetByProposalID(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID) (*types.ReportingRecord, error)
	Update(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, updates map[string]any) error
}

type reportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportRepo(db *gorm.DB, baseLog *logger.Logger) ReportRepo {
	return &reportRepo{db: db, log: baseLog.With("repo", "ReportRepo")}
}

func (r *reportRepo) Create(ctx context.Context, tx *gorm.DB, report *types.ReportingRecord) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(report).Error
}

func (r *reportRepo) GetByProposalID(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID) (*types.ReportingRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var report types.ReportingRecord
	if err := transaction.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepo) Update(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ReportingRecord{}).
		Where("proposal_id = ?", proposalID).
		Updates(updates).Error
}
