package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/siproka/siproka-backend/internal/domain"
	"github.com/siproka/siproka-backend/internal/platform/logger"
)

type AuditRepo interface {
	// Append writes one audit entry. It is always called inside the same
	// transaction as the state change it records; a failed append rolls the
	// whole mutation back.
	Append(ctx context.Context, tx *gorm.DB, entry *types.AuditEntry) error
	ListByDocument(ctx context.Context, tx *gorm.DB, documentKind string, documentID uuid.UUID) ([]*types.AuditEntry, error)
}

type auditRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditRepo(db *gorm.DB, baseLog *logger.Logger) AuditRepo {
	return &auditRepo{db: db, log: baseLog.With("repo", "AuditRepo")}
}

func (r *auditRepo) Append(ctx context.Context, tx *gorm.DB, entry *types.AuditEntry) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(entry).Error
}

func (r *auditRepo) ListByDocument(ctx context.Context, tx *gorm.DB, documentKind string, documentID uuid.UUID) ([]*types.AuditEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.AuditEntry
	if err := transaction.WithContext(ctx).
		Where("document_kind = ? AND document_id = ?", documentKind, documentID).
		Order("seq ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
