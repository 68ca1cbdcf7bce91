package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/siproka/siproka-backend/internal/domain"
	"github.com/siproka/siproka-backend/internal/platform/logger"
)

type CommentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, comment *types.Comment) error
	ListByProposalID(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID) ([]*types.Comment, error)
	SoftDelete(ctx context.Context, tx *gorm.DB, commentID uuid.UUID) error
}

type commentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommentRepo(db *gorm.DB, baseLog *logger.Logger) CommentRepo {
	return &commentRepo{db: db, log: baseLog.With("repo", "CommentRepo")}
}

func (r *commentRepo) Create(ctx context.Context, tx *gorm.DB, comment *types.Comment) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(comment).Error
}

func (r *commentRepo) ListByProposalID(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID) ([]*types.Comment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Comment
	if err := transaction.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *commentRepo) SoftDelete(ctx context.Context, tx *gorm.DB, commentID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", commentID).
		Delete(&types.Comment{}).Error
}
