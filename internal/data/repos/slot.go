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

type SlotRepo interface {
	CreateMany(ctx context.Context, tx *gorm.DB, slots []*types.DocumentSlot) error
	ListByStage(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, stage workflow.Stage) ([]*types.DocumentSlot, error)
	SetCurrentFile(ctx context.Context, tx *gorm.DB, slotID uuid.UUID, fileID uuid.UUID) error
}

type SlotFileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, file *types.SlotFile) error
	Archive(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) error
	CountArchived(ctx context.Context, tx *gorm.DB, slotID uuid.UUID) (int64, error)
}

type slotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSlotRepo(db *gorm.DB, baseLog *logger.Logger) SlotRepo {
	return &slotRepo{db: db, log: baseLog.With("repo", "SlotRepo")}
}

func (r *slotRepo) CreateMany(ctx context.Context, tx *gorm.DB, slots []*types.DocumentSlot) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(slots) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&slots).Error
}

func (r *slotRepo) ListByStage(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, stage workflow.Stage) ([]*types.DocumentSlot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.DocumentSlot
	if err := transaction.WithContext(ctx).
		Where("proposal_id = ? AND stage = ?", proposalID, stage).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *slotRepo) SetCurrentFile(ctx context.Context, tx *gorm.DB, slotID uuid.UUID, fileID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.DocumentSlot{}).
		Where("id = ?", slotID).
		Updates(map[string]any{
			"current_file_id": fileID,
			"updated_at":      time.Now().UTC(),
		}).Error
}

type slotFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSlotFileRepo(db *gorm.DB, baseLog *logger.Logger) SlotFileRepo {
	return &slotFileRepo{db: db, log: baseLog.With("repo", "SlotFileRepo")}
}

func (r *slotFileRepo) Create(ctx context.Context, tx *gorm.DB, file *types.SlotFile) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(file).Error
}

func (r *slotFileRepo) Archive(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.SlotFile{}).
		Where("id = ?", fileID).
		Update("archived", true).Error
}

func (r *slotFileRepo) CountArchived(ctx context.Context, tx *gorm.DB, slotID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(ctx).
		Model(&types.SlotFile{}).
		Where("slot_id = ? AND archived = ?", slotID, true).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
