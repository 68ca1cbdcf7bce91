package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siproka/siproka-backend/internal/domain/workflow"
)

// Comment is the mutable discussion thread on a proposal. It is a UI feed,
// deliberately separate from the audit trail and carrying none of its
// durability or ordering guarantees.
type Comment struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProposalID uuid.UUID      `gorm:"type:uuid;not null;index" json:"proposal_id"`
	AuthorID   uuid.UUID      `gorm:"type:uuid;not null" json:"author_id"`
	Role       workflow.Role  `json:"role,omitempty"`
	Body       string         `gorm:"not null" json:"body"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Comment) TableName() string { return "comment" }
