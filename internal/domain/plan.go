package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/siproka/siproka-backend/internal/domain/workflow"
)

// PlanDocument is the yearly plan (RKT) of one organizational unit for one
// period. There is at most one per (org, period); it is never deleted, only
// revised through appended versions.
type PlanDocument struct {
	ID                    uuid.UUID           `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID                 uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_plan_org_period" json:"org_id"`
	Period                string              `gorm:"not null;uniqueIndex:idx_plan_org_period" json:"period"`
	Status                workflow.PlanStatus `gorm:"not null" json:"status"`
	CurrentVersion        int                 `gorm:"not null;default:1" json:"current_version"`
	ProposedBudgetTotal   int64               `gorm:"not null;default:0" json:"proposed_budget_total"`
	ApprovedBudgetCeiling *int64              `json:"approved_budget_ceiling,omitempty"`
	// Sequence is the optimistic-concurrency counter for the head row. It is
	// unrelated to CurrentVersion, which counts accepted document revisions.
	Sequence  int            `gorm:"not null;default:0" json:"-"`
	Versions  []PlanVersion  `gorm:"foreignKey:PlanID;references:ID" json:"versions,omitempty"`
	Decisions []PlanDecision `gorm:"foreignKey:PlanID;references:ID" json:"decisions,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (PlanDocument) TableName() string { return "plan_document" }

// PlanVersion is an immutable snapshot of the plan file. A version past the
// first must carry the change log that justified superseding its predecessor.
type PlanVersion struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PlanID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_plan_version" json:"plan_id"`
	VersionNumber  int       `gorm:"not null;uniqueIndex:idx_plan_version" json:"version_number"`
	FileRef        string    `gorm:"not null" json:"file_ref"`
	UploadedBy     uuid.UUID `gorm:"type:uuid;not null" json:"uploaded_by"`
	ChangeLog      string    `json:"change_log"`
	ProposedBudget *int64    `json:"proposed_budget,omitempty"`
	CreatedAt      time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (PlanVersion) TableName() string { return "plan_version" }

// PlanDecision holds one required role's standing verdict on the plan.
// A decision holds until overwritten by a new explicit decision or reset by
// a resubmission.
type PlanDecision struct {
	ID            uuid.UUID               `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PlanID        uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_plan_decision_role" json:"plan_id"`
	Role          workflow.Role           `gorm:"not null;uniqueIndex:idx_plan_decision_role" json:"role"`
	Status        workflow.DecisionStatus `gorm:"not null" json:"status"`
	Note          string                  `json:"note"`
	ReviewerID    *uuid.UUID              `gorm:"type:uuid" json:"reviewer_id,omitempty"`
	ActingRole    workflow.Role           `json:"acting_role,omitempty"`
	ReviewedAt    *time.Time              `json:"reviewed_at,omitempty"`
	AttachmentRef string                  `json:"attachment_ref,omitempty"`
	Amount        *int64                  `json:"amount,omitempty"`
	CreatedAt     time.Time               `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time               `gorm:"not null;default:now()" json:"updated_at"`
}

func (PlanDecision) TableName() string { return "plan_decision" }
