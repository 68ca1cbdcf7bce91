package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/siproka/siproka-backend/internal/domain/workflow"
)

// ActivityProposal is a single activity's budget request against an approved
// plan's ceiling. It progresses through internal review, external review,
// execution and report review independently of its siblings.
type ActivityProposal struct {
	ID              uuid.UUID               `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PlanID          uuid.UUID               `gorm:"type:uuid;not null;index" json:"plan_id"`
	OrgID           uuid.UUID               `gorm:"type:uuid;not null;index" json:"org_id"`
	DivisionID      uuid.UUID               `gorm:"type:uuid;not null;index" json:"division_id"`
	Title           string                  `gorm:"not null" json:"title"`
	Status          workflow.ProposalStatus `gorm:"not null;index" json:"status"`
	RequestedBudget int64                   `gorm:"not null" json:"requested_budget"`
	Sequence        int                     `gorm:"not null;default:0" json:"-"`
	Slots           []DocumentSlot          `gorm:"foreignKey:ProposalID;references:ID" json:"slots,omitempty"`
	Decisions       []ProposalDecision      `gorm:"foreignKey:ProposalID;references:ID" json:"decisions,omitempty"`
	Report          *ReportingRecord        `gorm:"foreignKey:ProposalID;references:ID" json:"report,omitempty"`
	CreatedAt       time.Time               `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time               `gorm:"not null;default:now()" json:"updated_at"`
}

func (ActivityProposal) TableName() string { return "activity_proposal" }

// ProposalDecision is one reviewer role's standing verdict on one review
// gate (stage × tier) of a proposal. Resetting a tier on resubmission only
// touches rows of that stage and tier.
type ProposalDecision struct {
	ID            uuid.UUID               `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProposalID    uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_proposal_decision" json:"proposal_id"`
	Stage         workflow.Stage          `gorm:"not null;uniqueIndex:idx_proposal_decision" json:"stage"`
	Tier          workflow.Tier           `gorm:"not null;uniqueIndex:idx_proposal_decision" json:"tier"`
	Role          workflow.Role           `gorm:"not null;uniqueIndex:idx_proposal_decision" json:"role"`
	Status        workflow.DecisionStatus `gorm:"not null" json:"status"`
	Note          string                  `json:"note"`
	ReviewerID    *uuid.UUID              `gorm:"type:uuid" json:"reviewer_id,omitempty"`
	ActingRole    workflow.Role           `json:"acting_role,omitempty"`
	ReviewedAt    *time.Time              `json:"reviewed_at,omitempty"`
	AttachmentRef string                  `json:"attachment_ref,omitempty"`
	CreatedAt     time.Time               `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time               `gorm:"not null;default:now()" json:"updated_at"`
}

func (ProposalDecision) TableName() string { return "proposal_decision" }

// DocumentSlot is a named attachment position declared by the slot schema
// (e.g. "Proposal", "RAB", "LPJ Naratif"). The slot's version shown to
// reviewers is the count of archived files plus the current one; there is no
// global version counter on proposals.
type DocumentSlot struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProposalID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_slot_owner" json:"proposal_id"`
	Stage         workflow.Stage `gorm:"not null;uniqueIndex:idx_slot_owner" json:"stage"`
	Name          string         `gorm:"not null;uniqueIndex:idx_slot_owner" json:"name"`
	Required      bool           `gorm:"not null;default:false" json:"required"`
	CurrentFileID *uuid.UUID     `gorm:"type:uuid" json:"current_file_id,omitempty"`
	Files         []SlotFile     `gorm:"foreignKey:SlotID;references:ID" json:"files,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (DocumentSlot) TableName() string { return "document_slot" }

// SlotFile is one file ever attached to a slot. Replacing a slot's current
// file archives the previous row instead of deleting it.
type SlotFile struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SlotID     uuid.UUID `gorm:"type:uuid;not null;index" json:"slot_id"`
	FileRef    string    `gorm:"not null" json:"file_ref"`
	UploadedBy uuid.UUID `gorm:"type:uuid;not null" json:"uploaded_by"`
	Archived   bool      `gorm:"not null;default:false;index" json:"archived"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (SlotFile) TableName() string { return "slot_file" }

// ReportingRecord is the closing financial report of an executed activity.
// It exists only once the proposal reached an executable state and is
// mutable only while the proposal sits in a report revision state.
type ReportingRecord struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProposalID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"proposal_id"`
	RealizedBudget int64     `gorm:"not null" json:"realized_budget"`
	Status         string    `gorm:"not null" json:"status"`
	SubmittedBy    uuid.UUID `gorm:"type:uuid;not null" json:"submitted_by"`
	CreatedAt      time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ReportingRecord) TableName() string { return "reporting_record" }

const (
	ReportStatusUnderReview = "UNDER_REVIEW"
	ReportStatusAccepted    = "ACCEPTED"
)
