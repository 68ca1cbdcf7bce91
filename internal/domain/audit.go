package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/siproka/siproka-backend/internal/domain/workflow"
)

// Document kinds referenced by audit entries.
const (
	DocumentKindPlan     = "plan"
	DocumentKindProposal = "proposal"
)

// Audit actions. One entry per state-changing call, written in the same
// transaction as the state change.
const (
	AuditPlanSubmitted       = "plan.submitted"
	AuditPlanResubmitted     = "plan.resubmitted"
	AuditPlanReviewed        = "plan.reviewed"
	AuditPlanApproved        = "plan.approved"
	AuditProposalSubmitted   = "proposal.submitted"
	AuditProposalReviewed    = "proposal.reviewed"
	AuditProposalResubmitted = "proposal.resubmitted"
	AuditProposalCompleted   = "proposal.completed"
	AuditProposalWithdrawn   = "proposal.withdrawn"
	AuditReportSubmitted     = "report.submitted"
	AuditReportReviewed      = "report.reviewed"
	AuditReportResubmitted   = "report.resubmitted"
)

// AuditEntry is append-only and never mutated; it is the sole source of
// "what happened" to a document. Seq orders entries globally.
type AuditEntry struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Seq           int64          `gorm:"autoIncrement;uniqueIndex" json:"seq"`
	DocumentKind  string         `gorm:"not null;index:idx_audit_document" json:"document_kind"`
	DocumentID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_audit_document" json:"document_id"`
	Action        string         `gorm:"not null" json:"action"`
	ActorID       uuid.UUID      `gorm:"type:uuid;not null" json:"actor_id"`
	Role          workflow.Role  `json:"role,omitempty"`
	Note          string         `json:"note,omitempty"`
	AttachmentRef string         `json:"attachment_ref,omitempty"`
	VersionRef    string         `json:"version_ref,omitempty"`
	Context       datatypes.JSON `gorm:"type:jsonb" json:"context,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (AuditEntry) TableName() string { return "audit_entry" }
