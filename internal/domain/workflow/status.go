package workflow

// Role is an authority tag held by an actor for a document.
type Role string

const (
	RoleKetua      Role = "ketua"
	RoleSekretaris Role = "sekretaris"
	RoleBendahara  Role = "bendahara"
	RoleSekjen     Role = "sekjen"
	RoleDagri      Role = "dagri"
	RoleKeu        Role = "keu"
	RoleBanggar    Role = "banggar"

	// RoleMaster never reviews directly; it may delegate an acting role
	// per request, and the acting role is what gets recorded.
	RoleMaster Role = "master"
)

type DecisionStatus string

const (
	DecisionWaiting  DecisionStatus = "WAITING"
	DecisionApproved DecisionStatus = "APPROVED"
	DecisionRejected DecisionStatus = "REJECTED"
)

// Tier distinguishes the own-organization review stage from the
// oversight-body review stage.
type Tier string

const (
	TierInternal Tier = "INTERNAL"
	TierExternal Tier = "EXTERNAL"
)

// Stage distinguishes review of the proposal itself from review of its
// closing financial report.
type Stage string

const (
	StageProposal Stage = "PROPOSAL"
	StageReport   Stage = "REPORT"
)

type PlanStatus string

const (
	PlanPendingReview PlanStatus = "PENDING_REVIEW"
	PlanApproved      PlanStatus = "APPROVED"
)

type ProposalStatus string

const (
	ProposalDraft                  ProposalStatus = "DRAFT"
	ProposalWaitingInternal        ProposalStatus = "WAITING_INTERNAL"
	ProposalRevisionInternal       ProposalStatus = "REVISION_INTERNAL"
	ProposalWaitingExternal        ProposalStatus = "WAITING_EXTERNAL"
	ProposalRevisionExternal       ProposalStatus = "REVISION_EXTERNAL"
	ProposalApproved               ProposalStatus = "APPROVED"
	ProposalCompleted              ProposalStatus = "COMPLETED"
	ProposalWaitingReview          ProposalStatus = "WAITING_REVIEW"
	ProposalRevisionReport         ProposalStatus = "REVISION_REPORT"
	ProposalWaitingExternalReport  ProposalStatus = "WAITING_EXTERNAL_REPORT"
	ProposalRevisionExternalReport ProposalStatus = "REVISION_EXTERNAL_REPORT"
	ProposalDone                   ProposalStatus = "DONE"
	ProposalWithdrawn              ProposalStatus = "WITHDRAWN"
)

// stageTier identifies one review gate of a proposal.
type stageTier struct {
	stage Stage
	tier  Tier
}

var gateStatuses = map[stageTier]struct {
	waiting  ProposalStatus
	revision ProposalStatus
	advance  ProposalStatus
}{
	{StageProposal, TierInternal}: {ProposalWaitingInternal, ProposalRevisionInternal, ProposalWaitingExternal},
	{StageProposal, TierExternal}: {ProposalWaitingExternal, ProposalRevisionExternal, ProposalApproved},
	{StageReport, TierInternal}:   {ProposalWaitingReview, ProposalRevisionReport, ProposalWaitingExternalReport},
	{StageReport, TierExternal}:   {ProposalWaitingExternalReport, ProposalRevisionExternalReport, ProposalDone},
}

// WaitingStatus returns the status a proposal sits in while the given
// stage/tier gate collects decisions.
func WaitingStatus(stage Stage, tier Tier) ProposalStatus {
	return gateStatuses[stageTier{stage, tier}].waiting
}

// RevisionStatus returns the status a rejection at the given gate moves
// the proposal into.
func RevisionStatus(stage Stage, tier Tier) ProposalStatus {
	return gateStatuses[stageTier{stage, tier}].revision
}

// AdvanceStatus returns the status a unanimous approval at the given gate
// moves the proposal into.
func AdvanceStatus(stage Stage, tier Tier) ProposalStatus {
	return gateStatuses[stageTier{stage, tier}].advance
}

// GateFor maps a revision or waiting status back to its stage/tier gate.
// ok is false for statuses that are not part of a review gate.
func GateFor(status ProposalStatus) (Stage, Tier, bool) {
	for st, g := range gateStatuses {
		if status == g.waiting || status == g.revision {
			return st.stage, st.tier, true
		}
	}
	return "", "", false
}

// LedgerHeld reports whether a proposal in the given status still holds
// its budget reservation. A hold is taken at submission and kept through
// every review and revision state; only withdrawal releases it.
func LedgerHeld(status ProposalStatus) bool {
	return status != ProposalWithdrawn && status != ProposalDraft
}
