package workflow

// Outcome is the single authoritative result of folding every required
// role's decision on a document.
type Outcome int

const (
	// OutcomePending means no required role has rejected and at least one
	// has not approved yet. Partial approval never advances a document.
	OutcomePending Outcome = iota
	// OutcomeAdvance means every required role's decision is APPROVED.
	OutcomeAdvance
	// OutcomeRevise means at least one required role's decision is REJECTED.
	OutcomeRevise
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdvance:
		return "advance"
	case OutcomeRevise:
		return "revise"
	default:
		return "pending"
	}
}

// Fold aggregates the decisions of the required roles into one outcome.
// The fold is a snapshot over the full role set, never a counter: the result
// depends only on the final decision per role, not on arrival order. A role
// with no recorded decision counts as WAITING.
func Fold(decisions map[Role]DecisionStatus, required []Role) Outcome {
	allApproved := len(required) > 0
	for _, role := range required {
		switch decisions[role] {
		case DecisionRejected:
			return OutcomeRevise
		case DecisionApproved:
		default:
			allApproved = false
		}
	}
	if allApproved {
		return OutcomeAdvance
	}
	return OutcomePending
}

// HasRole reports whether role is a member of set.
func HasRole(set []Role, role Role) bool {
	for _, r := range set {
		if r == role {
			return true
		}
	}
	return false
}

// EffectiveRoles expands an actor's granted roles with an explicitly
// delegated acting role. The delegation is only honored for holders of the
// master override, and the acting role itself is what must be recorded on
// any decision written through it.
func EffectiveRoles(granted []Role, actingRole Role) []Role {
	if actingRole == "" || !HasRole(granted, RoleMaster) {
		return granted
	}
	if HasRole(granted, actingRole) {
		return granted
	}
	out := make([]Role, 0, len(granted)+1)
	out = append(out, granted...)
	return append(out, actingRole)
}
