package workflow

import "testing"

var fourRoles = []Role{RoleSekjen, RoleDagri, RoleKeu, RoleBanggar}

func permutations(roles []Role) [][]Role {
	if len(roles) <= 1 {
		return [][]Role{append([]Role(nil), roles...)}
	}
	var out [][]Role
	for i := range roles {
		rest := make([]Role, 0, len(roles)-1)
		rest = append(rest, roles[:i]...)
		rest = append(rest, roles[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]Role{roles[i]}, p...))
		}
	}
	return out
}

func TestFoldAllApprovedIsOrderIndependent(t *testing.T) {
	for _, order := range permutations(fourRoles) {
		decisions := map[Role]DecisionStatus{}
		for i, role := range order {
			decisions[role] = DecisionApproved
			got := Fold(decisions, fourRoles)
			if i < len(order)-1 {
				if got != OutcomePending {
					t.Fatalf("order %v: after %d approvals got %v, want pending", order, i+1, got)
				}
				continue
			}
			if got != OutcomeAdvance {
				t.Fatalf("order %v: final fold got %v, want advance", order, got)
			}
		}
	}
}

func TestFoldAnyRejectionWinsRegardlessOfOrder(t *testing.T) {
	for _, order := range permutations(fourRoles) {
		for rejectAt := range order {
			decisions := map[Role]DecisionStatus{}
			for i, role := range order {
				if i == rejectAt {
					decisions[role] = DecisionRejected
				} else {
					decisions[role] = DecisionApproved
				}
			}
			if got := Fold(decisions, fourRoles); got != OutcomeRevise {
				t.Fatalf("order %v rejectAt %d: got %v, want revise", order, rejectAt, got)
			}
		}
	}
}

func TestFoldMissingDecisionCountsAsWaiting(t *testing.T) {
	decisions := map[Role]DecisionStatus{
		RoleSekjen: DecisionApproved,
		RoleDagri:  DecisionApproved,
		RoleKeu:    DecisionApproved,
	}
	if got := Fold(decisions, fourRoles); got != OutcomePending {
		t.Fatalf("got %v, want pending", got)
	}
}

func TestFoldEmptyRoleSetNeverAdvances(t *testing.T) {
	if got := Fold(nil, nil); got != OutcomePending {
		t.Fatalf("got %v, want pending", got)
	}
}

func TestGateStatuses(t *testing.T) {
	cases := []struct {
		stage    Stage
		tier     Tier
		waiting  ProposalStatus
		revision ProposalStatus
		advance  ProposalStatus
	}{
		{StageProposal, TierInternal, ProposalWaitingInternal, ProposalRevisionInternal, ProposalWaitingExternal},
		{StageProposal, TierExternal, ProposalWaitingExternal, ProposalRevisionExternal, ProposalApproved},
		{StageReport, TierInternal, ProposalWaitingReview, ProposalRevisionReport, ProposalWaitingExternalReport},
		{StageReport, TierExternal, ProposalWaitingExternalReport, ProposalRevisionExternalReport, ProposalDone},
	}
	for _, c := range cases {
		if got := WaitingStatus(c.stage, c.tier); got != c.waiting {
			t.Errorf("WaitingStatus(%s,%s) = %s, want %s", c.stage, c.tier, got, c.waiting)
		}
		if got := RevisionStatus(c.stage, c.tier); got != c.revision {
			t.Errorf("RevisionStatus(%s,%s) = %s, want %s", c.stage, c.tier, got, c.revision)
		}
		if got := AdvanceStatus(c.stage, c.tier); got != c.advance {
			t.Errorf("AdvanceStatus(%s,%s) = %s, want %s", c.stage, c.tier, got, c.advance)
		}
		stage, tier, ok := GateFor(c.revision)
		if !ok || stage != c.stage || tier != c.tier {
			t.Errorf("GateFor(%s) = %s,%s,%v, want %s,%s", c.revision, stage, tier, ok, c.stage, c.tier)
		}
	}
	if _, _, ok := GateFor(ProposalDone); ok {
		t.Errorf("GateFor(DONE) should not resolve to a gate")
	}
}

func TestEffectiveRoles(t *testing.T) {
	granted := []Role{RoleKetua}
	if got := EffectiveRoles(granted, RoleBendahara); HasRole(got, RoleBendahara) {
		t.Fatalf("non-master must not gain delegated roles")
	}
	master := []Role{RoleMaster}
	got := EffectiveRoles(master, RoleBendahara)
	if !HasRole(got, RoleBendahara) {
		t.Fatalf("master override must add the acting role")
	}
	if len(EffectiveRoles(master, "")) != 1 {
		t.Fatalf("no acting role requested, set must be unchanged")
	}
}
