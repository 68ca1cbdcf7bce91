package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/siproka/siproka-backend/internal/domain/workflow"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default topology invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.yaml")
	raw := `
plan:
  required_roles: [sekjen, banggar]
  ceiling_role: banggar
submissions:
  open: false
  deadline: 2026-03-31T23:59:59Z
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	snap, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Plan.RequiredRoles) != 2 || snap.Plan.CeilingRole != workflow.RoleBanggar {
		t.Fatalf("plan topology not overridden: %+v", snap.Plan)
	}
	// Sections absent from the file keep their defaults.
	if len(snap.Proposal.InternalRoles) != 3 {
		t.Fatalf("proposal topology should keep defaults, got %+v", snap.Proposal)
	}
	if snap.SubmissionsOpen() {
		t.Fatalf("submissions should be closed")
	}
	if !snap.DeadlinePassed(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("deadline should have passed")
	}
	if snap.DeadlinePassed(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("deadline should not have passed")
	}
}

func TestLoadRejectsCeilingRoleOutsideRequiredSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.yaml")
	raw := `
plan:
  required_roles: [sekjen]
  ceiling_role: banggar
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestNoDeadlineNeverPasses(t *testing.T) {
	if Default().DeadlinePassed(time.Now().Add(100 * 365 * 24 * time.Hour)) {
		t.Fatalf("nil deadline must never pass")
	}
}

func TestGateRoles(t *testing.T) {
	snap := Default()
	if got := snap.GateRoles(workflow.StageReport, workflow.TierInternal); len(got) != 1 || got[0] != workflow.RoleBendahara {
		t.Fatalf("report internal gate = %v", got)
	}
	if got := snap.GateRoles(workflow.StageProposal, workflow.TierExternal); len(got) != 4 {
		t.Fatalf("proposal external gate = %v", got)
	}
}
