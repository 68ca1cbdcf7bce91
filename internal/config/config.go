// Package config holds the review topology and administrative gates.
//
// Required role sets, the ceiling-bearing role and the document slot schemas
// are configuration, not constants: different organizational topologies plug
// in different YAML files. A Snapshot is loaded once and injected per
// request, so two requests in flight never observe different halves of a
// config change.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/siproka/siproka-backend/internal/domain/workflow"
)

// SlotDef declares one named attachment position of the slot schema.
type SlotDef struct {
	Name     string `yaml:"name"`
	Required bool   `yaml:"required"`
}

type PlanTopology struct {
	// RequiredRoles must all approve for the plan to become APPROVED.
	RequiredRoles []workflow.Role `yaml:"required_roles"`
	// CeilingRole is the budget authority whose approval amount becomes the
	// plan's binding ceiling.
	CeilingRole workflow.Role `yaml:"ceiling_role"`
}

type GateTopology struct {
	InternalRoles []workflow.Role `yaml:"internal_roles"`
	ExternalRoles []workflow.Role `yaml:"external_roles"`
}

type SubmissionGates struct {
	Open     bool       `yaml:"open"`
	Deadline *time.Time `yaml:"deadline"`
}

// Snapshot is the immutable per-request view of the configuration.
type Snapshot struct {
	Plan          PlanTopology    `yaml:"plan"`
	Proposal      GateTopology    `yaml:"proposal"`
	Report        GateTopology    `yaml:"report"`
	ProposalSlots []SlotDef       `yaml:"proposal_slots"`
	ReportSlots   []SlotDef       `yaml:"report_slots"`
	Submissions   SubmissionGates `yaml:"submissions"`
}

// Default is the topology of the reference deployment: the oversight body
// (sekjen, dagri, keu, banggar) reviews plans and the external tier, the
// unit's own leadership reviews the internal tier, and the treasurer clears
// financial reports before they go external.
func Default() Snapshot {
	return Snapshot{
		Plan: PlanTopology{
			RequiredRoles: []workflow.Role{workflow.RoleSekjen, workflow.RoleDagri, workflow.RoleKeu, workflow.RoleBanggar},
			CeilingRole:   workflow.RoleBanggar,
		},
		Proposal: GateTopology{
			InternalRoles: []workflow.Role{workflow.RoleKetua, workflow.RoleSekretaris, workflow.RoleBendahara},
			ExternalRoles: []workflow.Role{workflow.RoleSekjen, workflow.RoleDagri, workflow.RoleKeu, workflow.RoleBanggar},
		},
		Report: GateTopology{
			InternalRoles: []workflow.Role{workflow.RoleBendahara},
			ExternalRoles: []workflow.Role{workflow.RoleSekjen, workflow.RoleDagri, workflow.RoleKeu, workflow.RoleBanggar},
		},
		ProposalSlots: []SlotDef{
			{Name: "Proposal", Required: true},
			{Name: "RAB", Required: true},
		},
		ReportSlots: []SlotDef{
			{Name: "LPJ Naratif", Required: true},
			{Name: "LPJ Keuangan", Required: true},
			{Name: "Dokumentasi", Required: false},
		},
		Submissions: SubmissionGates{Open: true},
	}
}

// Load reads a topology file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Snapshot, error) {
	snap := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return snap, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return snap, fmt.Errorf("read topology file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &snap); err != nil {
		return snap, fmt.Errorf("parse topology file: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return snap, err
	}
	return snap, nil
}

// Validate rejects topologies the engine cannot run on.
func (s Snapshot) Validate() error {
	if len(s.Plan.RequiredRoles) == 0 {
		return fmt.Errorf("topology: plan.required_roles must not be empty")
	}
	if s.Plan.CeilingRole != "" && !workflow.HasRole(s.Plan.RequiredRoles, s.Plan.CeilingRole) {
		return fmt.Errorf("topology: plan.ceiling_role %q is not a required role", s.Plan.CeilingRole)
	}
	if len(s.Proposal.InternalRoles) == 0 || len(s.Proposal.ExternalRoles) == 0 {
		return fmt.Errorf("topology: proposal role sets must not be empty")
	}
	if len(s.Report.InternalRoles) == 0 || len(s.Report.ExternalRoles) == 0 {
		return fmt.Errorf("topology: report role sets must not be empty")
	}
	return nil
}

// GateRoles returns the role set of one review gate.
func (s Snapshot) GateRoles(stage workflow.Stage, tier workflow.Tier) []workflow.Role {
	top := s.Proposal
	if stage == workflow.StageReport {
		top = s.Report
	}
	if tier == workflow.TierExternal {
		return top.ExternalRoles
	}
	return top.InternalRoles
}

// Slots returns the declared slot schema for a stage.
func (s Snapshot) Slots(stage workflow.Stage) []SlotDef {
	if stage == workflow.StageReport {
		return s.ReportSlots
	}
	return s.ProposalSlots
}

// SubmissionsOpen reports the administrative toggle for initial plan
// submissions.
func (s Snapshot) SubmissionsOpen() bool {
	return s.Submissions.Open
}

// DeadlinePassed reports whether the initial-submission deadline lies before
// now. Revisions after the deadline remain allowed; callers apply this gate
// to first submissions only.
func (s Snapshot) DeadlinePassed(now time.Time) bool {
	return s.Submissions.Deadline != nil && now.After(*s.Submissions.Deadline)
}
