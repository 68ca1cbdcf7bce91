package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/siproka/siproka-backend/internal/domain"
	"github.com/siproka/siproka-backend/internal/domain/workflow"
)

func SeedPlan(tb testing.TB, ctx context.Context, tx *gorm.DB, status workflow.PlanStatus) *types.PlanDocument {
	tb.Helper()
	p := &types.PlanDocument{
		ID:                  uuid.New(),
		OrgID:               uuid.New(),
		Period:              "2026",
		Status:              status,
		CurrentVersion:      1,
		ProposedBudgetTotal: 10_000_000,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed plan: %v", err)
	}
	return p
}

func SeedPlanVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, planID uuid.UUID, number int) *types.PlanVersion {
	tb.Helper()
	v := &types.PlanVersion{
		ID:            uuid.New(),
		PlanID:        planID,
		VersionNumber: number,
		FileRef:       "plans/rkt.pdf",
		UploadedBy:    uuid.New(),
	}
	if number > 1 {
		v.ChangeLog = "revised per review notes"
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed plan version: %v", err)
	}
	return v
}

func SeedPlanDecisions(tb testing.TB, ctx context.Context, tx *gorm.DB, planID uuid.UUID, roles []workflow.Role) []*types.PlanDecision {
	tb.Helper()
	out := make([]*types.PlanDecision, 0, len(roles))
	for _, role := range roles {
		d := &types.PlanDecision{
			ID:     uuid.New(),
			PlanID: planID,
			Role:   role,
			Status: workflow.DecisionWaiting,
		}
		if err := tx.WithContext(ctx).Create(d).Error; err != nil {
			tb.Fatalf("seed plan decision: %v", err)
		}
		out = append(out, d)
	}
	return out
}

func SeedLedger(tb testing.TB, ctx context.Context, tx *gorm.DB, planID uuid.UUID, ceiling, committed int64) *types.BudgetLedger {
	tb.Helper()
	l := &types.BudgetLedger{
		ID:        uuid.New(),
		PlanID:    planID,
		Ceiling:   ceiling,
		Committed: committed,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed ledger: %v", err)
	}
	return l
}

func SeedProposal(tb testing.TB, ctx context.Context, tx *gorm.DB, planID uuid.UUID, status workflow.ProposalStatus, budget int64) *types.ActivityProposal {
	tb.Helper()
	p := &types.ActivityProposal{
		ID:              uuid.New(),
		PlanID:          planID,
		OrgID:           uuid.New(),
		DivisionID:      uuid.New(),
		Title:           "activity",
		Status:          status,
		RequestedBudget: budget,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed proposal: %v", err)
	}
	return p
}

func SeedGateDecisions(tb testing.TB, ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, stage workflow.Stage, tier workflow.Tier, roles []workflow.Role) []*types.ProposalDecision {
	tb.Helper()
	out := make([]*types.ProposalDecision, 0, len(roles))
	for _, role := range roles {
		d := &types.ProposalDecision{
			ID:         uuid.New(),
			ProposalID: proposalID,
			Stage:      stage,
			Tier:       tier,
			Role:       role,
			Status:     workflow.DecisionWaiting,
		}
		if err := tx.WithContext(ctx).Create(d).Error; err != nil {
			tb.Fatalf("seed gate decision: %v", err)
		}
		out = append(out, d)
	}
	return out
}

func SeedSlot(tb testing.TB, ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, stage workflow.Stage, name string, required bool) *types.DocumentSlot {
	tb.Helper()
	s := &types.DocumentSlot{
		ID:         uuid.New(),
		ProposalID: proposalID,
		Stage:      stage,
		Name:       name,
		Required:   required,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed slot: %v", err)
	}
	return s
}
