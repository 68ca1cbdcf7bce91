package aggregates

import (
	"fmt"

	"github.com/google/uuid"

	domainagg "github.com/siproka/siproka-backend/internal/domain/aggregates"
	"github.com/siproka/siproka-backend/internal/data/repos"
	"github.com/siproka/siproka-backend/internal/platform/dbctx"
)

// ledgerOps is the budget ledger's single write path. Every change to the
// committed figure goes through adjust, which reads the plan's ledger row
// under a row lock inside the caller's transaction: check-then-commit is
// serialized per plan, so two concurrent submissions can never both pass the
// ceiling check.
type ledgerOps struct {
	ledgers repos.LedgerRepo
}

func (l ledgerOps) adjust(dbc dbctx.Context, planID uuid.UUID, delta int64) (domainagg.LedgerSnapshot, error) {
	ledger, err := l.ledgers.GetByPlanIDForUpdate(dbc.Ctx, dbc.Tx, planID)
	if err != nil {
		return domainagg.LedgerSnapshot{}, err
	}
	committed := ledger.Committed + delta
	if delta > 0 && committed > ledger.Ceiling {
		return domainagg.LedgerSnapshot{}, BudgetExceededError(fmt.Sprintf(
			"requested %d exceeds remaining ceiling %d", delta, ledger.Ceiling-ledger.Committed,
		))
	}
	if committed < 0 {
		return domainagg.LedgerSnapshot{}, InvariantError("ledger committed figure would become negative")
	}
	if err := l.ledgers.SetCommitted(dbc.Ctx, dbc.Tx, planID, committed); err != nil {
		return domainagg.LedgerSnapshot{}, err
	}
	return domainagg.LedgerSnapshot{
		Ceiling:   ledger.Ceiling,
		Committed: committed,
		Available: ledger.Ceiling - committed,
	}, nil
}

func (l ledgerOps) hold(dbc dbctx.Context, planID uuid.UUID, amount int64) (domainagg.LedgerSnapshot, error) {
	return l.adjust(dbc, planID, amount)
}

func (l ledgerOps) release(dbc dbctx.Context, planID uuid.UUID, amount int64) (domainagg.LedgerSnapshot, error) {
	return l.adjust(dbc, planID, -amount)
}

// snapshot reads the ledger without taking the row lock; used by operations
// that report the ledger state but do not change it.
func (l ledgerOps) snapshot(dbc dbctx.Context, planID uuid.UUID) (domainagg.LedgerSnapshot, error) {
	ledger, err := l.ledgers.GetByPlanID(dbc.Ctx, dbc.Tx, planID)
	if err != nil {
		return domainagg.LedgerSnapshot{}, err
	}
	return domainagg.LedgerSnapshot{
		Ceiling:   ledger.Ceiling,
		Committed: ledger.Committed,
		Available: ledger.Available(),
	}, nil
}
