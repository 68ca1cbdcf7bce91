package aggregates

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siproka/siproka-backend/internal/platform/dbctx"
)

// CASGuard provides optimistic-concurrency guard helpers for aggregate
// writes. Head rows carry a sequence column; a guarded update only lands
// when id+sequence still match what the transaction read.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, ValidationError("missing db transaction context")
}

// UpdateBySequence updates a row only when id+sequence match, and advances
// the sequence as part of the same statement.
func (g CASGuard) UpdateBySequence(dbc dbctx.Context, table string, id uuid.UUID, expectedSequence int, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	if table == "" || id == uuid.Nil {
		return false, ValidationError("table and id are required for UpdateBySequence")
	}
	if expectedSequence < 0 {
		return false, ValidationError("expectedSequence must be >= 0")
	}
	if updates == nil {
		updates = map[string]any{}
	}
	updates["sequence"] = expectedSequence + 1
	res := db.Table(table).
		Where("id = ? AND sequence = ?", id, expectedSequence).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireCASSuccess converts a failed compare-and-set into a typed conflict
// error, surfaced to the caller as ConcurrentModification.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}

// RequireStatusAllowed validates current status against allowed values.
func RequireStatusAllowed(current string, allowed ...string) error {
	current = strings.TrimSpace(current)
	if len(allowed) == 0 {
		return ValidationError("allowed statuses cannot be empty")
	}
	for _, s := range allowed {
		if strings.EqualFold(current, strings.TrimSpace(s)) {
			return nil
		}
	}
	return PreconditionError("status does not permit this operation")
}
