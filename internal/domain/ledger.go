package domain

import (
	"time"

	"github.com/google/uuid"
)

// BudgetLedger tracks, per plan, the approved ceiling and the running total
// held by live proposals. Ceiling and committed form one atomically updated
// pair: the row is only ever changed under a row lock inside the same
// transaction that changes the proposal causing the delta.
type BudgetLedger struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PlanID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"plan_id"`
	Ceiling   int64     `gorm:"not null" json:"ceiling"`
	Committed int64     `gorm:"not null;default:0" json:"committed"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (BudgetLedger) TableName() string { return "budget_ledger" }

// Available is the head-room left under the ceiling.
func (l *BudgetLedger) Available() int64 {
	if l == nil {
		return 0
	}
	return l.Ceiling - l.Committed
}
