package testutil

import (
	"context"
	"sync"

	"github.com/siproka/siproka-backend/internal/platform/dbctx"
)

// InjectedTxRunner drives aggregate code paths without a real database. It
// counts transaction lifecycle events and can fail at each boundary, which is
// how the rollback behavior of the write pipeline gets tested.
type InjectedTxRunner struct {
	mu sync.Mutex

	FailBegin      error
	FailBeforeBody error
	FailCommit     error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin := r.FailBegin
	failBeforeBody := r.FailBeforeBody
	failCommit := r.FailCommit
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if failBeforeBody != nil {
		r.rollback()
		return failBeforeBody
	}
	if fn == nil {
		r.commit()
		return nil
	}
	if err := fn(dbctx.Context{Ctx: ctx}); err != nil {
		r.rollback()
		return err
	}
	if failCommit != nil {
		r.rollback()
		return failCommit
	}
	r.commit()
	return nil
}

func (r *InjectedTxRunner) commit() {
	r.mu.Lock()
	r.CommitCalls++
	r.mu.Unlock()
}

func (r *InjectedTxRunner) rollback() {
	r.mu.Lock()
	r.RollbackCalls++
	r.mu.Unlock()
}
