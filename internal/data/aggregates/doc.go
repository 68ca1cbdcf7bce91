// Package aggregates contains the transactional implementations of the
// workflow aggregate contracts: the plan and proposal state machines, the
// budget ledger and the audit trail.
//
// Implementations compose table-level repos from internal/data/repos and own
// the transaction boundary: one GORM transaction per mutation, covering the
// state transition, the ledger delta and the audit append. Nothing inside a
// transaction waits on external I/O; blob uploads finish before the
// transaction opens and only their stable reference is threaded in.
package aggregates
