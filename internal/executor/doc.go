// Package executor applies ledger requests one at a time in a total order.
//
// An Executor owns a FIFO queue and a single Run goroutine. Callers on any
// goroutine Submit requests; the Run loop applies them to the contract in
// arrival order and hands each result back to its submitter. No two
// requests are ever in flight on the ledger at once.
//
// Thread-safety model:
//   - Submit(), Query(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Stop(): safe from any goroutine, idempotent
package executor
