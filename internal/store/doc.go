// Package store provides SQLite-backed durable storage for the claim ledger.
//
// The store holds three logical records plus two bookkeeping tables:
//   - contract_info: identity tag checked on migration (singleton)
//   - config: admin, token reference, supply cap, claim amount (singleton)
//   - sale_info: running total distributed (singleton)
//   - claims: one permanent row per address that has claimed
//   - operations: append-only log of committed operations
//   - transfers: outbox of transfer instructions awaiting dispatch
//
// # Transaction Boundary
//
// Every ledger operation runs inside Store.Update. The callback receives a
// *Tx; all of its writes commit together when the callback returns nil and
// none of them commit otherwise. Reserve and TryRegister MUST be called on
// the same Tx so a claim either moves both the running total and the claim
// set, or neither.
//
// # Deterministic Ordering
//
//   - operations.seq is the logical clock, assigned by AUTOINCREMENT inside
//     the committing transaction, so rolled-back operations leave no gap
//   - list queries order by address COLLATE BINARY or seq, never by time
//
// # Connection
//
// Pragmas are passed as go-sqlite3 DSN parameters: WAL journaling,
// synchronous=NORMAL, a 5s busy timeout and foreign keys on. Schema changes
// are applied in order by PRAGMA user_version.
package store
