// Package contract implements the claim ledger's operations.
//
// A Contract turns requests into committed ledger state. Every mutating
// operation runs as one store transaction:
//
//  1. Read config and sale info inside the transaction
//  2. Check authorization and preconditions
//  3. Apply writes (reserve, register, config)
//  4. Append the operation log entry and enqueue its transfer instructions
//
// Any failure in steps 2-4 aborts the transaction, so no operation ever
// leaves a partial effect. The claim path in particular reserves supply and
// registers the claimant in the same transaction: both commit or neither
// does.
//
// Claim state per address is Unclaimed -> Claimed. Claimed is terminal.
//
// Transfer instructions are descriptions only; delivering them to the token
// contract is the job of the relay package.
package contract
