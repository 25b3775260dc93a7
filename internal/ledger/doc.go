// Package ledger provides the domain types of the capped claim ledger.
//
// This package contains value types, messages, the error taxonomy and the
// canonical JSON encoding used for content-addressed IDs. All other internal
// packages import ledger; ledger imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - token quantities are Amount (int64, never negative)
//   - Amounts travel as decimal strings on the wire
//   - All JSON tags use snake_case
//   - Errors are a closed set of Kinds, never bare strings
package ledger
