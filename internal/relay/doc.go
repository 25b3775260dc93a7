// Package relay hands committed transfer instructions to the token-transfer
// collaborator.
//
// The contract writes each instruction to the store's outbox in the same
// transaction as the operation that authorized it. A Relay reads the outbox
// in seq order, publishes each row, and marks it dispatched only after the
// publish succeeded. Delivery is therefore at-least-once: a crash between
// publish and mark republishes the row, and consumers de-duplicate on the
// instruction's content ID.
package relay
