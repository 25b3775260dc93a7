package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/claimledger/internal/ledger"
)

// PendingTransfer is an outbox row not yet handed to the token collaborator.
type PendingTransfer struct {
	Seq         int64
	Instruction ledger.TransferInstruction
}

// PendingTransfers returns up to limit undispatched transfers in seq order.
//
// Returns an empty slice (not nil) if nothing is pending.
func (s *Store) PendingTransfers(ctx context.Context, limit int) ([]PendingTransfer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, contract, recipient, amount
		FROM transfers
		WHERE dispatched_at IS NULL
		ORDER BY seq ASC, id COLLATE BINARY ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending transfers: %w", err)
	}
	defer rows.Close()

	pending := []PendingTransfer{}
	for rows.Next() {
		var (
			p                   PendingTransfer
			contract, recipient string
			amount              int64
		)
		if err := rows.Scan(&p.Seq, &p.Instruction.ID, &contract, &recipient, &amount); err != nil {
			return nil, fmt.Errorf("scan pending transfer: %w", err)
		}
		p.Instruction.Contract = ledger.Address(contract)
		p.Instruction.Recipient = ledger.Address(recipient)
		p.Instruction.Amount = ledger.Amount(amount)
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending transfers: %w", err)
	}
	return pending, nil
}

// MarkDispatched records that the given transfers were published at at.
// Already-dispatched rows keep their original timestamp.
func (s *Store) MarkDispatched(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, at.UnixMilli())
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE transfers SET dispatched_at = ?
		WHERE dispatched_at IS NULL AND id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("mark dispatched: %w", err)
	}
	return nil
}

// CountPendingTransfers returns the number of undispatched transfers.
func (s *Store) CountPendingTransfers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transfers WHERE dispatched_at IS NULL
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending transfers: %w", err)
	}
	return n, nil
}
