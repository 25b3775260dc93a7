package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/claimledger/internal/ledger"
)

// ContractInfo reads the stored identity tag. found is false on a fresh store.
func (s *Store) ContractInfo(ctx context.Context) (info ledger.ContractInfo, found bool, err error) {
	return loadContractInfo(ctx, s.db)
}

// LoadConfig reads the configuration.
// Returns an error wrapping ErrNotInitialized before instantiation.
func (s *Store) LoadConfig(ctx context.Context) (ledger.Config, error) {
	return loadConfig(ctx, s.db)
}

// LoadSaleInfo reads the running total.
// Returns an error wrapping ErrNotInitialized before instantiation.
func (s *Store) LoadSaleInfo(ctx context.Context) (ledger.SaleInfo, error) {
	return loadSaleInfo(ctx, s.db)
}

// GetClaim returns the claim record for addr. found is false if addr has
// never claimed.
func (s *Store) GetClaim(ctx context.Context, addr ledger.Address) (rec ledger.ClaimRecord, found bool, err error) {
	var stored string
	err = s.db.QueryRowContext(ctx, `
		SELECT address FROM claims WHERE address = ?
	`, string(addr)).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ClaimRecord{}, false, nil
	}
	if err != nil {
		return ledger.ClaimRecord{}, false, fmt.Errorf("get claim: %w", err)
	}
	return ledger.ClaimRecord{Address: ledger.Address(stored), IsClaimed: true}, true, nil
}

// ListClaims returns up to limit claim records with address strictly after
// startAfter (empty means from the beginning), ordered by address bytes.
//
// Returns an empty slice (not nil) if no records match.
func (s *Store) ListClaims(ctx context.Context, startAfter ledger.Address, limit int) ([]ledger.ClaimRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT address FROM claims
		WHERE address > ? COLLATE BINARY
		ORDER BY address COLLATE BINARY ASC
		LIMIT ?
	`, string(startAfter), limit)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	defer rows.Close()

	records := []ledger.ClaimRecord{}
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		records = append(records, ledger.ClaimRecord{Address: ledger.Address(addr), IsClaimed: true})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return records, nil
}

// CountClaims returns the number of claim records.
func (s *Store) CountClaims(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM claims`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count claims: %w", err)
	}
	return n, nil
}

// ListOperations returns the operation log ordered by seq.
//
// Returns an empty slice (not nil) if the log is empty.
func (s *Store) ListOperations(ctx context.Context) ([]Operation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, action, sender, attributes
		FROM operations
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	ops := []Operation{}
	for rows.Next() {
		var (
			op        Operation
			sender    string
			attrsJSON string
		)
		if err := rows.Scan(&op.Seq, &op.ID, &op.Action, &sender, &attrsJSON); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op.Sender = ledger.Address(sender)
		op.Attributes, err = unmarshalAttributes(attrsJSON)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", op.Seq, err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return ops, nil
}
