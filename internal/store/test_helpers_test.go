package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/claimledger/internal/ledger"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedLedger writes the singleton records the way instantiation does.
func seedLedger(t *testing.T, s *Store, cfg ledger.Config) {
	t.Helper()
	err := s.Update(context.Background(), func(tx *Tx) error {
		ctx := context.Background()
		if err := tx.SetContractInfo(ctx, ledger.ContractInfo{Contract: ledger.ContractName, Version: ledger.ContractVersion}); err != nil {
			return err
		}
		if err := tx.SaveConfig(ctx, cfg); err != nil {
			return err
		}
		return tx.InitSaleInfo(ctx)
	})
	require.NoError(t, err)
}

func defaultConfig() ledger.Config {
	return ledger.Config{
		Admin:         "admin",
		TokenAddress:  "tok",
		TotalSupply:   10000,
		AirdropAmount: 100,
	}
}

// claimInTx performs the register+reserve pair the way the contract does.
func claimInTx(ctx context.Context, tx *Tx, addr ledger.Address, amount ledger.Amount) error {
	if err := tx.TryRegister(ctx, addr); err != nil {
		return err
	}
	if _, err := tx.Reserve(ctx, amount); err != nil {
		return err
	}
	_, err := tx.AppendOperation(ctx, Operation{
		ID:     fmt.Sprintf("op-%s", addr),
		Action: ledger.ActionClaim,
		Sender: addr,
	})
	return err
}
