package contract

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/claimledger/internal/ledger"
	"github.com/roach88/claimledger/internal/store"
	"github.com/roach88/claimledger/internal/testutil"
)

// newTestContract opens a file-backed store and returns a contract over it
// with deterministic operation IDs.
func newTestContract(t *testing.T, opts ...Option) *Contract {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	opts = append([]Option{WithIDGenerator(testutil.NewSequenceGenerator("op"))}, opts...)
	return New(st, opts...)
}

func scenarioMsg(supply, amount ledger.Amount) ledger.InstantiateMsg {
	return ledger.InstantiateMsg{
		Admin:         "admin",
		TokenAddress:  "tok",
		TotalSupply:   supply,
		AirdropAmount: amount,
	}
}

// instantiated returns a contract initialized with the given supply and amount.
func instantiated(t *testing.T, supply, amount ledger.Amount, opts ...Option) *Contract {
	t.Helper()
	c := newTestContract(t, opts...)
	_, err := c.Instantiate(context.Background(), "admin", scenarioMsg(supply, amount))
	require.NoError(t, err)
	return c
}

func totalDistributed(t *testing.T, c *Contract) ledger.Amount {
	t.Helper()
	info, err := c.GetSaleInfo(context.Background())
	require.NoError(t, err)
	return info.TotalAirdropped
}

func currentConfig(t *testing.T, c *Contract) ledger.Config {
	t.Helper()
	cfg, err := c.store.LoadConfig(context.Background())
	require.NoError(t, err)
	return cfg
}

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
