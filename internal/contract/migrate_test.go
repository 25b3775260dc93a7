package contract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/claimledger/internal/ledger"
	"github.com/roach88/claimledger/internal/store"
)

func setContractInfo(t *testing.T, c *Contract, info ledger.ContractInfo) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.store.Update(ctx, func(tx *store.Tx) error {
		return tx.SetContractInfo(ctx, info)
	}))
}

func TestMigrate_BumpsVersion(t *testing.T) {
	c := instantiated(t, 10000, 100)
	ctx := context.Background()
	setContractInfo(t, c, ledger.ContractInfo{Contract: ledger.ContractName, Version: "0.0.1"})

	resp, err := c.Migrate(ctx, ledger.MigrateMsg{})
	require.NoError(t, err)
	assert.Equal(t, []ledger.Attribute{
		{Key: "action", Value: "migrate"},
		{Key: "from_version", Value: "0.0.1"},
		{Key: "to_version", Value: ledger.ContractVersion},
	}, resp.Attributes)

	info, found, err := c.store.ContractInfo(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, ledger.ContractVersion, info.Version)
}

func TestMigrate_SameVersion(t *testing.T) {
	c := instantiated(t, 10000, 100)

	_, err := c.Migrate(context.Background(), ledger.MigrateMsg{})
	assert.NoError(t, err)
}

func TestMigrate_DifferentContract(t *testing.T) {
	c := instantiated(t, 10000, 100)
	ctx := context.Background()
	setContractInfo(t, c, ledger.ContractInfo{Contract: "crates.io:other", Version: "1.0.0"})

	_, err := c.Migrate(ctx, ledger.MigrateMsg{})
	assert.ErrorIs(t, err, ledger.ErrVersionMismatch)

	var le *ledger.Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "crates.io:other", le.Details["previous_contract"])
	assert.Contains(t, le.Message, "crates.io:other")

	info, _, err := c.store.ContractInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", info.Version, "refused migration must not touch the tag")
}

func TestMigrate_NotInitialized(t *testing.T) {
	c := newTestContract(t)

	_, err := c.Migrate(context.Background(), ledger.MigrateMsg{})
	assert.ErrorIs(t, err, ledger.ErrStorage)
	assert.ErrorIs(t, err, store.ErrNotInitialized)
}
