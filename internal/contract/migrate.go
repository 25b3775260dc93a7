package contract

import (
	"context"

	"github.com/roach88/claimledger/internal/ledger"
	"github.com/roach88/claimledger/internal/store"
)

// Migrate upgrades the stored identity tag to this build's version.
// A store written by a different contract kind is refused with
// VERSION_MISMATCH and left untouched.
func (c *Contract) Migrate(ctx context.Context, _ ledger.MigrateMsg) (Response, error) {
	return c.run(ctx, ledger.ActionMigrate, "", func(ctx context.Context, tx *store.Tx, p *pending) error {
		info, found, err := tx.ContractInfo(ctx)
		if err != nil {
			return err
		}
		if !found {
			return store.ErrNotInitialized
		}
		if info.Contract != ledger.ContractName {
			return ledger.NewVersionMismatch(info.Contract)
		}
		if err := tx.SetContractInfo(ctx, ledger.ContractInfo{
			Contract: ledger.ContractName,
			Version:  ledger.ContractVersion,
		}); err != nil {
			return err
		}

		p.attr("action", ledger.ActionMigrate)
		p.attr("from_version", info.Version)
		p.attr("to_version", ledger.ContractVersion)
		return nil
	})
}
