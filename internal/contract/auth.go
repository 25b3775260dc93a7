package contract

import "github.com/roach88/claimledger/internal/ledger"

// requireAdmin fails with UNAUTHORIZED unless sender is the configured admin.
func requireAdmin(sender ledger.Address, cfg ledger.Config) error {
	if sender != cfg.Admin {
		return ledger.NewUnauthorized(sender)
	}
	return nil
}
