package contract

import (
	"context"
	"fmt"

	"github.com/roach88/claimledger/internal/ledger"
	"github.com/roach88/claimledger/internal/store"
)

// Instantiate initializes a fresh store with msg's configuration and a zero
// running total. An already initialized store is rejected with CONFIG_INVALID.
func (c *Contract) Instantiate(ctx context.Context, sender ledger.Address, msg ledger.InstantiateMsg) (Response, error) {
	cfg := msg.Config()
	return c.run(ctx, ledger.ActionInstantiate, sender, func(ctx context.Context, tx *store.Tx, p *pending) error {
		if err := ledger.ValidateConfig(c.validator, cfg); err != nil {
			return err
		}
		_, found, err := tx.ContractInfo(ctx)
		if err != nil {
			return err
		}
		if found {
			return ledger.NewConfigInvalid("instantiate", "ledger already initialized")
		}

		if err := tx.SetContractInfo(ctx, ledger.ContractInfo{
			Contract: ledger.ContractName,
			Version:  ledger.ContractVersion,
		}); err != nil {
			return err
		}
		if err := tx.SaveConfig(ctx, cfg); err != nil {
			return err
		}
		if err := tx.InitSaleInfo(ctx); err != nil {
			return err
		}
		p.attr("action", ledger.ActionInstantiate)
		return nil
	})
}

// Execute dispatches msg to the operation for its variant.
func (c *Contract) Execute(ctx context.Context, sender ledger.Address, msg ledger.ExecuteMsg) (Response, error) {
	switch {
	case msg.Claim != nil:
		return c.Claim(ctx, sender)
	case msg.ChangeAdmin != nil:
		return c.ChangeAdmin(ctx, sender, msg.ChangeAdmin.Address)
	case msg.UpdateConfig != nil:
		return c.UpdateConfig(ctx, sender, msg.UpdateConfig.State)
	case msg.WithdrawTokenByAdmin != nil:
		return c.WithdrawByAdmin(ctx, sender)
	}
	return Response{}, fmt.Errorf("%w: execute: no variant set", ledger.ErrInvalidMessage)
}

// Claim pays the configured airdrop amount to sender, once.
//
// Registering sender and reserving supply happen in one transaction: if
// either fails, neither is applied. Registration is checked first, so an
// address that already claimed gets ALREADY_CLAIMED even once supply is
// exhausted.
func (c *Contract) Claim(ctx context.Context, sender ledger.Address) (Response, error) {
	return c.run(ctx, ledger.ActionClaim, sender, func(ctx context.Context, tx *store.Tx, p *pending) error {
		cfg, err := tx.LoadConfig(ctx)
		if err != nil {
			return err
		}
		if err := tx.TryRegister(ctx, sender); err != nil {
			return err
		}
		if _, err := tx.Reserve(ctx, cfg.AirdropAmount); err != nil {
			return err
		}

		p.attr("action", ledger.ActionClaim)
		p.attr("claimer", string(sender))
		p.transfer(DescribeTransfer(cfg.TokenAddress, sender, cfg.AirdropAmount))
		return nil
	})
}

// ChangeAdmin replaces the admin address. Only the current admin may call it,
// and the new address must pass validation.
func (c *Contract) ChangeAdmin(ctx context.Context, sender, newAdmin ledger.Address) (Response, error) {
	return c.run(ctx, ledger.ActionChangeAdmin, sender, func(ctx context.Context, tx *store.Tx, p *pending) error {
		cfg, err := tx.LoadConfig(ctx)
		if err != nil {
			return err
		}
		if err := requireAdmin(sender, cfg); err != nil {
			return err
		}
		if err := c.validator.Validate(newAdmin); err != nil {
			return ledger.NewInvalidAddress("address", newAdmin, err)
		}
		if err := tx.SetAdmin(ctx, newAdmin); err != nil {
			return err
		}

		p.attr("action", ledger.ActionChangeAdmin)
		p.attr("address", string(newAdmin))
		return nil
	})
}

// UpdateConfig overwrites the whole configuration. Only the admin may call it.
//
// The new total supply may not drop below what has already been distributed.
// A new airdrop amount applies to future claims only; past claims keep the
// amount they were paid.
func (c *Contract) UpdateConfig(ctx context.Context, sender ledger.Address, state ledger.Config) (Response, error) {
	return c.run(ctx, ledger.ActionUpdateConfig, sender, func(ctx context.Context, tx *store.Tx, p *pending) error {
		cfg, err := tx.LoadConfig(ctx)
		if err != nil {
			return err
		}
		if err := requireAdmin(sender, cfg); err != nil {
			return err
		}
		if err := ledger.ValidateConfig(c.validator, state); err != nil {
			return err
		}
		info, err := tx.LoadSaleInfo(ctx)
		if err != nil {
			return err
		}
		if state.TotalSupply < info.TotalAirdropped {
			return ledger.NewConfigInvalid("total_supply",
				fmt.Sprintf("%s is below total distributed %s", state.TotalSupply, info.TotalAirdropped))
		}
		if err := tx.SaveConfig(ctx, state); err != nil {
			return err
		}

		p.attr("action", ledger.ActionUpdateConfig)
		return nil
	})
}

// WithdrawByAdmin sends the undistributed supply to the admin. The running
// total is not changed, so a later supply increase makes the withdrawn
// amount claimable again.
func (c *Contract) WithdrawByAdmin(ctx context.Context, sender ledger.Address) (Response, error) {
	return c.run(ctx, ledger.ActionWithdraw, sender, func(ctx context.Context, tx *store.Tx, p *pending) error {
		cfg, err := tx.LoadConfig(ctx)
		if err != nil {
			return err
		}
		if err := requireAdmin(sender, cfg); err != nil {
			return err
		}
		info, err := tx.LoadSaleInfo(ctx)
		if err != nil {
			return err
		}

		token := cfg.TokenAddress
		if c.withdrawToken == WithdrawLegacy {
			token = ledger.LegacyTokenAddress
		}

		p.attr("action", ledger.ActionWithdraw)
		p.transfer(DescribeTransfer(token, cfg.Admin, info.Leftover(cfg.TotalSupply)))
		return nil
	})
}
