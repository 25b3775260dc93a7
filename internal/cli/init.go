package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/claimledger/internal/config"
	"github.com/roach88/claimledger/internal/ledger"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	LedgerOptions
	Sender        string
	ConfigFile    string
	Admin         string
	TokenAddress  string
	TotalSupply   int64
	AirdropAmount int64
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{LedgerOptions: LedgerOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Instantiate a new ledger",
		Long: `Instantiate a new ledger in the given database.

The configuration is read from a CUE or JSON file with --config, or given
directly with flags. The sender defaults to the admin.

Example:
  claimledger init --db ./ledger.db --config ./instantiate.cue
  claimledger init --db ./ledger.db --admin admin --token tok \
    --total-supply 10000 --airdrop-amount 100`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Sender, "sender", "", "instantiating address (default: the admin)")
	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "instantiate message file (.cue or .json)")
	cmd.Flags().StringVar(&opts.Admin, "admin", "", "admin address")
	cmd.Flags().StringVar(&opts.TokenAddress, "token", "", "token contract address")
	cmd.Flags().Int64Var(&opts.TotalSupply, "total-supply", 0, "total distributable supply")
	cmd.Flags().Int64Var(&opts.AirdropAmount, "airdrop-amount", 0, "amount paid per claim")
	cmd.MarkFlagsMutuallyExclusive("config", "admin")
	cmd.MarkFlagsMutuallyExclusive("config", "token")
	cmd.MarkFlagsMutuallyExclusive("config", "total-supply")
	cmd.MarkFlagsMutuallyExclusive("config", "airdrop-amount")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := newLogger(cmd, opts.RootOptions, slog.LevelWarn)

	msg, err := opts.instantiateMsg()
	if err != nil {
		if ledger.KindOf(err) != "" {
			return f.LedgerError(ledger.ActionInstantiate, err)
		}
		return f.CommandError(CodeCommandError, "load instantiate config", err)
	}

	sender := ledger.Address(opts.Sender)
	if sender == "" {
		sender = msg.Admin
	}

	st, c, err := openContract(opts.Database, opts.WithdrawToken, logger)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	f.VerboseLog("instantiating %s as %s", opts.Database, sender)
	resp, err := c.Instantiate(cmd.Context(), sender, msg)
	if err != nil {
		return f.LedgerError(ledger.ActionInstantiate, err)
	}
	return reportResponse(f, resp)
}

func (o *InitOptions) instantiateMsg() (ledger.InstantiateMsg, error) {
	if o.ConfigFile != "" {
		return config.LoadInstantiate(o.ConfigFile)
	}
	return ledger.InstantiateMsg{
		Admin:         ledger.Address(o.Admin),
		TokenAddress:  ledger.Address(o.TokenAddress),
		TotalSupply:   ledger.Amount(o.TotalSupply),
		AirdropAmount: ledger.Amount(o.AirdropAmount),
	}, nil
}
