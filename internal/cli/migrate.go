package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/claimledger/internal/ledger"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LedgerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade the stored contract version",
		Long: `Upgrade the version tag of an existing ledger database to this build.

A database written by a different contract kind is refused with
VERSION_MISMATCH and left untouched.

Example:
  claimledger migrate --db ./ledger.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts, cmd)
		},
	}

	opts.addFlags(cmd)
	return cmd
}

func runMigrate(opts *LedgerOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := newLogger(cmd, opts.RootOptions, slog.LevelWarn)

	st, c, err := openContract(opts.Database, opts.WithdrawToken, logger)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	resp, err := c.Migrate(cmd.Context(), ledger.MigrateMsg{})
	if err != nil {
		return f.LedgerError(ledger.ActionMigrate, err)
	}
	return reportResponse(f, resp)
}
