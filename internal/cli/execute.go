package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/claimledger/internal/ledger"
)

// ExecuteOptions holds flags for the execute command.
type ExecuteOptions struct {
	LedgerOptions
	Sender string
}

// NewExecuteCommand creates the execute command.
func NewExecuteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecuteOptions{LedgerOptions: LedgerOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "execute <message>",
		Short: "Apply one execute message",
		Long: `Apply one execute message to the ledger as the given sender.

The message is a JSON object with exactly one variant. Use "-" to read it
from stdin.

Exit codes:
  0 - Operation committed
  1 - Operation rejected by the ledger
  2 - Command error (bad message, database failure, etc.)

Examples:
  claimledger execute --db ./ledger.db --sender user1 '{"claim":{}}'
  claimledger execute --db ./ledger.db --sender admin '{"change_admin":{"address":"admin2"}}'
  claimledger execute --db ./ledger.db --sender admin '{"withdraw_token_by_admin":{}}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Sender, "sender", "", "sending address (required)")
	_ = cmd.MarkFlagRequired("sender")

	return cmd
}

func runExecute(opts *ExecuteOptions, arg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := newLogger(cmd, opts.RootOptions, slog.LevelWarn)

	data, err := messageArg(cmd, arg)
	if err != nil {
		return f.CommandError(CodeInvalidMessage, "read message", err)
	}
	msg, err := ledger.ParseExecuteMsg(data)
	if err != nil {
		return f.CommandError(CodeInvalidMessage, "parse message", err)
	}

	st, c, err := openContract(opts.Database, opts.WithdrawToken, logger)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	resp, err := c.Execute(cmd.Context(), ledger.Address(opts.Sender), msg)
	if err != nil {
		return f.LedgerError(msg.Action(), err)
	}
	return reportResponse(f, resp)
}
