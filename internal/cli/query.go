package cli

import (
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/claimledger/internal/ledger"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LedgerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <message>",
		Short: "Run a read-only query",
		Long: `Run a read-only query against the ledger and print the JSON answer.

Examples:
  claimledger query --db ./ledger.db '{"get_sale_info":{}}'
  claimledger query --db ./ledger.db '{"get_user_info":{"address":"user1"}}'
  claimledger query --db ./ledger.db '{"get_user_infos":{"start_after":"user1","limit":5}}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	return cmd
}

func runQuery(opts *LedgerOptions, arg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := newLogger(cmd, opts.RootOptions, slog.LevelWarn)

	data, err := messageArg(cmd, arg)
	if err != nil {
		return f.CommandError(CodeInvalidMessage, "read message", err)
	}
	msg, err := ledger.ParseQueryMsg(data)
	if err != nil {
		return f.CommandError(CodeInvalidMessage, "parse message", err)
	}

	st, c, err := openContract(opts.Database, opts.WithdrawToken, logger)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	answer, err := c.Query(cmd.Context(), msg)
	if err != nil {
		return f.LedgerError("query", err)
	}
	if f.Format == "json" {
		return f.Success(json.RawMessage(answer))
	}
	return f.Success(string(answer))
}
