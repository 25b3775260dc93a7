package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/claimledger/internal/contract"
	"github.com/roach88/claimledger/internal/store"
)

// LedgerOptions holds the flags shared by commands that open a ledger
// database.
type LedgerOptions struct {
	*RootOptions
	Database      string
	WithdrawToken string
}

func (o *LedgerOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&o.WithdrawToken, "withdraw-token", "configured",
		"token withdrawn by the admin (configured|legacy)")
}

func (o *LedgerOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// newLogger returns a logger on the command's stderr. JSON output format
// selects the JSON handler; verbose lowers the threshold to debug.
func newLogger(cmd *cobra.Command, opts *RootOptions, level slog.Level) *slog.Logger {
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if opts.Format == "json" {
		return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), handlerOpts))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), handlerOpts))
}

// openContract opens the database at path and wraps it in a contract.
// The caller closes the returned store.
func openContract(path, withdraw string, logger *slog.Logger) (*store.Store, *contract.Contract, error) {
	token, err := contract.ParseWithdrawToken(withdraw)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid --withdraw-token", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	c := contract.New(st,
		contract.WithLogger(logger),
		contract.WithWithdrawToken(token),
	)
	return st, c, nil
}

func closeStore(st *store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	}
}

// signalContext derives a context from the command's context that is
// cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// messageArg returns the JSON message given as the single positional
// argument, or read from stdin when the argument is "-".
func messageArg(cmd *cobra.Command, arg string) ([]byte, error) {
	if arg != "-" {
		return []byte(arg), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty message on stdin")
	}
	return data, nil
}
