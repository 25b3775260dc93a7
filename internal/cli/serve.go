package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/claimledger/internal/config"
	"github.com/roach88/claimledger/internal/executor"
	"github.com/roach88/claimledger/internal/server"
)

// ServeOptions holds flags for the serve command. Flags override the
// CLAIMLEDGER_* environment.
type ServeOptions struct {
	*RootOptions
	config.ServeConfig
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Long: `Serve the ledger over HTTP.

Every request goes through a single-writer executor, so operations are
applied one at a time in arrival order. The sender of an execute request
is taken from the X-Sender header.

Environment:
  CLAIMLEDGER_DB              database path
  CLAIMLEDGER_LISTEN_ADDR     listen address (default :8080)
  CLAIMLEDGER_RATE_RPS        per-sender request rate (default 5, 0 disables)
  CLAIMLEDGER_RATE_BURST      per-sender burst (default 10)
  CLAIMLEDGER_WITHDRAW_TOKEN  configured|legacy (default configured)

Example:
  claimledger serve --db ./ledger.db --listen :8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.ListenAddr, "listen", "", "listen address")
	cmd.Flags().Float64Var(&opts.RateRPS, "rate-rps", 0, "per-sender requests per second (0 disables)")
	cmd.Flags().IntVar(&opts.RateBurst, "rate-burst", 0, "per-sender burst")
	cmd.Flags().StringVar(&opts.WithdrawToken, "withdraw-token", "", "token withdrawn by the admin (configured|legacy)")

	return cmd
}

// resolve merges the environment under the flags that were set.
func (o *ServeOptions) resolve(cmd *cobra.Command) (config.ServeConfig, error) {
	cfg, err := config.LoadServe()
	if err != nil {
		return config.ServeConfig{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = o.DBPath
	}
	if flags.Changed("listen") {
		cfg.ListenAddr = o.ListenAddr
	}
	if flags.Changed("rate-rps") {
		cfg.RateRPS = o.RateRPS
	}
	if flags.Changed("rate-burst") {
		cfg.RateBurst = o.RateBurst
	}
	if flags.Changed("withdraw-token") {
		cfg.WithdrawToken = o.WithdrawToken
	}
	if cfg.DBPath == "" {
		return config.ServeConfig{}, fmt.Errorf("database path is required (--db or CLAIMLEDGER_DB)")
	}
	if err := cfg.Validate(); err != nil {
		return config.ServeConfig{}, err
	}
	return cfg, nil
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := newLogger(cmd, opts.RootOptions, slog.LevelInfo)

	cfg, err := opts.resolve(cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger.Info("opening database", "path", cfg.DBPath)
	st, c, err := openContract(cfg.DBPath, cfg.WithdrawToken, logger)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	exec := executor.New(c, executor.WithLogger(logger))
	execDone := make(chan error, 1)
	go func() { execDone <- exec.Run(ctx) }()

	srv := server.New(server.Config{
		Ledger: exec,
		Logger: logger,
		RPS:    cfg.RateRPS,
		Burst:  cfg.RateBurst,
	})

	serveErr := srv.ListenAndServe(ctx, cfg.ListenAddr)
	exec.Stop()
	if err := <-execDone; err != nil && !isShutdown(err) {
		logger.Error("executor stopped with error", "error", err)
	}

	if serveErr != nil && !isShutdown(serveErr) {
		return WrapExitError(ExitCommandError, "http server error", serveErr)
	}
	logger.Info("server stopped gracefully")
	return nil
}

func isShutdown(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
