package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/roach88/claimledger/internal/config"
	"github.com/roach88/claimledger/internal/relay"
	"github.com/roach88/claimledger/internal/store"
)

// RelayOptions holds flags for the relay command. Flags override the
// CLAIMLEDGER_* environment.
type RelayOptions struct {
	*RootOptions
	config.RelayConfig
	MaxLen int64
	Once   bool
}

// NewRelayCommand creates the relay command.
func NewRelayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RelayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Deliver pending transfer instructions",
		Long: `Deliver pending transfer instructions from the ledger outbox.

Instructions are published to a Redis stream when a Redis address is
configured, and logged otherwise. Delivery is at-least-once; consumers
de-duplicate on the instruction id.

Environment:
  CLAIMLEDGER_DB              database path
  CLAIMLEDGER_REDIS_ADDR      Redis address (empty logs instead)
  CLAIMLEDGER_REDIS_STREAM    stream key (default claimledger:transfers)
  CLAIMLEDGER_RELAY_INTERVAL  poll interval (default 2s)
  CLAIMLEDGER_RELAY_BATCH     rows per page (default 50)

Examples:
  claimledger relay --db ./ledger.db --redis-addr localhost:6379
  claimledger relay --db ./ledger.db --once`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.RedisAddr, "redis-addr", "", "Redis address")
	cmd.Flags().StringVar(&opts.RedisStream, "stream", "", "Redis stream key")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "poll interval")
	cmd.Flags().IntVar(&opts.Batch, "batch", 0, "rows read per page")
	cmd.Flags().Int64Var(&opts.MaxLen, "max-len", 0, "approximate stream length cap (0 keeps everything)")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "drain once and exit")

	return cmd
}

func (o *RelayOptions) resolve(cmd *cobra.Command) (config.RelayConfig, error) {
	cfg, err := config.LoadRelay()
	if err != nil {
		return config.RelayConfig{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = o.DBPath
	}
	if flags.Changed("redis-addr") {
		cfg.RedisAddr = o.RedisAddr
	}
	if flags.Changed("stream") {
		cfg.RedisStream = o.RedisStream
	}
	if flags.Changed("interval") {
		if o.Interval <= 0 {
			return config.RelayConfig{}, fmt.Errorf("--interval must be positive")
		}
		cfg.Interval = o.Interval
	}
	if flags.Changed("batch") {
		cfg.Batch = o.Batch
	}
	if cfg.DBPath == "" {
		return config.RelayConfig{}, fmt.Errorf("database path is required (--db or CLAIMLEDGER_DB)")
	}
	return cfg, nil
}

func runRelay(opts *RelayOptions, cmd *cobra.Command) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	logger := newLogger(cmd, opts.RootOptions, slog.LevelInfo)

	cfg, err := opts.resolve(cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeStore(st, logger)

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	var pub relay.Publisher = relay.LogPublisher{Logger: logger}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return WrapExitError(ExitCommandError, "failed to reach redis", err)
		}
		pubOpts := []relay.RedisOption{relay.WithStream(cfg.RedisStream)}
		if opts.MaxLen > 0 {
			pubOpts = append(pubOpts, relay.WithMaxLen(opts.MaxLen))
		}
		pub = relay.NewRedisPublisher(rdb, pubOpts...)
		logger.Info("publishing to redis", "addr", cfg.RedisAddr, "stream", cfg.RedisStream)
	}

	r := relay.New(st, pub,
		relay.WithBatch(cfg.Batch),
		relay.WithInterval(cfg.Interval),
		relay.WithLogger(logger),
	)

	if opts.Once {
		start := time.Now()
		sent, err := r.Drain(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("drain stopped after %d instructions", sent), err)
		}
		f.VerboseLog("drained in %s", time.Since(start))
		if f.Format == "json" {
			return f.Success(map[string]int{"dispatched": sent})
		}
		return f.Success(fmt.Sprintf("dispatched %d transfer instructions", sent))
	}

	if err := r.Run(ctx); err != nil && !isShutdown(err) {
		return WrapExitError(ExitCommandError, "relay error", err)
	}
	logger.Info("relay stopped gracefully")
	return nil
}
