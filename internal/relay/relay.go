package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/claimledger/internal/store"
)

// Defaults for Relay.
const (
	DefaultBatch    = 50
	DefaultInterval = 2 * time.Second
)

// Relay moves outbox rows to a Publisher.
type Relay struct {
	store    *store.Store
	pub      Publisher
	batch    int
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Relay.
type Option func(*Relay)

// WithBatch sets how many rows are read per page. Default: DefaultBatch.
func WithBatch(n int) Option {
	return func(r *Relay) { r.batch = n }
}

// WithInterval sets how often Run drains. Default: DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(r *Relay) { r.interval = d }
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) { r.logger = l }
}

// WithClock sets the dispatch timestamp source. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

// New creates a Relay from st's outbox to pub.
func New(st *store.Store, pub Publisher, opts ...Option) *Relay {
	r := &Relay{
		store:    st,
		pub:      pub,
		batch:    DefaultBatch,
		interval: DefaultInterval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.batch <= 0 {
		r.batch = DefaultBatch
	}
	return r
}

// Drain publishes every pending row in seq order and returns how many were
// dispatched. It stops at the first publish failure; that row and the ones
// after it stay pending for the next Drain.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	sent := 0
	for {
		page, err := r.store.PendingTransfers(ctx, r.batch)
		if err != nil {
			return sent, err
		}
		if len(page) == 0 {
			return sent, nil
		}

		for _, p := range page {
			if err := ctx.Err(); err != nil {
				return sent, err
			}
			if err := r.pub.Publish(ctx, p.Instruction); err != nil {
				return sent, fmt.Errorf("publish transfer %s (seq %d): %w", p.Instruction.ID, p.Seq, err)
			}
			if err := r.store.MarkDispatched(ctx, []string{p.Instruction.ID}, r.now()); err != nil {
				return sent, err
			}
			sent++
			r.logger.Debug("transfer dispatched", "id", p.Instruction.ID, "seq", p.Seq)
		}
	}
}

// Run drains on every interval until ctx is cancelled. Drain failures are
// logged and retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info("relay starting", "interval", r.interval, "batch", r.batch)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		n, err := r.Drain(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			r.logger.Error("relay drain failed", "dispatched", n, "error", err)
		case n > 0:
			r.logger.Info("relay drained", "dispatched", n)
		}

		select {
		case <-ctx.Done():
			r.logger.Info("relay stopping: context cancelled")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
