package contract

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/claimledger/internal/ledger"
	"github.com/roach88/claimledger/internal/store"
)

// IDGenerator generates operation IDs.
// Implemented by UUIDv7Generator (production) and testutil.SequenceGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered UUIDv7 operation IDs.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// WithdrawToken selects which token reference WithdrawByAdmin pays out from.
type WithdrawToken int

const (
	// WithdrawConfigured pays out from the configured token address.
	WithdrawConfigured WithdrawToken = iota

	// WithdrawLegacy pays out from ledger.LegacyTokenAddress, matching
	// deployments that relied on the hardcoded reference.
	WithdrawLegacy
)

// String returns the configuration name of w.
func (w WithdrawToken) String() string {
	switch w {
	case WithdrawConfigured:
		return "configured"
	case WithdrawLegacy:
		return "legacy"
	}
	return fmt.Sprintf("WithdrawToken(%d)", int(w))
}

// ParseWithdrawToken parses "configured" or "legacy". Empty means configured.
func ParseWithdrawToken(s string) (WithdrawToken, error) {
	switch s {
	case "", "configured":
		return WithdrawConfigured, nil
	case "legacy":
		return WithdrawLegacy, nil
	}
	return 0, fmt.Errorf("invalid withdraw token mode %q: must be configured or legacy", s)
}

// Contract executes ledger operations against a store.
//
// Contract holds no ledger state of its own; every operation loads what it
// needs inside its transaction. Callers that need a total order across
// goroutines submit through the executor package.
type Contract struct {
	store         *store.Store
	logger        *slog.Logger
	validator     ledger.AddressValidator
	ids           IDGenerator
	withdrawToken WithdrawToken
}

// Option configures a Contract.
type Option func(*Contract)

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(c *Contract) { c.logger = l }
}

// WithValidator sets the address validator. Default: ledger.BasicValidator.
func WithValidator(v ledger.AddressValidator) Option {
	return func(c *Contract) { c.validator = v }
}

// WithIDGenerator sets the operation ID generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Contract) { c.ids = g }
}

// WithWithdrawToken selects the withdrawal token reference. Default: WithdrawConfigured.
func WithWithdrawToken(w WithdrawToken) Option {
	return func(c *Contract) { c.withdrawToken = w }
}

// New creates a Contract over st.
func New(st *store.Store, opts ...Option) *Contract {
	c := &Contract{
		store:         st,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		validator:     ledger.BasicValidator{},
		ids:           UUIDv7Generator{},
		withdrawToken: WithdrawConfigured,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the underlying store.
func (c *Contract) Store() *store.Store {
	return c.store
}

// Response is the result of a committed operation.
type Response struct {
	OperationID string                       `json:"operation_id"`
	Seq         int64                        `json:"seq"`
	Attributes  []ledger.Attribute           `json:"attributes"`
	Transfers   []ledger.TransferInstruction `json:"transfers"`
}

// Attribute returns the value of the first attribute named key.
func (r Response) Attribute(key string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// pending collects the effects of an operation while its transaction is open.
type pending struct {
	attrs     []ledger.Attribute
	transfers []ledger.TransferInstruction
}

func (p *pending) attr(key, value string) {
	p.attrs = append(p.attrs, ledger.Attribute{Key: key, Value: value})
}

func (p *pending) transfer(ti ledger.TransferInstruction) {
	p.transfers = append(p.transfers, ti)
}

// opFunc applies one operation's checks and writes on tx.
type opFunc func(ctx context.Context, tx *store.Tx, p *pending) error

// run executes fn in one transaction, then appends the operation log entry
// and enqueues transfer instructions in that same transaction.
// Errors leave every record untouched and are returned as *ledger.Error.
func (c *Contract) run(ctx context.Context, action string, sender ledger.Address, fn opFunc) (Response, error) {
	opID := c.ids.Generate()
	var resp Response

	err := c.store.Update(ctx, func(tx *store.Tx) error {
		p := &pending{}
		if err := fn(ctx, tx, p); err != nil {
			return err
		}

		seq, err := tx.AppendOperation(ctx, store.Operation{
			ID:         opID,
			Action:     action,
			Sender:     sender,
			Attributes: p.attrs,
		})
		if err != nil {
			return err
		}

		transfers := make([]ledger.TransferInstruction, 0, len(p.transfers))
		for _, ti := range p.transfers {
			ti.ID, err = ledger.TransferID(ti.Contract, ti.Recipient, ti.Amount, seq)
			if err != nil {
				return err
			}
			if err := tx.EnqueueTransfer(ctx, seq, ti); err != nil {
				return err
			}
			transfers = append(transfers, ti)
		}

		resp = Response{
			OperationID: opID,
			Seq:         seq,
			Attributes:  p.attrs,
			Transfers:   transfers,
		}
		return nil
	})
	if err != nil {
		le := ledger.AsLedgerError(action, err)
		c.logger.Warn("operation rejected",
			"action", action,
			"sender", sender,
			"kind", le.Kind,
			"error", le.Error(),
		)
		return Response{}, le
	}

	c.logger.Info("operation committed",
		"action", action,
		"sender", sender,
		"op_id", resp.OperationID,
		"seq", resp.Seq,
		"transfers", len(resp.Transfers),
	)
	return resp, nil
}
