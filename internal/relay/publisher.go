package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/roach88/claimledger/internal/ledger"
)

// Publisher delivers one transfer instruction.
type Publisher interface {
	Publish(ctx context.Context, ti ledger.TransferInstruction) error
}

// streamClient is the subset of *redis.Client used by RedisPublisher.
type streamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// DefaultStream is the Redis stream transfer instructions are appended to.
const DefaultStream = "claimledger:transfers"

// RedisPublisher appends instructions to a Redis stream with XADD.
//
// Each entry carries the fields id, contract, recipient, amount and msg,
// where msg is the token contract's execute body.
type RedisPublisher struct {
	client streamClient
	stream string
	maxLen int64
}

// RedisOption configures a RedisPublisher.
type RedisOption func(*RedisPublisher)

// WithStream sets the stream key. Default: DefaultStream.
func WithStream(stream string) RedisOption {
	return func(p *RedisPublisher) { p.stream = stream }
}

// WithMaxLen caps the stream length (approximate trimming). Zero means no cap.
func WithMaxLen(n int64) RedisOption {
	return func(p *RedisPublisher) { p.maxLen = n }
}

// NewRedisPublisher creates a publisher on rdb.
func NewRedisPublisher(rdb *redis.Client, opts ...RedisOption) *RedisPublisher {
	return newRedisPublisher(rdb, opts...)
}

func newRedisPublisher(c streamClient, opts ...RedisOption) *RedisPublisher {
	p := &RedisPublisher{client: c, stream: DefaultStream}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, ti ledger.TransferInstruction) error {
	msg, err := ti.Payload()
	if err != nil {
		return fmt.Errorf("encode transfer %s: %w", ti.ID, err)
	}
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"id":        ti.ID,
			"contract":  string(ti.Contract),
			"recipient": string(ti.Recipient),
			"amount":    ti.Amount.String(),
			"msg":       string(msg),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

// LogPublisher writes instructions to a logger. Used when no broker is
// configured.
type LogPublisher struct {
	Logger *slog.Logger
}

// Publish implements Publisher.
func (p LogPublisher) Publish(ctx context.Context, ti ledger.TransferInstruction) error {
	msg, err := ti.Payload()
	if err != nil {
		return fmt.Errorf("encode transfer %s: %w", ti.ID, err)
	}
	p.Logger.InfoContext(ctx, "transfer",
		"id", ti.ID,
		"contract", ti.Contract,
		"recipient", ti.Recipient,
		"amount", ti.Amount.String(),
		"msg", string(msg),
	)
	return nil
}
