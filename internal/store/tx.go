package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/claimledger/internal/ledger"
)

// querier is satisfied by both *sql.DB and *sql.Tx so reads are shared
// between the Store and an open transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Tx is an open ledger transaction. See Store.Update.
type Tx struct {
	tx *sql.Tx
}

// Operation is one committed entry in the operation log.
type Operation struct {
	Seq        int64              `json:"seq"`
	ID         string             `json:"id"`
	Action     string             `json:"action"`
	Sender     ledger.Address     `json:"sender"`
	Attributes []ledger.Attribute `json:"attributes"`
}

// ContractInfo reads the stored identity tag. found is false on a fresh store.
func (t *Tx) ContractInfo(ctx context.Context) (info ledger.ContractInfo, found bool, err error) {
	return loadContractInfo(ctx, t.tx)
}

// SetContractInfo writes the identity tag, replacing any previous one.
func (t *Tx) SetContractInfo(ctx context.Context, info ledger.ContractInfo) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO contract_info (id, contract, version)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET contract = excluded.contract, version = excluded.version
	`, info.Contract, info.Version)
	if err != nil {
		return fmt.Errorf("set contract info: %w", err)
	}
	return nil
}

// LoadConfig reads the configuration inside the transaction.
func (t *Tx) LoadConfig(ctx context.Context) (ledger.Config, error) {
	return loadConfig(ctx, t.tx)
}

// SaveConfig replaces the whole configuration record.
func (t *Tx) SaveConfig(ctx context.Context, cfg ledger.Config) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO config (id, admin, token_address, total_supply, airdrop_amount)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			admin = excluded.admin,
			token_address = excluded.token_address,
			total_supply = excluded.total_supply,
			airdrop_amount = excluded.airdrop_amount
	`,
		string(cfg.Admin),
		string(cfg.TokenAddress),
		int64(cfg.TotalSupply),
		int64(cfg.AirdropAmount),
	)
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// SetAdmin replaces only the admin field.
func (t *Tx) SetAdmin(ctx context.Context, admin ledger.Address) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE config SET admin = ? WHERE id = 1`, string(admin))
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set admin: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("set admin: %w", ErrNotInitialized)
	}
	return nil
}

// InitSaleInfo creates the running total at zero.
func (t *Tx) InitSaleInfo(ctx context.Context) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO sale_info (id, total_airdropped_amount) VALUES (1, 0)
	`)
	if err != nil {
		return fmt.Errorf("init sale info: %w", err)
	}
	return nil
}

// LoadSaleInfo reads the running total inside the transaction.
func (t *Tx) LoadSaleInfo(ctx context.Context) (ledger.SaleInfo, error) {
	return loadSaleInfo(ctx, t.tx)
}

// Reserve adds amount to the running total if the result stays within the
// configured total supply. On failure the total is left as it was and a
// SUPPLY_EXHAUSTED error is returned.
//
// Reserve must be paired with TryRegister on the same Tx.
func (t *Tx) Reserve(ctx context.Context, amount ledger.Amount) (ledger.SaleInfo, error) {
	cfg, err := loadConfig(ctx, t.tx)
	if err != nil {
		return ledger.SaleInfo{}, fmt.Errorf("reserve: %w", err)
	}
	info, err := loadSaleInfo(ctx, t.tx)
	if err != nil {
		return ledger.SaleInfo{}, fmt.Errorf("reserve: %w", err)
	}

	next, ok := info.TotalAirdropped.Add(amount)
	if !ok || next > cfg.TotalSupply {
		return ledger.SaleInfo{}, ledger.NewSupplyExhausted(amount)
	}

	_, err = t.tx.ExecContext(ctx, `
		UPDATE sale_info SET total_airdropped_amount = ? WHERE id = 1
	`, int64(next))
	if err != nil {
		return ledger.SaleInfo{}, fmt.Errorf("reserve: update: %w", err)
	}
	return ledger.SaleInfo{TotalAirdropped: next}, nil
}

// TryRegister records addr as claimed.
// Returns ALREADY_CLAIMED if a record already exists; records are never
// replaced.
func (t *Tx) TryRegister(ctx context.Context, addr ledger.Address) error {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO claims (address, is_claimed)
		VALUES (?, 1)
		ON CONFLICT(address) DO NOTHING
	`, string(addr))
	if err != nil {
		return fmt.Errorf("register claim: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("register claim: rows affected: %w", err)
	}
	if n == 0 {
		return ledger.NewAlreadyClaimed(addr)
	}
	return nil
}

// AppendOperation writes an operation log entry and returns its seq.
// The seq is assigned by the database, so it is only final once the
// transaction commits.
func (t *Tx) AppendOperation(ctx context.Context, op Operation) (int64, error) {
	attrsJSON, err := marshalAttributes(op.Attributes)
	if err != nil {
		return 0, fmt.Errorf("append operation: %w", err)
	}
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO operations (id, action, sender, attributes)
		VALUES (?, ?, ?, ?)
	`, op.ID, op.Action, string(op.Sender), attrsJSON)
	if err != nil {
		return 0, fmt.Errorf("append operation: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append operation: last insert id: %w", err)
	}
	return seq, nil
}

// EnqueueTransfer stores a transfer instruction in the outbox.
// Duplicate IDs are an error: an ID is derived from its operation's seq, so
// a duplicate means two operations claimed the same seq.
func (t *Tx) EnqueueTransfer(ctx context.Context, seq int64, ti ledger.TransferInstruction) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO transfers (id, seq, contract, recipient, amount)
		VALUES (?, ?, ?, ?, ?)
	`, ti.ID, seq, string(ti.Contract), string(ti.Recipient), int64(ti.Amount))
	if err != nil {
		return fmt.Errorf("enqueue transfer: %w", err)
	}
	return nil
}

func loadContractInfo(ctx context.Context, q querier) (ledger.ContractInfo, bool, error) {
	var info ledger.ContractInfo
	err := q.QueryRowContext(ctx, `
		SELECT contract, version FROM contract_info WHERE id = 1
	`).Scan(&info.Contract, &info.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ContractInfo{}, false, nil
	}
	if err != nil {
		return ledger.ContractInfo{}, false, fmt.Errorf("load contract info: %w", err)
	}
	return info, true, nil
}

func loadConfig(ctx context.Context, q querier) (ledger.Config, error) {
	var (
		admin, token          string
		supply, airdropAmount int64
	)
	err := q.QueryRowContext(ctx, `
		SELECT admin, token_address, total_supply, airdrop_amount
		FROM config WHERE id = 1
	`).Scan(&admin, &token, &supply, &airdropAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Config{}, fmt.Errorf("load config: %w", ErrNotInitialized)
	}
	if err != nil {
		return ledger.Config{}, fmt.Errorf("load config: %w", err)
	}
	return ledger.Config{
		Admin:         ledger.Address(admin),
		TokenAddress:  ledger.Address(token),
		TotalSupply:   ledger.Amount(supply),
		AirdropAmount: ledger.Amount(airdropAmount),
	}, nil
}

func loadSaleInfo(ctx context.Context, q querier) (ledger.SaleInfo, error) {
	var total int64
	err := q.QueryRowContext(ctx, `
		SELECT total_airdropped_amount FROM sale_info WHERE id = 1
	`).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.SaleInfo{}, fmt.Errorf("load sale info: %w", ErrNotInitialized)
	}
	if err != nil {
		return ledger.SaleInfo{}, fmt.Errorf("load sale info: %w", err)
	}
	return ledger.SaleInfo{TotalAirdropped: ledger.Amount(total)}, nil
}
