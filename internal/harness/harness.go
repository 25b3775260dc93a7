package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/claimledger/internal/contract"
	"github.com/roach88/claimledger/internal/ledger"
	"github.com/roach88/claimledger/internal/store"
	"github.com/roach88/claimledger/internal/testutil"
)

// Harness applies one scenario to one contract.
type Harness struct {
	store    *store.Store
	contract *contract.Contract
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with sequential
// operation IDs. Ledger rejections are part of the trace, not errors;
// Run returns an error only when the scenario cannot be executed at all.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	withdraw, err := contract.ParseWithdrawToken(scenario.Options.WithdrawToken)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		store: st,
		contract: contract.New(st,
			contract.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			contract.WithIDGenerator(testutil.NewSequenceGenerator("op")),
			contract.WithWithdrawToken(withdraw),
		),
	}

	ctx := context.Background()
	result := NewResult()

	if err := h.instantiate(ctx, scenario, result); err != nil {
		return nil, err
	}
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i+1, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	if scenario.Final != nil {
		if err := h.checkFinal(ctx, scenario.Final, result); err != nil {
			return nil, fmt.Errorf("final: %w", err)
		}
	}
	return result, nil
}

func (h *Harness) instantiate(ctx context.Context, scenario *Scenario, result *Result) error {
	step := scenario.Instantiate
	sender := step.Sender
	if sender == "" {
		sender = step.Admin
	}

	resp, err := h.contract.Instantiate(ctx, ledger.Address(sender), step.Msg())
	if recErr := h.record(ctx, 0, sender, ledger.ActionInstantiate, resp, err, result); recErr != nil {
		return recErr
	}
	if err != nil {
		result.AddError(fmt.Sprintf("instantiate: %v", err))
		return nil
	}

	if scenario.Options.StoredContract != "" {
		info := ledger.ContractInfo{Contract: scenario.Options.StoredContract, Version: ledger.ContractVersion}
		if err := h.store.Update(ctx, func(tx *store.Tx) error {
			return tx.SetContractInfo(ctx, info)
		}); err != nil {
			return fmt.Errorf("set stored contract: %w", err)
		}
	}
	return nil
}

func (h *Harness) executeStep(ctx context.Context, n int, step Step, result *Result) error {
	var (
		resp   contract.Response
		err    error
		action string
	)
	if step.Migrate {
		action = ledger.ActionMigrate
		resp, err = h.contract.Migrate(ctx, ledger.MigrateMsg{})
	} else {
		msg, parseErr := step.ExecuteMsg()
		if parseErr != nil {
			return parseErr
		}
		action = msg.Action()
		resp, err = h.contract.Execute(ctx, ledger.Address(step.Sender), msg)
	}

	if recErr := h.record(ctx, n, step.Sender, action, resp, err, result); recErr != nil {
		return recErr
	}
	if step.Expect != nil {
		checkExpect(n, step.Expect, resp, err, result)
	}
	return nil
}

// record appends a trace event. Unclassified errors abort the scenario.
func (h *Harness) record(ctx context.Context, n int, sender, action string, resp contract.Response, opErr error, result *Result) error {
	ev := TraceEvent{
		Step:    n,
		Sender:  sender,
		Action:  action,
		Outcome: OutcomeOK,
	}
	if opErr != nil {
		kind := ledger.KindOf(opErr)
		if kind == "" {
			return opErr
		}
		ev.Outcome = OutcomeError
		ev.Error = kind
	} else {
		ev.Seq = resp.Seq
		ev.Transfers = resp.Transfers
	}

	info, err := h.store.LoadSaleInfo(ctx)
	if err == nil {
		ev.TotalDistributed = info.TotalAirdropped
	}
	result.Trace = append(result.Trace, ev)
	return nil
}

func checkExpect(n int, want *StepExpect, resp contract.Response, err error, result *Result) {
	prefix := fmt.Sprintf("step %d", n)

	if want.Error != "" {
		if err == nil {
			result.AddError(fmt.Sprintf("%s: expected error %s, got success", prefix, want.Error))
			return
		}
		if got := ledger.KindOf(err); string(got) != want.Error {
			result.AddError(fmt.Sprintf("%s: expected error %s, got %s", prefix, want.Error, got))
		}
		return
	}
	if err != nil {
		result.AddError(fmt.Sprintf("%s: expected success, got %v", prefix, err))
		return
	}

	if want.Transfers != nil {
		if len(want.Transfers) != len(resp.Transfers) {
			result.AddError(fmt.Sprintf("%s: expected %d transfers, got %d", prefix, len(want.Transfers), len(resp.Transfers)))
		} else {
			for i, wt := range want.Transfers {
				got := resp.Transfers[i]
				if string(got.Contract) != wt.Contract || string(got.Recipient) != wt.Recipient || int64(got.Amount) != wt.Amount {
					result.AddError(fmt.Sprintf("%s: transfer %d: expected {%s %s %d}, got {%s %s %s}",
						prefix, i, wt.Contract, wt.Recipient, wt.Amount, got.Contract, got.Recipient, got.Amount))
				}
			}
		}
	}

	for key, wantVal := range want.Attributes {
		got, ok := resp.Attribute(key)
		switch {
		case !ok:
			result.AddError(fmt.Sprintf("%s: missing attribute %q", prefix, key))
		case got != wantVal:
			result.AddError(fmt.Sprintf("%s: attribute %q: expected %q, got %q", prefix, key, wantVal, got))
		}
	}
}

func (h *Harness) checkFinal(ctx context.Context, want *FinalExpect, result *Result) error {
	if want.TotalDistributed != nil {
		info, err := h.store.LoadSaleInfo(ctx)
		if err != nil {
			return err
		}
		if int64(info.TotalAirdropped) != *want.TotalDistributed {
			result.AddError(fmt.Sprintf("final: total_distributed: expected %d, got %s", *want.TotalDistributed, info.TotalAirdropped))
		}
	}

	if want.Admin != "" {
		cfg, err := h.store.LoadConfig(ctx)
		if err != nil {
			return err
		}
		if string(cfg.Admin) != want.Admin {
			result.AddError(fmt.Sprintf("final: admin: expected %q, got %q", want.Admin, cfg.Admin))
		}
	}

	var wrong []string
	for _, addr := range want.Claimed {
		rec, err := h.contract.GetUserInfo(ctx, ledger.Address(addr))
		if err != nil {
			return err
		}
		if !rec.IsClaimed {
			wrong = append(wrong, addr+" (expected claimed)")
		}
	}
	for _, addr := range want.Unclaimed {
		rec, err := h.contract.GetUserInfo(ctx, ledger.Address(addr))
		if err != nil {
			return err
		}
		if rec.IsClaimed {
			wrong = append(wrong, addr+" (expected unclaimed)")
		}
	}
	if len(wrong) > 0 {
		result.AddError("final: claim records: " + strings.Join(wrong, ", "))
	}

	if want.PendingTransfers != nil {
		n, err := h.store.CountPendingTransfers(ctx)
		if err != nil {
			return err
		}
		if n != *want.PendingTransfers {
			result.AddError(fmt.Sprintf("final: pending_transfers: expected %d, got %d", *want.PendingTransfers, n))
		}
	}
	return nil
}
