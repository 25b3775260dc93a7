package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/claimledger/internal/ledger"
)

func loadTestdata(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", name+".yaml"))
	require.NoError(t, err)
	return scenario
}

func TestScenarios_Golden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		scenario, err := LoadScenario(file)
		require.NoError(t, err, file)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "expectation failures: %v", result.Errors)
		})
	}
}

func TestRun_ClaimOnce(t *testing.T) {
	result, err := Run(loadTestdata(t, "claim_once"))
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)
	require.Len(t, result.Trace, 3)

	first := result.Trace[1]
	assert.Equal(t, OutcomeOK, first.Outcome)
	assert.Equal(t, int64(2), first.Seq)
	require.Len(t, first.Transfers, 1)
	assert.Equal(t, ledger.Address("user1"), first.Transfers[0].Recipient)
	assert.Equal(t, ledger.Amount(100), first.Transfers[0].Amount)

	again := result.Trace[2]
	assert.Equal(t, OutcomeError, again.Outcome)
	assert.Equal(t, ledger.KindAlreadyClaimed, again.Error)
	assert.Equal(t, ledger.Amount(100), again.TotalDistributed)
}

func TestRun_Deterministic(t *testing.T) {
	scenario := loadTestdata(t, "withdraw_leftover")

	a, err := Run(scenario)
	require.NoError(t, err)
	b, err := Run(scenario)
	require.NoError(t, err)

	ja, err := MarshalTrace(scenario.Name, a)
	require.NoError(t, err)
	jb, err := MarshalTrace(scenario.Name, b)
	require.NoError(t, err)
	assert.Equal(t, string(ja), string(jb))
}

func TestRun_ExpectationMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "expectations that do not hold",
		Instantiate: InstantiateStep{Admin: "admin", TokenAddress: "tok", TotalSupply: 100, AirdropAmount: 10},
		Steps: []Step{
			{
				Sender:  "user1",
				Execute: map[string]any{"claim": map[string]any{}},
				Expect: &StepExpect{
					Transfers:  []TransferExpect{{Contract: "tok", Recipient: "user1", Amount: 99}},
					Attributes: map[string]string{"claimer": "someone", "missing": "x"},
				},
			},
			{
				Sender:  "user1",
				Execute: map[string]any{"claim": map[string]any{}},
				Expect:  &StepExpect{Error: string(ledger.KindSupplyExhausted)},
			},
			{
				Sender:  "user2",
				Execute: map[string]any{"claim": map[string]any{}},
				Expect:  &StepExpect{Error: string(ledger.KindUnauthorized)},
			},
		},
		Final: &FinalExpect{
			TotalDistributed: ptr(int64(10)),
			Admin:            "other",
			Claimed:          []string{"user3"},
			Unclaimed:        []string{"user1"},
			PendingTransfers: ptr(int64(0)),
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	assertHasError(t, result, "step 1: transfer 0")
	assertHasError(t, result, `step 1: attribute "claimer"`)
	assertHasError(t, result, `step 1: missing attribute "missing"`)
	assertHasError(t, result, "step 2: expected error SUPPLY_EXHAUSTED, got ALREADY_CLAIMED")
	assertHasError(t, result, "step 3: expected error UNAUTHORIZED, got success")
	assertHasError(t, result, "final: total_distributed: expected 10, got 20")
	assertHasError(t, result, `final: admin: expected "other"`)
	assertHasError(t, result, "user3 (expected claimed)")
	assertHasError(t, result, "user1 (expected unclaimed)")
	assertHasError(t, result, "final: pending_transfers: expected 0, got 2")
}

func TestRun_InstantiateRejected(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_instantiate",
		Description: "invalid admin address",
		Instantiate: InstantiateStep{Sender: "deployer", Admin: "Bad Admin", TokenAddress: "tok", TotalSupply: 100, AirdropAmount: 10},
		Steps: []Step{
			{Sender: "user1", Execute: map[string]any{"claim": map[string]any{}}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Trace)
	assert.Equal(t, ledger.KindConfigInvalid, result.Trace[0].Error)
	assert.Equal(t, "deployer", result.Trace[0].Sender)
	assertHasError(t, result, "instantiate:")
}

func TestRun_UnknownWithdrawOption(t *testing.T) {
	scenario := loadTestdata(t, "claim_once")
	scenario.Options.WithdrawToken = "bogus"

	_, err := Run(scenario)
	require.Error(t, err)
}

func TestAssertGolden_FromResult(t *testing.T) {
	scenario := loadTestdata(t, "supply_exhausted")
	result, err := Run(scenario)
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, "supply_exhausted", result))
}

func TestMarshalTrace_Shape(t *testing.T) {
	result := NewResult()
	result.Trace = append(result.Trace,
		TraceEvent{Step: 0, Sender: "admin", Action: ledger.ActionInstantiate, Outcome: OutcomeOK, Seq: 1},
		TraceEvent{Step: 1, Sender: "user1", Action: ledger.ActionClaim, Outcome: OutcomeError, Error: ledger.KindSupplyExhausted},
	)

	data, err := MarshalTrace("shape", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"shape","trace":[`+
			`{"action":"instantiate","outcome":"ok","sender":"admin","seq":1,"step":0,"total_distributed":"0"},`+
			`{"action":"claim","error":"SUPPLY_EXHAUSTED","outcome":"error","sender":"user1","step":1,"total_distributed":"0"}]}`,
		string(data))
}

func TestGoldenFiles_NoTrailingNewline(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", GoldenDir, "*.golden"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.NotEqual(t, byte('\n'), data[len(data)-1], f)
	}
}

func assertHasError(t *testing.T, result *Result, substr string) {
	t.Helper()
	for _, e := range result.Errors {
		if strings.Contains(e, substr) {
			return
		}
	}
	t.Errorf("no error containing %q in %v", substr, result.Errors)
}

func ptr[T any](v T) *T { return &v }
