package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/claimledger/internal/ledger"
)

// GoldenDir is the directory, next to the scenario files, holding golden
// traces.
const GoldenDir = "golden"

// TraceSnapshot is the golden form of a scenario trace.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts the snapshot into the value shapes
// ledger.MarshalCanonical accepts.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"step":              event.Step,
			"sender":            event.Sender,
			"action":            event.Action,
			"outcome":           event.Outcome,
			"total_distributed": event.TotalDistributed,
		}
		if event.Error != "" {
			eventMap["error"] = event.Error
		}
		if event.Outcome == OutcomeOK {
			eventMap["seq"] = event.Seq
		}
		if len(event.Transfers) > 0 {
			transfers := make([]any, len(event.Transfers))
			for j, ti := range event.Transfers {
				transfers[j] = map[string]any{
					"id":        ti.ID,
					"contract":  ti.Contract,
					"recipient": ti.Recipient,
					"amount":    ti.Amount,
				}
			}
			eventMap["transfers"] = transfers
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// MarshalTrace renders result's trace as canonical JSON. The same scenario
// always yields the same bytes.
func MarshalTrace(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	return ledger.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot be executed. A trace mismatch
// fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/"+GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
