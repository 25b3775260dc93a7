package harness

import "github.com/roach88/claimledger/internal/ledger"

// Outcomes recorded in the trace.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// TraceEvent records one applied request.
type TraceEvent struct {
	Step             int                          `json:"step"`
	Sender           string                       `json:"sender"`
	Action           string                       `json:"action"`
	Outcome          string                       `json:"outcome"`
	Error            ledger.Kind                  `json:"error,omitempty"`
	Seq              int64                        `json:"seq,omitempty"`
	Transfers        []ledger.TransferInstruction `json:"transfers,omitempty"`
	TotalDistributed ledger.Amount                `json:"total_distributed"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation matched.
	Pass bool `json:"pass"`

	// Trace contains one event per request, instantiate first.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
