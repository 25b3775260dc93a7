package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/claimledger/internal/contract"
	"github.com/roach88/claimledger/internal/ledger"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Options tunes the contract under test.
	Options Options `yaml:"options,omitempty"`

	// Instantiate is the initial configuration.
	Instantiate InstantiateStep `yaml:"instantiate"`

	// Steps are applied in order after instantiation.
	Steps []Step `yaml:"steps"`

	// Final holds expectations checked after the last step.
	Final *FinalExpect `yaml:"final,omitempty"`
}

// Options tunes the contract under test.
type Options struct {
	// WithdrawToken is "configured" (default) or "legacy".
	WithdrawToken string `yaml:"withdraw_token,omitempty"`

	// StoredContract overwrites the stored contract name after
	// instantiation, simulating a store written by another contract kind.
	StoredContract string `yaml:"stored_contract,omitempty"`
}

// InstantiateStep carries the initial configuration. Sender defaults to Admin.
type InstantiateStep struct {
	Sender        string `yaml:"sender,omitempty"`
	Admin         string `yaml:"admin"`
	TokenAddress  string `yaml:"token_address"`
	TotalSupply   int64  `yaml:"total_supply"`
	AirdropAmount int64  `yaml:"airdrop_amount"`
}

// Msg returns the instantiate message.
func (s InstantiateStep) Msg() ledger.InstantiateMsg {
	return ledger.InstantiateMsg{
		Admin:         ledger.Address(s.Admin),
		TokenAddress:  ledger.Address(s.TokenAddress),
		TotalSupply:   ledger.Amount(s.TotalSupply),
		AirdropAmount: ledger.Amount(s.AirdropAmount),
	}
}

// Step is one request. Exactly one of Execute and Migrate is set.
type Step struct {
	Sender string `yaml:"sender,omitempty"`

	// Execute is an execute message written as YAML, e.g. {claim: {}}.
	Execute map[string]any `yaml:"execute,omitempty"`

	// Migrate runs a migration instead of an execute message.
	Migrate bool `yaml:"migrate,omitempty"`

	// Expect specifies the expected outcome. If nil, the step is only traced.
	Expect *StepExpect `yaml:"expect,omitempty"`
}

// ExecuteMsg converts the YAML message into a strictly parsed ExecuteMsg.
func (s Step) ExecuteMsg() (ledger.ExecuteMsg, error) {
	data, err := json.Marshal(s.Execute)
	if err != nil {
		return ledger.ExecuteMsg{}, fmt.Errorf("encode execute message: %w", err)
	}
	return ledger.ParseExecuteMsg(data)
}

// StepExpect specifies what a step must return.
type StepExpect struct {
	// Error is the expected error kind. Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Transfers, if set, must equal the emitted instructions in order.
	Transfers []TransferExpect `yaml:"transfers,omitempty"`

	// Attributes is a subset match on the response attributes.
	Attributes map[string]string `yaml:"attributes,omitempty"`
}

// TransferExpect is an expected transfer instruction.
type TransferExpect struct {
	Contract  string `yaml:"contract"`
	Recipient string `yaml:"recipient"`
	Amount    int64  `yaml:"amount"`
}

// FinalExpect holds expectations on the ledger after the last step.
type FinalExpect struct {
	TotalDistributed *int64   `yaml:"total_distributed,omitempty"`
	Admin            string   `yaml:"admin,omitempty"`
	Claimed          []string `yaml:"claimed,omitempty"`
	Unclaimed        []string `yaml:"unclaimed,omitempty"`
	PendingTransfers *int64   `yaml:"pending_transfers,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := contract.ParseWithdrawToken(s.Options.WithdrawToken); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch {
		case step.Migrate && step.Execute != nil:
			return fmt.Errorf("steps[%d]: execute and migrate are mutually exclusive", i)
		case step.Migrate:
		case step.Execute == nil:
			return fmt.Errorf("steps[%d]: execute or migrate is required", i)
		default:
			if step.Sender == "" {
				return fmt.Errorf("steps[%d]: sender is required for execute", i)
			}
			if _, err := step.ExecuteMsg(); err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
		if step.Expect != nil && step.Expect.Error != "" && !isKind(step.Expect.Error) {
			return fmt.Errorf("steps[%d].expect: unknown error kind %q", i, step.Expect.Error)
		}
	}
	return nil
}

func isKind(s string) bool {
	for _, k := range ledger.Kinds {
		if string(k) == s {
			return true
		}
	}
	return false
}
