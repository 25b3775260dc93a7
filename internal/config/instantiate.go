package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/claimledger/internal/ledger"
)

//go:embed schema.cue
var instantiateSchema string

// instantiateFields mirrors #Instantiate for decoding.
type instantiateFields struct {
	Admin         string `json:"admin"`
	TokenAddress  string `json:"token_address"`
	TotalSupply   int64  `json:"total_supply"`
	AirdropAmount int64  `json:"airdrop_amount"`
}

// LoadInstantiate reads a CUE (or JSON) file and validates it against the
// embedded #Instantiate schema. Schema violations are CONFIG_INVALID.
// Address syntax is checked later by the contract's validator.
func LoadInstantiate(path string) (ledger.InstantiateMsg, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ledger.InstantiateMsg{}, fmt.Errorf("read instantiate file: %w", err)
	}
	return ParseInstantiate(path, data)
}

// ParseInstantiate validates data as an instantiate file named filename.
func ParseInstantiate(filename string, data []byte) (ledger.InstantiateMsg, error) {
	cctx := cuecontext.New()

	schema := cctx.CompileString(instantiateSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return ledger.InstantiateMsg{}, fmt.Errorf("compile instantiate schema: %w", err)
	}

	v := cctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return ledger.InstantiateMsg{}, ledger.NewConfigInvalid("instantiate", firstCUEError(err))
	}

	if err := rejectUnknownFields(v); err != nil {
		return ledger.InstantiateMsg{}, err
	}

	unified := schema.LookupPath(cue.ParsePath("#Instantiate")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return ledger.InstantiateMsg{}, ledger.NewConfigInvalid("instantiate", firstCUEError(err))
	}

	var f instantiateFields
	if err := unified.Decode(&f); err != nil {
		return ledger.InstantiateMsg{}, ledger.NewConfigInvalid("instantiate", firstCUEError(err))
	}
	return ledger.InstantiateMsg{
		Admin:         ledger.Address(f.Admin),
		TokenAddress:  ledger.Address(f.TokenAddress),
		TotalSupply:   ledger.Amount(f.TotalSupply),
		AirdropAmount: ledger.Amount(f.AirdropAmount),
	}, nil
}

var instantiateKeys = map[string]bool{
	"admin":          true,
	"token_address":  true,
	"total_supply":   true,
	"airdrop_amount": true,
}

func rejectUnknownFields(v cue.Value) error {
	iter, err := v.Fields()
	if err != nil {
		return ledger.NewConfigInvalid("instantiate", firstCUEError(err))
	}
	for iter.Next() {
		if label := iter.Selector().String(); !instantiateKeys[label] {
			return ledger.NewConfigInvalid("instantiate", fmt.Sprintf("unknown field %q", label))
		}
	}
	return nil
}

// firstCUEError renders the first CUE error with its position.
func firstCUEError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	first := errs[0]
	if pos := cueerrors.Positions(first); len(pos) > 0 {
		return fmt.Sprintf("%s: %s", pos[0], first.Error())
	}
	return first.Error()
}
