package ledger

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// AddressValidator checks address syntax. The rules belong to the host
// environment; BasicValidator is the default.
type AddressValidator interface {
	Validate(addr Address) error
}

// Address length bounds accepted by BasicValidator.
const (
	MinAddressLen = 3
	MaxAddressLen = 90
)

// BasicValidator accepts normalized lower-case identifiers made of
// [a-z0-9_-], between MinAddressLen and MaxAddressLen bytes long.
type BasicValidator struct{}

// Validate implements AddressValidator.
func (BasicValidator) Validate(addr Address) error {
	s := string(addr)
	if s == "" {
		return errors.New("address is empty")
	}
	if strings.TrimSpace(s) != s {
		return errors.New("address has surrounding whitespace")
	}
	if !norm.NFC.IsNormalString(s) {
		return errors.New("address is not NFC normalized")
	}
	if len(s) < MinAddressLen {
		return fmt.Errorf("address shorter than %d bytes", MinAddressLen)
	}
	if len(s) > MaxAddressLen {
		return fmt.Errorf("address longer than %d bytes", MaxAddressLen)
	}
	if strings.ToLower(s) != s {
		return errors.New("address must be lower case")
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return fmt.Errorf("invalid character %q at offset %d", r, i)
		}
	}
	return nil
}

// ValidateConfig checks both addresses of cfg with v and rejects negative
// amounts.
func ValidateConfig(v AddressValidator, cfg Config) error {
	if err := v.Validate(cfg.Admin); err != nil {
		return NewInvalidAddress("admin", cfg.Admin, err)
	}
	if err := v.Validate(cfg.TokenAddress); err != nil {
		return NewInvalidAddress("token_address", cfg.TokenAddress, err)
	}
	if cfg.TotalSupply < 0 {
		return NewConfigInvalid("total_supply", "negative")
	}
	if cfg.AirdropAmount < 0 {
		return NewConfigInvalid("airdrop_amount", "negative")
	}
	return nil
}
