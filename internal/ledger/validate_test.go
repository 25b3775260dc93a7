package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicValidator(t *testing.T) {
	tests := []struct {
		addr  Address
		valid bool
	}{
		{"admin", true},
		{"user1", true},
		{"token_address", true},
		{"juno1abc-def", true},
		{"", false},
		{"ab", false},
		{" admin", false},
		{"Admin", false},
		{"adm in", false},
		{"adm!n", false},
		{"admi\u00f1", false},
		{Address(strings.Repeat("a", MaxAddressLen)), true},
		{Address(strings.Repeat("a", MaxAddressLen+1)), false},
	}
	v := BasicValidator{}
	for _, tt := range tests {
		err := v.Validate(tt.addr)
		if tt.valid {
			assert.NoError(t, err, "%q", tt.addr)
		} else {
			assert.Error(t, err, "%q", tt.addr)
		}
	}
}

func TestValidateConfig(t *testing.T) {
	v := BasicValidator{}
	good := Config{Admin: "admin", TokenAddress: "tok", TotalSupply: 10, AirdropAmount: 1}
	assert.NoError(t, ValidateConfig(v, good))

	bad := good
	bad.Admin = "A"
	err := ValidateConfig(v, bad)
	assert.True(t, IsKind(err, KindConfigInvalid))
	assert.Equal(t, "admin", err.(*Error).Details["field"])

	bad = good
	bad.TokenAddress = ""
	err = ValidateConfig(v, bad)
	assert.Equal(t, "token_address", err.(*Error).Details["field"])

	bad = good
	bad.TotalSupply = -1
	assert.True(t, IsKind(ValidateConfig(v, bad), KindConfigInvalid))
}
