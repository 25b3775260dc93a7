package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidMessage is returned when a request body cannot be decoded into
// exactly one message variant. It is a transport error, not a ledger Kind.
var ErrInvalidMessage = errors.New("invalid message")

// InstantiateMsg carries the initial configuration.
type InstantiateMsg struct {
	Admin         Address `json:"admin"`
	TokenAddress  Address `json:"token_address"`
	TotalSupply   Amount  `json:"total_supply"`
	AirdropAmount Amount  `json:"airdrop_amount"`
}

// Config returns the configuration this message installs.
func (m InstantiateMsg) Config() Config {
	return Config{
		Admin:         m.Admin,
		TokenAddress:  m.TokenAddress,
		TotalSupply:   m.TotalSupply,
		AirdropAmount: m.AirdropAmount,
	}
}

// Execute actions, as reported in the "action" attribute and operation log.
const (
	ActionInstantiate  = "instantiate"
	ActionClaim        = "claim"
	ActionChangeAdmin  = "change the admin"
	ActionUpdateConfig = "update configuration"
	ActionWithdraw     = "withdraw token by admin"
	ActionMigrate      = "migrate"
)

// ExecuteMsg is a tagged union; exactly one field is set.
type ExecuteMsg struct {
	Claim                *ClaimMsg        `json:"claim,omitempty"`
	ChangeAdmin          *ChangeAdminMsg  `json:"change_admin,omitempty"`
	UpdateConfig         *UpdateConfigMsg `json:"update_config,omitempty"`
	WithdrawTokenByAdmin *WithdrawMsg     `json:"withdraw_token_by_admin,omitempty"`
}

// ClaimMsg requests the sender's allotment.
type ClaimMsg struct{}

// ChangeAdminMsg replaces the admin address.
type ChangeAdminMsg struct {
	Address Address `json:"address"`
}

// UpdateConfigMsg overwrites the whole configuration.
type UpdateConfigMsg struct {
	State Config `json:"state"`
}

// WithdrawMsg sends the undistributed supply to the admin.
type WithdrawMsg struct{}

// Action returns the action name of the set variant, or "" if none is set.
func (m ExecuteMsg) Action() string {
	switch {
	case m.Claim != nil:
		return ActionClaim
	case m.ChangeAdmin != nil:
		return ActionChangeAdmin
	case m.UpdateConfig != nil:
		return ActionUpdateConfig
	case m.WithdrawTokenByAdmin != nil:
		return ActionWithdraw
	}
	return ""
}

func (m ExecuteMsg) variants() int {
	n := 0
	for _, set := range []bool{
		m.Claim != nil,
		m.ChangeAdmin != nil,
		m.UpdateConfig != nil,
		m.WithdrawTokenByAdmin != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// ParseExecuteMsg decodes an execute body such as {"claim":{}}.
// Unknown variants, unknown fields and multiple variants are rejected.
func ParseExecuteMsg(data []byte) (ExecuteMsg, error) {
	var msg ExecuteMsg
	if err := decodeStrict(data, &msg); err != nil {
		return ExecuteMsg{}, fmt.Errorf("%w: execute: %v", ErrInvalidMessage, err)
	}
	if n := msg.variants(); n != 1 {
		return ExecuteMsg{}, fmt.Errorf("%w: execute: expected exactly one variant, got %d", ErrInvalidMessage, n)
	}
	return msg, nil
}

// QueryMsg is a tagged union of read-only requests; exactly one field is set.
type QueryMsg struct {
	GetUserInfo  *GetUserInfoQuery  `json:"get_user_info,omitempty"`
	GetSaleInfo  *GetSaleInfoQuery  `json:"get_sale_info,omitempty"`
	GetUserInfos *GetUserInfosQuery `json:"get_user_infos,omitempty"`
}

// GetUserInfoQuery asks for one claim record.
type GetUserInfoQuery struct {
	Address Address `json:"address"`
}

// GetSaleInfoQuery asks for the running total.
type GetSaleInfoQuery struct{}

// GetUserInfosQuery pages through claim records in address order.
type GetUserInfosQuery struct {
	StartAfter *Address `json:"start_after,omitempty"`
	Limit      *uint32  `json:"limit,omitempty"`
}

// ParseQueryMsg decodes a query body such as {"get_sale_info":{}}.
func ParseQueryMsg(data []byte) (QueryMsg, error) {
	var msg QueryMsg
	if err := decodeStrict(data, &msg); err != nil {
		return QueryMsg{}, fmt.Errorf("%w: query: %v", ErrInvalidMessage, err)
	}
	n := 0
	if msg.GetUserInfo != nil {
		n++
	}
	if msg.GetSaleInfo != nil {
		n++
	}
	if msg.GetUserInfos != nil {
		n++
	}
	if n != 1 {
		return QueryMsg{}, fmt.Errorf("%w: query: expected exactly one variant, got %d", ErrInvalidMessage, n)
	}
	return msg, nil
}

// MigrateMsg carries no parameters; the stored identity is what is checked.
type MigrateMsg struct{}

// UserInfosResponse is the page returned by get_user_infos.
type UserInfosResponse struct {
	UserInfos []ClaimRecord `json:"user_infos"`
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after message")
	}
	return nil
}
