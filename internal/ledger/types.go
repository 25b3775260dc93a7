package ledger

import "encoding/json"

// Address identifies an account or a token contract.
type Address string

// Config is the singleton ledger configuration.
type Config struct {
	Admin         Address `json:"admin"`
	TokenAddress  Address `json:"token_address"`
	TotalSupply   Amount  `json:"total_supply"`
	AirdropAmount Amount  `json:"airdrop_amount"`
}

// SaleInfo is the singleton running total of distributed tokens.
type SaleInfo struct {
	TotalAirdropped Amount `json:"total_airdropped_amount"`
}

// Leftover returns the undistributed part of supply. A sale info that
// reports more than supply yields zero.
func (s SaleInfo) Leftover(supply Amount) Amount {
	left, ok := supply.Sub(s.TotalAirdropped)
	if !ok {
		return 0
	}
	return left
}

// ClaimRecord marks an address as having claimed. Records are never
// updated or deleted.
type ClaimRecord struct {
	Address   Address `json:"address"`
	IsClaimed bool    `json:"is_claimed"`
}

// ContractInfo is the identity tag recorded in a store.
type ContractInfo struct {
	Contract string `json:"contract"`
	Version  string `json:"version"`
}

// TransferInstruction describes moving Amount of the token at Contract to
// Recipient. It performs nothing by itself; the ledger only decides that the
// transfer is authorized.
type TransferInstruction struct {
	ID        string  `json:"id"`
	Contract  Address `json:"contract"`
	Recipient Address `json:"recipient"`
	Amount    Amount  `json:"amount"`
}

// cw20Transfer is the execute body understood by CW20-style token contracts.
type cw20Transfer struct {
	Transfer struct {
		Recipient Address `json:"recipient"`
		Amount    Amount  `json:"amount"`
	} `json:"transfer"`
}

// Payload renders the instruction as the execute message sent to the token
// contract.
func (t TransferInstruction) Payload() ([]byte, error) {
	var msg cw20Transfer
	msg.Transfer.Recipient = t.Recipient
	msg.Transfer.Amount = t.Amount
	return json.Marshal(msg)
}

// Attribute is a key/value annotation on a successful operation.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
