package contract

import "github.com/roach88/claimledger/internal/ledger"

// DescribeTransfer returns the instruction moving amount of the token at
// token to recipient. It performs no I/O. The ID is assigned when the
// instruction is enqueued, because it depends on the operation's seq.
func DescribeTransfer(token, recipient ledger.Address, amount ledger.Amount) ledger.TransferInstruction {
	return ledger.TransferInstruction{
		Contract:  token,
		Recipient: recipient,
		Amount:    amount,
	}
}
