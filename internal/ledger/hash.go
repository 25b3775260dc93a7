package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainTransfer is the domain prefix for transfer instruction IDs.
// The version suffix allows future algorithm migration.
const DomainTransfer = "claimledger/transfer/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TransferID computes the content-addressed ID of a transfer instruction
// emitted by the operation with the given seq. The ID is the downstream
// de-duplication key, so the same operation always yields the same ID.
func TransferID(contract, recipient Address, amount Amount, seq int64) (string, error) {
	obj := map[string]any{
		"contract":  contract,
		"recipient": recipient,
		"amount":    amount,
		"seq":       seq,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("TransferID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTransfer, canonical), nil
}
