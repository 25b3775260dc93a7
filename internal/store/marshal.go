package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/claimledger/internal/ledger"
)

// marshalAttributes converts operation attributes to canonical JSON TEXT.
// Attribute order is preserved; each entry is a {"key","value"} object.
func marshalAttributes(attrs []ledger.Attribute) (string, error) {
	list := make([]any, len(attrs))
	for i, a := range attrs {
		list[i] = map[string]any{"key": a.Key, "value": a.Value}
	}
	data, err := ledger.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal attributes: %w", err)
	}
	return string(data), nil
}

// unmarshalAttributes parses attributes written by marshalAttributes.
func unmarshalAttributes(data string) ([]ledger.Attribute, error) {
	if data == "" || data == "[]" {
		return []ledger.Attribute{}, nil
	}
	var attrs []ledger.Attribute
	if err := json.Unmarshal([]byte(data), &attrs); err != nil {
		return nil, fmt.Errorf("unmarshal attributes: %w", err)
	}
	return attrs, nil
}
