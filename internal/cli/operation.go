package cli

import (
	"fmt"
	"strings"

	"github.com/roach88/claimledger/internal/contract"
)

// responseText renders a committed operation for text output.
func responseText(resp contract.Response) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ok seq=%d op=%s", resp.Seq, resp.OperationID)
	for _, a := range resp.Attributes {
		fmt.Fprintf(&sb, "\n  %s: %s", a.Key, a.Value)
	}
	for _, ti := range resp.Transfers {
		fmt.Fprintf(&sb, "\n  transfer %s %s -> %s (%s)", ti.Amount, ti.Contract, ti.Recipient, ti.ID)
	}
	return sb.String()
}

// reportResponse writes resp in the configured format.
func reportResponse(f *OutputFormatter, resp contract.Response) error {
	if f.Format == "json" {
		return f.Success(resp)
	}
	return f.Success(responseText(resp))
}
