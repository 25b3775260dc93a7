package contract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/claimledger/internal/ledger"
)

// Page size bounds for ListUserInfos.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 30
)

// Query answers msg and returns its JSON response.
func (c *Contract) Query(ctx context.Context, msg ledger.QueryMsg) (json.RawMessage, error) {
	var (
		result any
		err    error
	)
	switch {
	case msg.GetUserInfo != nil:
		result, err = c.GetUserInfo(ctx, msg.GetUserInfo.Address)
	case msg.GetSaleInfo != nil:
		result, err = c.GetSaleInfo(ctx)
	case msg.GetUserInfos != nil:
		var startAfter ledger.Address
		if msg.GetUserInfos.StartAfter != nil {
			startAfter = *msg.GetUserInfos.StartAfter
		}
		limit := DefaultPageLimit
		if msg.GetUserInfos.Limit != nil {
			limit = int(*msg.GetUserInfos.Limit)
		}
		var page []ledger.ClaimRecord
		page, err = c.ListUserInfos(ctx, startAfter, limit)
		result = ledger.UserInfosResponse{UserInfos: page}
	default:
		return nil, fmt.Errorf("%w: query: no variant set", ledger.ErrInvalidMessage)
	}
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, ledger.NewStorageError("query: encode", err)
	}
	return data, nil
}

// GetUserInfo returns the claim record for addr. An address that never
// claimed yields a record with IsClaimed false.
func (c *Contract) GetUserInfo(ctx context.Context, addr ledger.Address) (ledger.ClaimRecord, error) {
	rec, found, err := c.store.GetClaim(ctx, addr)
	if err != nil {
		return ledger.ClaimRecord{}, ledger.AsLedgerError("get user info", err)
	}
	if !found {
		return ledger.ClaimRecord{Address: addr}, nil
	}
	return rec, nil
}

// GetSaleInfo returns the running total distributed.
func (c *Contract) GetSaleInfo(ctx context.Context) (ledger.SaleInfo, error) {
	info, err := c.store.LoadSaleInfo(ctx)
	if err != nil {
		return ledger.SaleInfo{}, ledger.AsLedgerError("get sale info", err)
	}
	return info, nil
}

// ListUserInfos pages through claim records in address order, starting
// strictly after startAfter. limit is clamped to [1, MaxPageLimit]; zero
// means DefaultPageLimit.
func (c *Contract) ListUserInfos(ctx context.Context, startAfter ledger.Address, limit int) ([]ledger.ClaimRecord, error) {
	switch {
	case limit <= 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	page, err := c.store.ListClaims(ctx, startAfter, limit)
	if err != nil {
		return nil, ledger.AsLedgerError("list user infos", err)
	}
	return page, nil
}
