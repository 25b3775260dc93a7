package contract

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/claimledger/internal/ledger"
)

func claimAll(t *testing.T, c *Contract, addrs ...ledger.Address) {
	t.Helper()
	for _, a := range addrs {
		_, err := c.Claim(context.Background(), a)
		require.NoError(t, err)
	}
}

func TestGetUserInfo(t *testing.T) {
	c := instantiated(t, 10000, 100)
	claimAll(t, c, "user1")

	rec, err := c.GetUserInfo(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, ledger.ClaimRecord{Address: "user1", IsClaimed: true}, rec)

	rec, err = c.GetUserInfo(context.Background(), "user2")
	require.NoError(t, err)
	assert.Equal(t, ledger.ClaimRecord{Address: "user2", IsClaimed: false}, rec)
}

func TestGetSaleInfo_NotInitialized(t *testing.T) {
	c := newTestContract(t)
	_, err := c.GetSaleInfo(context.Background())
	assert.ErrorIs(t, err, ledger.ErrStorage)
}

func TestListUserInfos_Pagination(t *testing.T) {
	c := instantiated(t, 100000, 1)
	var addrs []ledger.Address
	for i := 0; i < 35; i++ {
		addrs = append(addrs, ledger.Address(fmt.Sprintf("user%02d", i)))
	}
	claimAll(t, c, addrs...)
	ctx := context.Background()

	page, err := c.ListUserInfos(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, page, DefaultPageLimit)
	assert.Equal(t, ledger.Address("user00"), page[0].Address)

	page, err = c.ListUserInfos(ctx, "", 100)
	require.NoError(t, err)
	assert.Len(t, page, MaxPageLimit)

	page, err = c.ListUserInfos(ctx, "user09", 5)
	require.NoError(t, err)
	require.Len(t, page, 5)
	assert.Equal(t, ledger.Address("user10"), page[0].Address, "start_after is exclusive")

	page, err = c.ListUserInfos(ctx, "user34", 5)
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.NotNil(t, page)
}

func TestQuery_JSON(t *testing.T) {
	c := instantiated(t, 10000, 100)
	claimAll(t, c, "user1", "user2")
	ctx := context.Background()

	tests := []struct {
		body string
		want string
	}{
		{`{"get_sale_info":{}}`, `{"total_airdropped_amount":"200"}`},
		{`{"get_user_info":{"address":"user1"}}`, `{"address":"user1","is_claimed":true}`},
		{`{"get_user_info":{"address":"user9"}}`, `{"address":"user9","is_claimed":false}`},
		{`{"get_user_infos":{}}`, `{"user_infos":[{"address":"user1","is_claimed":true},{"address":"user2","is_claimed":true}]}`},
		{`{"get_user_infos":{"start_after":"user1","limit":1}}`, `{"user_infos":[{"address":"user2","is_claimed":true}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			msg, err := ledger.ParseQueryMsg([]byte(tt.body))
			require.NoError(t, err)
			got, err := c.Query(ctx, msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestQuery_EmptyMessage(t *testing.T) {
	c := instantiated(t, 10000, 100)
	_, err := c.Query(context.Background(), ledger.QueryMsg{})
	assert.ErrorIs(t, err, ledger.ErrInvalidMessage)
}
