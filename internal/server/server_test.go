package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/claimledger/internal/contract"
	"github.com/roach88/claimledger/internal/executor"
	"github.com/roach88/claimledger/internal/ledger"
	"github.com/roach88/claimledger/internal/store"
	"github.com/roach88/claimledger/internal/testutil"
)

// newTestServer starts an executor over a contract instantiated with the
// given supply and amount, and serves it on an httptest server.
func newTestServer(t *testing.T, cfg Config, supply, amount ledger.Amount) *httptest.Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	c := contract.New(st, contract.WithIDGenerator(testutil.NewSequenceGenerator("op")))
	_, err = c.Instantiate(context.Background(), "admin", ledger.InstantiateMsg{
		Admin: "admin", TokenAddress: "tok", TotalSupply: supply, AirdropAmount: amount,
	})
	require.NoError(t, err)

	ex := executor.New(c)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ex.Run(ctx) }()

	cfg.Ledger = ex
	ts := httptest.NewServer(New(cfg).Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
	})
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, sender, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if sender != "" {
		req.Header.Set(SenderHeader, sender)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "body has no error object: %v", body)
	return e["code"].(string)
}

func TestExecute_ClaimFlow(t *testing.T) {
	ts := newTestServer(t, Config{}, 10000, 100)

	resp, body := post(t, ts, "/execute", "user1", `{"claim":{}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	transfers := body["transfers"].([]any)
	require.Len(t, transfers, 1)
	tr := transfers[0].(map[string]any)
	assert.Equal(t, "tok", tr["contract"])
	assert.Equal(t, "user1", tr["recipient"])
	assert.Equal(t, "100", tr["amount"])

	resp, body = post(t, ts, "/execute", "user1", `{"claim":{}}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_CLAIMED", errorCode(t, body))

	resp, body = post(t, ts, "/query", "", `{"get_sale_info":{}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "100", body["total_airdropped_amount"])
}

func TestExecute_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		supply ledger.Amount
		sender string
		body   string
		status int
		code   string
	}{
		{"unauthorized", 10000, "user1", `{"change_admin":{"address":"user1"}}`, http.StatusForbidden, "UNAUTHORIZED"},
		{"config invalid", 10000, "admin", `{"change_admin":{"address":"Bad Addr"}}`, http.StatusBadRequest, "CONFIG_INVALID"},
		{"supply exhausted", 50, "user1", `{"claim":{}}`, http.StatusConflict, "SUPPLY_EXHAUSTED"},
		{"unknown variant", 10000, "user1", `{"buy":{}}`, http.StatusBadRequest, CodeInvalidMessage},
		{"two variants", 10000, "user1", `{"claim":{},"withdraw_token_by_admin":{}}`, http.StatusBadRequest, CodeInvalidMessage},
		{"missing sender", 10000, "", `{"claim":{}}`, http.StatusBadRequest, CodeMissingSender},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, Config{}, tt.supply, 100)
			resp, body := post(t, ts, "/execute", tt.sender, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(t, body))
		})
	}
}

func TestExecute_ErrorDetails(t *testing.T) {
	ts := newTestServer(t, Config{}, 50, 100)

	_, body := post(t, ts, "/execute", "user1", `{"claim":{}}`)
	e := body["error"].(map[string]any)
	assert.Equal(t, map[string]any{"requested": "100"}, e["details"])
}

func TestQuery_BadBody(t *testing.T) {
	ts := newTestServer(t, Config{}, 10000, 100)

	resp, body := post(t, ts, "/query", "", `{"get_sale_info":{},"extra":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, CodeInvalidMessage, errorCode(t, body))
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, Config{}, 10000, 100)

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, Config{}, 10000, 100)

	resp, err := ts.Client().Get(ts.URL + "/execute")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRateLimitPerSender(t *testing.T) {
	ts := newTestServer(t, Config{RPS: 0.001, Burst: 2}, 10000, 100)

	for i := 0; i < 2; i++ {
		resp, _ := post(t, ts, "/query", "user1", `{"get_sale_info":{}}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, body := post(t, ts, "/query", "user1", `{"get_sale_info":{}}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	assert.Equal(t, CodeRateLimited, errorCode(t, body))

	// Another sender has its own bucket.
	resp, _ = post(t, ts, "/query", "user2", `{"get_sale_info":{}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	want := map[ledger.Kind]int{
		ledger.KindUnauthorized:    http.StatusForbidden,
		ledger.KindConfigInvalid:   http.StatusBadRequest,
		ledger.KindAlreadyClaimed:  http.StatusConflict,
		ledger.KindSupplyExhausted: http.StatusConflict,
		ledger.KindVersionMismatch: http.StatusConflict,
		ledger.KindStorageError:    http.StatusInternalServerError,
	}
	for _, k := range ledger.Kinds {
		assert.Equal(t, want[k], StatusFor(k), k)
	}
}

func TestLimiterStore_Cleanup(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newLimiterStore(1, 1, time.Minute)
	s.now = func() time.Time { return now }

	assert.True(t, s.Allow("a"))
	assert.False(t, s.Allow("a"))
	now = now.Add(30 * time.Second)
	s.Allow("b")
	assert.Equal(t, 2, s.Len())

	now = now.Add(45 * time.Second)
	s.Cleanup()
	assert.Equal(t, 1, s.Len(), "only the idle key is dropped")
}

func TestRateKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/query", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "ip:10.0.0.1", rateKey(r))

	r.Header.Set(SenderHeader, "user1")
	assert.Equal(t, "sender:user1", rateKey(r))

	r.Header.Set(SenderHeader, "  user1 ")
	assert.Equal(t, "sender:user1", rateKey(r), "padded sender shares the bucket")

	r.Header.Set(SenderHeader, "   ")
	assert.Equal(t, "ip:10.0.0.1", rateKey(r))
}

func TestLimiterStore_ZeroBurstAdmitsFirstRequest(t *testing.T) {
	s := newLimiterStore(5, 0, time.Minute)
	assert.True(t, s.Allow("sender:a"))
}
