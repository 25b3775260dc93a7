package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServe_Defaults(t *testing.T) {
	cfg, err := LoadServe()
	require.NoError(t, err)
	assert.Equal(t, ServeConfig{
		ListenAddr:    ":8080",
		RateRPS:       5,
		RateBurst:     10,
		WithdrawToken: "configured",
	}, cfg)
}

func TestLoadServe_FromEnv(t *testing.T) {
	t.Setenv("CLAIMLEDGER_DB", "/var/lib/claimledger/ledger.db")
	t.Setenv("CLAIMLEDGER_LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("CLAIMLEDGER_RATE_RPS", "0.5")
	t.Setenv("CLAIMLEDGER_RATE_BURST", "3")
	t.Setenv("CLAIMLEDGER_WITHDRAW_TOKEN", "legacy")

	cfg, err := LoadServe()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/claimledger/ledger.db", cfg.DBPath)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, 0.5, cfg.RateRPS)
	assert.Equal(t, 3, cfg.RateBurst)
	assert.Equal(t, "legacy", cfg.WithdrawToken)
}

func TestLoadServe_Invalid(t *testing.T) {
	t.Setenv("CLAIMLEDGER_RATE_BURST", "many")
	_, err := LoadServe()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")

	t.Setenv("CLAIMLEDGER_RATE_BURST", "-1")
	_, err = LoadServe()
	assert.Error(t, err)
}

func TestLoadServe_RateLimitBounds(t *testing.T) {
	testCases := []struct {
		name  string
		rps   string
		burst string
		ok    bool
	}{
		{"zero burst with limiting", "5", "0", false},
		{"zero burst without limiting", "0", "0", true},
		{"negative rps", "-1", "10", false},
		{"burst of one", "5", "1", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("CLAIMLEDGER_RATE_RPS", tc.rps)
			t.Setenv("CLAIMLEDGER_RATE_BURST", tc.burst)
			_, err := LoadServe()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "rate limit")
		})
	}
}

func TestLoadRelay_Defaults(t *testing.T) {
	cfg, err := LoadRelay()
	require.NoError(t, err)
	assert.Equal(t, "claimledger:transfers", cfg.RedisStream)
	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.Equal(t, 50, cfg.Batch)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadRelay_FromEnv(t *testing.T) {
	t.Setenv("CLAIMLEDGER_REDIS_ADDR", "localhost:6379")
	t.Setenv("CLAIMLEDGER_RELAY_INTERVAL", "250ms")
	t.Setenv("CLAIMLEDGER_RELAY_BATCH", "7")

	cfg, err := LoadRelay()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 250*time.Millisecond, cfg.Interval)
	assert.Equal(t, 7, cfg.Batch)
}

func TestLoadRelay_BadInterval(t *testing.T) {
	t.Setenv("CLAIMLEDGER_RELAY_INTERVAL", "0s")
	_, err := LoadRelay()
	assert.Error(t, err)

	t.Setenv("CLAIMLEDGER_RELAY_INTERVAL", "soon")
	_, err = LoadRelay()
	assert.Error(t, err)
}
