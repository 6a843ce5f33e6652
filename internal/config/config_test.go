package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, DefaultPairs, cfg.Pairs)
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := Parse([]string{"-port", "8080", "-workers", "8", "-pairs", "BTC/USDT, ETH/USDT"})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, cfg.Pairs)
}

func TestParse_RejectsInvalidWorkers(t *testing.T) {
	_, err := Parse([]string{"-workers", "0"})
	assert.Error(t, err)
}

func TestParse_RejectsInvalidPort(t *testing.T) {
	_, err := Parse([]string{"-port", "70000"})
	assert.Error(t, err)
}
