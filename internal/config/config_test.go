package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/agentmarket/internal/socialnet"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Simulation.Seed)
	assert.Equal(t, 30, cfg.Simulation.Investors)
	assert.Equal(t, 50, cfg.Simulation.Ticks)
	assert.Equal(t, 10_000.0, cfg.Simulation.InitialCash)
	assert.Equal(t, "small_world", cfg.Topology.Kind)
	assert.Equal(t, 100.0, cfg.Market.InitPrice)
	assert.Equal(t, 0.01, cfg.Market.Sigma)
	assert.Empty(t, cfg.Advisory.APIKey, "advisory disabled by default")
	assert.Equal(t, "agentmarket.db", cfg.Storage.Path)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
simulation:
  seed: 7
  investors: 50
  ticks: 100
  rewire_prob: 0.05
topology:
  kind: scale_free
  m: 3
market:
  sigma: 0.02
storage:
  path: ":memory:"
  csv_path: out.csv
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Simulation.Seed)
	assert.Equal(t, 50, cfg.Simulation.Investors)
	assert.Equal(t, 100, cfg.Simulation.Ticks)
	assert.Equal(t, 0.05, cfg.Simulation.RewireProb)
	assert.Equal(t, "scale_free", cfg.Topology.Kind)
	assert.Equal(t, 0.02, cfg.Market.Sigma)
	assert.Equal(t, ":memory:", cfg.Storage.Path)
	assert.Equal(t, "out.csv", cfg.Storage.CSVPath)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, 100.0, cfg.Market.InitPrice)
	assert.Equal(t, 10_000.0, cfg.Simulation.InitialCash)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ADVISORY_API_KEY", "sk-test")
	t.Setenv("SIM_SEED", "123")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Advisory.APIKey)
	assert.Equal(t, int64(123), cfg.Simulation.Seed)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestEngineConfigMapping(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Simulation.Seed = 9
	cfg.Market.Sigma = 0.03
	cfg.Advisory.TimeoutSeconds = 7

	ec := cfg.EngineConfig()
	assert.Equal(t, int64(9), ec.Seed)
	assert.Equal(t, int64(9), ec.Market.Seed, "market stream seeded from the run seed")
	assert.Equal(t, 0.03, ec.Market.Sigma)
	assert.Equal(t, 30, ec.Investors)
	assert.Equal(t, 7*time.Second, ec.AdvisoryTimeout)
}

func TestTopologyParamsMapping(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Topology.Kind = "community"
	cfg.Topology.Communities = 5

	kind, p := cfg.TopologyParams()
	assert.Equal(t, socialnet.Community, kind)
	assert.Equal(t, 5, p.Communities)
}
