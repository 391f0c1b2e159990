// Package config loads run configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/talgya/agentmarket/internal/agent"
	"github.com/talgya/agentmarket/internal/engine"
	"github.com/talgya/agentmarket/internal/market"
	"github.com/talgya/agentmarket/internal/socialnet"
)

// Config is the complete run configuration.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Topology   TopologyConfig   `yaml:"topology"`
	Market     MarketConfig     `yaml:"market"`
	Advisory   AdvisoryConfig   `yaml:"advisory"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

// SimulationConfig controls the run parameters.
type SimulationConfig struct {
	Seed           int64   `yaml:"seed"`
	Investors      int     `yaml:"investors"`
	Ticks          int     `yaml:"ticks"`
	InitialCash    float64 `yaml:"initial_cash"`
	MemoryCapacity int     `yaml:"memory_capacity"`
	LearningRate   float64 `yaml:"learning_rate"`
	MinTrust       float64 `yaml:"min_trust"`
	MaxTrust       float64 `yaml:"max_trust"`
	RewireProb     float64 `yaml:"rewire_prob"`
	SnapshotEvery  int     `yaml:"snapshot_every"` // 0 disables mid-run snapshots
}

// TopologyConfig selects and tunes the social network generator.
type TopologyConfig struct {
	Kind        string  `yaml:"kind"` // erdos_renyi | small_world | scale_free | community
	P           float64 `yaml:"p"`
	K           int     `yaml:"k"`
	M           int     `yaml:"m"`
	Communities int     `yaml:"communities"`
}

// MarketConfig tunes the price process.
type MarketConfig struct {
	InitPrice float64 `yaml:"init_price"`
	Mu        float64 `yaml:"mu"`
	Sigma     float64 `yaml:"sigma"`
	Dt        float64 `yaml:"dt"`
}

// AdvisoryConfig configures the external recommendation service. An empty
// api_key disables the service entirely; the advisor then runs on its
// deterministic fallback.
type AdvisoryConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StorageConfig controls where run data is persisted.
type StorageConfig struct {
	Path    string `yaml:"path"`     // SQLite file path, or ":memory:"
	CSVPath string `yaml:"csv_path"` // empty disables the CSV export
}

// LogConfig controls log format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads configuration from the YAML file at path and a .env file if
// one exists. Environment variables override YAML values for the keys they
// cover. An empty path yields the pure default configuration.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// AdvisoryTimeout returns the advisory request timeout as a time.Duration.
func (c *Config) AdvisoryTimeout() time.Duration {
	return time.Duration(c.Advisory.TimeoutSeconds) * time.Second
}

// EngineConfig maps the loaded configuration onto the engine's form.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		Seed:           c.Simulation.Seed,
		Investors:      c.Simulation.Investors,
		InitialCash:    c.Simulation.InitialCash,
		MemoryCapacity: c.Simulation.MemoryCapacity,
		Market: market.Params{
			InitPrice: c.Market.InitPrice,
			Mu:        c.Market.Mu,
			Sigma:     c.Market.Sigma,
			Dt:        c.Market.Dt,
			Seed:      c.Simulation.Seed,
		},
		LearningRate:    c.Simulation.LearningRate,
		MinTrust:        c.Simulation.MinTrust,
		MaxTrust:        c.Simulation.MaxTrust,
		RewireProb:      c.Simulation.RewireProb,
		AdvisoryTimeout: c.AdvisoryTimeout(),
	}
}

// TopologyParams maps the topology section onto the generator's form.
func (c *Config) TopologyParams() (socialnet.Kind, socialnet.TopologyParams) {
	return socialnet.Kind(c.Topology.Kind), socialnet.TopologyParams{
		P:           c.Topology.P,
		K:           c.Topology.K,
		M:           c.Topology.M,
		Communities: c.Topology.Communities,
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ADVISORY_API_KEY"); v != "" {
		cfg.Advisory.APIKey = v
	}
	if v := os.Getenv("ADVISORY_BASE_URL"); v != "" {
		cfg.Advisory.BaseURL = v
	}
	if v := os.Getenv("ADVISORY_MODEL"); v != "" {
		cfg.Advisory.Model = v
	}
	if v := os.Getenv("SIM_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Simulation.Seed = seed
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = 42
	}
	if cfg.Simulation.Investors <= 0 {
		cfg.Simulation.Investors = 30
	}
	if cfg.Simulation.Ticks <= 0 {
		cfg.Simulation.Ticks = 50
	}
	if cfg.Simulation.InitialCash <= 0 {
		cfg.Simulation.InitialCash = agent.DefaultInitialCash
	}
	if cfg.Simulation.MemoryCapacity <= 0 {
		cfg.Simulation.MemoryCapacity = agent.DefaultMemoryCapacity
	}
	if cfg.Simulation.LearningRate <= 0 {
		cfg.Simulation.LearningRate = socialnet.DefaultLearningRate
	}
	if cfg.Simulation.MinTrust <= 0 {
		cfg.Simulation.MinTrust = socialnet.DefaultMinWeight
	}
	if cfg.Simulation.MaxTrust <= 0 {
		cfg.Simulation.MaxTrust = socialnet.DefaultMaxWeight
	}
	if cfg.Topology.Kind == "" {
		cfg.Topology.Kind = string(socialnet.SmallWorld)
	}
	if cfg.Market.InitPrice <= 0 {
		cfg.Market.InitPrice = 100.0
	}
	if cfg.Market.Mu == 0 {
		cfg.Market.Mu = 0.0002
	}
	if cfg.Market.Sigma <= 0 {
		cfg.Market.Sigma = 0.01
	}
	if cfg.Market.Dt <= 0 {
		cfg.Market.Dt = 1.0
	}
	if cfg.Advisory.BaseURL == "" {
		cfg.Advisory.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Advisory.Model == "" {
		cfg.Advisory.Model = "gpt-4o-mini"
	}
	if cfg.Advisory.TimeoutSeconds <= 0 {
		cfg.Advisory.TimeoutSeconds = 15
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "agentmarket.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
