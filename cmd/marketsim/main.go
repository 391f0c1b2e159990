// Command marketsim runs the multi-agent financial market simulation.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/agentmarket/internal/advisory"
	"github.com/talgya/agentmarket/internal/config"
	"github.com/talgya/agentmarket/internal/engine"
	"github.com/talgya/agentmarket/internal/persistence"
	"github.com/talgya/agentmarket/internal/report"
	"github.com/talgya/agentmarket/internal/socialnet"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		seed       int64
		investors  int
		ticks      int
		topology   string
		csvPath    string
		dbPath     string
		pace       time.Duration
	)

	rootCmd := &cobra.Command{
		Use:   "marketsim",
		Short: "Staged multi-agent market simulation",
		Long: `marketsim runs a deterministic multi-agent financial market simulation:
investors on a social trust network trade against a stochastic price process,
guided by an optional external recommendation service.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// CLI flags beat config file values.
			if cmd.Flags().Changed("seed") {
				cfg.Simulation.Seed = seed
			}
			if cmd.Flags().Changed("investors") {
				cfg.Simulation.Investors = investors
			}
			if cmd.Flags().Changed("ticks") {
				cfg.Simulation.Ticks = ticks
			}
			if cmd.Flags().Changed("topology") {
				cfg.Topology.Kind = topology
			}
			if cmd.Flags().Changed("csv") {
				cfg.Storage.CSVPath = csvPath
			}
			if cmd.Flags().Changed("db") {
				cfg.Storage.Path = dbPath
			}

			setupLogger(cfg.Log)
			return runSimulation(cfg, pace)
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.Flags().Int64Var(&seed, "seed", 42, "simulation seed")
	rootCmd.Flags().IntVar(&investors, "investors", 30, "number of investor agents")
	rootCmd.Flags().IntVar(&ticks, "ticks", 50, "number of ticks to run")
	rootCmd.Flags().StringVar(&topology, "topology", "small_world", "network topology (erdos_renyi|small_world|scale_free|community)")
	rootCmd.Flags().StringVar(&csvPath, "csv", "", "write per-tick results to this CSV file")
	rootCmd.Flags().StringVar(&dbPath, "db", "agentmarket.db", "SQLite database path")
	rootCmd.Flags().DurationVar(&pace, "pace", 0, "wall-clock interval between ticks (0 runs flat out)")

	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("marketsim v1.0.0")
		},
	}
}

func setupLogger(lc config.LogConfig) {
	level := slog.LevelInfo
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func runSimulation(cfg *config.Config, pace time.Duration) error {
	slog.Info("agentmarket — staged multi-agent market simulation",
		"seed", cfg.Simulation.Seed,
		"investors", cfg.Simulation.Investors,
		"ticks", cfg.Simulation.Ticks,
		"topology", cfg.Topology.Kind,
	)

	kind, tp := cfg.TopologyParams()
	g, err := socialnet.BuildGraph(cfg.Simulation.Investors, kind, cfg.Simulation.Seed, tp)
	if err != nil {
		return fmt.Errorf("build network: %w", err)
	}

	// A nil client must stay a nil interface so the advisor takes its
	// deterministic fallback path.
	var recommender advisory.Recommender
	if client := advisory.NewClient(
		cfg.Advisory.BaseURL, cfg.Advisory.APIKey, cfg.Advisory.Model,
		cfg.AdvisoryTimeout(),
	); client.Enabled() {
		recommender = client
		slog.Info("advisory service enabled", "model", cfg.Advisory.Model)
	} else {
		slog.Info("advisory service disabled, using deterministic fallback")
	}

	model, err := engine.New(g, cfg.EngineConfig(), recommender)
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}

	db, err := persistence.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	runID, err := db.StartRun(cfg.Simulation.Seed, cfg.Topology.Kind, cfg.Simulation.Investors)
	if err != nil {
		return err
	}

	var stepErr error
	step := func(int) {
		if stepErr != nil {
			return
		}
		model.Step()

		buys, sells := model.ActionCounts()
		action, confidence, source, ok := model.AdvisoryState()
		row := persistence.TickRow{
			RunID:          runID,
			Tick:           model.Tick(),
			Price:          model.Price(),
			Return:         model.LastReturn(),
			BuyCount:       buys,
			SellCount:      sells,
			AdvisorySource: source,
		}
		if ok {
			row.AdvisoryAction = string(action)
			row.AdvisoryConfidence = confidence
		}
		if err := db.SaveTick(row); err != nil {
			stepErr = err
			return
		}

		slog.Info("tick complete",
			"tick", row.Tick,
			"price", fmt.Sprintf("%.2f", row.Price),
			"return", fmt.Sprintf("%+.4f", row.Return),
			"advisory", row.AdvisoryAction,
			"buys", buys,
			"sells", sells,
		)

		if n := cfg.Simulation.SnapshotEvery; n > 0 && model.Tick()%n == 0 {
			if err := db.SaveSnapshot(runID, model.Snapshot()); err != nil {
				stepErr = err
			}
		}
	}

	if pace > 0 {
		runner := engine.NewRunner(step, cfg.Simulation.Ticks)
		runner.Interval = pace
		runner.Run()
	} else {
		for t := 0; t < cfg.Simulation.Ticks; t++ {
			step(t)
		}
	}
	if stepErr != nil {
		return stepErr
	}

	rows, err := db.Ticks(runID)
	if err != nil {
		return err
	}

	if cfg.Storage.CSVPath != "" {
		if err := report.WriteCSVFile(cfg.Storage.CSVPath, rows); err != nil {
			return err
		}
		slog.Info("results written", "path", cfg.Storage.CSVPath)
	}

	report.PrintRunSummary(os.Stdout, model, rows)
	return nil
}
