package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/firedrill-labs/firedrill/internal/config"
	"github.com/firedrill-labs/firedrill/internal/dashboard"
	"github.com/firedrill-labs/firedrill/internal/engine"
	"github.com/firedrill-labs/firedrill/internal/executor"
	"github.com/firedrill-labs/firedrill/internal/output"
	"github.com/firedrill-labs/firedrill/internal/profile"
	"github.com/firedrill-labs/firedrill/internal/storage"
	"github.com/firedrill-labs/firedrill/internal/tracing"
)

func newPerfCommand() *cobra.Command {
	var (
		jsonOut     bool
		useDash     bool
		stream      bool
		historyPath string
	)

	cmd := &cobra.Command{
		Use:   "perf <config-file>",
		Short: "Run a performance test",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadPerf(args[0])
			if err != nil {
				return err
			}
			applyPerfOverrides(cmd.Flags(), cfg, jsonOut, useDash, stream, historyPath)
			return runPerf(cmd.Context(), cfg)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the final report as JSON on stdout")
	cmd.Flags().BoolVar(&useDash, "dashboard", false, "show a live terminal dashboard")
	cmd.Flags().BoolVar(&stream, "stream", false, "stream live metrics to stderr")
	cmd.Flags().StringVar(&historyPath, "history", "", "path to the run history database")
	return cmd
}

// applyPerfOverrides lets explicitly set flags win over the config file.
func applyPerfOverrides(fs *pflag.FlagSet, cfg *config.PerfConfig, jsonOut, useDash, stream bool, historyPath string) {
	if fs.Changed("json") {
		cfg.Output.JSON = jsonOut
	}
	if fs.Changed("dashboard") {
		cfg.Dashboard = useDash
	}
	if fs.Changed("stream") {
		cfg.StreamMetrics = stream
	}
	if fs.Changed("history") {
		cfg.HistoryPath = historyPath
	}
}

func runPerf(parent context.Context, cfg *config.PerfConfig) error {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := &stderrLogger{}

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown: %v", err)
		}
	}()

	client := executor.NewClient(cfg.Timeout())
	exec := executor.New(client, provider.Tracer(), logger)
	orch := engine.New(cfg, exec, logger)

	if cfg.StreamMetrics && !cfg.Dashboard {
		orch.AddListener(output.NewStreamer(os.Stderr, time.Second))
	}

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		plan, err := profile.Compile(cfg.LoadProfile)
		if err != nil {
			return err
		}
		collector := orch.Collector()
		dash, err = dashboard.New(collector, dashboard.RunInfo{
			Name:        cfg.Name,
			Environment: cfg.Environment,
			ProfileType: string(cfg.LoadProfile.Type),
			MaxWorkers:  plan.MaxLevel(),
			Duration:    plan.TotalDuration(),
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
	}

	outcome, runErr := orch.Run(ctx)
	if dash != nil {
		dash.Stop()
	}
	if runErr != nil {
		return runErr
	}

	if err := output.WriteReports(cfg.Output, outcome); err != nil {
		return err
	}

	if cfg.HistoryPath != "" {
		store, err := storage.Open(cfg.HistoryPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(outcome); err != nil {
			return fmt.Errorf("save run history: %w", err)
		}
	}

	if !outcome.Passed() {
		return fmt.Errorf("run %s failed", outcome.ID)
	}
	return nil
}
