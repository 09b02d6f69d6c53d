package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/firedrill-labs/firedrill/internal/collection"
	"github.com/firedrill-labs/firedrill/internal/config"
)

func newCollectionCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "collection <config-file>",
		Short: "Run a multi-step API collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadCollection(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runCollection(ctx, cfg, jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit results as JSON on stdout")
	return cmd
}

func runCollection(ctx context.Context, cfg *config.CollectionConfig, jsonOut bool) error {
	logger := &stderrLogger{}
	result, err := collection.New(cfg, nil, logger).Run(ctx)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printCollectionResult(result)
	}

	if !result.Passed {
		return fmt.Errorf("collection %q failed", cfg.Name)
	}
	return nil
}

func printCollectionResult(result *collection.Result) {
	fmt.Printf("Collection: %s (%s)\n", result.Name, result.Elapsed.Round(time.Millisecond))
	for _, step := range result.Steps {
		switch step.Status {
		case collection.StepPassed:
			fmt.Printf("  [PASS] %s (%d, %s)\n", step.Name, step.StatusCode, step.Duration.Round(time.Millisecond))
		case collection.StepSkipped:
			fmt.Printf("  [SKIP] %s\n", step.Name)
		default:
			fmt.Printf("  [FAIL] %s: %s\n", step.Name, step.Error)
		}
		for name, value := range step.Captured {
			fmt.Printf("         captured %s=%s\n", name, value)
		}
	}
}
