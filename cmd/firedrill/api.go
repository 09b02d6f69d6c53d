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

	"github.com/firedrill-labs/firedrill/internal/apitest"
	"github.com/firedrill-labs/firedrill/internal/config"
)

func newAPICommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "api <config-file>",
		Short: "Run a single API check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadAPI(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runAPI(ctx, cfg, jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit results as JSON on stdout")
	return cmd
}

func runAPI(ctx context.Context, cfg *config.APIConfig, jsonOut bool) error {
	logger := &stderrLogger{}
	results, err := apitest.New(cfg, nil, logger).Run(ctx)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		printAPIResults(results)
	}

	for _, r := range results {
		if !r.Passed {
			return fmt.Errorf("check %q failed", cfg.Name)
		}
	}
	return nil
}

func printAPIResults(results []apitest.Result) {
	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		line := fmt.Sprintf("[%s] %s: status=%d attempts=%d duration=%s",
			status, r.Name, r.StatusCode, r.Attempts, r.Duration.Round(time.Millisecond))
		if len(r.Record) > 0 {
			line += fmt.Sprintf(" record=%v", r.Record)
		}
		fmt.Println(line)
		if r.Error != "" {
			fmt.Printf("        %s\n", r.Error)
		}
		for _, a := range r.Assertions {
			if !a.Passed {
				fmt.Printf("        assertion %s: %s\n", a.JSONPath, a.Message)
			}
		}
	}
}
