package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
)

// stderrLogger writes progress and warnings to stderr so reports on
// stdout stay machine-parseable.
type stderrLogger struct {
	mu sync.Mutex
}

func (l *stderrLogger) Info(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(os.Stderr, "[firedrill] "+format+"\n", args...)
}

func (l *stderrLogger) Warn(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(os.Stderr, "[firedrill] warning: "+format+"\n", args...)
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "firedrill",
		Short:         "Load and API test runner",
		Long:          "firedrill runs declarative performance tests, single API checks and multi-step API collections.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newPerfCommand(),
		newAPICommand(),
		newCollectionCommand(),
		newHistoryCommand(),
	)
	return root
}
