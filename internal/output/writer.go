package output

import (
	"fmt"
	"os"

	"github.com/firedrill-labs/firedrill/internal/config"
	"github.com/firedrill-labs/firedrill/internal/engine"
)

// WriteReports produces every report the output configuration asks for.
// The console report goes to stdout unless JSON output is selected, in
// which case the JSON document takes its place.
func WriteReports(cfg config.OutputConfig, outcome *engine.Outcome) error {
	if cfg.JSON {
		if err := PrintJSONReport(os.Stdout, outcome); err != nil {
			return err
		}
	} else {
		PrintReport(os.Stdout, outcome, nil)
	}

	type fileReport struct {
		path  string
		write func(*os.File) error
	}
	reports := []fileReport{
		{cfg.ResultPath, func(f *os.File) error { return PrintJSONReport(f, outcome) }},
		{cfg.HTMLPath, func(f *os.File) error { return WriteHTMLReport(f, outcome) }},
		{cfg.CSVPath, func(f *os.File) error { return WriteCSVReport(f, outcome) }},
		{cfg.XMLPath, func(f *os.File) error { return WriteJUnitReport(f, outcome) }},
	}
	for _, r := range reports {
		if r.path == "" {
			continue
		}
		f, err := os.Create(r.path)
		if err != nil {
			return fmt.Errorf("create report %s: %w", r.path, err)
		}
		writeErr := r.write(f)
		closeErr := f.Close()
		if writeErr != nil {
			return fmt.Errorf("write report %s: %w", r.path, writeErr)
		}
		if closeErr != nil {
			return fmt.Errorf("close report %s: %w", r.path, closeErr)
		}
	}
	return nil
}
