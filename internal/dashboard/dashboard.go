// Package dashboard renders a live terminal UI for performance runs.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/firedrill-labs/firedrill/internal/metrics"
)

const historyWindow = 100

// RunInfo holds static run parameters for display.
type RunInfo struct {
	Name        string
	Environment string
	ProfileType string
	MaxWorkers  int
	Duration    time.Duration
}

// Dashboard renders live collector snapshots in a terminal grid.
type Dashboard struct {
	collector    *metrics.Collector
	info         RunInfo
	shutdownFunc func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex

	grid        *ui.Grid
	summary     *widgets.Paragraph
	rpsGauge    *widgets.Gauge
	latencyPara *widgets.Paragraph
	sparkGroup  *widgets.SparklineGroup
	errorList   *widgets.List

	p95History []float64
	start      time.Time
}

// New initializes the terminal UI. shutdownFunc is called when the user
// quits with q or Ctrl-C.
func New(collector *metrics.Collector, info RunInfo, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("init terminal ui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		collector:    collector,
		info:         info,
		shutdownFunc: shutdownFunc,
		ctx:          ctx,
		cancel:       cancel,
		p95History:   make([]float64, 0, historyWindow),
		start:        time.Now(),
	}
	d.initWidgets()
	d.setupGrid()
	return d, nil
}

func (d *Dashboard) initWidgets() {
	d.summary = widgets.NewParagraph()
	d.summary.Title = "Run"
	d.summary.Text = "Starting..."
	d.summary.BorderStyle.Fg = ui.ColorCyan

	d.rpsGauge = widgets.NewGauge()
	d.rpsGauge.Title = "Requests Per Second"
	d.rpsGauge.BarColor = ui.ColorBlue
	d.rpsGauge.BorderStyle.Fg = ui.ColorCyan
	d.rpsGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.latencyPara = widgets.NewParagraph()
	d.latencyPara.Title = "Response Time"
	d.latencyPara.Text = "Awaiting samples"
	d.latencyPara.BorderStyle.Fg = ui.ColorCyan

	spark := widgets.NewSparkline()
	spark.Title = "p95 (ms)"
	spark.LineColor = ui.ColorGreen
	spark.Data = []float64{0}
	d.sparkGroup = widgets.NewSparklineGroup(spark)
	d.sparkGroup.Title = "p95 Trend"
	d.sparkGroup.BorderStyle.Fg = ui.ColorCyan

	d.errorList = widgets.NewList()
	d.errorList.Title = "Errors"
	d.errorList.Rows = []string{"None"}
	d.errorList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.errorList.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	width, height := ui.TerminalDimensions()
	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, width, height)
	d.grid.Set(
		ui.NewRow(0.2,
			ui.NewCol(1.0, d.summary),
		),
		ui.NewRow(0.2,
			ui.NewCol(1.0, d.rpsGauge),
		),
		ui.NewRow(0.35,
			ui.NewCol(0.6, d.sparkGroup),
			ui.NewCol(0.4, d.latencyPara),
		),
		ui.NewRow(0.25,
			ui.NewCol(1.0, d.errorList),
		),
	)
}

// Start begins the update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop tears the UI down and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Let the terminal restore before further stdout writes.
	time.Sleep(100 * time.Millisecond)
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	events := ui.PollEvents()

	d.render()
	for {
		select {
		case <-d.ctx.Done():
			for len(events) > 0 {
				<-events
			}
			return
		case e := <-events:
			select {
			case <-d.ctx.Done():
				return
			default:
			}
			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := d.collector.Live()

	header := d.info.Name
	if d.info.Environment != "" {
		header += " @ " + d.info.Environment
	}
	d.summary.Text = fmt.Sprintf(
		"%s\nProfile: %s | Workers: up to %d | Planned: %s\nElapsed: %s | Requests: %d | Success Rate: %.1f%%",
		header,
		d.info.ProfileType,
		d.info.MaxWorkers,
		d.info.Duration.Round(time.Second),
		snap.Elapsed.Round(time.Second),
		snap.Total,
		snap.SuccessRate,
	)

	maxRPS := 100.0
	if snap.RequestsPerSec > maxRPS {
		maxRPS = snap.RequestsPerSec
	}
	percent := int(snap.RequestsPerSec / maxRPS * 100)
	if percent > 100 {
		percent = 100
	}
	d.rpsGauge.Percent = percent
	d.rpsGauge.Label = fmt.Sprintf("%.1f RPS", snap.RequestsPerSec)

	d.latencyPara.Text = fmt.Sprintf(
		"Mean: %s\nP50:  %s\nP95:  %s\nP99:  %s",
		snap.MeanLatency.Round(time.Millisecond),
		snap.P50Latency.Round(time.Millisecond),
		snap.P95Latency.Round(time.Millisecond),
		snap.P99Latency.Round(time.Millisecond),
	)

	p95ms := float64(snap.P95Latency.Microseconds()) / 1000
	if p95ms > 0 {
		d.p95History = append(d.p95History, p95ms)
		if len(d.p95History) > historyWindow {
			d.p95History = d.p95History[1:]
		}
		d.sparkGroup.Sparklines[0].Data = d.p95History
		d.sparkGroup.Title = fmt.Sprintf("p95 Trend | Current: %.1fms", p95ms)
	}

	d.errorList.Rows = formatErrorRows(snap)
}

func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()
	ui.Render(d.grid)
}

func formatErrorRows(snap metrics.LiveSnapshot) []string {
	if snap.Failures == 0 {
		return []string{"[None](fg:green)"}
	}
	rows := []string{fmt.Sprintf("Failed: %d of %d", snap.Failures, snap.Total)}
	kinds := make([]string, 0, len(snap.ErrorsByType))
	for kind := range snap.ErrorsByType {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		rows = append(rows, fmt.Sprintf("%s: %d", metrics.FriendlyErrorName(kind), snap.ErrorsByType[kind]))
	}
	return rows
}
