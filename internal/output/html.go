package output

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/firedrill-labs/firedrill/internal/engine"
	"github.com/firedrill-labs/firedrill/internal/metrics"
)

// htmlReportData is the template input for the standalone HTML report.
type htmlReportData struct {
	GeneratedAt   string
	Outcome       *engine.Outcome
	ResponseTime  metrics.Stat
	ScenarioNames []string
	TagKeys       []string
}

// WriteHTMLReport writes a self-contained HTML report.
func WriteHTMLReport(w io.Writer, outcome *engine.Outcome) error {
	names := make([]string, 0, len(outcome.Summary.Scenarios))
	for name := range outcome.Summary.Scenarios {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return outcome.Summary.Scenarios[names[i]].Total > outcome.Summary.Scenarios[names[j]].Total
	})

	tagKeys := make([]string, 0, len(outcome.Summary.ByTag))
	for key := range outcome.Summary.ByTag {
		tagKeys = append(tagKeys, key)
	}
	sort.Strings(tagKeys)

	data := htmlReportData{
		GeneratedAt:   time.Now().Format(time.RFC3339),
		Outcome:       outcome,
		ResponseTime:  outcome.Summary.Metrics[metrics.SeriesResponseTime],
		ScenarioNames: names,
		TagKeys:       tagKeys,
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"f2": func(f float64) string { return fmt.Sprintf("%.2f", f) },
		"f4": func(f float64) string { return fmt.Sprintf("%.4f", f) },
		"scenario": func(name string) metrics.ScenarioStats {
			return outcome.Summary.Scenarios[name]
		},
		"tagStats": func(key string) map[string]metrics.TagStat {
			return outcome.Summary.ByTag[key]
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("parse report template: %w", err)
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Outcome.Name}} - Performance Report</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem auto; max-width: 960px; color: #1f2328; }
h1 { border-bottom: 2px solid #d0d7de; padding-bottom: .4rem; }
.status { display: inline-block; padding: .2rem .8rem; border-radius: 4px; font-weight: 700; color: #fff; }
.status.passed { background: #1a7f37; }
.status.failed { background: #cf222e; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { border: 1px solid #d0d7de; padding: .4rem .7rem; text-align: left; }
th { background: #f6f8fa; }
tr.fail td { background: #ffebe9; }
.meta { color: #57606a; font-size: .9rem; }
.cards { display: flex; gap: 1rem; flex-wrap: wrap; margin: 1rem 0; }
.card { border: 1px solid #d0d7de; border-radius: 6px; padding: .8rem 1.2rem; min-width: 9rem; }
.card b { display: block; font-size: 1.4rem; }
</style>
</head>
<body>
<h1>{{.Outcome.Name}}</h1>
{{if .Outcome.Description}}<p>{{.Outcome.Description}}</p>{{end}}
<p class="meta">Run {{.Outcome.ID}}{{if .Outcome.Environment}} on {{.Outcome.Environment}}{{end}}, generated {{.GeneratedAt}}</p>
<p>Status: <span class="status {{.Outcome.Status}}">{{.Outcome.Status}}</span></p>

<div class="cards">
<div class="card"><b>{{.Outcome.Summary.TotalRequests}}</b>requests</div>
<div class="card"><b>{{f2 .Outcome.Summary.SuccessRate}}%</b>success rate</div>
<div class="card"><b>{{f2 .Outcome.DurationSecs}}s</b>duration</div>
<div class="card"><b>{{f4 .ResponseTime.P95}}s</b>p95 response</div>
</div>

<h2>Response Time (seconds)</h2>
<table>
<tr><th>Count</th><th>Avg</th><th>Min</th><th>Max</th><th>P50</th><th>P90</th><th>P95</th><th>P99</th></tr>
<tr>
<td>{{.ResponseTime.Count}}</td>
<td>{{f4 .ResponseTime.Avg}}</td>
<td>{{f4 .ResponseTime.Min}}</td>
<td>{{f4 .ResponseTime.Max}}</td>
<td>{{f4 .ResponseTime.P50}}</td>
<td>{{f4 .ResponseTime.P90}}</td>
<td>{{f4 .ResponseTime.P95}}</td>
<td>{{f4 .ResponseTime.P99}}</td>
</tr>
</table>

{{if .ScenarioNames}}
<h2>Scenarios</h2>
<table>
<tr><th>Scenario</th><th>Total</th><th>Successes</th><th>Errors</th><th>Success Rate</th></tr>
{{range .ScenarioNames}}{{$s := scenario .}}
<tr{{if gt $s.Errors 0}} class="fail"{{end}}>
<td>{{.}}</td><td>{{$s.Total}}</td><td>{{$s.Successes}}</td><td>{{$s.Errors}}</td><td>{{f2 $s.SuccessRate}}%</td>
</tr>
{{end}}
</table>
{{end}}

{{if .Outcome.ThresholdResults}}
<h2>Thresholds</h2>
<table>
<tr><th>Metric</th><th>Expression</th><th>Actual</th><th>Result</th></tr>
{{range .Outcome.ThresholdResults}}
<tr{{if not .Passed}} class="fail"{{end}}>
<td>{{.Metric}}</td><td>{{.Expression}}</td><td>{{f4 .Actual}}</td><td>{{if .Passed}}PASS{{else}}FAIL{{end}}</td>
</tr>
{{end}}
</table>
{{end}}

{{if .TagKeys}}
<h2>Tag Breakdown</h2>
{{range .TagKeys}}
<h3>{{.}}</h3>
<table>
<tr><th>Metric</th><th>Count</th><th>Avg</th><th>Min</th><th>Max</th></tr>
{{range $name, $stat := tagStats .}}
<tr><td>{{$name}}</td><td>{{$stat.Count}}</td><td>{{f4 $stat.Avg}}</td><td>{{f4 $stat.Min}}</td><td>{{f4 $stat.Max}}</td></tr>
{{end}}
</table>
{{end}}
{{end}}
</body>
</html>
`
