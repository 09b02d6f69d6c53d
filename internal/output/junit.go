package output

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/firedrill-labs/firedrill/internal/engine"
)

// JUnit report types. The run maps to one testsuite; each scenario and each
// threshold becomes a testcase so CI servers can break results out.
type junitTestSuites struct {
	XMLName xml.Name         `xml:"testsuites"`
	Suites  []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Time     string          `xml:"time,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// WriteJUnitReport writes the outcome as JUnit XML.
func WriteJUnitReport(w io.Writer, outcome *engine.Outcome) error {
	suite := junitTestSuite{
		Name: outcome.Name,
		Time: fmt.Sprintf("%.3f", outcome.Duration.Seconds()),
	}

	for name, stats := range outcome.Summary.Scenarios {
		tc := junitTestCase{
			Name:      name,
			ClassName: outcome.Name + ".scenarios",
			Time:      fmt.Sprintf("%.3f", outcome.Duration.Seconds()),
		}
		if stats.Errors > 0 {
			tc.Failure = &junitFailure{
				Message: fmt.Sprintf("%d of %d requests failed", stats.Errors, stats.Total),
				Body:    fmt.Sprintf("success rate %.2f%%", stats.SuccessRate),
			}
		}
		suite.Cases = append(suite.Cases, tc)
	}

	for _, r := range outcome.ThresholdResults {
		tc := junitTestCase{
			Name:      fmt.Sprintf("%s %s", r.Metric, r.Expression),
			ClassName: outcome.Name + ".thresholds",
			Time:      "0",
		}
		if !r.Passed {
			tc.Failure = &junitFailure{
				Message: fmt.Sprintf("threshold not met: %s %s", r.Metric, r.Expression),
				Body:    fmt.Sprintf("actual %.4f. %s", r.Actual, r.Message),
			}
		}
		suite.Cases = append(suite.Cases, tc)
	}

	suite.Tests = len(suite.Cases)
	for _, tc := range suite.Cases {
		if tc.Failure != nil {
			suite.Failures++
		}
	}

	doc := junitTestSuites{Suites: []junitTestSuite{suite}}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode junit report: %w", err)
	}
	return enc.Close()
}
