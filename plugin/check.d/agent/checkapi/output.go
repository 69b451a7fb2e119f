// SPDX-License-Identifier: GPL-3.0-or-later

package checkapi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/checkmk/checkengine/pkg/valuestore"
)

// Output is one element emitted by a check function: Result, Metric or IgnoreResults.
type Output interface {
	isOutput()
}

// Result is one state determination.
type Result struct {
	State   State
	Summary string
	Details string
}

// Metric is a performance data point, independent of Results.
type Metric struct {
	Name       string      `json:"name"`
	Value      float64     `json:"value"`
	Levels     *[2]float64 `json:"levels,omitempty"`
	Boundaries *[2]float64 `json:"boundaries,omitempty"`
}

// IgnoreResults marks the results of the current invocation as unavailable.
// The harness reports the service as stale instead of evaluating its results.
type IgnoreResults struct {
	Reason string
}

func (Result) isOutput()        {}
func (Metric) isOutput()        {}
func (IgnoreResults) isOutput() {}

// NewResult returns a Result. Multi-line text is split into summary (first line) and details.
func NewResult(state State, text string) Result {
	summary, details, _ := strings.Cut(text, "\n")
	return Result{State: state, Summary: strings.TrimSpace(summary), Details: strings.TrimSpace(details)}
}

// NotReady converts a value store outcome into IgnoreResults.
func NotReady(v valuestore.Value) IgnoreResults {
	return IgnoreResults{Reason: v.Reason()}
}

func (r Result) Validate() error {
	if !r.State.Valid() {
		return fmt.Errorf("invalid state %d", int(r.State))
	}
	if r.Summary == "" && r.Details == "" {
		return errors.New("result has neither summary nor details")
	}
	if strings.ContainsRune(r.Summary, '\n') {
		return errors.New("result summary contains a newline")
	}
	return nil
}

// Text returns the details, falling back to the summary.
func (r Result) Text() string {
	if r.Details != "" {
		return r.Details
	}
	return r.Summary
}

func (m Metric) Validate() error {
	if m.Name == "" {
		return errors.New("metric name is empty")
	}
	if strings.ContainsAny(m.Name, " \t\n='") {
		return fmt.Errorf("invalid metric name '%s'", m.Name)
	}
	return nil
}

// Perfdata renders the metric in "name=value;warn;crit;min;max" form.
func (m Metric) Perfdata() string {
	var b strings.Builder
	b.WriteString(m.Name)
	b.WriteByte('=')
	b.WriteString(formatFloat(m.Value))

	var fields [4]string
	if m.Levels != nil {
		fields[0], fields[1] = formatFloat(m.Levels[0]), formatFloat(m.Levels[1])
	}
	if m.Boundaries != nil {
		fields[2], fields[3] = formatFloat(m.Boundaries[0]), formatFloat(m.Boundaries[1])
	}

	n := len(fields)
	for n > 0 && fields[n-1] == "" {
		n--
	}
	for _, f := range fields[:n] {
		b.WriteByte(';')
		b.WriteString(f)
	}
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
