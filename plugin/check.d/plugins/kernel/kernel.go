// SPDX-License-Identifier: GPL-3.0-or-later

// Package kernel checks kernel performance counters as rates.
package kernel

import (
	"iter"
	"strconv"

	"github.com/checkmk/checkengine/pkg/stringtable"
	"github.com/checkmk/checkengine/pkg/valuestore"
	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"
)

// Section holds the counters of one agent run.
type Section struct {
	// Timestamp is the agent side time of the sample, 0 if the agent did not send one.
	Timestamp float64
	Counters  map[string]float64
}

type counter struct {
	name   string
	label  string
	metric string
}

var counters = []counter{
	{name: "ctxt", label: "Context switches", metric: "context_switches"},
	{name: "processes", label: "Process creations", metric: "process_creations"},
	{name: "pgmajfault", label: "Major page faults", metric: "major_page_faults"},
}

func Register(reg *checkapi.Registry) {
	reg.RegisterSection(checkapi.AgentSection{
		Name:  "kernel",
		Parse: checkapi.Parse(parse),
	})
	reg.RegisterCheck(checkapi.CheckPlugin{
		Name:         "kernel_performance",
		Sections:     []string{"kernel"},
		ServiceName:  "Kernel Performance",
		Discovery:    checkapi.Discover(discover),
		Check:        checkapi.Check(check),
		CheckRuleset: "kernel_performance",
	})
}

// parse reads a leading timestamp line followed by "name value" rows.
// Rows with more values (e.g. cpu lines) or non-numeric values are dropped.
func parse(table stringtable.Table) (Section, bool) {
	sec := Section{Counters: make(map[string]float64)}
	for i, row := range table {
		switch len(row) {
		case 1:
			if i != 0 {
				continue
			}
			if ts, err := strconv.ParseFloat(row[0], 64); err == nil {
				sec.Timestamp = ts
			}
		case 2:
			v, err := strconv.ParseFloat(row[1], 64)
			if err != nil {
				continue
			}
			sec.Counters[row[0]] = v
		}
	}
	return sec, len(sec.Counters) > 0
}

func discover(_ checkapi.Params, sec Section) iter.Seq[checkapi.Service] {
	return func(yield func(checkapi.Service) bool) {
		for _, c := range counters {
			if _, ok := sec.Counters[c.name]; ok {
				yield(checkapi.Service{})
				return
			}
		}
	}
}

func check(env checkapi.Env, _ string, params checkapi.Params, sec Section) iter.Seq[checkapi.Output] {
	return func(yield func(checkapi.Output) bool) {
		now := sec.Timestamp
		if now == 0 {
			now = env.Timestamp()
		}

		type sample struct {
			counter
			rate float64
		}
		var samples []sample
		var notReady []valuestore.Value

		for _, c := range counters {
			v, ok := sec.Counters[c.name]
			if !ok {
				continue
			}
			res := valuestore.GetRate(env.Store, c.name, now, v, true)
			if rate, ok := res.Get(); ok {
				samples = append(samples, sample{counter: c, rate: rate})
			} else {
				notReady = append(notReady, res)
			}
		}

		if len(notReady) > 0 {
			yield(checkapi.NotReady(notReady[0]))
			return
		}

		for _, s := range samples {
			for out := range checkapi.CheckLevels(s.rate, checkapi.LevelsOpts{
				Upper:  params.Levels(s.name),
				Metric: s.metric,
				Label:  s.label,
				Render: perSecond,
			}) {
				if !yield(out) {
					return
				}
			}
		}
	}
}

func perSecond(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "/s"
}
