// SPDX-License-Identifier: GPL-3.0-or-later

// Package uptime checks the time since the last boot.
package uptime

import (
	"iter"
	"strconv"

	"github.com/checkmk/checkengine/pkg/render"
	"github.com/checkmk/checkengine/pkg/stringtable"
	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"
)

// Section is the parsed "<uptime_seconds> [idle_seconds]" line.
type Section struct {
	Uptime  float64
	Idle    float64
	HasIdle bool
}

func Register(reg *checkapi.Registry) {
	reg.RegisterSection(checkapi.AgentSection{
		Name:  "uptime",
		Parse: checkapi.Parse(parse),
	})
	reg.RegisterCheck(checkapi.CheckPlugin{
		Name:         "uptime",
		ServiceName:  "Uptime",
		Discovery:    checkapi.Discover(discover),
		Check:        checkapi.Check(check),
		CheckRuleset: "uptime",
	})
}

func parse(table stringtable.Table) (Section, bool) {
	for _, row := range table {
		if len(row) == 0 {
			continue
		}
		up, err := strconv.ParseFloat(row[0], 64)
		if err != nil || up < 0 {
			continue
		}
		sec := Section{Uptime: up}
		if len(row) > 1 {
			if idle, err := strconv.ParseFloat(row[1], 64); err == nil {
				sec.Idle, sec.HasIdle = idle, true
			}
		}
		return sec, true
	}
	return Section{}, false
}

func discover(_ checkapi.Params, _ Section) iter.Seq[checkapi.Service] {
	return func(yield func(checkapi.Service) bool) {
		yield(checkapi.Service{})
	}
}

func check(env checkapi.Env, _ string, params checkapi.Params, sec Section) iter.Seq[checkapi.Output] {
	return func(yield func(checkapi.Output) bool) {
		bootTime := env.Timestamp() - sec.Uptime
		if !yield(checkapi.Result{State: checkapi.OK, Summary: "Up since " + render.Datetime(bootTime)}) {
			return
		}
		for out := range checkapi.CheckLevels(sec.Uptime, checkapi.LevelsOpts{
			Upper:  params.Levels("max"),
			Lower:  params.Levels("min"),
			Metric: "uptime",
			Label:  "Uptime",
			Render: render.Timespan,
		}) {
			if !yield(out) {
				return
			}
		}
	}
}
