// SPDX-License-Identifier: GPL-3.0-or-later

// Package dockercontainer checks the state and health of a docker container
// from the "State" object of docker inspect.
package dockercontainer

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/checkmk/checkengine/pkg/render"
	"github.com/checkmk/checkengine/pkg/stringtable"
	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"

	"github.com/araddon/dateparse"
	"github.com/tidwall/gjson"
)

// Section is the container state.
type Section struct {
	Status    string
	ExitCode  int64
	Error     string
	StartedAt time.Time // zero if missing or unparsable
	Health    *Health
}

type Health struct {
	Status        string
	FailingStreak int64
	LastOutput    string
}

var statusMap = checkapi.StateMap{
	"running":    {State: checkapi.OK, Text: "running"},
	"created":    {State: checkapi.Warn, Text: "created"},
	"restarting": {State: checkapi.Warn, Text: "restarting"},
	"paused":     {State: checkapi.Warn, Text: "paused"},
	"removing":   {State: checkapi.Warn, Text: "removing"},
	"exited":     {State: checkapi.Crit, Text: "exited"},
	"dead":       {State: checkapi.Crit, Text: "dead"},
}

var healthMap = checkapi.StateMap{
	"healthy":   {State: checkapi.OK, Text: "healthy"},
	"starting":  {State: checkapi.OK, Text: "starting"},
	"unhealthy": {State: checkapi.Crit, Text: "unhealthy"},
}

func Register(reg *checkapi.Registry) {
	reg.RegisterSection(checkapi.AgentSection{
		Name:  "docker_container_status",
		Parse: checkapi.Parse(parse),
	})
	reg.RegisterCheck(checkapi.CheckPlugin{
		Name:        "docker_container_status",
		ServiceName: "Docker container status",
		Discovery:   checkapi.Discover(discoverStatus),
		Check:       checkapi.Check(checkStatus),
	})
	reg.RegisterCheck(checkapi.CheckPlugin{
		Name:        "docker_container_health",
		Sections:    []string{"docker_container_status"},
		ServiceName: "Docker container health",
		Discovery:   checkapi.Discover(discoverHealth),
		Check:       checkapi.Check(checkHealth),
	})
}

// parse reads the first valid JSON line. The section is sent with sep(0),
// so every row holds one whole line.
func parse(table stringtable.Table) (Section, bool) {
	for _, row := range table {
		if len(row) == 0 || !gjson.Valid(row[0]) {
			continue
		}
		state := gjson.Parse(row[0])
		if !state.IsObject() {
			continue
		}
		if st := state.Get("State"); st.IsObject() {
			state = st
		}

		status := state.Get("Status")
		if !status.Exists() {
			continue
		}

		sec := Section{
			Status:   status.String(),
			ExitCode: state.Get("ExitCode").Int(),
			Error:    state.Get("Error").String(),
		}
		if s := state.Get("StartedAt").String(); s != "" {
			if t, err := dateparse.ParseAny(s); err == nil && t.Year() > 1 {
				sec.StartedAt = t
			}
		}
		if h := state.Get("Health"); h.IsObject() {
			sec.Health = &Health{
				Status:        h.Get("Status").String(),
				FailingStreak: h.Get("FailingStreak").Int(),
			}
			if log := h.Get("Log").Array(); len(log) > 0 {
				sec.Health.LastOutput = strings.TrimSpace(log[len(log)-1].Get("Output").String())
			}
		}
		return sec, true
	}
	return Section{}, false
}

func discoverStatus(_ checkapi.Params, _ Section) iter.Seq[checkapi.Service] {
	return func(yield func(checkapi.Service) bool) {
		yield(checkapi.Service{})
	}
}

func checkStatus(env checkapi.Env, _ string, _ checkapi.Params, sec Section) iter.Seq[checkapi.Output] {
	return func(yield func(checkapi.Output) bool) {
		r := statusMap.Result("Container", sec.Status)
		if sec.Status == "exited" {
			r.Summary += " (exit code: " + strconv.FormatInt(sec.ExitCode, 10) + ")"
		}
		if sec.Error != "" {
			r.Details = "Error: " + sec.Error
		}
		if !yield(r) {
			return
		}

		if sec.Status != "running" || sec.StartedAt.IsZero() {
			return
		}
		started := float64(sec.StartedAt.UnixNano()) / 1e9
		yield(checkapi.Result{
			State:   checkapi.OK,
			Summary: fmt.Sprintf("Up since %s, Uptime: %s", render.Datetime(started), render.Timespan(env.Timestamp()-started)),
		})
	}
}

func discoverHealth(_ checkapi.Params, sec Section) iter.Seq[checkapi.Service] {
	return func(yield func(checkapi.Service) bool) {
		if sec.Health != nil && sec.Health.Status != "" {
			yield(checkapi.Service{})
		}
	}
}

func checkHealth(_ checkapi.Env, _ string, _ checkapi.Params, sec Section) iter.Seq[checkapi.Output] {
	return func(yield func(checkapi.Output) bool) {
		if sec.Health == nil {
			return
		}
		h := sec.Health
		if !yield(healthMap.Result("Health status", h.Status)) {
			return
		}
		if h.FailingStreak > 0 {
			if !yield(checkapi.Result{State: checkapi.OK, Summary: fmt.Sprintf("Failing streak: %d", h.FailingStreak)}) {
				return
			}
		}
		if h.LastOutput != "" {
			yield(checkapi.NewResult(checkapi.OK, "\nLast health report: "+h.LastOutput))
		}
	}
}
