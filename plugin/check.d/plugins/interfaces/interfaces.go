// SPDX-License-Identifier: GPL-3.0-or-later

// Package interfaces checks network interface status, speed and traffic.
package interfaces

import (
	"fmt"
	"iter"
	"slices"
	"strconv"

	"github.com/checkmk/checkengine/pkg/render"
	"github.com/checkmk/checkengine/pkg/valuestore"
	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"
)

const summaryItem = "SUMMARY"

var operStatus = checkapi.StateMap{
	"1": {State: checkapi.OK, Text: "up"},
	"2": {State: checkapi.Crit, Text: "down"},
	"3": {State: checkapi.Warn, Text: "testing"},
	"4": {State: checkapi.Unknown, Text: "unknown"},
	"5": {State: checkapi.OK, Text: "dormant"},
	"6": {State: checkapi.Crit, Text: "not present"},
	"7": {State: checkapi.Crit, Text: "lower layer down"},
}

const operUp = "1"

func Register(reg *checkapi.Registry) {
	reg.RegisterSection(checkapi.AgentSection{
		Name:  "lnx_if",
		Parse: checkapi.Parse(parse),
	})
	reg.RegisterCheck(checkapi.CheckPlugin{
		Name:             "interfaces",
		Sections:         []string{"lnx_if"},
		ServiceName:      "Interface %s",
		Discovery:        checkapi.Discover(discover),
		DiscoveryRuleset: "interfaces_discovery",
		Check:            checkapi.Check(check),
		CheckDefaultParams: checkapi.Params{
			"traffic_levels": []any{"no_levels", nil},
			"error_levels":   []any{"fixed", []any{1.0, 10.0}},
		},
		CheckRuleset: "interfaces",
		ClusterCheck: clusterCheck,
	})
}

func discover(params checkapi.Params, sec Section) iter.Seq[checkapi.Service] {
	return func(yield func(checkapi.Service) bool) {
		discoverDown := params.Bool("discover_down", false)
		var n int
		for _, iface := range sec {
			if iface.Name == "lo" {
				continue
			}
			if iface.OperStatus != operUp && !discoverDown {
				continue
			}
			n++
			if !yield(checkapi.NewService(iface.Name, checkapi.Params{
				"discovered_oper_status": []any{iface.OperStatus},
				"discovered_speed":       iface.Speed,
			})) {
				return
			}
		}
		if n >= 2 && params.Bool("summary", true) {
			yield(checkapi.NewService(summaryItem, nil))
		}
	}
}

func check(env checkapi.Env, item string, params checkapi.Params, sec Section) iter.Seq[checkapi.Output] {
	if item == summaryItem {
		return checkSummary(env, params, sec)
	}
	return func(yield func(checkapi.Output) bool) {
		iface, ok := sec.Find(item)
		if !ok {
			return
		}
		if !yield(statusResult(iface.OperStatus, params)) {
			return
		}
		if !yield(speedResult(iface.Speed, params)) {
			return
		}
		for out := range checkTraffic(env, iface, params) {
			if !yield(out) {
				return
			}
		}
	}
}

// statusResult compares the status against discovered_oper_status if set,
// otherwise it uses the default state of the status code.
func statusResult(status string, params checkapi.Params) checkapi.Result {
	r := operStatus.Result("Operational state", status)

	expected := params.StringList("discovered_oper_status")
	if len(expected) == 0 {
		return r
	}
	if slices.Contains(expected, status) {
		r.State = checkapi.OK
		return r
	}

	texts := make([]string, 0, len(expected))
	for _, code := range expected {
		_, text := operStatus.Lookup(code)
		texts = append(texts, text)
	}
	r.State = checkapi.Crit
	r.Summary += fmt.Sprintf(" (expected: %s)", joinOr(texts))
	return r
}

func speedResult(speed float64, params checkapi.Params) checkapi.Result {
	if speed <= 0 {
		return checkapi.Result{State: checkapi.OK, Summary: "Speed: unknown"}
	}
	r := checkapi.Result{State: checkapi.OK, Summary: "Speed: " + render.NICSpeed(speed)}
	if want := params.Float("discovered_speed", 0); want > 0 && want != speed {
		r.State = checkapi.Warn
		r.Summary += " (expected: " + render.NICSpeed(want) + ")"
	}
	return r
}

func checkSummary(env checkapi.Env, params checkapi.Params, sec Section) iter.Seq[checkapi.Output] {
	return func(yield func(checkapi.Output) bool) {
		total := Interface{Name: summaryItem}
		var n, up int
		for _, iface := range sec {
			if iface.Name == "lo" {
				continue
			}
			n++
			if iface.OperStatus == operUp {
				up++
				total.Speed += iface.Speed
			}
			total.InOctets += iface.InOctets
			total.InErrors += iface.InErrors
			total.OutOctets += iface.OutOctets
			total.OutErrors += iface.OutErrors
		}
		if n == 0 {
			return
		}

		if !yield(checkapi.Result{State: checkapi.OK, Summary: fmt.Sprintf("Interfaces: %d, up: %d", n, up)}) {
			return
		}
		for out := range checkTraffic(env, total, params) {
			if !yield(out) {
				return
			}
		}
	}
}

var counterKeys = [4]string{"in", "out", "inerr", "outerr"}

// checkTraffic turns the interface counters into rates. All counters are
// updated before any NotReady is reported, so the next cycle has a full baseline.
func checkTraffic(env checkapi.Env, iface Interface, params checkapi.Params) iter.Seq[checkapi.Output] {
	return func(yield func(checkapi.Output) bool) {
		now := env.Timestamp()
		values := [4]float64{iface.InOctets, iface.OutOctets, iface.InErrors, iface.OutErrors}

		var rates [4]float64
		var notReady *valuestore.Value
		for i, key := range counterKeys {
			v := valuestore.GetRate(env.Store, key, now, values[i], true)
			rate, ok := v.Get()
			if !ok && notReady == nil {
				notReady = &v
			}
			rates[i] = rate
		}
		if notReady != nil {
			yield(checkapi.NotReady(*notReady))
			return
		}

		if avg := params.Float("average", 0); avg > 0 {
			for i, key := range counterKeys {
				rates[i] = valuestore.GetAverage(env.Store, key+".avg", now, rates[i], avg)
			}
		}

		traffic := trafficLevels(params.Levels("traffic_levels"), iface.Speed)
		for i, label := range []string{"In", "Out"} {
			r := checkapi.EvaluateLevels(rates[i], checkapi.LevelsOpts{
				Upper:  traffic,
				Label:  label,
				Render: render.NetworkBandwidth,
			})
			if iface.Speed > 0 {
				r.Summary += " (" + render.Percent(rates[i]*8/iface.Speed*100) + ")"
			}
			if !yield(r) {
				return
			}
		}

		errLevels := params.Levels("error_levels")
		for i, label := range []string{"Input errors", "Output errors"} {
			r := checkapi.EvaluateLevels(rates[2+i], checkapi.LevelsOpts{
				Upper:  errLevels,
				Label:  label,
				Render: perSecond,
			})
			if r.State == checkapi.OK {
				// zero error rates only go to the details
				r = checkapi.Result{State: checkapi.OK, Details: r.Summary}
			}
			if !yield(r) {
				return
			}
		}

		var bounds *[2]float64
		if iface.Speed > 0 {
			bounds = &[2]float64{0, iface.Speed / 8}
		}
		metrics := []checkapi.Metric{
			{Name: "in", Value: rates[0], Levels: traffic.Pair(), Boundaries: bounds},
			{Name: "out", Value: rates[1], Levels: traffic.Pair(), Boundaries: bounds},
			{Name: "inerr", Value: rates[2], Levels: errLevels.Pair()},
			{Name: "outerr", Value: rates[3], Levels: errLevels.Pair()},
		}
		for _, m := range metrics {
			if !yield(m) {
				return
			}
		}
	}
}

// trafficLevels converts levels given in percent of the link speed into octets per second.
func trafficLevels(pct checkapi.Levels, speed float64) checkapi.Levels {
	if !pct.IsSet() || speed <= 0 {
		return checkapi.NoLevels()
	}
	octets := speed / 8
	return checkapi.Fixed(pct.Warn/100*octets, pct.Crit/100*octets)
}

func perSecond(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "/s"
}

func joinOr(texts []string) string {
	switch len(texts) {
	case 0:
		return ""
	case 1:
		return texts[0]
	}
	out := texts[0]
	for _, t := range texts[1 : len(texts)-1] {
		out += ", " + t
	}
	return out + " or " + texts[len(texts)-1]
}

func clusterCheck(env checkapi.Env, item string, params checkapi.Params, nodes map[string]checkapi.Sections) iter.Seq[checkapi.Output] {
	if item == summaryItem {
		return checkapi.ClusterMerged(mergeSections, checkapi.Check(check))(env, item, params, nodes)
	}
	return checkapi.ClusterFirstNode(checkapi.Check(check))(env, item, params, nodes)
}

func mergeSections(nodes []checkapi.Sections) checkapi.Sections {
	secs := make([]Section, 0, len(nodes))
	for _, s := range nodes {
		if sec, ok := checkapi.SectionAt[Section](s, 0); ok {
			secs = append(secs, sec)
		}
	}
	merged := mergeNodes(secs)
	if len(merged) == 0 {
		return checkapi.NewSections([]string{"lnx_if"}, nil)
	}
	return checkapi.NewSections([]string{"lnx_if"}, map[string]any{"lnx_if": merged})
}
