// SPDX-License-Identifier: GPL-3.0-or-later

// Package df checks filesystem usage, growth trend and inodes.
package df

import (
	"fmt"
	"iter"
	"slices"

	"github.com/checkmk/checkengine/pkg/render"
	"github.com/checkmk/checkengine/pkg/valuestore"
	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"

	"github.com/bmatcuk/doublestar/v4"
)

func Register(reg *checkapi.Registry) {
	reg.RegisterSection(checkapi.AgentSection{
		Name:  "df",
		Parse: checkapi.Parse(parseDF),
	})
	reg.RegisterSection(checkapi.AgentSection{
		Name:  "df_inodes",
		Parse: checkapi.Parse(parseInodes),
	})
	reg.RegisterCheck(checkapi.CheckPlugin{
		Name:        "df",
		Sections:    []string{"df", "df_inodes"},
		ServiceName: "Filesystem %s",
		Discovery:   discover,
		DiscoveryDefaultParams: checkapi.Params{
			"ignore_fs_types":          []any{"tmpfs", "nfs", "smbfs", "cifs", "iso9660"},
			"never_ignore_mountpoints": []any{"/opt/omd/sites/*/tmp"},
		},
		DiscoveryRuleset: "filesystem_discovery",
		Check:            check,
		CheckDefaultParams: checkapi.Params{
			"levels":        []any{"fixed", []any{80.0, 90.0}},
			"inodes_levels": []any{"fixed", []any{10.0, 5.0}},
			"trend_range":   24,
		},
		CheckRuleset: "filesystem",
	})
}

func discover(params checkapi.Params, sections checkapi.Sections) iter.Seq[checkapi.Service] {
	return func(yield func(checkapi.Service) bool) {
		sec, ok := checkapi.SectionAt[Section](sections, 0)
		if !ok {
			return
		}

		ignoreTypes := params.StringList("ignore_fs_types")
		neverIgnore := params.StringList("never_ignore_mountpoints")

		for _, mp := range sec.Mountpoints() {
			fs := sec[mp]
			if fs.Size == 0 {
				continue
			}
			if slices.Contains(ignoreTypes, fs.FSType) && !matchAny(neverIgnore, mp) {
				continue
			}
			if !yield(checkapi.NewService(mp, nil)) {
				return
			}
		}
	}
}

func matchAny(patterns []string, s string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, s); ok {
			return true
		}
	}
	return false
}

func check(env checkapi.Env, item string, params checkapi.Params, sections checkapi.Sections) iter.Seq[checkapi.Output] {
	return func(yield func(checkapi.Output) bool) {
		sec, ok := checkapi.SectionAt[Section](sections, 0)
		if !ok {
			return
		}
		fs, ok := sec[item]
		if !ok {
			return
		}

		for out := range checkUsage(fs, params) {
			if !yield(out) {
				return
			}
		}
		for out := range checkTrend(env, fs, params) {
			if !yield(out) {
				return
			}
		}
		if inodes, ok := checkapi.SectionAt[InodesSection](sections, 1); ok {
			if in, ok := inodes[item]; ok {
				for out := range checkInodes(in, params) {
					if !yield(out) {
						return
					}
				}
			}
		}
	}
}

func checkUsage(fs Filesystem, params checkapi.Params) iter.Seq[checkapi.Output] {
	return func(yield func(checkapi.Output) bool) {
		levels := params.Levels("levels")
		pct := fs.UsedPercent()

		r := checkapi.EvaluateLevels(pct, checkapi.LevelsOpts{
			Upper:  levels,
			Label:  "Used",
			Render: render.Percent,
		})
		r.Summary += fmt.Sprintf(" - %s of %s", render.Bytes(fs.Used), render.Bytes(fs.Size))
		if !yield(r) {
			return
		}

		var bytesLevels *[2]float64
		if levels.IsSet() {
			usable := fs.Used + fs.Avail
			bytesLevels = &[2]float64{levels.Warn / 100 * usable, levels.Crit / 100 * usable}
		}

		metrics := []checkapi.Metric{
			{Name: "fs_used", Value: fs.Used, Levels: bytesLevels, Boundaries: &[2]float64{0, fs.Size}},
			{Name: "fs_size", Value: fs.Size},
			{Name: "fs_used_percent", Value: pct, Levels: levels.Pair(), Boundaries: &[2]float64{0, 100}},
		}
		for _, m := range metrics {
			if !yield(m) {
				return
			}
		}
	}
}

// checkTrend reports the growth averaged over trend_range hours.
// The first cycle only seeds the counters and reports nothing.
func checkTrend(env checkapi.Env, fs Filesystem, params checkapi.Params) iter.Seq[checkapi.Output] {
	return func(yield func(checkapi.Output) bool) {
		rangeHours := params.Float("trend_range", 24)
		if rangeHours <= 0 {
			return
		}

		now := env.Timestamp()
		rate := valuestore.GetRate(env.Store, "growth", now, fs.Used, false)
		perSec, ok := rate.Get()
		if !ok {
			return
		}

		perDay := perSec * 86400
		trend := valuestore.GetAverage(env.Store, "trend", now, perDay, rangeHours*60)

		summary := fmt.Sprintf("trend: %s per day", signedBytes(trend))
		if trend > 0 && fs.Avail > 0 {
			summary += ", time left until disk full: " + render.Timespan(fs.Avail/(trend/86400))
		}
		if !yield(checkapi.Result{State: checkapi.OK, Summary: summary}) {
			return
		}
		if !yield(checkapi.Metric{Name: "growth", Value: perDay}) {
			return
		}
		yield(checkapi.Metric{Name: "trend", Value: trend})
	}
}

func checkInodes(in Inodes, params checkapi.Params) iter.Seq[checkapi.Output] {
	return func(yield func(checkapi.Output) bool) {
		if in.Total <= 0 {
			return
		}
		freePct := in.Avail / in.Total * 100

		r := checkapi.EvaluateLevels(freePct, checkapi.LevelsOpts{
			Lower:  params.Levels("inodes_levels"),
			Label:  "Inodes free",
			Render: render.Percent,
		})
		r.Summary += fmt.Sprintf(" - %.0f of %.0f", in.Avail, in.Total)
		if !yield(r) {
			return
		}
		yield(checkapi.Metric{Name: "inodes_used", Value: in.Used, Boundaries: &[2]float64{0, in.Total}})
	}
}

func signedBytes(v float64) string {
	if v < 0 {
		return "-" + render.Bytes(-v)
	}
	return "+" + render.Bytes(v)
}
