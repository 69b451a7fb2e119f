// SPDX-License-Identifier: GPL-3.0-or-later

package uptime

import (
	"slices"
	"testing"
	"time"

	"github.com/checkmk/checkengine/pkg/render"
	"github.com/checkmk/checkengine/pkg/stringtable"
	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"
	"github.com/checkmk/checkengine/plugin/check.d/plugins/plugintest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := map[string]struct {
		table  stringtable.Table
		want   Section
		wantOK bool
	}{
		"uptime and idle": {
			table:  stringtable.Table{{"12345.67", "4321.00"}},
			want:   Section{Uptime: 12345.67, Idle: 4321, HasIdle: true},
			wantOK: true,
		},
		"uptime only": {
			table:  stringtable.Table{{"3600"}},
			want:   Section{Uptime: 3600},
			wantOK: true,
		},
		"malformed row skipped": {
			table:  stringtable.Table{{"n/a"}, {"60", "x"}},
			want:   Section{Uptime: 60},
			wantOK: true,
		},
		"empty": {
			table: stringtable.Table{},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			sec, ok := parse(test.table)
			assert.Equal(t, test.wantOK, ok)
			assert.Equal(t, test.want, sec)
		})
	}
}

func TestCheck(t *testing.T) {
	now := time.Unix(1700000000, 0)
	env := checkapi.Env{Now: now}

	tests := map[string]struct {
		params    checkapi.Params
		uptime    float64
		wantState checkapi.State
		wantSum   string
	}{
		"no levels": {
			uptime:    90000,
			wantState: checkapi.OK,
			wantSum:   "Uptime: 1 day 1 hour",
		},
		"below min": {
			params:    checkapi.Params{"min": []any{"fixed", []any{600, 300}}},
			uptime:    120,
			wantState: checkapi.Crit,
			wantSum:   "Uptime: 2 minutes 0 seconds (warn/crit below 10 minutes 0 seconds/5 minutes 0 seconds)",
		},
		"above max": {
			params:    checkapi.Params{"max": []any{86400, 172800}},
			uptime:    90000,
			wantState: checkapi.Warn,
			wantSum:   "Uptime: 1 day 1 hour (warn/crit at 1 day 0 hours/2 days 0 hours)",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			out := slices.Collect(check(env, "", test.params, Section{Uptime: test.uptime}))

			results := plugintest.Results(out)
			require.Len(t, results, 2)
			assert.Equal(t, "Up since "+render.Datetime(1700000000-test.uptime), results[0].Summary)
			assert.Equal(t, test.wantState, results[1].State)
			assert.Equal(t, test.wantSum, results[1].Summary)

			m := plugintest.Metrics(out)["uptime"]
			assert.Equal(t, test.uptime, m.Value)
		})
	}
}

func TestRegister(t *testing.T) {
	reg := checkapi.NewRegistry()
	Register(reg)
	require.NoError(t, reg.Validate())

	tables := plugintest.LoadTables(t, "testdata/agent-output.txt")
	sec, ok := parse(tables["uptime"])
	require.True(t, ok)

	p, _ := reg.Check("uptime")
	sections := checkapi.NewSections(p.Sections, map[string]any{"uptime": sec})
	assert.Equal(t, []string{""}, plugintest.Items(p.Discovery(nil, sections)))
}
