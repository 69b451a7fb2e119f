// SPDX-License-Identifier: GPL-3.0-or-later

package printerstatus

import (
	"slices"
	"testing"
	"time"

	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"
	"github.com/checkmk/checkengine/plugin/check.d/plugins/plugintest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSection(t *testing.T) Section {
	tables := plugintest.LoadTables(t, "testdata/agent-output.txt")
	sec, ok := parse(tables["printer_status"])
	require.True(t, ok)
	return sec
}

func TestParse(t *testing.T) {
	sec := loadSection(t)

	assert.Len(t, sec, 4)
	assert.Equal(t, Printer{Name: "Canon Lobby", Status: "5", Errors: []string{"none"}}, sec["Canon Lobby"])
	assert.Equal(t, []string{"lowToner", "lowPaper"}, sec["hp-floor2"].Errors)
}

func TestDiscover_SkipsOffline(t *testing.T) {
	sec := loadSection(t)

	assert.Equal(t, []string{"Canon Lobby", "hp-floor1", "hp-floor2"}, plugintest.Items(discover(nil, sec)))
}

func TestCheck(t *testing.T) {
	sec := loadSection(t)
	sec["mystery"] = Printer{Name: "mystery", Status: "9", Errors: []string{"melted"}}

	tests := map[string]struct {
		item string
		want []checkapi.Result
	}{
		"idle": {
			item: "hp-floor1",
			want: []checkapi.Result{
				{State: checkapi.OK, Summary: "Status: idle"},
				{State: checkapi.OK, Summary: "Error: no error"},
			},
		},
		"several errors": {
			item: "hp-floor2",
			want: []checkapi.Result{
				{State: checkapi.OK, Summary: "Status: printing"},
				{State: checkapi.Warn, Summary: "Error: low toner"},
				{State: checkapi.Warn, Summary: "Error: low paper"},
			},
		},
		"offline": {
			item: "old-laser",
			want: []checkapi.Result{
				{State: checkapi.Unknown, Summary: "Status: unknown"},
				{State: checkapi.Crit, Summary: "Error: offline"},
			},
		},
		"unknown codes": {
			item: "mystery",
			want: []checkapi.Result{
				{State: checkapi.Unknown, Summary: "Status: unknown[9]"},
				{State: checkapi.Unknown, Summary: "Error: unknown[melted]"},
			},
		},
		"missing item": {
			item: "nope",
			want: nil,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			env := checkapi.Env{Now: time.Unix(1700000000, 0)}
			out := slices.Collect(check(env, test.item, nil, sec))

			assert.Equal(t, test.want, plugintest.Results(out))
		})
	}
}
