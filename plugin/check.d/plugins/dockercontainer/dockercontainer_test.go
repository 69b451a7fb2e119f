// SPDX-License-Identifier: GPL-3.0-or-later

package dockercontainer

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

var started = time.Date(2023, 11, 14, 20, 13, 20, 0, time.UTC)

func TestParse(t *testing.T) {
	tables := plugintest.LoadTables(t, "testdata/agent-output.txt")

	sec, ok := parse(tables["docker_container_status"])
	require.True(t, ok)

	assert.Equal(t, "running", sec.Status)
	assert.True(t, started.Equal(sec.StartedAt))
	assert.Equal(t, &Health{Status: "unhealthy", FailingStreak: 3, LastOutput: "connection refused"}, sec.Health)
}

func TestParse_Variants(t *testing.T) {
	tests := map[string]struct {
		line   string
		want   Section
		wantOK bool
	}{
		"full inspect output": {
			line:   `{"Id": "abc", "State": {"Status": "exited", "ExitCode": 137, "StartedAt": "0001-01-01T00:00:00Z"}}`,
			want:   Section{Status: "exited", ExitCode: 137},
			wantOK: true,
		},
		"not json": {
			line: "docker version 24.0.7",
		},
		"no status": {
			line: `{"Running": true}`,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			sec, ok := parse(stringtable.Table{{test.line}})

			assert.Equal(t, test.wantOK, ok)
			assert.Equal(t, test.want, sec)
		})
	}
}

func TestCheckStatus(t *testing.T) {
	now := started.Add(26 * time.Hour)

	tests := map[string]struct {
		sec  Section
		want []checkapi.Result
	}{
		"running": {
			sec: Section{Status: "running", StartedAt: started},
			want: []checkapi.Result{
				{State: checkapi.OK, Summary: "Container: running"},
				{State: checkapi.OK, Summary: "Up since " + render.Datetime(float64(started.Unix())) + ", Uptime: 1 day 2 hours"},
			},
		},
		"exited": {
			sec: Section{Status: "exited", ExitCode: 1, Error: "oom"},
			want: []checkapi.Result{
				{State: checkapi.Crit, Summary: "Container: exited (exit code: 1)", Details: "Error: oom"},
			},
		},
		"paused": {
			sec:  Section{Status: "paused"},
			want: []checkapi.Result{{State: checkapi.Warn, Summary: "Container: paused"}},
		},
		"unknown status": {
			sec:  Section{Status: "hibernating"},
			want: []checkapi.Result{{State: checkapi.Unknown, Summary: "Container: unknown[hibernating]"}},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			out := slices.Collect(checkStatus(checkapi.Env{Now: now}, "", nil, test.sec))

			assert.Equal(t, test.want, plugintest.Results(out))
		})
	}
}

func TestHealth(t *testing.T) {
	sec := Section{Status: "running", Health: &Health{Status: "unhealthy", FailingStreak: 3, LastOutput: "connection refused"}}

	assert.Equal(t, []string{""}, plugintest.Items(discoverHealth(nil, sec)))
	assert.Empty(t, plugintest.Items(discoverHealth(nil, Section{Status: "running"})))

	out := slices.Collect(checkHealth(checkapi.Env{}, "", nil, sec))
	assert.Equal(t, []checkapi.Result{
		{State: checkapi.Crit, Summary: "Health status: unhealthy"},
		{State: checkapi.OK, Summary: "Failing streak: 3"},
		{State: checkapi.OK, Details: "Last health report: connection refused"},
	}, plugintest.Results(out))
}

func TestRegister(t *testing.T) {
	reg := checkapi.NewRegistry()
	Register(reg)

	require.NoError(t, reg.Validate())
	p, ok := reg.Check("docker_container_health")
	require.True(t, ok)
	assert.Equal(t, []string{"docker_container_status"}, p.Sections)
}
