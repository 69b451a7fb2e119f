// SPDX-License-Identifier: GPL-3.0-or-later

package stringtable

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dataAgentOutput, _ = os.ReadFile("testdata/agent-output.txt")

func Test_testDataIsValid(t *testing.T) {
	for name, data := range map[string][]byte{
		"dataAgentOutput": dataAgentOutput,
	} {
		require.NotNil(t, data, name)
	}
}

func TestParseHeader(t *testing.T) {
	tests := map[string]struct {
		line     string
		wantOK   bool
		wantName string
		wantSep  byte
		wantOpts map[string]string
	}{
		"plain":            {line: "<<<df>>>", wantOK: true, wantName: "df"},
		"with separator":   {line: "<<<kernel:sep(58)>>>", wantOK: true, wantName: "kernel", wantSep: ':', wantOpts: map[string]string{"sep": "58"}},
		"cached":           {line: "<<<mem:cached(1700000000,120)>>>", wantOK: true, wantName: "mem", wantOpts: map[string]string{"cached": "1700000000,120"}},
		"nul separator":    {line: "<<<docker_container_status:sep(0)>>>", wantOK: true, wantName: "docker_container_status", wantOpts: map[string]string{"sep": "0"}},
		"reset":            {line: "<<<>>>", wantOK: true},
		"surrounding ws":   {line: "  <<<df>>>  ", wantOK: true, wantName: "df"},
		"not a header":     {line: "<<df>>", wantOK: false},
		"invalid name":     {line: "<<<d f>>>", wantOK: false},
		"invalid sep":      {line: "<<<df:sep(abc)>>>", wantOK: false},
		"sep out of range": {line: "<<<df:sep(300)>>>", wantOK: false},
		"data line":        {line: "/dev/sda1 ext4", wantOK: false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			h, ok := ParseHeader(test.line)

			assert.Equal(t, test.wantOK, ok)
			if ok {
				assert.Equal(t, test.wantName, h.Name)
				assert.Equal(t, test.wantSep, h.Sep)
				assert.Equal(t, test.wantOpts, h.Options)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	out, err := Split(bytes.NewReader(dataAgentOutput))
	require.NoError(t, err)

	assert.Equal(t, []string{"check_mk", "df", "uptime", "kernel", "lnx_if"}, out.Names())

	df, ok := out.Table("df")
	require.True(t, ok)
	assert.Equal(t, Table{
		{"/dev/sda1", "ext4", "10255636", "5195636", "4519328", "54%", "/"},
		{"tmpfs", "tmpfs", "1638400", "0", "1638400", "0%", "/dev/shm"},
		{"/dev/sdb1", "xfs", "2048", "1024", "1024", "50%", "/data"},
	}, df)

	kernel, _ := out.Table("kernel")
	assert.Equal(t, Table{{"ctxt", "1000"}, {"processes", "200"}}, kernel)

	lnxIf, _ := out.Table("lnx_if")
	assert.Equal(t, Table{{" eth0 ", "up", "1000000000"}}, lnxIf)

	h, ok := out.Header("lnx_if")
	require.True(t, ok)
	assert.True(t, h.NoStrip)

	_, ok = out.Table("missing")
	assert.False(t, ok)
}

func TestSplit_EmptySectionIsPresent(t *testing.T) {
	out, err := Split(strings.NewReader("<<<empty>>>\n<<<df>>>\na b\n"))
	require.NoError(t, err)

	tbl, ok := out.Table("empty")
	assert.True(t, ok)
	assert.Empty(t, tbl)
	assert.Equal(t, 2, out.Len())
}

func TestTable_Clone(t *testing.T) {
	orig := Table{{"a", "b"}}
	clone := orig.Clone()
	clone[0][0] = "x"

	assert.Equal(t, "a", orig[0][0])
}

func TestSplit_NulSeparatorKeepsLine(t *testing.T) {
	out, err := Split(strings.NewReader("<<<docker_container_status:sep(0)>>>\n{\"Status\": \"running\", \"Pid\": 42}\n"))
	require.NoError(t, err)

	tbl, ok := out.Table("docker_container_status")
	require.True(t, ok)
	assert.Equal(t, Table{{`{"Status": "running", "Pid": 42}`}}, tbl)
}

func TestSplit_HighByteSeparator(t *testing.T) {
	out, err := Split(strings.NewReader("<<<winperf:sep(164)>>>\nCPU\xa4Idle\xa41\u00a4x\n"))
	require.NoError(t, err)

	tbl, ok := out.Table("winperf")
	require.True(t, ok)
	assert.Equal(t, Table{{"CPU", "Idle", "1\xc2", "x"}}, tbl)
}
