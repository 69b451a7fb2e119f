// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/checkmk/checkengine/plugin/check.d/plugins"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const agentOutput = `<<<uptime>>>
7200.5 1000.0
<<<kernel>>>
1700000000
ctxt 1000
processes 10
`

const configYAML = `var_lib_dir: ./var
interval: 1
hosts:
  - name: srv01
    agent_output: srv01.txt
`

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func prepareDir(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "srv01.txt"), []byte(agentOutput), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0644))
	return dir
}

func newTestAgent(dir, mode, format string, out *syncBuffer) *Agent {
	return New(Config{
		ConfigPath: filepath.Join(dir, "config.yaml"),
		Registry:   plugins.NewRegistry(),
		Mode:       mode,
		Format:     format,
		Out:        out,
	})
}

func TestAgent_RunOnce(t *testing.T) {
	dir := prepareDir(t)

	var out syncBuffer
	require.NoError(t, newTestAgent(dir, ModeDiscover, FormatText, &out).RunOnce(context.Background()))
	assert.Equal(t, "srv01: 2 services\n  kernel_performance\n  uptime\n", out.String())
	assert.FileExists(t, filepath.Join(dir, "var", "autochecks", "srv01.yaml"))

	out = syncBuffer{}
	require.NoError(t, newTestAgent(dir, ModeCheck, FormatText, &out).RunOnce(context.Background()))
	assert.Contains(t, out.String(), "srv01: OK\n")
	assert.Contains(t, out.String(), "  STALE - Kernel Performance - results currently unavailable\n")
	assert.Contains(t, out.String(), "  OK - Uptime - Up since ")
	assert.Contains(t, out.String(), "| uptime=7200.5")
	assert.FileExists(t, filepath.Join(dir, "var", "counters", "srv01.json"))
}

func TestAgent_RunOnce_JSON(t *testing.T) {
	dir := prepareDir(t)
	require.NoError(t, newTestAgent(dir, ModeDiscover, FormatText, &syncBuffer{}).RunOnce(context.Background()))

	var out syncBuffer
	require.NoError(t, newTestAgent(dir, ModeCheck, FormatJSON, &out).RunOnce(context.Background()))

	var res []struct {
		Host     string `json:"host"`
		Services []struct {
			CheckPluginName string `json:"check_plugin_name"`
			State           string `json:"state"`
			Stale           bool   `json:"stale"`
		} `json:"services"`
	}
	require.NoError(t, json.Unmarshal([]byte(out.String()), &res))
	require.Len(t, res, 1)
	assert.Equal(t, "srv01", res[0].Host)
	require.Len(t, res[0].Services, 2)
	assert.Equal(t, "kernel_performance", res[0].Services[0].CheckPluginName)
	assert.True(t, res[0].Services[0].Stale)
	assert.Equal(t, "OK", res[0].Services[1].State)
}

func TestAgent_RunOnce_UnknownHost(t *testing.T) {
	dir := prepareDir(t)

	var out syncBuffer
	a := newTestAgent(dir, ModeCheck, FormatText, &out)
	a.Hosts = []string{"nope"}

	err := a.RunOnce(context.Background())

	assert.Error(t, err)
	assert.Equal(t, "nope: ERROR - unknown host 'nope'\n", out.String())
}

func TestAgent_RunOnce_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("interval: -1\n"), 0644))

	err := newTestAgent(dir, ModeCheck, FormatText, &syncBuffer{}).RunOnce(context.Background())

	assert.Error(t, err)
}

func TestAgent_Run_Schema(t *testing.T) {
	var out syncBuffer

	require.NoError(t, newTestAgent(t.TempDir(), ModeSchema, FormatText, &out).Run())

	assert.Contains(t, out.String(), `"var_lib_dir"`)
}

func TestAgent_Run_UnknownMode(t *testing.T) {
	err := newTestAgent(t.TempDir(), "dance", FormatText, &syncBuffer{}).Run()

	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestAgent_run(t *testing.T) {
	dir := prepareDir(t)

	var out syncBuffer
	a := newTestAgent(dir, ModeRun, FormatText, &out)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() { defer wg.Done(); a.run(ctx) }()

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("Kernel Performance"))
	}, time.Second*5, time.Millisecond*50)

	cancel()
	wg.Wait()

	assert.FileExists(t, filepath.Join(dir, "var", "autochecks", "srv01.yaml"), "undiscovered host is discovered first")

	bs, err := os.ReadFile(filepath.Join(dir, "var", "results.json"))
	require.NoError(t, err)
	assert.Contains(t, string(bs), `"host": "srv01"`)
}

func TestAgent_watchConfig(t *testing.T) {
	dir := prepareDir(t)
	path := filepath.Join(dir, "config.yaml")

	a := newTestAgent(dir, ModeRun, FormatText, &syncBuffer{})
	inst, err := a.setup(context.Background())
	require.NoError(t, err)
	defer inst.close()
	hash, err := inst.cfg.Hash()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() { defer close(done); a.watchConfig(ctx, hash) }()

	time.Sleep(time.Millisecond * 200)

	replaceFile(t, path, "# same content\n"+configYAML)
	select {
	case <-a.reloadCh:
		t.Fatal("reload requested for an unchanged config")
	case <-time.After(time.Millisecond * 500):
	}

	replaceFile(t, path, configYAML+"max_procs: 4\n")
	select {
	case <-a.reloadCh:
	case <-time.After(time.Second * 5):
		t.Fatal("no reload requested for a changed config")
	}

	<-done
}

// replaceFile swaps the file by renaming so the watcher never reads a partial write.
func replaceFile(t *testing.T, path, content string) {
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0644))
	require.NoError(t, os.Rename(tmp, path))
}
