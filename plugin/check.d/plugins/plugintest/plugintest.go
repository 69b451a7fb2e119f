// SPDX-License-Identifier: GPL-3.0-or-later

// Package plugintest has helpers for testing check plugins.
package plugintest

import (
	"iter"
	"os"
	"slices"
	"testing"

	"github.com/checkmk/checkengine/pkg/stringtable"
	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"

	"github.com/stretchr/testify/require"
)

// LoadTables splits an agent output fixture into its section tables.
func LoadTables(t *testing.T, path string) map[string]stringtable.Table {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	out, err := stringtable.Split(f)
	require.NoError(t, err)

	tables := make(map[string]stringtable.Table)
	for _, name := range out.Names() {
		tables[name], _ = out.Table(name)
	}
	return tables
}

// Results returns the Results of outputs.
func Results(outputs []checkapi.Output) []checkapi.Result {
	var res []checkapi.Result
	for _, o := range outputs {
		if r, ok := o.(checkapi.Result); ok {
			res = append(res, r)
		}
	}
	return res
}

// Metrics returns the Metrics of outputs by name.
func Metrics(outputs []checkapi.Output) map[string]checkapi.Metric {
	ms := make(map[string]checkapi.Metric)
	for _, o := range outputs {
		if m, ok := o.(checkapi.Metric); ok {
			ms[m.Name] = m
		}
	}
	return ms
}

// Ignored reports whether outputs contain IgnoreResults.
func Ignored(outputs []checkapi.Output) bool {
	return slices.ContainsFunc(outputs, func(o checkapi.Output) bool {
		_, ok := o.(checkapi.IgnoreResults)
		return ok
	})
}

// Items collects the items of discovered services.
func Items(services iter.Seq[checkapi.Service]) []string {
	var items []string
	for s := range services {
		items = append(items, s.Item)
	}
	return items
}
