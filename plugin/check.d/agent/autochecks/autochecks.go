// SPDX-License-Identifier: GPL-3.0-or-later

// Package autochecks stores the services discovered on each host.
package autochecks

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"
	"github.com/checkmk/checkengine/plugin/check.d/agent/filepersister"

	"gopkg.in/yaml.v2"
)

// Entry is one discovered service.
type Entry struct {
	CheckPluginName      string         `yaml:"check_plugin_name" json:"check_plugin_name"`
	Item                 string         `yaml:"item,omitempty" json:"item,omitempty"`
	DiscoveredParameters map[string]any `yaml:"discovered_parameters,omitempty" json:"discovered_parameters,omitempty"`
}

// Params returns the discovered parameters in normalized form.
func (e Entry) Params() checkapi.Params {
	return checkapi.NormalizeParams(e.DiscoveredParameters)
}

// ID identifies the service on its host.
func (e Entry) ID() string {
	return e.CheckPluginName + ":" + e.Item
}

// Sort orders entries by plugin name, then item.
func Sort(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Or(cmp.Compare(a.CheckPluginName, b.CheckPluginName), cmp.Compare(a.Item, b.Item))
	})
}

// Store keeps one YAML file per host in a directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Path(host string) string {
	return filepath.Join(s.dir, filepath.Base(host)+".yaml")
}

// Load returns the entries of host. A missing file means no services.
func (s *Store) Load(host string) ([]Entry, error) {
	bs, err := os.ReadFile(s.Path(host))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if err := yaml.Unmarshal(bs, &entries); err != nil {
		return nil, fmt.Errorf("autochecks %s: %w", s.Path(host), err)
	}
	for i, e := range entries {
		if e.CheckPluginName == "" {
			return nil, fmt.Errorf("autochecks %s: entry %d: 'check_plugin_name' not set", s.Path(host), i)
		}
	}
	return entries, nil
}

// Save replaces the entries of host.
func (s *Store) Save(host string, entries []Entry) error {
	entries = slices.Clone(entries)
	Sort(entries)
	return filepersister.Save(s.Path(host), entryList(entries))
}

type entryList []Entry

func (l entryList) Bytes() ([]byte, error) {
	if len(l) == 0 {
		return []byte("[]\n"), nil
	}
	return yaml.Marshal([]Entry(l))
}
