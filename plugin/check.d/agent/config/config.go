// SPDX-License-Identifier: GPL-3.0-or-later

// Package config holds the engine configuration: monitored hosts, rulesets and storage locations.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/checkmk/checkengine/pkg/buildinfo"
	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"
	"github.com/checkmk/checkengine/plugin/check.d/agent/counters"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"
)

func Default() *Config {
	return &Config{
		VarLibDir: buildinfo.VarLibDir,
		Interval:  60,
		MaxProcs:  0,
	}
}

type Config struct {
	VarLibDir string `yaml:"var_lib_dir" json:"var_lib_dir"`
	// Interval is the check interval of the "run" mode in seconds.
	Interval int `yaml:"interval" json:"interval"`
	// MaxProcs bounds the number of hosts checked concurrently, 0 means one per CPU.
	MaxProcs          int               `yaml:"max_procs" json:"max_procs"`
	ValueStore        counters.Config   `yaml:"value_store" json:"value_store"`
	Hosts             []Host            `yaml:"hosts" json:"hosts"`
	Rulesets          map[string][]Rule `yaml:"rulesets" json:"rulesets"`
	DiscoveryRulesets map[string][]Rule `yaml:"discovery_rulesets" json:"discovery_rulesets"`

	path string
}

// Host is a monitored host. A host with nodes is a cluster and has no agent output of its own.
type Host struct {
	Name        string            `yaml:"name" json:"name"`
	AgentOutput string            `yaml:"agent_output" json:"agent_output"`
	Nodes       []string          `yaml:"nodes" json:"nodes,omitempty"`
	Labels      map[string]string `yaml:"labels" json:"labels,omitempty"`
}

func (h Host) IsCluster() bool { return len(h.Nodes) > 0 }

// Rule sets parameters for the hosts and items matching its glob patterns.
// Empty pattern lists match everything.
type Rule struct {
	Hosts []string       `yaml:"hosts" json:"hosts,omitempty"`
	Items []string       `yaml:"items" json:"items,omitempty"`
	Value map[string]any `yaml:"value" json:"value"`
}

func (r Rule) matches(host, item string) bool {
	return matchAny(r.Hosts, host) && matchAny(r.Items, item)
}

func matchAny(patterns []string, s string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, s); ok {
			return true
		}
	}
	return false
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.path = path

	if err := cfg.expandPaths(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration. Relative paths are kept as is.
func Parse(bs []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(bs, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string { return c.path }

func (c *Config) Validate() error {
	var errs []error

	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("'interval' must be positive, got %d", c.Interval))
	}
	if c.MaxProcs < 0 {
		errs = append(errs, fmt.Errorf("'max_procs' must not be negative, got %d", c.MaxProcs))
	}

	seen := make(map[string]bool)
	for i, h := range c.Hosts {
		switch {
		case h.Name == "":
			errs = append(errs, fmt.Errorf("host %d: 'name' not set", i))
			continue
		case !isValidHostName(h.Name):
			errs = append(errs, fmt.Errorf("host %d: invalid 'name' '%s'", i, h.Name))
			continue
		case seen[h.Name]:
			errs = append(errs, fmt.Errorf("host %s: defined twice", h.Name))
		case h.IsCluster() && h.AgentOutput != "":
			errs = append(errs, fmt.Errorf("host %s: a cluster has no 'agent_output'", h.Name))
		case !h.IsCluster() && h.AgentOutput == "":
			errs = append(errs, fmt.Errorf("host %s: 'agent_output' not set", h.Name))
		}
		seen[h.Name] = true
	}
	for _, h := range c.Hosts {
		for _, node := range h.Nodes {
			n, ok := c.Host(node)
			switch {
			case !ok:
				errs = append(errs, fmt.Errorf("cluster %s: unknown node '%s'", h.Name, node))
			case n.IsCluster():
				errs = append(errs, fmt.Errorf("cluster %s: node '%s' is a cluster", h.Name, node))
			}
		}
	}

	for _, sets := range []map[string][]Rule{c.Rulesets, c.DiscoveryRulesets} {
		for name, rules := range sets {
			for i, r := range rules {
				for _, p := range slices.Concat(r.Hosts, r.Items) {
					if !doublestar.ValidatePattern(p) {
						errs = append(errs, fmt.Errorf("ruleset %s: rule %d: invalid pattern '%s'", name, i, p))
					}
				}
			}
		}
	}

	return errors.Join(errs...)
}

// isValidHostName reports whether name can be used as a file name in the var lib directories.
func isValidHostName(name string) bool {
	return name != "." && name != ".." && !strings.ContainsAny(name, "/\\\x00")
}

// Host returns the host by name.
func (c *Config) Host(name string) (Host, bool) {
	for _, h := range c.Hosts {
		if h.Name == name {
			return h, true
		}
	}
	return Host{}, false
}

// HostNames returns the names of all hosts in configuration order.
func (c *Config) HostNames() []string {
	names := make([]string, 0, len(c.Hosts))
	for _, h := range c.Hosts {
		names = append(names, h.Name)
	}
	return names
}

// RulesetParams merges the values of all rules of the ruleset matching host and item.
// Earlier rules win on key conflicts.
func (c *Config) RulesetParams(ruleset, host, item string) checkapi.Params {
	return mergeRules(c.Rulesets[ruleset], host, item)
}

// DiscoveryParams is RulesetParams for discovery rulesets, which match hosts only.
func (c *Config) DiscoveryParams(ruleset, host string) checkapi.Params {
	var rules []Rule
	for _, r := range c.DiscoveryRulesets[ruleset] {
		if len(r.Items) == 0 {
			rules = append(rules, r)
		}
	}
	return mergeRules(rules, host, "")
}

func mergeRules(rules []Rule, host, item string) checkapi.Params {
	params := checkapi.Params{}
	for _, r := range slices.Backward(rules) {
		if r.matches(host, item) {
			params = params.Merge(checkapi.NormalizeParams(r.Value))
		}
	}
	return params
}

func (c *Config) AutochecksDir() string { return filepath.Join(c.VarLibDir, "autochecks") }

func (c *Config) CountersDir() string { return filepath.Join(c.VarLibDir, "counters") }

func (c *Config) LockDir() string { return filepath.Join(c.VarLibDir, "lock") }

func (c *Config) expandPaths(base string) error {
	expand := func(p *string) error {
		if *p == "" {
			return nil
		}
		v, err := homedir.Expand(*p)
		if err != nil {
			return err
		}
		if !filepath.IsAbs(v) {
			v = filepath.Join(base, v)
		}
		*p = v
		return nil
	}

	if err := expand(&c.VarLibDir); err != nil {
		return err
	}
	if err := expand(&c.ValueStore.Dir); err != nil {
		return err
	}
	for i := range c.Hosts {
		if err := expand(&c.Hosts[i].AgentOutput); err != nil {
			return err
		}
	}
	return nil
}
