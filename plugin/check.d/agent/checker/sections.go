// SPDX-License-Identifier: GPL-3.0-or-later

package checker

import (
	"fmt"
	"os"

	"github.com/checkmk/checkengine/pkg/stringtable"
	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"
	"github.com/checkmk/checkengine/plugin/check.d/agent/config"
)

// parsedSections maps parsed section names to sections.
type parsedSections map[string]any

// hostSections are the parsed sections of a host, or of every node of a cluster.
type hostSections struct {
	single parsedSections
	nodes  map[string]parsedSections
}

func (c *Checker) loadHostSections(h config.Host) (*hostSections, error) {
	if !h.IsCluster() {
		ps, err := c.loadSections(h)
		if err != nil {
			return nil, err
		}
		return &hostSections{single: ps}, nil
	}

	hs := &hostSections{nodes: make(map[string]parsedSections)}
	for _, name := range h.Nodes {
		node, err := c.host(name)
		if err != nil {
			return nil, err
		}
		ps, err := c.loadSections(node)
		if err != nil {
			return nil, err
		}
		hs.nodes[name] = ps
	}
	return hs, nil
}

func (c *Checker) loadSections(h config.Host) (parsedSections, error) {
	f, err := os.Open(h.AgentOutput)
	if err != nil {
		return nil, fmt.Errorf("host %s: %w", h.Name, err)
	}
	defer func() { _ = f.Close() }()

	out, err := stringtable.Split(f)
	if err != nil {
		return nil, fmt.Errorf("host %s: %w", h.Name, err)
	}

	return c.parseSections(h.Name, out), nil
}

func (c *Checker) parseSections(host string, out *stringtable.AgentOutput) parsedSections {
	ps := make(parsedSections)

	for _, name := range out.Names() {
		sec, ok := c.reg.Section(name)
		if !ok {
			c.Debugf("host %s: no plugin for section '%s'", host, name)
			continue
		}
		table, _ := out.Table(name)

		v, ok, err := parseSafe(sec, table)
		if err != nil {
			c.Errorf("host %s: %v", host, err)
			continue
		}
		if !ok {
			continue
		}

		parsed := sec.ParsedSectionName
		if parsed == "" {
			parsed = sec.Name
		}
		ps[parsed] = v
	}

	return ps
}

func parseSafe(sec *checkapi.AgentSection, table stringtable.Table) (v any, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse function of section '%s' crashed: %v", sec.Name, r)
		}
	}()
	v, ok = sec.Parse(table.Clone())
	return v, ok, nil
}
