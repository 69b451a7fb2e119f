// SPDX-License-Identifier: GPL-3.0-or-later

package checker

import (
	"context"
	"fmt"
	"slices"

	"github.com/checkmk/checkengine/plugin/check.d/agent/autochecks"
	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"
)

// Discover runs all discovery functions for host, stores the services found
// as the host's autochecks and returns them.
// The services of a cluster are the union of the services of its nodes.
func (c *Checker) Discover(ctx context.Context, host string) ([]autochecks.Entry, error) {
	h, err := c.host(host)
	if err != nil {
		return nil, err
	}

	unlock, err := c.lock(host)
	if err != nil {
		return nil, err
	}
	defer unlock()

	hs, err := c.loadHostSections(h)
	if err != nil {
		return nil, err
	}

	var sources []parsedSections
	if h.IsCluster() {
		for _, node := range h.Nodes {
			sources = append(sources, hs.nodes[node])
		}
	} else {
		sources = append(sources, hs.single)
	}

	var entries []autochecks.Entry
	seen := make(map[string]bool)

	for _, p := range c.reg.Checks() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		params := p.DiscoveryDefaultParams.Merge(c.cfg.DiscoveryParams(p.DiscoveryRuleset, host))

		for _, ps := range sources {
			sections := checkapi.NewSections(p.Sections, ps)
			if !hasFirst(sections) {
				continue
			}

			services, err := discoverSafe(p, params, sections)
			if err != nil {
				c.Errorf("host %s: %v", host, err)
				continue
			}

			for _, svc := range services {
				if svc.HasItem() != p.HasItem() {
					c.Warningf("host %s: plugin '%s' discovered service with invalid item '%s'", host, p.Name, svc.Item)
					continue
				}
				e := autochecks.Entry{
					CheckPluginName:      p.Name,
					Item:                 svc.Item,
					DiscoveredParameters: svc.Parameters,
				}
				if seen[e.ID()] {
					continue
				}
				seen[e.ID()] = true
				entries = append(entries, e)
			}
		}
	}

	autochecks.Sort(entries)

	if err := c.autochecks.Save(host, entries); err != nil {
		return nil, fmt.Errorf("host %s: save autochecks: %w", host, err)
	}

	c.Infof("host %s: discovered %d services", host, len(entries))

	return entries, nil
}

func discoverSafe(p *checkapi.CheckPlugin, params checkapi.Params, sections checkapi.Sections) (services []checkapi.Service, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("discovery of plugin '%s' crashed: %v", p.Name, r)
		}
	}()
	return slices.Collect(p.Discovery(params, sections)), nil
}
