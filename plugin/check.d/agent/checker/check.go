// SPDX-License-Identifier: GPL-3.0-or-later

package checker

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/checkmk/checkengine/pkg/valuestore"
	"github.com/checkmk/checkengine/plugin/check.d/agent/autochecks"
	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"
	"github.com/checkmk/checkengine/plugin/check.d/agent/config"
)

const (
	summaryStale        = "results currently unavailable"
	summaryItemNotFound = "item not found"
	summaryNoPlugin     = "check plugin not found"
	summaryNoCluster    = "clustered service not supported"
)

// Check runs the check function of every service discovered on host.
// The host's value store is loaded before and saved after the cycle.
func (c *Checker) Check(ctx context.Context, host string) (*HostResult, error) {
	h, err := c.host(host)
	if err != nil {
		return nil, err
	}

	unlock, err := c.lock(host)
	if err != nil {
		return nil, err
	}
	defer unlock()

	entries, err := c.autochecks.Load(host)
	if err != nil {
		return nil, err
	}

	hs, err := c.loadHostSections(h)
	if err != nil {
		return nil, err
	}

	store, err := c.counters.Load(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("host %s: load value store: %w", host, err)
	}

	now := c.now()
	res := &HostResult{Host: host, Services: make([]ServiceResult, 0, len(entries))}
	keep := make(map[string]bool, len(entries))

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scope := valuestore.ScopeKey(e.CheckPluginName, e.Item)
		keep[scope] = true

		res.Services = append(res.Services, c.checkService(h, hs, e, store.Scope(scope), now))
	}

	store.Retain(keep)

	if err := c.counters.Save(ctx, host, store); err != nil {
		return nil, fmt.Errorf("host %s: save value store: %w", host, err)
	}

	return res, nil
}

func (c *Checker) checkService(h config.Host, hs *hostSections, e autochecks.Entry, store valuestore.Store, now time.Time) ServiceResult {
	res := ServiceResult{CheckPluginName: e.CheckPluginName, Item: e.Item}

	p, ok := c.reg.Check(e.CheckPluginName)
	if !ok {
		res.Description = strings.TrimSpace(e.CheckPluginName + " " + e.Item)
		res.State, res.Summary = checkapi.Unknown, summaryNoPlugin
		return res
	}
	res.Description = p.ServiceDescription(e.Item)

	params := p.CheckDefaultParams.Merge(
		c.cfg.RulesetParams(p.CheckRuleset, h.Name, e.Item),
		e.Params(),
	)
	env := checkapi.Env{Host: h.Name, Now: now, Store: store}

	var run func() iter.Seq[checkapi.Output]

	if h.IsCluster() {
		if p.ClusterCheck == nil {
			res.State, res.Summary = checkapi.Unknown, summaryNoCluster
			return res
		}
		nodes := make(map[string]checkapi.Sections, len(hs.nodes))
		for node, ps := range hs.nodes {
			if sections := checkapi.NewSections(p.Sections, ps); hasFirst(sections) {
				nodes[node] = sections
			}
		}
		if len(nodes) == 0 {
			c.aggregate(&res, nil)
			return res
		}
		run = func() iter.Seq[checkapi.Output] { return p.ClusterCheck(env, e.Item, params, nodes) }
	} else {
		sections := checkapi.NewSections(p.Sections, hs.single)
		if !hasFirst(sections) {
			c.aggregate(&res, nil)
			return res
		}
		run = func() iter.Seq[checkapi.Output] { return p.Check(env, e.Item, params, sections) }
	}

	outputs, err := collectSafe(run)
	if err != nil {
		c.Errorf("host %s: service '%s': %v", h.Name, res.Description, err)
		res.State, res.Summary = checkapi.Unknown, fmt.Sprintf("check plugin crashed: %v", err)
		return res
	}

	c.aggregate(&res, outputs)
	return res
}

// hasFirst reports whether the mandatory first section of a plugin is present.
func hasFirst(s checkapi.Sections) bool {
	_, ok := s.At(0)
	return ok
}

type panicError struct{ v any }

func (e panicError) Error() string { return fmt.Sprint(e.v) }

func collectSafe(run func() iter.Seq[checkapi.Output]) (outputs []checkapi.Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			outputs, err = nil, panicError{v: r}
		}
	}()
	for out := range run() {
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func (c *Checker) aggregate(res *ServiceResult, outputs []checkapi.Output) {
	if len(outputs) == 0 {
		res.State, res.Summary, res.Stale = checkapi.Unknown, summaryItemNotFound, true
		return
	}

	var (
		states    []checkapi.State
		summaries []string
		details   []string
	)

	for _, out := range outputs {
		switch o := out.(type) {
		case checkapi.IgnoreResults:
			res.State, res.Summary, res.Stale = checkapi.Unknown, summaryStale, true
			if o.Reason != "" {
				res.Details = o.Reason
			}
			res.Metrics = nil
			return
		case checkapi.Result:
			if err := o.Validate(); err != nil {
				res.State, res.Summary = checkapi.Unknown, fmt.Sprintf("invalid check result: %v", err)
				res.Metrics = nil
				return
			}
			states = append(states, o.State)
			if o.Summary != "" {
				summaries = append(summaries, o.Summary+o.State.Marker())
			}
			details = append(details, o.Text()+o.State.Marker())
		case checkapi.Metric:
			if err := o.Validate(); err != nil {
				c.Warningf("service '%s': dropping metric: %v", res.Description, err)
				continue
			}
			res.Metrics = append(res.Metrics, o)
		}
	}

	res.State = checkapi.Worst(states...)
	res.Details = strings.Join(details, "\n")

	switch {
	case len(summaries) > 0:
		res.Summary = strings.Join(summaries, ", ")
	case len(details) > 0:
		res.Summary, _, _ = strings.Cut(details[0], "\n")
	default:
		res.Summary = "Everything looks OK"
	}
}
