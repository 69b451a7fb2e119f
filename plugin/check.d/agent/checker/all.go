// SPDX-License-Identifier: GPL-3.0-or-later

package checker

import (
	"context"
	"runtime"
	"slices"

	"github.com/sourcegraph/conc/pool"
)

// CheckAll checks the hosts concurrently. Results are in the order of hosts,
// a failing host gets a result with Error set. Repeated hosts are checked once.
func (c *Checker) CheckAll(ctx context.Context, hosts []string) []*HostResult {
	hosts = uniqueHosts(hosts)
	results := make([]*HostResult, len(hosts))

	p := pool.New().WithMaxGoroutines(c.maxProcs())
	for i, host := range hosts {
		p.Go(func() {
			res, err := c.Check(ctx, host)
			if err != nil {
				c.Warning(err)
				res = &HostResult{Host: host, Error: err.Error()}
			}
			results[i] = res
		})
	}
	p.Wait()

	return results
}

// DiscoverAll runs discovery on the hosts concurrently. Results are in the order of hosts.
// Repeated hosts are discovered once.
func (c *Checker) DiscoverAll(ctx context.Context, hosts []string) []*DiscoveryResult {
	hosts = uniqueHosts(hosts)
	results := make([]*DiscoveryResult, len(hosts))

	p := pool.New().WithMaxGoroutines(c.maxProcs())
	for i, host := range hosts {
		p.Go(func() {
			res := &DiscoveryResult{Host: host}
			entries, err := c.Discover(ctx, host)
			if err != nil {
				c.Warning(err)
				res.Error = err.Error()
			}
			res.Services = entries
			results[i] = res
		})
	}
	p.Wait()

	return results
}

func (c *Checker) maxProcs() int {
	if c.cfg.MaxProcs > 0 {
		return c.cfg.MaxProcs
	}
	return runtime.GOMAXPROCS(0)
}

// uniqueHosts drops repeated host names, keeping the first occurrence.
func uniqueHosts(hosts []string) []string {
	seen := make(map[string]bool, len(hosts))
	return slices.DeleteFunc(slices.Clone(hosts), func(h string) bool {
		if seen[h] {
			return true
		}
		seen[h] = true
		return false
	})
}
