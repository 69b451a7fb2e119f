// SPDX-License-Identifier: GPL-3.0-or-later

package checkapi

import (
	"iter"
	"maps"
	"slices"

	"github.com/checkmk/checkengine/pkg/valuestore"
)

// ClusterFirstNode runs check on the nodes in name order and reports the outputs
// of the first node that knows the item. Every node gets its own value store keys.
func ClusterFirstNode(check CheckFunction) ClusterCheckFunction {
	return func(env Env, item string, params Params, nodes map[string]Sections) iter.Seq[Output] {
		return func(yield func(Output) bool) {
			for _, node := range slices.Sorted(maps.Keys(nodes)) {
				nodeEnv := env
				nodeEnv.Store = valuestore.Prefixed(env.Store, node+".")

				var outputs []Output
				for out := range check(nodeEnv, item, params, nodes[node]) {
					outputs = append(outputs, out)
				}
				if len(outputs) == 0 {
					continue
				}

				if !yield(Result{State: OK, Summary: "Node: " + node}) {
					return
				}
				for _, out := range outputs {
					if !yield(out) {
						return
					}
				}
				return
			}
		}
	}
}

// ClusterMerged combines the sections of all nodes with merge and checks the result once.
// It serves aggregate items like "SUMMARY".
func ClusterMerged(merge func(nodes []Sections) Sections, check CheckFunction) ClusterCheckFunction {
	return func(env Env, item string, params Params, nodes map[string]Sections) iter.Seq[Output] {
		ordered := make([]Sections, 0, len(nodes))
		for _, node := range slices.Sorted(maps.Keys(nodes)) {
			ordered = append(ordered, nodes[node])
		}
		return check(env, item, params, merge(ordered))
	}
}
