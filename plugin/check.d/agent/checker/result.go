// SPDX-License-Identifier: GPL-3.0-or-later

package checker

import (
	"fmt"
	"strings"

	"github.com/checkmk/checkengine/plugin/check.d/agent/autochecks"
	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"
)

// ServiceResult is the outcome of checking one service.
type ServiceResult struct {
	CheckPluginName string            `json:"check_plugin_name"`
	Item            string            `json:"item,omitempty"`
	Description     string            `json:"description"`
	State           checkapi.State    `json:"state"`
	Summary         string            `json:"summary"`
	Details         string            `json:"details,omitempty"`
	Metrics         []checkapi.Metric `json:"metrics,omitempty"`
	// Stale is set if the plugin could not produce results in this cycle.
	Stale bool `json:"stale,omitempty"`
}

// Perfdata renders all metrics space separated.
func (r ServiceResult) Perfdata() string {
	parts := make([]string, 0, len(r.Metrics))
	for _, m := range r.Metrics {
		parts = append(parts, m.Perfdata())
	}
	return strings.Join(parts, " ")
}

// String renders the result in the "STATE - Description - summary | perfdata" form.
func (r ServiceResult) String() string {
	state := r.State.String()
	if r.Stale {
		state = "STALE"
	}
	s := fmt.Sprintf("%s - %s - %s", state, r.Description, r.Summary)
	if pd := r.Perfdata(); pd != "" {
		s += " | " + pd
	}
	return s
}

// HostResult holds the service results of one host.
type HostResult struct {
	Host     string          `json:"host"`
	Services []ServiceResult `json:"services"`
	Error    string          `json:"error,omitempty"`
}

// Worst returns the worst state of all non-stale services.
func (r *HostResult) Worst() checkapi.State {
	states := make([]checkapi.State, 0, len(r.Services))
	for _, s := range r.Services {
		if !s.Stale {
			states = append(states, s.State)
		}
	}
	return checkapi.Worst(states...)
}

// DiscoveryResult holds the services discovered on one host.
type DiscoveryResult struct {
	Host     string             `json:"host"`
	Services []autochecks.Entry `json:"services"`
	Error    string             `json:"error,omitempty"`
}
