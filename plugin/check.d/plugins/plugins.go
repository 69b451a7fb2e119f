// SPDX-License-Identifier: GPL-3.0-or-later

// Package plugins registers the bundled check plugins.
package plugins

import (
	"github.com/checkmk/checkengine/plugin/check.d/agent/checkapi"
	"github.com/checkmk/checkengine/plugin/check.d/plugins/df"
	"github.com/checkmk/checkengine/plugin/check.d/plugins/dockercontainer"
	"github.com/checkmk/checkengine/plugin/check.d/plugins/interfaces"
	"github.com/checkmk/checkengine/plugin/check.d/plugins/kernel"
	"github.com/checkmk/checkengine/plugin/check.d/plugins/printerstatus"
	"github.com/checkmk/checkengine/plugin/check.d/plugins/uptime"
)

// Register adds all bundled sections and check plugins to reg.
func Register(reg *checkapi.Registry) {
	df.Register(reg)
	dockercontainer.Register(reg)
	interfaces.Register(reg)
	kernel.Register(reg)
	printerstatus.Register(reg)
	uptime.Register(reg)
}

// NewRegistry returns a registry with all bundled plugins.
func NewRegistry() *checkapi.Registry {
	reg := checkapi.NewRegistry()
	Register(reg)
	return reg
}
