// SPDX-License-Identifier: GPL-3.0-or-later

package checkapi

import (
	"iter"
	"testing"

	"github.com/checkmk/checkengine/pkg/stringtable"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSection(name string) AgentSection {
	return AgentSection{
		Name:  name,
		Parse: func(t stringtable.Table) (any, bool) { return t, len(t) > 0 },
	}
}

func testPlugin(name, serviceName string) CheckPlugin {
	return CheckPlugin{
		Name:        name,
		ServiceName: serviceName,
		Discovery: func(Params, Sections) iter.Seq[Service] {
			return func(func(Service) bool) {}
		},
		Check: func(Env, string, Params, Sections) iter.Seq[Output] {
			return func(func(Output) bool) {}
		},
	}
}

func TestRegistry_RegisterSection(t *testing.T) {
	reg := NewRegistry()

	assert.NotPanics(t, func() { reg.RegisterSection(testSection("df")) })

	_, exist := reg.Section("df")
	require.True(t, exist)

	assert.Panics(t, func() { reg.RegisterSection(testSection("df")) }, "duplicate")
	assert.Panics(t, func() { reg.RegisterSection(testSection("Bad-Name")) }, "invalid name")
	assert.Panics(t, func() { reg.RegisterSection(AgentSection{Name: "noparse"}) }, "no parse function")
	assert.Panics(t, func() {
		s := testSection("df_v2")
		s.ParsedSectionName = "df"
		reg.RegisterSection(s)
	}, "parsed section name clash")
}

func TestRegistry_RegisterCheck(t *testing.T) {
	reg := NewRegistry()

	assert.NotPanics(t, func() { reg.RegisterCheck(testPlugin("df", "Filesystem %s")) })

	p, exist := reg.Check("df")
	require.True(t, exist)
	assert.Equal(t, []string{"df"}, p.Sections, "sections default to the plugin name")

	assert.Panics(t, func() { reg.RegisterCheck(testPlugin("df", "Filesystem %s")) }, "duplicate")
	assert.Panics(t, func() { reg.RegisterCheck(testPlugin("two", "%s and %s")) }, "two placeholders")
	assert.Panics(t, func() { reg.RegisterCheck(testPlugin("noname", "")) }, "empty service name")
	assert.Panics(t, func() { reg.RegisterCheck(CheckPlugin{Name: "nofuncs", ServiceName: "X"}) }, "no functions")
}

func TestRegistry_Checks(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCheck(testPlugin("uptime", "Uptime"))
	reg.RegisterCheck(testPlugin("df", "Filesystem %s"))
	reg.RegisterCheck(testPlugin("kernel", "Kernel Performance"))

	var names []string
	for _, p := range reg.Checks() {
		names = append(names, p.Name)
	}

	assert.Equal(t, []string{"df", "kernel", "uptime"}, names)
}

func TestRegistry_Validate(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterSection(testSection("df"))
	reg.RegisterCheck(testPlugin("df", "Filesystem %s"))
	require.NoError(t, reg.Validate())

	p := testPlugin("df_inodes", "Inodes %s")
	p.Sections = []string{"df", "df_inodes"}
	reg.RegisterCheck(p)

	err := reg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownSection)
}

func TestCheckPlugin_ServiceDescription(t *testing.T) {
	withItem := testPlugin("df", "Filesystem %s")
	noItem := testPlugin("uptime", "Uptime")

	assert.True(t, withItem.HasItem())
	assert.Equal(t, "Filesystem /var", withItem.ServiceDescription("/var"))
	assert.False(t, noItem.HasItem())
	assert.Equal(t, "Uptime", noItem.ServiceDescription(""))
}
