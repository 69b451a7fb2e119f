// SPDX-License-Identifier: GPL-3.0-or-later

package checkapi

import (
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/checkmk/checkengine/pkg/stringtable"
	"github.com/checkmk/checkengine/pkg/valuestore"
)

type (
	// ParseFunction turns a StringTable into a Section. The second return value is false
	// if there is no usable data, the section is then treated as absent.
	ParseFunction func(stringtable.Table) (any, bool)

	// DiscoveryFunction proposes services based on the plugin's sections.
	DiscoveryFunction func(params Params, sections Sections) iter.Seq[Service]

	// CheckFunction evaluates one service. It must yield nothing if the item is not in the sections.
	CheckFunction func(env Env, item string, params Params, sections Sections) iter.Seq[Output]

	// ClusterCheckFunction evaluates one clustered service given the sections of every node.
	ClusterCheckFunction func(env Env, item string, params Params, nodes map[string]Sections) iter.Seq[Output]
)

// Env carries the collaborators of one check invocation.
type Env struct {
	Host string
	Now  time.Time
	// Store is exclusive to the service being checked.
	Store valuestore.Store
}

// Timestamp returns Now as epoch seconds.
func (e Env) Timestamp() float64 {
	return float64(e.Now.Unix()) + float64(e.Now.Nanosecond())/1e9
}

// AgentSection describes how one agent section is parsed.
type AgentSection struct {
	// Name is the raw section name as found in the agent output.
	Name string
	// ParsedSectionName is the name check plugins subscribe to, defaults to Name.
	ParsedSectionName string
	Parse             ParseFunction
}

func (s *AgentSection) parsedName() string {
	if s.ParsedSectionName != "" {
		return s.ParsedSectionName
	}
	return s.Name
}

// CheckPlugin describes one check plugin.
type CheckPlugin struct {
	Name string
	// Sections are the parsed sections the plugin consumes. The first one is mandatory,
	// the others are optional. Defaults to [Name].
	Sections []string
	// ServiceName contains "%s" if and only if the plugin discovers items.
	ServiceName string

	Discovery              DiscoveryFunction
	DiscoveryDefaultParams Params
	DiscoveryRuleset       string

	Check              CheckFunction
	CheckDefaultParams Params
	CheckRuleset       string

	ClusterCheck ClusterCheckFunction
}

func (p *CheckPlugin) HasItem() bool {
	return strings.Contains(p.ServiceName, "%s")
}

// ServiceDescription renders the service name of item.
func (p *CheckPlugin) ServiceDescription(item string) string {
	if !p.HasItem() {
		return p.ServiceName
	}
	return strings.Replace(p.ServiceName, "%s", item, 1)
}

// Sections are the parsed sections handed to one plugin, in the plugin's subscription order.
type Sections struct {
	names  []string
	values map[string]any
}

// NewSections returns the subset of parsed sections a plugin subscribes to, in order.
// Absent sections are kept as nil entries so positions stay stable.
func NewSections(names []string, parsed map[string]any) Sections {
	s := Sections{names: slices.Clone(names), values: make(map[string]any, len(names))}
	for _, name := range names {
		if v, ok := parsed[name]; ok {
			s.values[name] = v
		}
	}
	return s
}

func (s Sections) Names() []string { return slices.Clone(s.names) }

// Get returns the section by name.
func (s Sections) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// At returns the section at position i of the subscription list.
func (s Sections) At(i int) (any, bool) {
	if i < 0 || i >= len(s.names) {
		return nil, false
	}
	return s.Get(s.names[i])
}

// Empty reports whether none of the subscribed sections is present.
func (s Sections) Empty() bool { return len(s.values) == 0 }

// SectionAt returns the typed section at position i.
func SectionAt[S any](s Sections, i int) (S, bool) {
	v, ok := s.At(i)
	if !ok {
		var zero S
		return zero, false
	}
	sec, ok := v.(S)
	return sec, ok
}

// Lookup returns the typed section by name.
func Lookup[S any](s Sections, name string) (S, bool) {
	v, ok := s.Get(name)
	if !ok {
		var zero S
		return zero, false
	}
	sec, ok := v.(S)
	return sec, ok
}

// Parse adapts a typed parse function.
func Parse[S any](fn func(stringtable.Table) (S, bool)) ParseFunction {
	return func(t stringtable.Table) (any, bool) {
		return fn(t)
	}
}

// Discover adapts a typed discovery function over the plugin's first section.
func Discover[S any](fn func(params Params, section S) iter.Seq[Service]) DiscoveryFunction {
	return func(params Params, sections Sections) iter.Seq[Service] {
		sec, ok := SectionAt[S](sections, 0)
		if !ok {
			return empty[Service]
		}
		return fn(params, sec)
	}
}

// Check adapts a typed check function over the plugin's first section.
func Check[S any](fn func(env Env, item string, params Params, section S) iter.Seq[Output]) CheckFunction {
	return func(env Env, item string, params Params, sections Sections) iter.Seq[Output] {
		sec, ok := SectionAt[S](sections, 0)
		if !ok {
			return empty[Output]
		}
		return fn(env, item, params, sec)
	}
}

func empty[T any](func(T) bool) {}
