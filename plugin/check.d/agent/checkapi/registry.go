// SPDX-License-Identifier: GPL-3.0-or-later

package checkapi

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	ErrUnknownPlugin  = errors.New("unknown check plugin")
	ErrUnknownSection = errors.New("unknown section")
)

// Registry holds all section and check plugins. It is built once at startup
// and passed to whatever consumes it.
type Registry struct {
	sections    map[string]*AgentSection
	parsedNames map[string]string
	checks      map[string]*CheckPlugin
}

func NewRegistry() *Registry {
	return &Registry{
		sections:    make(map[string]*AgentSection),
		parsedNames: make(map[string]string),
		checks:      make(map[string]*CheckPlugin),
	}
}

// RegisterSection registers an agent section. It panics on invalid or duplicate registrations.
func (r *Registry) RegisterSection(s AgentSection) {
	if err := validateName(s.Name); err != nil {
		panic(fmt.Sprintf("section: %v", err))
	}
	if s.Parse == nil {
		panic(fmt.Sprintf("section %s: parse function is required", s.Name))
	}
	if _, ok := r.sections[s.Name]; ok {
		panic(fmt.Sprintf("section %s is already in registry", s.Name))
	}
	parsed := s.parsedName()
	if other, ok := r.parsedNames[parsed]; ok {
		panic(fmt.Sprintf("section %s: parsed section name %s is already produced by %s", s.Name, parsed, other))
	}

	r.sections[s.Name] = &s
	r.parsedNames[parsed] = s.Name
}

// RegisterCheck registers a check plugin. It panics on invalid or duplicate registrations.
func (r *Registry) RegisterCheck(p CheckPlugin) {
	if err := validateName(p.Name); err != nil {
		panic(fmt.Sprintf("check plugin: %v", err))
	}
	if _, ok := r.checks[p.Name]; ok {
		panic(fmt.Sprintf("check plugin %s is already in registry", p.Name))
	}
	if p.Discovery == nil || p.Check == nil {
		panic(fmt.Sprintf("check plugin %s: discovery and check functions are required", p.Name))
	}
	if p.ServiceName == "" || strings.Count(p.ServiceName, "%s") > 1 {
		panic(fmt.Sprintf("check plugin %s: invalid service name '%s'", p.Name, p.ServiceName))
	}
	if len(p.Sections) == 0 {
		p.Sections = []string{p.Name}
	}

	r.checks[p.Name] = &p
}

func (r *Registry) Section(name string) (*AgentSection, bool) {
	s, ok := r.sections[name]
	return s, ok
}

func (r *Registry) Check(name string) (*CheckPlugin, bool) {
	p, ok := r.checks[name]
	return p, ok
}

// Checks returns all check plugins sorted by name.
func (r *Registry) Checks() []*CheckPlugin {
	names := slices.Sorted(maps.Keys(r.checks))
	out := make([]*CheckPlugin, 0, len(names))
	for _, name := range names {
		out = append(out, r.checks[name])
	}
	return out
}

// SectionNames returns all raw section names sorted.
func (r *Registry) SectionNames() []string {
	return slices.Sorted(maps.Keys(r.sections))
}

// Validate checks that every subscribed section is produced by some agent section.
func (r *Registry) Validate() error {
	var errs []error
	for _, p := range r.Checks() {
		for _, name := range p.Sections {
			if _, ok := r.parsedNames[name]; !ok {
				errs = append(errs, fmt.Errorf("check plugin %s: %w '%s'", p.Name, ErrUnknownSection, name))
			}
		}
	}
	return errors.Join(errs...)
}

func validateName(name string) error {
	if name == "" {
		return errors.New("empty name")
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
			return fmt.Errorf("invalid name '%s': only lowercase letters, digits and '_' are allowed", name)
		}
	}
	return nil
}
