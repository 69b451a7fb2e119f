// SPDX-License-Identifier: GPL-3.0-or-later

// Package stringtable holds the tabular input of parse functions and
// splits raw agent output into per-section tables.
package stringtable

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// Table is an ordered sequence of rows of string fields.
// Parse functions must not modify it.
type Table [][]string

func (t Table) Clone() Table {
	out := make(Table, len(t))
	for i, row := range t {
		out[i] = slices.Clone(row)
	}
	return out
}

// Header is a parsed section header: <<<name:opt1:opt2(args)>>>.
type Header struct {
	Name    string
	Sep     byte
	NoStrip bool
	Options map[string]string
}

// HasSep reports whether the section has an explicit separator.
// sep(0) keeps every line as a single field.
func (h Header) HasSep() bool {
	_, ok := h.Options["sep"]
	return ok
}

func (h Header) split(line string) []string {
	if !h.NoStrip {
		line = strings.TrimSpace(line)
	}
	if line == "" {
		return nil
	}
	if h.HasSep() {
		return strings.Split(line, string([]byte{h.Sep}))
	}
	return strings.Fields(line)
}

// ParseHeader parses a section header line. The second return value is false if
// the line is not a header. "<<<>>>" is a valid header with an empty name and ends the current section.
func ParseHeader(line string) (Header, bool) {
	line = strings.TrimSpace(line)
	if len(line) < 6 || !strings.HasPrefix(line, "<<<") || !strings.HasSuffix(line, ">>>") {
		return Header{}, false
	}

	parts := strings.Split(line[3:len(line)-3], ":")

	h := Header{Name: parts[0]}
	if h.Name == "" {
		return h, len(parts) == 1
	}
	if !isValidName(h.Name) {
		return Header{}, false
	}

	for _, opt := range parts[1:] {
		key, args := opt, ""
		if i := strings.IndexByte(opt, '('); i > 0 && strings.HasSuffix(opt, ")") {
			key, args = opt[:i], opt[i+1:len(opt)-1]
		}
		if h.Options == nil {
			h.Options = make(map[string]string)
		}
		h.Options[key] = args

		switch key {
		case "sep":
			n, err := strconv.Atoi(args)
			if err != nil || n < 0 || n > 255 {
				return Header{}, false
			}
			h.Sep = byte(n)
		case "nostrip":
			h.NoStrip = true
		}
	}

	return h, true
}

func isValidName(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
		default:
			return false
		}
	}
	return true
}

// AgentOutput is raw agent output split into sections.
type AgentOutput struct {
	order   []string
	tables  map[string]Table
	headers map[string]Header
}

func (o *AgentOutput) Names() []string { return slices.Clone(o.order) }

func (o *AgentOutput) Len() int { return len(o.order) }

func (o *AgentOutput) Table(name string) (Table, bool) {
	t, ok := o.tables[name]
	return t, ok
}

// Header returns the header of the last occurrence of the section.
func (o *AgentOutput) Header(name string) (Header, bool) {
	h, ok := o.headers[name]
	return h, ok
}

const maxLineSize = 4 * 1024 * 1024

// Split reads agent output and splits it into sections.
// Lines before the first header or after "<<<>>>" are dropped, empty lines are skipped,
// and repeated sections are concatenated.
func Split(r io.Reader) (*AgentOutput, error) {
	out := &AgentOutput{
		tables:  make(map[string]Table),
		headers: make(map[string]Header),
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	var cur *Header

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")

		if h, ok := ParseHeader(line); ok {
			if h.Name == "" {
				cur = nil
				continue
			}
			cur = &h
			if _, seen := out.tables[h.Name]; !seen {
				out.order = append(out.order, h.Name)
				out.tables[h.Name] = Table{}
			}
			out.headers[h.Name] = h
			continue
		}

		if cur == nil {
			continue
		}

		if row := cur.split(line); row != nil {
			out.tables[cur.Name] = append(out.tables[cur.Name], row)
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read agent output: %w", err)
	}

	return out, nil
}
