// SPDX-License-Identifier: GPL-3.0-or-later

package checkapi

import (
	"fmt"
	"strings"
)

// State is the monitoring state of a check result.
type State int

const (
	OK      State = 0
	Warn    State = 1
	Crit    State = 2
	Unknown State = 3
)

// severity ranks states from best to worst: OK < WARN < UNKNOWN < CRIT.
var severity = map[State]int{OK: 0, Warn: 1, Unknown: 2, Crit: 3}

func (s State) String() string {
	switch s {
	case OK:
		return "OK"
	case Warn:
		return "WARN"
	case Crit:
		return "CRIT"
	case Unknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Marker is the short suffix added to summaries of non-OK results in text output.
func (s State) Marker() string {
	switch s {
	case Warn:
		return "(!)"
	case Crit:
		return "(!!)"
	case Unknown:
		return "(?)"
	default:
		return ""
	}
}

func (s State) Valid() bool {
	_, ok := severity[s]
	return ok
}

func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid state %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	v, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseState accepts state names ("OK", "warn", ...) and numbers ("0".."3").
func ParseState(s string) (State, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OK", "0":
		return OK, nil
	case "WARN", "WARNING", "1":
		return Warn, nil
	case "CRIT", "CRITICAL", "2":
		return Crit, nil
	case "UNKNOWN", "UNKN", "3":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("unknown state '%s'", s)
}

// Worst returns the most severe state. CRIT is worse than UNKNOWN which is worse than WARN.
func Worst(states ...State) State {
	worst := OK
	for _, s := range states {
		if severity[s] > severity[worst] {
			worst = s
		}
	}
	return worst
}

// Best returns the least severe state, OK for no states.
func Best(states ...State) State {
	if len(states) == 0 {
		return OK
	}
	best := states[0]
	for _, s := range states[1:] {
		if severity[s] < severity[best] {
			best = s
		}
	}
	return best
}
