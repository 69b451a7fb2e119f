// SPDX-License-Identifier: GPL-3.0-or-later

package checkapi

import (
	"fmt"
	"iter"
	"strconv"
)

// LevelsKind tells whether levels are configured.
type LevelsKind uint8

const (
	NoLevelsKind LevelsKind = iota
	FixedLevelsKind
)

// Levels is a (warn, crit) pair, or no levels at all. The zero value is NoLevels.
type Levels struct {
	Kind LevelsKind
	Warn float64
	Crit float64
}

func Fixed(warn, crit float64) Levels {
	return Levels{Kind: FixedLevelsKind, Warn: warn, Crit: crit}
}

func NoLevels() Levels { return Levels{} }

func (l Levels) IsSet() bool { return l.Kind == FixedLevelsKind }

// Pair returns the levels as metric levels, nil if unset.
func (l Levels) Pair() *[2]float64 {
	if !l.IsSet() {
		return nil
	}
	return &[2]float64{l.Warn, l.Crit}
}

// ParseLevels accepts the configuration forms
//
//	[warn, crit]
//	["fixed", [warn, crit]]
//	["no_levels", null]
//	{"fixed": [warn, crit]}
//	{"no_levels": null}
//	nil
func ParseLevels(v any) (Levels, error) {
	switch x := v.(type) {
	case nil:
		return Levels{}, nil
	case Levels:
		return x, nil
	case [2]float64:
		return Fixed(x[0], x[1]), nil
	case []float64:
		if len(x) != 2 {
			return Levels{}, fmt.Errorf("levels: want 2 values, got %d", len(x))
		}
		return Fixed(x[0], x[1]), nil
	case map[any]any:
		return ParseLevels(Normalize(x))
	case Params:
		return ParseLevels(map[string]any(x))
	case map[string]any:
		if len(x) != 1 {
			return Levels{}, fmt.Errorf("levels: want exactly one key, got %d", len(x))
		}
		for k, e := range x {
			return parseTagged(k, e)
		}
	case []any:
		if len(x) != 2 {
			return Levels{}, fmt.Errorf("levels: want 2 elements, got %d", len(x))
		}
		if tag, ok := x[0].(string); ok {
			if _, err := strconv.ParseFloat(tag, 64); err != nil {
				return parseTagged(tag, x[1])
			}
		}
		return parsePair(x[0], x[1])
	}

	return Levels{}, fmt.Errorf("levels: unsupported type %T", v)
}

func parseTagged(tag string, v any) (Levels, error) {
	switch tag {
	case "no_levels":
		return Levels{}, nil
	case "fixed":
		return ParseLevels(v)
	}
	return Levels{}, fmt.Errorf("levels: unknown type '%s'", tag)
}

func parsePair(a, b any) (Levels, error) {
	warn, ok1 := toFloat(a)
	crit, ok2 := toFloat(b)
	if !ok1 || !ok2 {
		return Levels{}, fmt.Errorf("levels: non-numeric values (%v, %v)", a, b)
	}
	return Fixed(warn, crit), nil
}

// LevelsOpts configures CheckLevels.
type LevelsOpts struct {
	Upper      Levels
	Lower      Levels
	Metric     string
	Label      string
	Render     func(float64) string
	Boundaries *[2]float64
}

// EvaluateLevels returns the Result of comparing value against upper and lower levels.
func EvaluateLevels(value float64, opts LevelsOpts) Result {
	render := opts.Render
	if render == nil {
		render = func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	}

	state := OK
	var hint string

	switch up := opts.Upper; {
	case up.IsSet() && value >= up.Crit:
		state = Crit
	case up.IsSet() && value >= up.Warn:
		state = Warn
	}
	if state != OK {
		hint = fmt.Sprintf(" (warn/crit at %s/%s)", render(opts.Upper.Warn), render(opts.Upper.Crit))
	} else {
		switch lo := opts.Lower; {
		case lo.IsSet() && value < lo.Crit:
			state = Crit
		case lo.IsSet() && value < lo.Warn:
			state = Warn
		}
		if state != OK {
			hint = fmt.Sprintf(" (warn/crit below %s/%s)", render(opts.Lower.Warn), render(opts.Lower.Crit))
		}
	}

	summary := render(value) + hint
	if opts.Label != "" {
		summary = opts.Label + ": " + summary
	}

	return Result{State: state, Summary: summary}
}

// CheckLevels yields the Result of EvaluateLevels followed by a Metric if opts.Metric is set.
func CheckLevels(value float64, opts LevelsOpts) iter.Seq[Output] {
	return func(yield func(Output) bool) {
		if !yield(EvaluateLevels(value, opts)) {
			return
		}
		if opts.Metric != "" {
			yield(Metric{
				Name:       opts.Metric,
				Value:      value,
				Levels:     opts.Upper.Pair(),
				Boundaries: opts.Boundaries,
			})
		}
	}
}
