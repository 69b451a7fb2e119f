// SPDX-License-Identifier: GPL-3.0-or-later

package valuestore

import "fmt"

// NotReadyKind tells why a computation has no value yet.
type NotReadyKind uint8

const (
	notReadyNone NotReadyKind = iota
	// Initialized means there was no previous sample, the store has just been seeded.
	Initialized
	// TimeAnomaly means the timestamp did not advance since the previous sample.
	TimeAnomaly
	// Overflow means the counter went backwards (wrap or reset).
	Overflow
)

func (k NotReadyKind) String() string {
	switch k {
	case Initialized:
		return "initialized"
	case TimeAnomaly:
		return "time anomaly"
	case Overflow:
		return "overflow"
	default:
		return "ready"
	}
}

// Value is the outcome of a value store computation: either Ready with a number,
// or NotReady with a reason. Callers must treat NotReady as "stale, try again next cycle".
type Value struct {
	v      float64
	kind   NotReadyKind
	reason string
}

func Ready(v float64) Value {
	return Value{v: v}
}

func NotReady(kind NotReadyKind, reason string) Value {
	if kind == notReadyNone {
		kind = Initialized
	}
	return Value{kind: kind, reason: reason}
}

func (v Value) IsReady() bool { return v.kind == notReadyNone }

// Get returns the value and whether it is ready.
func (v Value) Get() (float64, bool) { return v.v, v.IsReady() }

func (v Value) Kind() NotReadyKind { return v.kind }

func (v Value) Reason() string { return v.reason }

func (v Value) String() string {
	if v.IsReady() {
		return fmt.Sprintf("ready(%g)", v.v)
	}
	return fmt.Sprintf("not ready(%s: %s)", v.kind, v.reason)
}
