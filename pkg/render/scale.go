// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Prefixes is a table of unit prefixes with a common base.
type Prefixes struct {
	Base    float64
	Symbols []string // Symbols[i] scales by Base^(i+1)
}

var (
	SI  = Prefixes{Base: 1000, Symbols: []string{"k", "M", "G", "T", "P", "E"}}
	IEC = Prefixes{Base: 1024, Symbols: []string{"Ki", "Mi", "Gi", "Ti", "Pi", "Ei"}}
)

// Scale picks the largest prefix not exceeding value and returns the scaled value and prefix.
func (p Prefixes) Scale(value float64) (float64, string) {
	return p.scale(value, -1)
}

// scale is Scale for a value printed with precision decimals: a value that rounds up
// to Base moves on to the next prefix. A negative precision disables rounding.
func (p Prefixes) scale(value float64, precision int) (float64, string) {
	prefix := ""
	for _, sym := range p.Symbols {
		if roundTo(math.Abs(value), precision) < p.Base {
			break
		}
		value /= p.Base
		prefix = sym
	}
	return value, prefix
}

func roundTo(v float64, precision int) float64 {
	if precision < 0 {
		return v
	}
	pow := math.Pow10(precision)
	return math.Round(v*pow) / pow
}

// Options controls Scaled.
type Options struct {
	Prefixes  Prefixes
	Unit      string
	Precision int
	// WithUnit appends " <prefix><unit>"; without it only the scaled number and prefix are returned.
	WithUnit bool
	// TrimZeros drops trailing zero decimals ("1.00" -> "1").
	TrimZeros bool
}

// Scaled is the engine behind the byte and bandwidth renderers.
// Unscaled integral values are rendered without decimals ("1023 B").
func Scaled(value float64, opts Options) string {
	scaled, prefix := opts.Prefixes.scale(value, opts.Precision)

	var num string
	if prefix == "" && scaled == math.Trunc(scaled) {
		num = strconv.FormatFloat(scaled, 'f', 0, 64)
	} else {
		num = strconv.FormatFloat(scaled, 'f', opts.Precision, 64)
		if opts.TrimZeros && strings.Contains(num, ".") {
			num = strings.TrimRight(strings.TrimRight(num, "0"), ".")
		}
	}

	if !opts.WithUnit {
		return num + prefix
	}
	return fmt.Sprintf("%s %s%s", num, prefix, opts.Unit)
}

// Bytes renders a size with IEC prefixes, e.g. "1.00 MiB".
func Bytes(v float64) string {
	return Scaled(v, Options{Prefixes: IEC, Unit: "B", Precision: 2, WithUnit: true})
}

// Disksize renders a size with SI prefixes, e.g. "1.00 MB".
func Disksize(v float64) string {
	return Scaled(v, Options{Prefixes: SI, Unit: "B", Precision: 2, WithUnit: true})
}

// IOBandwidth renders bytes per second with SI prefixes.
func IOBandwidth(v float64) string {
	return Scaled(v, Options{Prefixes: SI, Unit: "B/s", Precision: 2, WithUnit: true})
}

// NetworkBandwidth renders octets per second as bits per second.
func NetworkBandwidth(octetsPerSec float64) string {
	return Scaled(octetsPerSec*8, Options{Prefixes: SI, Unit: "bit/s", Precision: 2, WithUnit: true})
}

// NICSpeed renders a link speed given in bits per second, e.g. "1 Gbit/s".
func NICSpeed(bitsPerSec float64) string {
	return Scaled(bitsPerSec, Options{Prefixes: SI, Unit: "bit/s", Precision: 2, WithUnit: true, TrimZeros: true})
}

// Frequency renders a frequency in Hz, e.g. "2.40 GHz".
func Frequency(hz float64) string {
	return Scaled(hz, Options{Prefixes: SI, Unit: "Hz", Precision: 2, WithUnit: true})
}
