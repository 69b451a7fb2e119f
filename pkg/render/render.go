// SPDX-License-Identifier: GPL-3.0-or-later

// Package render formats numbers for human readable check summaries.
package render

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Percent renders a percentage. Very small non-zero values are shown as "<0.01%"
// rather than a misleading "0.00%".
func Percent(v float64) string {
	switch {
	case v == 0:
		return "0%"
	case math.Abs(v) < 0.01:
		if v < 0 {
			return "-<0.01%"
		}
		return "<0.01%"
	default:
		return fmt.Sprintf("%.2f%%", v)
	}
}

// Date renders an epoch timestamp as a local date.
func Date(epoch float64) string {
	return toTime(epoch).Format("Jan 02 2006")
}

// Datetime renders an epoch timestamp as a local date and time.
func Datetime(epoch float64) string {
	return toTime(epoch).Format("Jan 02 2006 15:04:05")
}

func toTime(epoch float64) time.Time {
	sec, frac := math.Modf(epoch)
	return time.Unix(int64(sec), int64(frac*1e9))
}

type timeUnit struct {
	name    string
	seconds float64
}

var (
	largeUnits = []timeUnit{
		{"year", 365 * 86400},
		{"day", 86400},
		{"hour", 3600},
		{"minute", 60},
		{"second", 1},
	}
	smallUnits = []timeUnit{
		{"millisecond", 1e-3},
		{"microsecond", 1e-6},
		{"nanosecond", 1e-9},
	}
)

// Timespan renders a duration given in seconds using the two largest applicable units,
// e.g. "3 days 4 hours". Sub-second values use a single unit, e.g. "500 milliseconds".
func Timespan(seconds float64) string {
	if seconds < 0 {
		return "-" + Timespan(-seconds)
	}
	if seconds == 0 {
		return "0 seconds"
	}

	if seconds < 1 {
		for _, u := range smallUnits {
			n := math.Round(seconds / u.seconds)
			if n >= 1000 {
				// rounds up to a full second
				break
			}
			if n >= 1 || u.name == "nanosecond" {
				return plural(int64(n), u.name)
			}
		}
	}

	total := int64(math.Round(seconds))
	for i, u := range largeUnits {
		size := int64(u.seconds)
		if total < size {
			continue
		}
		first := total / size
		if i == len(largeUnits)-1 {
			return plural(first, u.name)
		}
		next := largeUnits[i+1]
		second := (total % size) / int64(next.seconds)
		return plural(first, u.name) + " " + plural(second, next.name)
	}

	return "0 seconds"
}

func plural(n int64, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.FormatInt(n, 10) + " " + unit + "s"
}

var enPrinter = message.NewPrinter(language.English)

// Filesize renders an exact number of bytes with thousands separators, e.g. "1,024 B".
func Filesize(v float64) string {
	return enPrinter.Sprintf("%d B", int64(math.Round(v)))
}
