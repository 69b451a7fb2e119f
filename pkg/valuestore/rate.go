// SPDX-License-Identifier: GPL-3.0-or-later

package valuestore

import (
	"fmt"
	"math"
)

// GetRate computes the rate of a counter since the previous call with the same key:
// (value - lastValue) / (now - lastTime).
//
// The entry under key is always overwritten with (now, value) before returning,
// so the next call has a fresh baseline regardless of the outcome.
//
// The result is NotReady if there is no previous entry, if time did not advance,
// or if raiseOverflow is set and the rate is negative. Counter wraps are not corrected:
// the counter width is unknown here.
func GetRate(s Store, key string, now, value float64, raiseOverflow bool) Value {
	last, ok := s.Get(key)

	s.Set(key, []float64{now, value})

	if !ok || len(last) != 2 {
		return NotReady(Initialized, fmt.Sprintf("counter %q initialized", key))
	}

	lastTime, lastValue := last[0], last[1]

	if now <= lastTime {
		return NotReady(TimeAnomaly, fmt.Sprintf("no time difference for counter %q (%g -> %g)", key, lastTime, now))
	}

	rate := (value - lastValue) / (now - lastTime)

	if raiseOverflow && rate < 0 {
		return NotReady(Overflow, fmt.Sprintf("counter %q overflow or reset (%g -> %g)", key, lastValue, value))
	}

	return Ready(rate)
}

// GetAverage returns an exponential moving average of value.
//
// The decay is chosen so that the most recent backlogMinutes contribute 50% of the average
// of a long running series. Short running series are averaged arithmetically,
// so the first values do not dominate.
//
// The first call seeds the store and returns value. If time does not advance,
// the previous average is returned unchanged.
func GetAverage(s Store, key string, now, value, backlogMinutes float64) float64 {
	stored, ok := s.Get(key)
	if !ok || len(stored) != 3 {
		s.Set(key, []float64{now, now, value})
		return value
	}

	startTime, lastTime, lastAverage := stored[0], stored[1], stored[2]

	timeDiff := now - lastTime
	if timeDiff <= 0 {
		return lastAverage
	}

	weight := timeDiff / (now - startTime + timeDiff)

	if backlog := backlogMinutes * 60; backlog > 0 {
		// weight of one sample such that the samples of one backlog window sum up to 0.5
		decay := 1 - math.Pow(0.5, timeDiff/backlog)
		weight = math.Max(weight, decay)
	} else {
		weight = 1
	}

	average := (1-weight)*lastAverage + weight*value

	s.Set(key, []float64{startTime, now, average})

	return average
}
