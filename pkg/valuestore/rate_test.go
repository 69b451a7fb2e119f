// SPDX-License-Identifier: GPL-3.0-or-later

package valuestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRate(t *testing.T) {
	type sample struct {
		time, value float64
	}
	tests := map[string]struct {
		overflow  bool
		samples   []sample
		wantRates []float64
		wantKinds []NotReadyKind
	}{
		"first call is not ready": {
			samples:   []sample{{time: 100, value: 5}},
			wantKinds: []NotReadyKind{Initialized},
		},
		"increasing counter": {
			samples:   []sample{{time: 0, value: 0}, {time: 60, value: 600}, {time: 120, value: 1800}},
			wantKinds: []NotReadyKind{Initialized, notReadyNone, notReadyNone},
			wantRates: []float64{0, 10, 20},
		},
		"same timestamp": {
			samples:   []sample{{time: 10, value: 1}, {time: 10, value: 2}},
			wantKinds: []NotReadyKind{Initialized, TimeAnomaly},
		},
		"time going backwards": {
			samples:   []sample{{time: 10, value: 1}, {time: 5, value: 2}, {time: 15, value: 12}},
			wantKinds: []NotReadyKind{Initialized, TimeAnomaly, notReadyNone},
			wantRates: []float64{0, 0, 1},
		},
		"negative rate without overflow check": {
			samples:   []sample{{time: 0, value: 100}, {time: 10, value: 0}},
			wantKinds: []NotReadyKind{Initialized, notReadyNone},
			wantRates: []float64{0, -10},
		},
		"negative rate with overflow check": {
			overflow:  true,
			samples:   []sample{{time: 0, value: 100}, {time: 10, value: 99.999}},
			wantKinds: []NotReadyKind{Initialized, Overflow},
		},
		"overflow check recovers on next sample": {
			overflow:  true,
			samples:   []sample{{time: 0, value: 1e12}, {time: 10, value: 0}, {time: 20, value: 50}},
			wantKinds: []NotReadyKind{Initialized, Overflow, notReadyNone},
			wantRates: []float64{0, 0, 5},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			store := NewMemStore()

			for i, s := range test.samples {
				v := GetRate(store, "key", s.time, s.value, test.overflow)

				assert.Equalf(t, test.wantKinds[i], v.Kind(), "sample %d", i)
				if v.IsReady() {
					got, _ := v.Get()
					assert.InDeltaf(t, test.wantRates[i], got, 1e-9, "sample %d", i)
				} else {
					assert.NotEmpty(t, v.Reason())
				}

				entry, ok := store.Get("key")
				require.True(t, ok)
				assert.Equal(t, []float64{s.time, s.value}, entry)
			}
		})
	}
}

func TestGetRate_MalformedEntryIsReinitialized(t *testing.T) {
	store := NewMemStore()
	store.Set("key", []float64{1, 2, 3})

	v := GetRate(store, "key", 10, 10, false)

	assert.Equal(t, Initialized, v.Kind())
	entry, _ := store.Get("key")
	assert.Equal(t, []float64{10, 10}, entry)
}

func TestGetAverage(t *testing.T) {
	t.Run("first call seeds the store", func(t *testing.T) {
		store := NewMemStore()

		assert.Equal(t, 42.0, GetAverage(store, "avg", 100, 42, 5))

		entry, ok := store.Get("avg")
		require.True(t, ok)
		assert.Equal(t, []float64{100, 100, 42}, entry)
	})

	t.Run("non increasing time returns last average", func(t *testing.T) {
		store := NewMemStore()
		GetAverage(store, "avg", 100, 10, 5)
		avg := GetAverage(store, "avg", 160, 20, 5)

		assert.Equal(t, avg, GetAverage(store, "avg", 160, 1000, 5))
		assert.Equal(t, avg, GetAverage(store, "avg", 100, 1000, 5))
	})

	t.Run("short series is an arithmetic mean", func(t *testing.T) {
		store := NewMemStore()
		values := []float64{10, 20, 30, 40}

		var got float64
		for i, v := range values {
			got = GetAverage(store, "avg", float64(i*60), v, 60)
		}

		assert.InDelta(t, 25.0, got, 1e-9)
	})

	t.Run("backlog window contributes half of a long series", func(t *testing.T) {
		store := NewMemStore()
		const backlog = 5.0

		now := 0.0
		for ; now < 10*3600; now += 60 {
			GetAverage(store, "avg", now, 0, backlog)
		}
		var got float64
		for end := now + backlog*60; now < end; now += 60 {
			got = GetAverage(store, "avg", now, 100, backlog)
		}

		assert.InDelta(t, 50.0, got, 0.5)
	})

	t.Run("constant input stays constant", func(t *testing.T) {
		store := NewMemStore()
		for i := 0; i < 100; i++ {
			assert.InDelta(t, 7.0, GetAverage(store, "avg", float64(i*30), 7, 15), 1e-9)
		}
	})
}

func TestValue(t *testing.T) {
	r := Ready(1.5)
	v, ok := r.Get()
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)
	assert.Equal(t, "ready(1.5)", r.String())

	nr := NotReady(Overflow, "wrapped")
	_, ok = nr.Get()
	assert.False(t, ok)
	assert.Equal(t, "wrapped", nr.Reason())
	assert.Equal(t, "not ready(overflow: wrapped)", nr.String())

	assert.Equal(t, Initialized, NotReady(0, "").Kind())
}
