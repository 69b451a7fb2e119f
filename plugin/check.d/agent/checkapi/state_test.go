// SPDX-License-Identifier: GPL-3.0-or-later

package checkapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorst(t *testing.T) {
	tests := map[string]struct {
		states []State
		want   State
	}{
		"no states":            {want: OK},
		"ok and warn":          {states: []State{OK, Warn}, want: Warn},
		"unknown beats warn":   {states: []State{Warn, Unknown, OK}, want: Unknown},
		"crit beats unknown":   {states: []State{Unknown, Crit, Warn}, want: Crit},
		"single ok":            {states: []State{OK}, want: OK},
		"crit before unknown":   {states: []State{Crit, Unknown}, want: Crit},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.want, Worst(test.states...))
		})
	}
}

func TestBest(t *testing.T) {
	assert.Equal(t, OK, Best())
	assert.Equal(t, Warn, Best(Crit, Warn, Unknown))
	assert.Equal(t, Unknown, Best(Crit, Unknown))
}

func TestParseState(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    State
		wantErr bool
	}{
		"name":       {input: "OK", want: OK},
		"lower case": {input: "warn", want: Warn},
		"long name":  {input: "CRITICAL", want: Crit},
		"number":     {input: "3", want: Unknown},
		"invalid":    {input: "broken", want: Unknown, wantErr: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			s, err := ParseState(test.input)
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, s)
		})
	}
}

func TestState_TextMarshaling(t *testing.T) {
	bs, err := Crit.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "CRIT", string(bs))

	var s State
	require.NoError(t, s.UnmarshalText([]byte("WARN")))
	assert.Equal(t, Warn, s)

	_, err = State(7).MarshalText()
	assert.Error(t, err)
}

func TestState_Marker(t *testing.T) {
	assert.Equal(t, "", OK.Marker())
	assert.Equal(t, "(!)", Warn.Marker())
	assert.Equal(t, "(!!)", Crit.Marker())
	assert.Equal(t, "(?)", Unknown.Marker())
}
