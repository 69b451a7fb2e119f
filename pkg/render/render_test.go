// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	tests := map[string]struct {
		value float64
		want  string
	}{
		"zero":              {value: 0, want: "0%"},
		"tiny":              {value: 0.005, want: "<0.01%"},
		"smallest rendered": {value: 0.01, want: "0.01%"},
		"regular":           {value: 12.5, want: "12.50%"},
		"full":              {value: 100, want: "100.00%"},
		"tiny negative":     {value: -0.001, want: "-<0.01%"},
		"negative":          {value: -3, want: "-3.00%"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.want, Percent(test.value))
		})
	}
}

func TestTimespan(t *testing.T) {
	tests := map[string]struct {
		seconds float64
		want    string
	}{
		"zero":                {seconds: 0, want: "0 seconds"},
		"one second":          {seconds: 1, want: "1 second"},
		"seconds":             {seconds: 59, want: "59 seconds"},
		"minute and second":   {seconds: 61, want: "1 minute 1 second"},
		"hour":                {seconds: 3600, want: "1 hour 0 minutes"},
		"days and hours":      {seconds: 3*86400 + 4*3600 + 59, want: "3 days 4 hours"},
		"year":                {seconds: 400 * 86400, want: "1 year 35 days"},
		"milliseconds":        {seconds: 0.5, want: "500 milliseconds"},
		"microseconds":        {seconds: 0.000002, want: "2 microseconds"},
		"nanoseconds":         {seconds: 3e-9, want: "3 nanoseconds"},
		"negative":            {seconds: -90, want: "-1 minute 30 seconds"},
		"rounds up to second": {seconds: 0.9999, want: "1 second"},
		"rounds up to ms":     {seconds: 0.0009996, want: "1 millisecond"},
		"rounds up to minute": {seconds: 59.6, want: "1 minute 0 seconds"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.want, Timespan(test.seconds))
		})
	}
}

func TestBytes(t *testing.T) {
	tests := map[string]struct {
		fn    func(float64) string
		value float64
		want  string
	}{
		"bytes zero":         {fn: Bytes, value: 0, want: "0 B"},
		"bytes unscaled":     {fn: Bytes, value: 1023, want: "1023 B"},
		"bytes KiB":          {fn: Bytes, value: 1536, want: "1.50 KiB"},
		"bytes MiB":          {fn: Bytes, value: 1024 * 1024, want: "1.00 MiB"},
		"bytes GiB":          {fn: Bytes, value: 5 * 1024 * 1024 * 1024, want: "5.00 GiB"},
		"bytes negative":     {fn: Bytes, value: -2048, want: "-2.00 KiB"},
		"disksize":           {fn: Disksize, value: 1e6, want: "1.00 MB"},
		"io bandwidth":       {fn: IOBandwidth, value: 2500, want: "2.50 kB/s"},
		"network bandwidth":  {fn: NetworkBandwidth, value: 125000, want: "1.00 Mbit/s"},
		"nic speed":          {fn: NICSpeed, value: 1e9, want: "1 Gbit/s"},
		"nic speed fraction": {fn: NICSpeed, value: 2.5e9, want: "2.5 Gbit/s"},
		"frequency":          {fn: Frequency, value: 2.4e9, want: "2.40 GHz"},
		"filesize":           {fn: Filesize, value: 1024, want: "1,024 B"},
		"filesize large":     {fn: Filesize, value: 1234567, want: "1,234,567 B"},
		"filesize small":     {fn: Filesize, value: 999, want: "999 B"},
		"bytes rounds up":    {fn: Bytes, value: 1048575, want: "1.00 MiB"},
		"bytes below KiB":    {fn: Bytes, value: 1023.999, want: "1.00 KiB"},
		"nic speed rounds":   {fn: NICSpeed, value: 999999999, want: "1 Gbit/s"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.want, test.fn(test.value))
		})
	}
}

func TestScaled_WithoutUnit(t *testing.T) {
	assert.Equal(t, "1.00Mi", Scaled(1024*1024, Options{Prefixes: IEC, Unit: "B", Precision: 2}))
	assert.Equal(t, "12", Scaled(12, Options{Prefixes: SI, Precision: 2}))
}

func TestPrefixes_Scale(t *testing.T) {
	v, p := IEC.Scale(1024 * 1024)
	assert.Equal(t, 1.0, v)
	assert.Equal(t, "Mi", p)

	v, p = SI.Scale(999)
	assert.Equal(t, 999.0, v)
	assert.Equal(t, "", p)
}

func TestDatetime(t *testing.T) {
	epoch := float64(time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local).Unix())

	assert.Equal(t, "Mar 05 2024", Date(epoch))
	assert.Equal(t, "Mar 05 2024 14:07:09", Datetime(epoch))
}
