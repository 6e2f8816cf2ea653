package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "09:30", want: Clock{9, 30}},
		{in: "23:59", want: Clock{23, 59}},
		{in: "17:00:45", want: Clock{17, 0}},
		{in: "00:00", want: Clock{}},
		{in: "24:00", wantErr: true},
		{in: "9am", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClock_JSON(t *testing.T) {
	data, err := json.Marshal(Clock{7, 5})
	require.NoError(t, err)
	assert.Equal(t, `"07:05"`, string(data))

	var c Clock
	require.NoError(t, json.Unmarshal([]byte(`"18:45"`), &c))
	assert.Equal(t, Clock{18, 45}, c)
	assert.Error(t, json.Unmarshal([]byte(`"noon"`), &c))
	assert.Error(t, json.Unmarshal([]byte(`1845`), &c))
}

func TestClock_Scan(t *testing.T) {
	tests := []struct {
		name    string
		src     interface{}
		want    Clock
		wantErr bool
	}{
		{name: "bytes", src: []byte("11:15:00"), want: Clock{11, 15}},
		{name: "string", src: "06:00:00", want: Clock{6, 0}},
		{name: "time", src: time.Date(0, 1, 1, 22, 10, 0, 0, time.UTC), want: Clock{22, 10}},
		{name: "int", src: 42, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Clock
			err := c.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)
		})
	}

	v, err := Clock{8, 3}.Value()
	require.NoError(t, err)
	assert.Equal(t, "08:03:00", v)
}

func TestShift_Hours(t *testing.T) {
	tests := []struct {
		name       string
		start, end Clock
		want       float64
	}{
		{name: "morning", start: Clock{9, 0}, end: Clock{17, 0}, want: 8},
		{name: "partial hour", start: Clock{10, 15}, end: Clock{14, 35}, want: 4.33},
		{name: "overnight", start: Clock{22, 0}, end: Clock{2, 30}, want: 4.5},
		{name: "empty", start: Clock{12, 0}, end: Clock{12, 0}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Shift{StartTime: tt.start, EndTime: tt.end}.Hours())
		})
	}
}
