package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{"07:30", 7, 30, false},
		{"00:00", 0, 0, false},
		{"23:59", 23, 59, false},
		{" 12:05 ", 12, 5, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"-1:30", 0, 0, true},
		{"1230", 0, 0, true},
		{"12:3:4", 0, 0, true},
		{"ab:cd", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := ParseClock(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTimeFormat)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.hour, h)
			require.Equal(t, tt.minute, m)
		})
	}
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		start   int
		end     int
		wantErr bool
	}{
		{"09:00-17:00", 9 * 60, 17 * 60, false},
		{"23:00-08:00", 23 * 60, 8 * 60, false}, // wraps midnight
		{"00:00-00:00", 0, 0, false},
		{"09:00", 0, 0, true},
		{"09:00-17:00-18:00", 0, 0, true},
		{"09:00-25:00", 0, 0, true},
		{"9am-5pm", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			start, end, err := ParseWindow(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTimeFormat)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.start, start)
			require.Equal(t, tt.end, end)
		})
	}
}
