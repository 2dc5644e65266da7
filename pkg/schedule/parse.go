package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidTimeFormat is returned for malformed HH:MM input.
	ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")
	// ErrOffsetOutOfRange is returned when a UTC offset falls outside ±12h.
	ErrOffsetOutOfRange = errors.New("utc offset out of range (max ±12h)")
)

// ParseClock parses a "HH:MM" string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: bad hour in %q", ErrInvalidTimeFormat, s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: bad minute in %q", ErrInvalidTimeFormat, s)
	}
	return hour, minute, nil
}

// ParseWindow parses a "HH:MM-HH:MM" string into start and end minutes of
// day. Start after end is allowed and denotes a window wrapping past midnight.
func ParseWindow(s string) (startMinute, endMinute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: expected HH:MM-HH:MM, got %q", ErrInvalidTimeFormat, s)
	}
	fromH, fromM, err := ParseClock(parts[0])
	if err != nil {
		return 0, 0, err
	}
	toH, toM, err := ParseClock(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return fromH*60 + fromM, toH*60 + toM, nil
}
