package schedule

import (
	"errors"
	"fmt"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var (
	ErrInvalidConfiguration = errors.New("invalid schedule configuration")
	ErrDateInPast           = errors.New("date is in the past")
)

const minutesPerDay = 24 * 60

// ParseClock converts an "HH:MM" wall-clock string to minutes since midnight.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: bad clock value %q", ErrInvalidConfiguration, s)
	}
	h, err := twoDigits(s[0], s[1])
	if err != nil {
		return 0, fmt.Errorf("%w: bad clock value %q", ErrInvalidConfiguration, s)
	}
	m, err := twoDigits(s[3], s[4])
	if err != nil {
		return 0, fmt.Errorf("%w: bad clock value %q", ErrInvalidConfiguration, s)
	}
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: bad clock value %q", ErrInvalidConfiguration, s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

func twoDigits(a, b byte) (int, error) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, errors.New("not a digit")
	}
	return int(a-'0')*10 + int(b-'0'), nil
}

// TimeRange is a half-open working window [Start, End) in minutes since midnight.
type TimeRange struct {
	Start int
	End   int
}

// ParseRange builds a TimeRange from "HH:MM" boundaries.
func ParseRange(start, end string) (TimeRange, error) {
	s, err := ParseClock(start)
	if err != nil {
		return TimeRange{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return TimeRange{}, err
	}
	r := TimeRange{Start: s, End: e}
	if err := r.validate(); err != nil {
		return TimeRange{}, err
	}
	return r, nil
}

func (r TimeRange) validate() error {
	if r.Start < 0 || r.End > minutesPerDay || r.Start >= r.End {
		return fmt.Errorf("%w: range %s-%s is empty or out of bounds",
			ErrInvalidConfiguration, FormatClock(r.Start), FormatClock(r.End))
	}
	return nil
}

// validateRanges checks that ranges are individually valid, chronological
// and non-overlapping. Back-to-back ranges (one ends where the next starts)
// are allowed.
func validateRanges(ranges []TimeRange) error {
	for i, r := range ranges {
		if err := r.validate(); err != nil {
			return err
		}
		if i > 0 && ranges[i-1].End > r.Start {
			return fmt.Errorf("%w: range %s-%s overlaps %s-%s",
				ErrInvalidConfiguration,
				FormatClock(ranges[i-1].Start), FormatClock(ranges[i-1].End),
				FormatClock(r.Start), FormatClock(r.End))
		}
	}
	return nil
}
