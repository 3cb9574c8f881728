package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"9:00", 0, true},
		{"09:60", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(540); got != "09:00" {
		t.Fatalf("FormatClock(540) = %q", got)
	}
	if got := FormatClock(615); got != "10:15" {
		t.Fatalf("FormatClock(615) = %q", got)
	}
}

func TestParseRangeRejectsInverted(t *testing.T) {
	if _, err := ParseRange("12:00", "09:00"); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	if _, err := ParseRange("09:00", "09:00"); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for empty range, got %v", err)
	}
}

func TestValidateRangesOverlap(t *testing.T) {
	overlapping := []TimeRange{{Start: 540, End: 720}, {Start: 660, End: 780}}
	if err := validateRanges(overlapping); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected overlap rejection, got %v", err)
	}

	backToBack := []TimeRange{{Start: 540, End: 720}, {Start: 720, End: 780}}
	if err := validateRanges(backToBack); err != nil {
		t.Fatalf("back-to-back ranges should be valid: %v", err)
	}

	outOfOrder := []TimeRange{{Start: 720, End: 780}, {Start: 540, End: 600}}
	if err := validateRanges(outOfOrder); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected out-of-order rejection, got %v", err)
	}
}

func TestWeekdayOf(t *testing.T) {
	// 2026-01-05 is a Monday.
	cases := []struct {
		date string
		want Weekday
	}{
		{"2026-01-05", Monday},
		{"2026-01-06", Tuesday},
		{"2026-01-07", Wednesday},
		{"2026-01-08", Thursday},
		{"2026-01-09", Friday},
		{"2026-01-10", Saturday},
		{"2026-01-11", Sunday},
	}
	for _, tc := range cases {
		d, err := time.Parse(DateLayout, tc.date)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.date, err)
		}
		if got := WeekdayOf(d); got != tc.want {
			t.Errorf("WeekdayOf(%s) = %d, want %d", tc.date, got, tc.want)
		}
	}
}
