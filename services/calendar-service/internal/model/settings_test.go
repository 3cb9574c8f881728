package model

import (
	"errors"
	"testing"

	"github.com/agusroldan/turnospro/services/calendar-service/internal/schedule"
)

func boolPtr(b bool) *bool { return &b }

func TestCanonicalFoldsBlockedWeekends(t *testing.T) {
	in := SettingsInput{
		AppointmentDuration: 30,
		BlockedWeekends:     boolPtr(true),
	}
	got := in.Canonical("cal-1")
	if !got.BlockedSaturdays || !got.BlockedSundays {
		t.Fatalf("blocked_weekends should set both flags, got %+v", got)
	}
}

func TestCanonicalFoldsBlockedDays(t *testing.T) {
	in := SettingsInput{
		AppointmentDuration: 30,
		BlockedDays:         []int{2, 5},
		WorkingHours: []DayHoursDoc{
			{DayOfWeek: 0, TimeRanges: []TimeRangeDoc{{StartTime: "09:00", EndTime: "12:00"}}},
			{DayOfWeek: 2, TimeRanges: []TimeRangeDoc{{StartTime: "09:00", EndTime: "12:00"}}},
		},
	}
	got := in.Canonical("cal-1")
	if !got.BlockedSaturdays {
		t.Fatal("blocked day 5 should set the Saturday flag")
	}
	if got.BlockedSundays {
		t.Fatal("Sunday flag should stay unset")
	}
	if len(got.WorkingHours) != 1 || got.WorkingHours[0].DayOfWeek != 0 {
		t.Fatalf("blocked day 2 should drop Wednesday hours, got %+v", got.WorkingHours)
	}
}

func TestCanonicalExpandsLegacySingleRange(t *testing.T) {
	in := SettingsInput{
		AppointmentDuration: 60,
		WorkingHours: []DayHoursDoc{
			{DayOfWeek: 1, StartTime: "10:00", EndTime: "14:00"},
		},
	}
	got := in.Canonical("cal-1")
	if len(got.WorkingHours) != 1 {
		t.Fatalf("expected one weekday entry, got %d", len(got.WorkingHours))
	}
	ranges := got.WorkingHours[0].TimeRanges
	if len(ranges) != 1 || ranges[0].StartTime != "10:00" || ranges[0].EndTime != "14:00" {
		t.Fatalf("legacy pair should become a one-element range list, got %+v", ranges)
	}
}

func TestScheduleConfigRoundTrip(t *testing.T) {
	s := CalendarSettings{
		CalendarID:          "cal-1",
		AppointmentDuration: 60,
		BufferTime:          15,
		BlockedDates:        []string{"2026-02-02"},
		BlockedSaturdays:    true,
		WorkingHours: []DayHoursDoc{
			{DayOfWeek: 0, TimeRanges: []TimeRangeDoc{{StartTime: "09:00", EndTime: "12:00"}}},
		},
		SpecificDateHours: []DateHoursDoc{
			{Date: "2026-02-09", TimeRanges: []TimeRangeDoc{}},
		},
	}
	cfg, err := s.ScheduleConfig()
	if err != nil {
		t.Fatalf("ScheduleConfig: %v", err)
	}
	if cfg.SlotDuration != 60 || cfg.Buffer != 15 {
		t.Fatalf("slot config mismatch: %+v", cfg)
	}
	if len(cfg.Weekly[schedule.Monday]) != 1 {
		t.Fatalf("expected Monday hours, got %+v", cfg.Weekly)
	}
	if !cfg.Overrides.BlockedDates["2026-02-02"] {
		t.Fatal("blocked date missing")
	}
	ranges, ok := cfg.Overrides.SpecificHours["2026-02-09"]
	if !ok || len(ranges) != 0 {
		t.Fatalf("empty specific date entry should survive as an empty list, got %v ok=%v", ranges, ok)
	}
}

func TestScheduleConfigRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		s    CalendarSettings
	}{
		{"bad duration", CalendarSettings{AppointmentDuration: 50, BufferTime: 0, WorkingHours: nil}},
		{"bad clock", CalendarSettings{
			AppointmentDuration: 60,
			WorkingHours:        []DayHoursDoc{{DayOfWeek: 0, TimeRanges: []TimeRangeDoc{{StartTime: "9am", EndTime: "12:00"}}}},
		}},
		{"bad weekday", CalendarSettings{
			AppointmentDuration: 60,
			WorkingHours:        []DayHoursDoc{{DayOfWeek: 7, TimeRanges: []TimeRangeDoc{{StartTime: "09:00", EndTime: "12:00"}}}},
		}},
		{"duplicate weekday", CalendarSettings{
			AppointmentDuration: 60,
			WorkingHours: []DayHoursDoc{
				{DayOfWeek: 0, TimeRanges: []TimeRangeDoc{{StartTime: "09:00", EndTime: "12:00"}}},
				{DayOfWeek: 0, TimeRanges: []TimeRangeDoc{{StartTime: "14:00", EndTime: "16:00"}}},
			},
		}},
		{"overlapping ranges", CalendarSettings{
			AppointmentDuration: 60,
			WorkingHours: []DayHoursDoc{
				{DayOfWeek: 0, TimeRanges: []TimeRangeDoc{
					{StartTime: "09:00", EndTime: "12:00"},
					{StartTime: "11:00", EndTime: "13:00"},
				}},
			},
		}},
	}
	for _, tc := range cases {
		if _, err := tc.s.ScheduleConfig(); !errors.Is(err, schedule.ErrInvalidConfiguration) {
			t.Errorf("%s: expected ErrInvalidConfiguration, got %v", tc.name, err)
		}
	}
}

func TestScheduleConfigAcceptsGridDurations(t *testing.T) {
	for _, d := range []int{15, 45, 240} {
		s := CalendarSettings{AppointmentDuration: d}
		if _, err := s.ScheduleConfig(); err != nil {
			t.Errorf("duration %d is on the grid: %v", d, err)
		}
	}
}
