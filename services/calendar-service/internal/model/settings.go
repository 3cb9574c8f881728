package model

import (
	"fmt"
	"time"

	"github.com/agusroldan/turnospro/services/calendar-service/internal/schedule"
)

type TimeRangeDoc struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// DayHoursDoc is one weekday's working windows. Older clients sent a single
// start_time/end_time pair instead of a time_ranges list; Ranges folds both
// shapes into one.
type DayHoursDoc struct {
	DayOfWeek  int            `json:"day_of_week"`
	TimeRanges []TimeRangeDoc `json:"time_ranges"`
	StartTime  string         `json:"start_time,omitempty"`
	EndTime    string         `json:"end_time,omitempty"`
}

func (d DayHoursDoc) Ranges() []TimeRangeDoc {
	if len(d.TimeRanges) > 0 {
		return d.TimeRanges
	}
	if d.StartTime != "" && d.EndTime != "" {
		return []TimeRangeDoc{{StartTime: d.StartTime, EndTime: d.EndTime}}
	}
	return nil
}

type DateHoursDoc struct {
	Date       string         `json:"date"`
	TimeRanges []TimeRangeDoc `json:"time_ranges"`
	StartTime  string         `json:"start_time,omitempty"`
	EndTime    string         `json:"end_time,omitempty"`
}

func (d DateHoursDoc) Ranges() []TimeRangeDoc {
	if len(d.TimeRanges) > 0 {
		return d.TimeRanges
	}
	if d.StartTime != "" && d.EndTime != "" {
		return []TimeRangeDoc{{StartTime: d.StartTime, EndTime: d.EndTime}}
	}
	return nil
}

// CalendarSettings is the canonical stored form of a calendar's availability
// configuration. Legacy request fields are folded in before it is persisted,
// so reads never see them.
type CalendarSettings struct {
	CalendarID          string         `json:"calendar_id"`
	AppointmentDuration int            `json:"appointment_duration"`
	BufferTime          int            `json:"buffer_time"`
	BlockedDates        []string       `json:"blocked_dates"`
	BlockedSaturdays    bool           `json:"blocked_saturdays"`
	BlockedSundays      bool           `json:"blocked_sundays"`
	WorkingHours        []DayHoursDoc  `json:"working_hours"`
	SpecificDateHours   []DateHoursDoc `json:"specific_date_hours"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// DefaultSettings is applied when a calendar is created: one-hour slots,
// Monday to Friday 09:00-17:00.
func DefaultSettings(calendarID string) CalendarSettings {
	hours := make([]DayHoursDoc, 0, 5)
	for day := 0; day < 5; day++ {
		hours = append(hours, DayHoursDoc{
			DayOfWeek:  day,
			TimeRanges: []TimeRangeDoc{{StartTime: "09:00", EndTime: "17:00"}},
		})
	}
	return CalendarSettings{
		CalendarID:          calendarID,
		AppointmentDuration: 60,
		BufferTime:          0,
		BlockedDates:        []string{},
		WorkingHours:        hours,
		SpecificDateHours:   []DateHoursDoc{},
	}
}

// ScheduleConfig converts the stored settings into the schedule package's
// validated form. Any malformed piece surfaces as ErrInvalidConfiguration.
func (s CalendarSettings) ScheduleConfig() (schedule.Config, error) {
	cfg := schedule.Config{
		SlotDuration: s.AppointmentDuration,
		Buffer:       s.BufferTime,
		Weekly:       schedule.WeeklyHours{},
		Overrides: schedule.Overrides{
			BlockedSaturdays: s.BlockedSaturdays,
			BlockedSundays:   s.BlockedSundays,
			BlockedDates:     map[string]bool{},
			SpecificHours:    map[string][]schedule.TimeRange{},
		},
	}

	for _, day := range s.WorkingHours {
		wd := schedule.Weekday(day.DayOfWeek)
		if !wd.Valid() {
			return schedule.Config{}, fmt.Errorf("%w: weekday index %d out of range",
				schedule.ErrInvalidConfiguration, day.DayOfWeek)
		}
		if _, dup := cfg.Weekly[wd]; dup {
			return schedule.Config{}, fmt.Errorf("%w: duplicate weekday %d",
				schedule.ErrInvalidConfiguration, day.DayOfWeek)
		}
		ranges, err := parseRanges(day.Ranges())
		if err != nil {
			return schedule.Config{}, err
		}
		if len(ranges) > 0 {
			cfg.Weekly[wd] = ranges
		}
	}

	for _, date := range s.BlockedDates {
		cfg.Overrides.BlockedDates[date] = true
	}

	for _, d := range s.SpecificDateHours {
		if _, dup := cfg.Overrides.SpecificHours[d.Date]; dup {
			return schedule.Config{}, fmt.Errorf("%w: duplicate specific date %s",
				schedule.ErrInvalidConfiguration, d.Date)
		}
		ranges, err := parseRanges(d.Ranges())
		if err != nil {
			return schedule.Config{}, fmt.Errorf("date %s: %w", d.Date, err)
		}
		// An entry with no ranges deliberately closes the day.
		cfg.Overrides.SpecificHours[d.Date] = ranges
	}

	if err := cfg.Validate(); err != nil {
		return schedule.Config{}, err
	}
	return cfg, nil
}

func parseRanges(docs []TimeRangeDoc) ([]schedule.TimeRange, error) {
	ranges := make([]schedule.TimeRange, 0, len(docs))
	for _, doc := range docs {
		r, err := schedule.ParseRange(doc.StartTime, doc.EndTime)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// SettingsInput is the PUT request body. It accepts the legacy field names
// the first mobile clients used alongside the canonical ones.
type SettingsInput struct {
	AppointmentDuration int            `json:"appointment_duration"`
	BufferTime          int            `json:"buffer_time"`
	BlockedDates        []string       `json:"blocked_dates"`
	BlockedSaturdays    *bool          `json:"blocked_saturdays"`
	BlockedSundays      *bool          `json:"blocked_sundays"`
	BlockedWeekends     *bool          `json:"blocked_weekends"`
	BlockedDays         []int          `json:"blocked_days"`
	WorkingHours        []DayHoursDoc  `json:"working_hours"`
	SpecificDateHours   []DateHoursDoc `json:"specific_date_hours"`
}

// Canonical folds legacy fields into the stored form:
//   - blocked_weekends implies both weekend flags
//   - blocked_days 5/6 map to the weekend flags, any other weekday in the
//     list drops that weekday's working hours
//   - single start_time/end_time pairs become one-element range lists
func (in SettingsInput) Canonical(calendarID string) CalendarSettings {
	out := CalendarSettings{
		CalendarID:          calendarID,
		AppointmentDuration: in.AppointmentDuration,
		BufferTime:          in.BufferTime,
		BlockedDates:        in.BlockedDates,
		SpecificDateHours:   normalizeDateHours(in.SpecificDateHours),
	}
	if out.BlockedDates == nil {
		out.BlockedDates = []string{}
	}

	if in.BlockedSaturdays != nil {
		out.BlockedSaturdays = *in.BlockedSaturdays
	}
	if in.BlockedSundays != nil {
		out.BlockedSundays = *in.BlockedSundays
	}
	if in.BlockedWeekends != nil && *in.BlockedWeekends {
		out.BlockedSaturdays = true
		out.BlockedSundays = true
	}

	dropped := map[int]bool{}
	for _, day := range in.BlockedDays {
		switch day {
		case 5:
			out.BlockedSaturdays = true
		case 6:
			out.BlockedSundays = true
		default:
			dropped[day] = true
		}
	}

	out.WorkingHours = make([]DayHoursDoc, 0, len(in.WorkingHours))
	for _, day := range in.WorkingHours {
		if dropped[day.DayOfWeek] {
			continue
		}
		out.WorkingHours = append(out.WorkingHours, DayHoursDoc{
			DayOfWeek:  day.DayOfWeek,
			TimeRanges: day.Ranges(),
		})
	}
	return out
}

func normalizeDateHours(docs []DateHoursDoc) []DateHoursDoc {
	out := make([]DateHoursDoc, 0, len(docs))
	for _, d := range docs {
		ranges := d.Ranges()
		if ranges == nil {
			ranges = []TimeRangeDoc{}
		}
		out = append(out, DateHoursDoc{Date: d.Date, TimeRanges: ranges})
	}
	return out
}
