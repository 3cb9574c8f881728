package schedule

import "time"

// Resolver answers availability questions for one calendar. It works purely
// from configuration; callers subtract booked slots separately.
type Resolver struct {
	cfg Config
	loc *time.Location
}

// NewResolver validates cfg up front so a malformed configuration can never
// produce bookable slots.
func NewResolver(cfg Config, loc *time.Location) (*Resolver, error) {
	if loc == nil {
		loc = time.UTC
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{cfg: cfg, loc: loc}, nil
}

// SlotsOn returns the bookable slot start times ("HH:MM", ascending) for the
// given date. Dates before today resolve to no slots, and on the current day
// slots whose start has already passed are dropped.
func (r *Resolver) SlotsOn(date time.Time, now time.Time) []string {
	day := startOfDay(date, r.loc)
	today := startOfDay(now, r.loc)
	if day.Before(today) {
		return nil
	}

	cutoff := 0
	if day.Equal(today) {
		local := now.In(r.loc)
		cutoff = local.Hour()*60 + local.Minute()
	}

	var slots []string
	for _, rng := range r.rangesOn(day) {
		for cur := rng.Start; cur+r.cfg.SlotDuration <= rng.End; cur += r.cfg.SlotDuration + r.cfg.Buffer {
			if cur < cutoff {
				continue
			}
			slots = append(slots, FormatClock(cur))
		}
	}
	return slots
}

// HasSlot reports whether startTime ("HH:MM") is one of the generated slots
// for the date.
func (r *Resolver) HasSlot(date time.Time, startTime string, now time.Time) bool {
	for _, s := range r.SlotsOn(date, now) {
		if s == startTime {
			return true
		}
	}
	return false
}

// IsDateAvailable reports whether the configuration yields at least one slot
// on the date. It does not consider existing bookings.
func (r *Resolver) IsDateAvailable(date time.Time, now time.Time) bool {
	return len(r.SlotsOn(date, now)) > 0
}

// Location returns the calendar's timezone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// rangesOn resolves which working windows apply on a date, most specific
// layer first. A specific-hours entry, even an empty one, is the single
// source of truth for its date.
func (r *Resolver) rangesOn(day time.Time) []TimeRange {
	key := day.Format(DateLayout)
	if ranges, ok := r.cfg.Overrides.SpecificHours[key]; ok {
		return ranges
	}
	if r.cfg.Overrides.BlockedDates[key] {
		return nil
	}
	wd := WeekdayOf(day)
	if wd == Saturday && r.cfg.Overrides.BlockedSaturdays {
		return nil
	}
	if wd == Sunday && r.cfg.Overrides.BlockedSundays {
		return nil
	}
	return r.cfg.Weekly[wd]
}
