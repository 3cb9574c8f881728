package schedule

import (
	"fmt"
	"time"
)

const (
	MinSlotDuration  = 15
	MaxSlotDuration  = 240
	SlotDurationStep = 15
	MaxBuffer        = 60
	BufferStep       = 5
)

// Config is the full availability configuration of one calendar.
type Config struct {
	SlotDuration int // minutes per appointment
	Buffer       int // idle minutes between consecutive slots
	Weekly       WeeklyHours
	Overrides    Overrides
}

func (c Config) Validate() error {
	if c.SlotDuration < MinSlotDuration || c.SlotDuration > MaxSlotDuration || c.SlotDuration%SlotDurationStep != 0 {
		return fmt.Errorf("%w: slot duration %d must be %d-%d in steps of %d",
			ErrInvalidConfiguration, c.SlotDuration, MinSlotDuration, MaxSlotDuration, SlotDurationStep)
	}
	if c.Buffer < 0 || c.Buffer > MaxBuffer || c.Buffer%BufferStep != 0 {
		return fmt.Errorf("%w: buffer %d must be 0-%d in steps of %d",
			ErrInvalidConfiguration, c.Buffer, MaxBuffer, BufferStep)
	}
	if err := c.Weekly.validate(); err != nil {
		return err
	}
	return c.Overrides.validate()
}

// ValidateNoPastDates rejects date overrides anchored before today. This is
// a data-entry rule for settings writes; reads simply skip past dates.
func (c Config) ValidateNoPastDates(now time.Time, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	today := startOfDay(now.In(loc), loc)
	check := func(date string) error {
		d, err := time.ParseInLocation(DateLayout, date, loc)
		if err != nil {
			return fmt.Errorf("%w: bad date %q", ErrInvalidConfiguration, date)
		}
		if d.Before(today) {
			return fmt.Errorf("%w: %s", ErrDateInPast, date)
		}
		return nil
	}
	for date := range c.Overrides.BlockedDates {
		if err := check(date); err != nil {
			return err
		}
	}
	for date := range c.Overrides.SpecificHours {
		if err := check(date); err != nil {
			return err
		}
	}
	return nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
