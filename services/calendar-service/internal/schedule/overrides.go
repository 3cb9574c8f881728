package schedule

import (
	"fmt"
	"time"
)

// Overrides layers date-specific exceptions on top of the weekly hours.
//
// SpecificHours is the strongest layer: when a date has an entry there, that
// entry alone decides the day's windows. An entry with no ranges closes the
// day. Blocked dates and blocked weekend flags only apply to dates without a
// specific-hours entry.
type Overrides struct {
	BlockedDates     map[string]bool
	BlockedSaturdays bool
	BlockedSundays   bool
	SpecificHours    map[string][]TimeRange
}

func (o Overrides) validate() error {
	for date := range o.BlockedDates {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return fmt.Errorf("%w: bad blocked date %q", ErrInvalidConfiguration, date)
		}
	}
	for date, ranges := range o.SpecificHours {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return fmt.Errorf("%w: bad specific date %q", ErrInvalidConfiguration, date)
		}
		if err := validateRanges(ranges); err != nil {
			return fmt.Errorf("date %s: %w", date, err)
		}
	}
	return nil
}
