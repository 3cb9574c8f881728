package schedule

import (
	"fmt"
	"time"
)

// Weekday indexes days Monday-first, so 5 and 6 are the weekend.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// WeekdayOf maps a time.Time (Sunday-first weekdays) onto the Monday-first index.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// WeeklyHours holds the recurring working windows per weekday. A missing
// entry means the day is closed.
type WeeklyHours map[Weekday][]TimeRange

func (w WeeklyHours) validate() error {
	for day, ranges := range w {
		if !day.Valid() {
			return fmt.Errorf("%w: weekday index %d out of range", ErrInvalidConfiguration, day)
		}
		if err := validateRanges(ranges); err != nil {
			return fmt.Errorf("weekday %d: %w", day, err)
		}
	}
	return nil
}
