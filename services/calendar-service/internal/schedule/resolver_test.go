package schedule

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		t.Fatalf("parse date %s: %v", s, err)
	}
	return d
}

func baseConfig() Config {
	return Config{
		SlotDuration: 60,
		Buffer:       15,
		Weekly: WeeklyHours{
			// Monday 09:00-12:00
			Monday: {{Start: 540, End: 720}},
		},
	}
}

func TestSlotsOnBasicWindow(t *testing.T) {
	r, err := NewResolver(baseConfig(), time.UTC)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	now := mustDate(t, "2026-01-01")
	// 2026-01-05 is a Monday. 60min slots with a 15min gap inside
	// 09:00-12:00 leave room for 09:00 and 10:15 only: the next start
	// would be 11:30 and 11:30+60 overruns 12:00.
	got := r.SlotsOn(mustDate(t, "2026-01-05"), now)
	want := []string{"09:00", "10:15"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SlotsOn = %v, want %v", got, want)
	}
}

func TestSlotsOnClosedWeekday(t *testing.T) {
	r, err := NewResolver(baseConfig(), time.UTC)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	now := mustDate(t, "2026-01-01")
	// Tuesday has no weekly entry.
	if got := r.SlotsOn(mustDate(t, "2026-01-06"), now); len(got) != 0 {
		t.Fatalf("expected no slots on a closed weekday, got %v", got)
	}
}

func TestSlotsOnMultipleRanges(t *testing.T) {
	cfg := baseConfig()
	cfg.SlotDuration = 30
	cfg.Buffer = 0
	cfg.Weekly = WeeklyHours{
		Monday: {{Start: 540, End: 660}, {Start: 840, End: 900}}, // 09:00-11:00, 14:00-15:00
	}
	r, err := NewResolver(cfg, time.UTC)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	now := mustDate(t, "2026-01-01")
	got := r.SlotsOn(mustDate(t, "2026-01-05"), now)
	want := []string{"09:00", "09:30", "10:00", "10:30", "14:00", "14:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SlotsOn = %v, want %v", got, want)
	}
}

func TestPastDatesNeverAvailable(t *testing.T) {
	r, err := NewResolver(baseConfig(), time.UTC)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	now := mustDate(t, "2026-01-12")
	// 2026-01-05 is a Monday with configured hours, but it is in the past.
	if got := r.SlotsOn(mustDate(t, "2026-01-05"), now); len(got) != 0 {
		t.Fatalf("expected no slots for a past date, got %v", got)
	}
	if r.IsDateAvailable(mustDate(t, "2026-01-05"), now) {
		t.Fatal("past date reported available")
	}
}

func TestSameDayDropsElapsedSlots(t *testing.T) {
	r, err := NewResolver(baseConfig(), time.UTC)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	// Monday 2026-01-05 at 09:30: the 09:00 slot already started.
	now := time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)
	got := r.SlotsOn(mustDate(t, "2026-01-05"), now)
	want := []string{"10:15"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SlotsOn = %v, want %v", got, want)
	}
}

func TestBlockedDateRemovesSlots(t *testing.T) {
	cfg := baseConfig()
	cfg.Overrides.BlockedDates = map[string]bool{"2026-01-05": true}
	r, err := NewResolver(cfg, time.UTC)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	now := mustDate(t, "2026-01-01")
	if got := r.SlotsOn(mustDate(t, "2026-01-05"), now); len(got) != 0 {
		t.Fatalf("expected blocked date to have no slots, got %v", got)
	}
	// The following Monday is unaffected.
	if got := r.SlotsOn(mustDate(t, "2026-01-12"), now); len(got) == 0 {
		t.Fatal("expected slots on the following Monday")
	}
}

func TestBlockedWeekendFlags(t *testing.T) {
	cfg := baseConfig()
	cfg.Weekly[Saturday] = []TimeRange{{Start: 600, End: 780}}
	cfg.Weekly[Sunday] = []TimeRange{{Start: 600, End: 780}}
	cfg.Overrides.BlockedSaturdays = true
	r, err := NewResolver(cfg, time.UTC)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	now := mustDate(t, "2026-01-01")
	// 2026-01-10 Saturday, 2026-01-11 Sunday.
	if got := r.SlotsOn(mustDate(t, "2026-01-10"), now); len(got) != 0 {
		t.Fatalf("expected blocked Saturday to have no slots, got %v", got)
	}
	if got := r.SlotsOn(mustDate(t, "2026-01-11"), now); len(got) == 0 {
		t.Fatal("Sunday should be unaffected by the Saturday flag")
	}
}

func TestSpecificHoursOverrideEverything(t *testing.T) {
	cfg := baseConfig()
	cfg.Overrides.BlockedDates = map[string]bool{"2026-01-05": true}
	cfg.Overrides.BlockedSaturdays = true
	cfg.Overrides.SpecificHours = map[string][]TimeRange{
		// Blocked Monday reopened with an afternoon window.
		"2026-01-05": {{Start: 840, End: 960}}, // 14:00-16:00
		// Blocked Saturday reopened too.
		"2026-01-10": {{Start: 600, End: 675}}, // 10:00-11:15
	}
	r, err := NewResolver(cfg, time.UTC)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	now := mustDate(t, "2026-01-01")

	got := r.SlotsOn(mustDate(t, "2026-01-05"), now)
	want := []string{"14:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("specific hours on blocked date: got %v, want %v", got, want)
	}

	got = r.SlotsOn(mustDate(t, "2026-01-10"), now)
	want = []string{"10:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("specific hours on blocked Saturday: got %v, want %v", got, want)
	}
}

func TestEmptySpecificHoursClosesDay(t *testing.T) {
	cfg := baseConfig()
	cfg.Overrides.SpecificHours = map[string][]TimeRange{
		"2026-01-05": {},
	}
	r, err := NewResolver(cfg, time.UTC)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	now := mustDate(t, "2026-01-01")
	if got := r.SlotsOn(mustDate(t, "2026-01-05"), now); len(got) != 0 {
		t.Fatalf("empty specific hours should close the day, got %v", got)
	}
}

func TestHasSlot(t *testing.T) {
	r, err := NewResolver(baseConfig(), time.UTC)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	now := mustDate(t, "2026-01-01")
	day := mustDate(t, "2026-01-05")
	if !r.HasSlot(day, "10:15", now) {
		t.Fatal("expected 10:15 to be a valid slot")
	}
	// 09:30 falls inside working hours but is not a slot boundary.
	if r.HasSlot(day, "09:30", now) {
		t.Fatal("09:30 is not on the slot grid")
	}
}

func TestResolverTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	r, err := NewResolver(baseConfig(), loc)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	// 2026-01-06 01:00 UTC is still Monday 2026-01-05 22:00 in Buenos Aires,
	// so Monday is past its working window but not a past date.
	now := time.Date(2026, 1, 6, 1, 0, 0, 0, time.UTC)
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, loc)
	if got := r.SlotsOn(day, now); len(got) != 0 {
		t.Fatalf("expected no remaining slots late on Monday, got %v", got)
	}
	if r.SlotsOn(time.Date(2026, 1, 12, 0, 0, 0, 0, loc), now) == nil {
		t.Fatal("expected slots for next Monday")
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"duration too small", func(c *Config) { c.SlotDuration = 10 }},
		{"duration too large", func(c *Config) { c.SlotDuration = 300 }},
		{"duration off grid", func(c *Config) { c.SlotDuration = 50 }},
		{"negative buffer", func(c *Config) { c.Buffer = -5 }},
		{"buffer too large", func(c *Config) { c.Buffer = 90 }},
		{"buffer off grid", func(c *Config) { c.Buffer = 7 }},
		{"bad weekday", func(c *Config) { c.Weekly[Weekday(9)] = []TimeRange{{Start: 540, End: 600}} }},
		{"inverted range", func(c *Config) { c.Weekly[Monday] = []TimeRange{{Start: 720, End: 540}} }},
		{"overlapping ranges", func(c *Config) {
			c.Weekly[Monday] = []TimeRange{{Start: 540, End: 720}, {Start: 700, End: 780}}
		}},
		{"bad blocked date", func(c *Config) { c.Overrides.BlockedDates = map[string]bool{"05/01/2026": true} }},
	}
	for _, tc := range cases {
		cfg := baseConfig()
		tc.mutate(&cfg)
		if _, err := NewResolver(cfg, time.UTC); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%s: expected ErrInvalidConfiguration, got %v", tc.name, err)
		}
	}
}

func TestValidateNoPastDates(t *testing.T) {
	now := time.Date(2026, 1, 10, 15, 0, 0, 0, time.UTC)

	cfg := baseConfig()
	cfg.Overrides.BlockedDates = map[string]bool{"2026-01-09": true}
	if err := cfg.ValidateNoPastDates(now, time.UTC); !errors.Is(err, ErrDateInPast) {
		t.Fatalf("expected ErrDateInPast for past blocked date, got %v", err)
	}

	cfg = baseConfig()
	cfg.Overrides.SpecificHours = map[string][]TimeRange{"2026-01-02": {{Start: 540, End: 720}}}
	if err := cfg.ValidateNoPastDates(now, time.UTC); !errors.Is(err, ErrDateInPast) {
		t.Fatalf("expected ErrDateInPast for past specific date, got %v", err)
	}

	// Today itself is allowed.
	cfg = baseConfig()
	cfg.Overrides.BlockedDates = map[string]bool{"2026-01-10": true}
	if err := cfg.ValidateNoPastDates(now, time.UTC); err != nil {
		t.Fatalf("today should be allowed: %v", err)
	}
}
