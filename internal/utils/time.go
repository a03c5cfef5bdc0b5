package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/opsboard/internal/constants"
)

// Clock returns the current instant. Services take one so tests can pin time.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time { return time.Now() }

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// DayKey returns the YYYY-MM-DD key of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(constants.DateFormat)
}

// HourIn returns the wall-clock hour (0-23) of t in loc.
func HourIn(t time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Hour()
}

// ParseDay parses a YYYY-MM-DD key at midnight in loc.
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(constants.DateFormat, day, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", day, err)
	}
	return t, nil
}

// ShiftDay returns the day key offset by n calendar days from day.
// Calendar arithmetic keeps DST transitions from skipping or repeating a day.
func ShiftDay(day string, n int) (string, error) {
	t, err := time.Parse(constants.DateFormat, day)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", day, err)
	}
	return t.AddDate(0, 0, n).Format(constants.DateFormat), nil
}

// HourLabel renders an hour as the HH:00 label used for blocks.
func HourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// ParseHour accepts "9", "09", "9:00" or "09:00" and returns the hour.
func ParseHour(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty hour")
	}
	if strings.Contains(s, ":") {
		t, err := time.Parse(constants.TimeFormat, s)
		if err != nil {
			if t2, err2 := time.Parse("15:4", s); err2 == nil {
				t = t2
			} else {
				return 0, fmt.Errorf("invalid hour %q: %w", s, err)
			}
		}
		if t.Minute() != 0 {
			return 0, fmt.Errorf("invalid hour %q: blocks start on the hour", s)
		}
		return t.Hour(), nil
	}
	var h int
	if _, err := fmt.Sscanf(s, "%d", &h); err != nil {
		return 0, fmt.Errorf("invalid hour %q: %w", s, err)
	}
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour %d: must be between 0 and 23", h)
	}
	return h, nil
}

// Calendar fixes the scheduling day and hour to one clock and one zone.
type Calendar struct {
	Now Clock
	Loc *time.Location
}

// NewCalendar returns a calendar on the system clock in loc.
func NewCalendar(loc *time.Location) Calendar {
	return Calendar{Now: SystemClock, Loc: loc}
}

func (c Calendar) clock() Clock {
	if c.Now == nil {
		return SystemClock
	}
	return c.Now
}

// Today returns the current day key.
func (c Calendar) Today() string {
	return DayKey(c.clock()(), c.Loc)
}

// Hour returns the current wall-clock hour.
func (c Calendar) Hour() int {
	return HourIn(c.clock()(), c.Loc)
}

// Window returns a func yielding the oldest day key of a window of days
// ending today. A window of 1 is today only.
func (c Calendar) Window(days int) func() string {
	return func() string {
		today := c.Today()
		oldest, err := ShiftDay(today, -(days - 1))
		if err != nil {
			return today
		}
		return oldest
	}
}

// Instant returns the current time.
func (c Calendar) Instant() time.Time {
	return c.clock()()
}
