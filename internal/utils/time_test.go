package utils

import (
	"testing"
	"time"
)

func TestDayKeyAndHourIn(t *testing.T) {
	loc, err := LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 02:30 UTC on the 15th is still the 14th in Sao Paulo (UTC-3).
	instant := time.Date(2024, 3, 15, 2, 30, 0, 0, time.UTC)

	if got := DayKey(instant, loc); got != "2024-03-14" {
		t.Errorf("DayKey() = %q, want %q", got, "2024-03-14")
	}
	if got := HourIn(instant, loc); got != 23 {
		t.Errorf("HourIn() = %d, want 23", got)
	}
	if got := DayKey(instant, time.UTC); got != "2024-03-15" {
		t.Errorf("DayKey(UTC) = %q, want %q", got, "2024-03-15")
	}
}

func TestShiftDay(t *testing.T) {
	tests := []struct {
		day  string
		n    int
		want string
	}{
		{"2024-03-15", -6, "2024-03-09"},
		{"2024-03-01", -1, "2024-02-29"},
		{"2024-12-31", 1, "2025-01-01"},
		{"2024-03-10", 0, "2024-03-10"},
	}
	for _, tt := range tests {
		got, err := ShiftDay(tt.day, tt.n)
		if err != nil {
			t.Fatalf("ShiftDay(%q, %d) error = %v", tt.day, tt.n, err)
		}
		if got != tt.want {
			t.Errorf("ShiftDay(%q, %d) = %q, want %q", tt.day, tt.n, got, tt.want)
		}
	}

	if _, err := ShiftDay("15/03/2024", 1); err == nil {
		t.Error("ShiftDay() with bad date should fail")
	}
}

func TestParseHour(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"9", 9, false},
		{"09", 9, false},
		{"09:00", 9, false},
		{"9:00", 9, false},
		{"23", 23, false},
		{"0", 0, false},
		{"24", 0, true},
		{"-1", 0, true},
		{"09:30", 0, true},
		{"", 0, true},
		{"noon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHour(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHour(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseHour(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoadLocation(t *testing.T) {
	if loc, err := LoadLocation(""); err != nil || loc != time.Local {
		t.Errorf("LoadLocation(\"\") = %v, %v; want Local", loc, err)
	}
	if loc, err := LoadLocation("Local"); err != nil || loc != time.Local {
		t.Errorf("LoadLocation(\"Local\") = %v, %v; want Local", loc, err)
	}
	if _, err := LoadLocation("Not/AZone"); err == nil {
		t.Error("LoadLocation(invalid) should fail")
	}
	if !ValidateTimezone("UTC") {
		t.Error("ValidateTimezone(UTC) = false")
	}
}

func TestHourLabel(t *testing.T) {
	if got := HourLabel(9); got != "09:00" {
		t.Errorf("HourLabel(9) = %q", got)
	}
}

func TestCalendar(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	// 01:30 UTC is 22:30 the previous day at UTC-3.
	at := time.Date(2024, 3, 15, 1, 30, 0, 0, time.UTC)
	cal := Calendar{Now: func() time.Time { return at }, Loc: loc}

	if got := cal.Today(); got != "2024-03-14" {
		t.Errorf("Today() = %q, want 2024-03-14", got)
	}
	if got := cal.Hour(); got != 22 {
		t.Errorf("Hour() = %d, want 22", got)
	}
	if !cal.Instant().Equal(at) {
		t.Errorf("Instant() = %v", cal.Instant())
	}

	if NewCalendar(nil).Today() == "" {
		t.Error("system calendar returned an empty day")
	}
}

func TestCalendarWindow(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	cal := Calendar{Now: func() time.Time { return now }, Loc: time.UTC}

	if got := cal.Window(1)(); got != "2024-03-01" {
		t.Errorf("Window(1) = %q, want today", got)
	}
	// 2024 is a leap year.
	if got := cal.Window(2)(); got != "2024-02-29" {
		t.Errorf("Window(2) = %q, want 2024-02-29", got)
	}

	oldest := cal.Window(30)
	now = now.AddDate(0, 0, 1)
	if got := oldest(); got != "2024-02-02" {
		t.Errorf("Window(30) after a day = %q, want 2024-02-02", got)
	}
}
