package timesheet

import (
	"errors"
	"testing"
	"time"
)

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func floatPtr(value float64) *float64 {
	return &value
}

func boolPtr(value bool) *bool {
	return &value
}

func TestBuildAPIEntry_RangeConvertsToUTC(t *testing.T) {
	t.Parallel()

	entry := Entry{
		Date:      "2024-01-15",
		StartTime: "09:00",
		EndTime:   "11:30",
		Timezone:  "America/Chicago",
	}

	apiEntry, err := BuildAPIEntry(entry, 777, time.UTC)
	if err != nil {
		t.Fatalf("build api entry: %v", err)
	}

	// CST is UTC-6.
	if apiEntry.StartTime != "2024-01-15T15:00:00Z" {
		t.Fatalf("unexpected start_time: %q", apiEntry.StartTime)
	}
	if apiEntry.EndTime != "2024-01-15T17:30:00Z" {
		t.Fatalf("unexpected end_time: %q", apiEntry.EndTime)
	}
	if apiEntry.TaskID != 777 {
		t.Fatalf("unexpected task id: %d", apiEntry.TaskID)
	}
	if apiEntry.Date != "" || apiEntry.Duration != 0 {
		t.Fatalf("range entry must not carry date/duration: %+v", apiEntry)
	}
}

func TestBuildAPIEntry_RangeUsesDefaultTimezone(t *testing.T) {
	t.Parallel()

	entry := Entry{Date: "2024-01-15", StartTime: "09:00", EndTime: "10:00"}

	apiEntry, err := BuildAPIEntry(entry, 777, chicago(t))
	if err != nil {
		t.Fatalf("build api entry: %v", err)
	}
	if apiEntry.StartTime != "2024-01-15T15:00:00Z" {
		t.Fatalf("unexpected start_time: %q", apiEntry.StartTime)
	}
}

func TestBuildAPIEntry_DurationRoundsToSeconds(t *testing.T) {
	t.Parallel()

	entry := Entry{Date: "2024-01-15", DurationHours: floatPtr(1.5)}

	apiEntry, err := BuildAPIEntry(entry, 777, time.UTC)
	if err != nil {
		t.Fatalf("build api entry: %v", err)
	}
	if apiEntry.Date != "2024-01-15" {
		t.Fatalf("unexpected date: %q", apiEntry.Date)
	}
	if apiEntry.Duration != 5400 {
		t.Fatalf("unexpected duration: %d", apiEntry.Duration)
	}
	if apiEntry.StartTime != "" || apiEntry.EndTime != "" {
		t.Fatalf("duration entry must not carry a time range: %+v", apiEntry)
	}

	// Reversing recovers the hours within rounding.
	if got := float64(apiEntry.Duration) / 3600; got != 1.5 {
		t.Fatalf("duration does not reverse to hours: %f", got)
	}
}

func TestBuildAPIEntry_PassThroughFields(t *testing.T) {
	t.Parallel()

	entry := Entry{
		Date:          "2024-01-15",
		DurationHours: floatPtr(2),
		Description:   "Drafted motion",
		Billed:        boolPtr(true),
		TaskID:        999,
	}

	apiEntry, err := BuildAPIEntry(entry, 777, time.UTC)
	if err != nil {
		t.Fatalf("build api entry: %v", err)
	}
	if apiEntry.TaskID != 999 {
		t.Fatalf("per-entry task id must override the default, got %d", apiEntry.TaskID)
	}
	if apiEntry.Description != "Drafted motion" {
		t.Fatalf("unexpected description: %q", apiEntry.Description)
	}
	if apiEntry.Billed == nil || !*apiEntry.Billed {
		t.Fatalf("unexpected billed flag: %+v", apiEntry.Billed)
	}
}

func TestBuildAPIEntry_NeitherShapeFailsValidation(t *testing.T) {
	t.Parallel()

	entry := Entry{Date: "2024-01-15", Description: "no time info"}

	_, err := BuildAPIEntry(entry, 777, time.UTC)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestBuildAPIEntry_BadClockFailsValidation(t *testing.T) {
	t.Parallel()

	entry := Entry{Date: "2024-01-15", StartTime: "9am", EndTime: "11:00"}

	_, err := BuildAPIEntry(entry, 777, time.UTC)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestBuildAPIEntry_UnknownTimezoneFailsValidation(t *testing.T) {
	t.Parallel()

	entry := Entry{Date: "2024-01-15", StartTime: "09:00", EndTime: "10:00", Timezone: "Mars/Olympus_Mons"}

	_, err := BuildAPIEntry(entry, 777, time.UTC)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestEntryDuration(t *testing.T) {
	t.Parallel()

	explicit := Entry{Date: "2024-01-15", DurationHours: floatPtr(3.25)}
	hours, err := EntryDuration(explicit, time.UTC)
	if err != nil {
		t.Fatalf("explicit duration: %v", err)
	}
	if hours != 3.25 {
		t.Fatalf("unexpected hours: %f", hours)
	}

	ranged := Entry{Date: "2024-01-15", StartTime: "09:00", EndTime: "11:30", Timezone: "America/Chicago"}
	hours, err = EntryDuration(ranged, time.UTC)
	if err != nil {
		t.Fatalf("range duration: %v", err)
	}
	if hours != 2.5 {
		t.Fatalf("unexpected hours: %f", hours)
	}
}

func TestParse_RequiresEntries(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("matter: Acme\nrate: 250\n"))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestParse_FullSheet(t *testing.T) {
	t.Parallel()

	content := []byte(`matter: "Acme Litigation"
rate: 250
entries:
  - date: "2024-01-15"
    start_time: "09:00"
    end_time: "11:30"
    description: "Deposition prep"
  - date: "2024-01-16"
    duration_hours: 1.5
    billed: false
`)

	sheet, err := Parse(content)
	if err != nil {
		t.Fatalf("parse sheet: %v", err)
	}
	if sheet.Matter != "Acme Litigation" || sheet.Rate != 250 {
		t.Fatalf("unexpected sheet header: %+v", sheet)
	}
	if len(sheet.Entries) != 2 {
		t.Fatalf("unexpected entry count: %d", len(sheet.Entries))
	}
	if sheet.Entries[1].DurationHours == nil || *sheet.Entries[1].DurationHours != 1.5 {
		t.Fatalf("unexpected duration_hours: %+v", sheet.Entries[1].DurationHours)
	}
	if sheet.Entries[1].Billed == nil || *sheet.Entries[1].Billed {
		t.Fatalf("unexpected billed flag: %+v", sheet.Entries[1].Billed)
	}
}
