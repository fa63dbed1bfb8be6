package timesheet

import (
	"math"
	"time"

	"paymoctl/internal/timeutil"
	"paymoctl/paymo"
)

// BuildAPIEntry converts one timesheet entry into the provider's wire shape.
// Range entries are localized in the entry's (or default) timezone and sent
// as UTC instants; duration entries are sent as date plus whole seconds.
func BuildAPIEntry(entry Entry, defaultTaskID int64, defaultLoc *time.Location) (paymo.NewEntry, error) {
	taskID := entry.TaskID
	if taskID <= 0 {
		taskID = defaultTaskID
	}
	apiEntry := paymo.NewEntry{TaskID: taskID}

	loc := defaultLoc
	if entry.Timezone != "" {
		parsed, err := time.LoadLocation(entry.Timezone)
		if err != nil {
			return paymo.NewEntry{}, validationErrorf("entry %s: unknown timezone %q", entry.Date, entry.Timezone)
		}
		loc = parsed
	}

	switch {
	case entry.hasRange():
		start, err := timeutil.CombineLocal(entry.Date, entry.StartTime, loc)
		if err != nil {
			return paymo.NewEntry{}, validationErrorf("entry %s: bad start_time: %v", entry.Date, err)
		}
		end, err := timeutil.CombineLocal(entry.Date, entry.EndTime, loc)
		if err != nil {
			return paymo.NewEntry{}, validationErrorf("entry %s: bad end_time: %v", entry.Date, err)
		}
		apiEntry.StartTime = timeutil.FormatUTC(start)
		apiEntry.EndTime = timeutil.FormatUTC(end)
	case entry.DurationHours != nil:
		if _, err := timeutil.ParseDay(entry.Date); err != nil {
			return paymo.NewEntry{}, validationErrorf("entry %q: bad date: %v", entry.Date, err)
		}
		apiEntry.Date = entry.Date
		apiEntry.Duration = int(math.Round(*entry.DurationHours * 3600))
	default:
		return paymo.NewEntry{}, validationErrorf(
			"entry %s must have either (start_time, end_time) or duration_hours",
			entry.Date,
		)
	}

	if entry.Description != "" {
		apiEntry.Description = entry.Description
	}
	if entry.Billed != nil {
		apiEntry.Billed = entry.Billed
	}

	return apiEntry, nil
}

// EntryDuration computes an entry's duration in hours for previews.
func EntryDuration(entry Entry, defaultLoc *time.Location) (float64, error) {
	if entry.DurationHours != nil {
		return *entry.DurationHours, nil
	}
	if !entry.hasRange() {
		return 0, validationErrorf(
			"entry %s must have either (start_time, end_time) or duration_hours",
			entry.Date,
		)
	}

	loc := defaultLoc
	if entry.Timezone != "" {
		parsed, err := time.LoadLocation(entry.Timezone)
		if err != nil {
			return 0, validationErrorf("entry %s: unknown timezone %q", entry.Date, entry.Timezone)
		}
		loc = parsed
	}

	start, err := timeutil.CombineLocal(entry.Date, entry.StartTime, loc)
	if err != nil {
		return 0, validationErrorf("entry %s: bad start_time: %v", entry.Date, err)
	}
	end, err := timeutil.CombineLocal(entry.Date, entry.EndTime, loc)
	if err != nil {
		return 0, validationErrorf("entry %s: bad end_time: %v", entry.Date, err)
	}

	return end.Sub(start).Hours(), nil
}
