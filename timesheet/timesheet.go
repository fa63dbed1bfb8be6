package timesheet

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Entry is one work log row from the YAML timesheet. Exactly one of
// (StartTime & EndTime) or DurationHours must be set.
type Entry struct {
	Date          string   `yaml:"date"`
	StartTime     string   `yaml:"start_time"`
	EndTime       string   `yaml:"end_time"`
	DurationHours *float64 `yaml:"duration_hours"`
	Description   string   `yaml:"description"`
	Billed        *bool    `yaml:"billed"`
	Timezone      string   `yaml:"timezone"`
	TaskID        int64    `yaml:"task_id"`
}

func (e Entry) hasRange() bool {
	return e.StartTime != "" && e.EndTime != ""
}

// Sheet is a timesheet file: one matter, an optional hourly rate, and the
// entries to submit against it.
type Sheet struct {
	Matter  string  `yaml:"matter"`
	Rate    float64 `yaml:"rate"`
	Entries []Entry `yaml:"entries"`
}

// ValidationError marks a malformed timesheet or entry. It is fatal to the
// whole file's processing.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid timesheet: " + e.Reason
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Load reads and parses a timesheet YAML file.
func Load(path string) (*Sheet, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timesheet %s: %w", path, err)
	}
	sheet, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("timesheet %s: %w", path, err)
	}
	return sheet, nil
}

// Parse parses raw timesheet YAML content.
func Parse(content []byte) (*Sheet, error) {
	var sheet Sheet
	if err := yaml.Unmarshal(content, &sheet); err != nil {
		return nil, fmt.Errorf("parse timesheet yaml: %w", err)
	}
	if len(sheet.Entries) == 0 {
		return nil, validationErrorf("must have a non-empty 'entries' field")
	}
	return &sheet, nil
}
