package config

import (
	"strings"
	"testing"
)

func TestValidateYAMLContent_AcceptsFullConfig(t *testing.T) {
	t.Parallel()

	content := []byte(`api_key: "abc123"
timezone: "America/Chicago"
projects:
  "Acme Litigation":
    project_id: 12345
    task_id: 67890
`)

	cfg, err := ValidateYAMLContent(content)
	if err != nil {
		t.Fatalf("expected config to validate: %v", err)
	}
	if cfg.APIKey != "abc123" {
		t.Fatalf("unexpected api key: %q", cfg.APIKey)
	}
	mapping, ok := cfg.Mapping("Acme Litigation")
	if !ok {
		t.Fatalf("expected mapping for matter")
	}
	if mapping.ProjectID != 12345 || mapping.TaskID != 67890 {
		t.Fatalf("unexpected mapping: %+v", mapping)
	}
}

func TestValidateYAMLContent_DefaultsTimezoneAndBaseURL(t *testing.T) {
	t.Parallel()

	content := []byte(`api_key: "abc123"
`)

	cfg, err := ValidateYAMLContent(content)
	if err != nil {
		t.Fatalf("expected config to validate: %v", err)
	}
	if cfg.Timezone != DefaultTimezone {
		t.Fatalf("unexpected default timezone: %q", cfg.Timezone)
	}
	if !strings.Contains(cfg.BaseURL, "paymoapp.com") {
		t.Fatalf("unexpected default base url: %q", cfg.BaseURL)
	}
	if _, err := cfg.Location(); err != nil {
		t.Fatalf("default timezone must load: %v", err)
	}
}

func TestValidateYAMLContent_RejectsMissingAPIKey(t *testing.T) {
	t.Parallel()

	content := []byte(`timezone: "America/Chicago"
`)

	_, err := ValidateYAMLContent(content)
	if err == nil {
		t.Fatalf("expected validation error for missing api_key")
	}
}

func TestValidateYAMLContent_RejectsBadTimezone(t *testing.T) {
	t.Parallel()

	content := []byte(`api_key: "abc123"
timezone: "Mars/Olympus_Mons"
`)

	_, err := ValidateYAMLContent(content)
	if err == nil {
		t.Fatalf("expected validation error for bad timezone")
	}
	if !strings.Contains(err.Error(), "timezone") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateYAMLContent_RejectsIncompleteMapping(t *testing.T) {
	t.Parallel()

	content := []byte(`api_key: "abc123"
projects:
  "Acme Litigation":
    project_id: 12345
`)

	_, err := ValidateYAMLContent(content)
	if err == nil {
		t.Fatalf("expected validation error for mapping without task_id")
	}
	if !strings.Contains(err.Error(), "task_id") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExampleYAML_Validates(t *testing.T) {
	t.Parallel()

	example := strings.Replace(ExampleYAML(), "your-paymo-api-key", "abc123", 1)
	if _, err := ValidateYAMLContent([]byte(example)); err != nil {
		t.Fatalf("example config must validate: %v", err)
	}
}
