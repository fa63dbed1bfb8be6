package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"paymoctl/paymo"
)

const (
	KeyAPIKey   = "api_key"
	KeyBaseURL  = "base_url"
	KeyTimezone = "timezone"
	KeyProjects = "projects"

	DefaultTimezone = "America/Chicago"
)

type Config struct {
	APIKey   string                    `mapstructure:"api_key" validate:"required"`
	BaseURL  string                    `mapstructure:"base_url" validate:"required,url"`
	Timezone string                    `mapstructure:"timezone" validate:"required"`
	Projects map[string]ProjectMapping `mapstructure:"projects"`
}

// ProjectMapping pins a matter name to an exact project/task pair so no
// remote name lookup is needed.
type ProjectMapping struct {
	ProjectID int64 `mapstructure:"project_id"`
	TaskID    int64 `mapstructure:"task_id"`
}

// Location returns the configured default timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Mapping looks up the project/task pair for a matter name.
func (c *Config) Mapping(matter string) (ProjectMapping, bool) {
	mapping, ok := c.Projects[matter]
	return mapping, ok
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# paymoctl configuration
api_key: "your-paymo-api-key"
timezone: "America/Chicago"

# Optional: pin matter names to exact project/task pairs.
# Unmapped matters fall back to a remote name search.
projects: {}
#  "Acme Litigation":
#    project_id: 12345
#    task_id: 67890
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("validation failed: invalid timezone %q", cfg.Timezone)
	}
	if err := validateProjects(cfg.Projects); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyBaseURL, paymo.DefaultBaseURL)
	v.SetDefault(KeyTimezone, DefaultTimezone)
	v.SetDefault(KeyProjects, map[string]any{})
}

func validateProjects(projects map[string]ProjectMapping) error {
	for matter, mapping := range projects {
		if strings.TrimSpace(matter) == "" {
			return fmt.Errorf("validation failed: projects contains an empty matter name")
		}
		if mapping.ProjectID <= 0 || mapping.TaskID <= 0 {
			return fmt.Errorf(
				"validation failed: projects[%q] requires project_id/task_id > 0",
				matter,
			)
		}
	}
	return nil
}
