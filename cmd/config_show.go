package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"paymoctl/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values. The API key
is masked.`,
	Example: `
  # Show active configuration
  paymoctl config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
		}
		fmt.Println("Configuration:")
		fmt.Printf("api_key: %s\n", maskAPIKey(cfg.APIKey))
		fmt.Printf("base_url: %s\n", cfg.BaseURL)
		fmt.Printf("timezone: %s\n", cfg.Timezone)
		fmt.Printf("projects: %d\n", len(cfg.Projects))

		matters := make([]string, 0, len(cfg.Projects))
		for matter := range cfg.Projects {
			matters = append(matters, matter)
		}
		sort.Strings(matters)
		for _, matter := range matters {
			mapping := cfg.Projects[matter]
			fmt.Printf("projects[%q].project_id: %d\n", matter, mapping.ProjectID)
			fmt.Printf("projects[%q].task_id: %d\n", matter, mapping.TaskID)
		}
	},
}

func maskAPIKey(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
