/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"paymoctl/config"
	"paymoctl/paymo"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "paymoctl",
	Short: "Submit, export, and reconcile Paymo time entries from YAML timesheets.",
	Long: `This CLI submits YAML timesheets to Paymo, lists projects/tasks/entries,
exports entries to CSV or Excel, and matches entries against invoices.

It can also run as a stdio tool server so an LLM assistant can drive the
same operations.`,
	Example: `
  # Create configuration file
  paymoctl config create

  # Preview a timesheet without touching the API
  paymoctl preview january.yaml

  # Submit a timesheet (batch create with per-entry fallback)
  paymoctl submit january.yaml

  # Export a date range to CSV
  paymoctl export-timesheet --start 2024-01-01 --end 2024-01-31 --output january.csv

  # Export the entries behind every outstanding invoice
  paymoctl export-invoice-timesheets --last-week

  # Run the stdio tool server
  paymoctl serve
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.paymoctl.yaml, then ./.paymoctl.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".paymoctl" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".paymoctl")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Create one first with: paymoctl config create")
	}
}

// loadClient validates the active config and builds the API client from it.
func loadClient() (*config.Config, paymo.Client, error) {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return nil, nil, err
	}

	client, err := paymo.NewClient(paymo.ClientConfig{
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		UserAgent: "paymoctl/1.0",
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}
