package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"frienddump/pkg/config"
	"frienddump/pkg/ui"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage frienddump configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (FRIENDDUMP_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Long: `Write the default configuration to .frienddump.yaml, or to the path
given with --config. The remote endpoints are left empty; fill them in
before logging in.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report missing endpoints and unusable paths",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configCheckCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".frienddump.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Fprintln(ui.Output(), "\nNext steps:")
	fmt.Fprintln(ui.Output(), "1. Fill in the api endpoints")
	fmt.Fprintln(ui.Output(), "2. Run 'frienddump config check'")
	fmt.Fprintln(ui.Output(), "3. Log in with 'frienddump auth cookie'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprint(ui.Output(), string(data))
	return nil
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	warnings := configWarnings(cfg)
	for _, w := range warnings {
		ui.PrintWarning(w)
	}

	var problems []error
	if err := os.MkdirAll(cfg.Dump.OutputDirectory, 0755); err != nil {
		problems = append(problems, fmt.Errorf("cannot create output directory: %w", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Errorf("cannot create log directory: %w", err))
		}
	}
	if len(problems) > 0 {
		return errors.Join(problems...)
	}

	if len(warnings) == 0 {
		ui.PrintSuccess("Configuration is complete")
	}
	return nil
}

// configWarnings lists features that are unavailable with cfg
func configWarnings(cfg *config.Config) []string {
	var warnings []string
	if cfg.API.OAuthStatusURL == "" && cfg.API.TokenAPIURL == "" {
		warnings = append(warnings, "no token endpoint configured: cookie login is unavailable")
	} else if cfg.API.OAuthStatusURL != "" && cfg.API.OAuthClientID == "" {
		warnings = append(warnings, "api.oauth_client_id is empty")
	}
	if cfg.API.LoginAPIURL == "" {
		warnings = append(warnings, "api.login_api_url is empty: password login is unavailable")
	}
	if cfg.API.UIDAPIURL == "" {
		warnings = append(warnings, "api.uid_api_url is empty: profile URLs cannot be resolved")
	}
	return warnings
}
