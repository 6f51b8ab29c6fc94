package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/textjson/internal/api"
	"github.com/jackzampolin/textjson/internal/config"
	"github.com/jackzampolin/textjson/internal/server/endpoints"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter config file",
	Long: `Write a starter config file (default: ./textjson.yaml).

API keys in the generated file reference environment variables with
${VAR} syntax so secrets stay out of the file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "textjson.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

// effectiveConfig is what `config show` prints. Keys are never echoed.
type effectiveConfig struct {
	ConfigFile                 string `json:"config_file,omitempty" yaml:"config_file,omitempty"`
	endpoints.SettingsResponse `yaml:",inline"`
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (API keys redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := loadSettings()
		if err != nil {
			return err
		}
		return api.Output(effectiveConfig{
			ConfigFile:       mgr.ConfigFileUsed(),
			SettingsResponse: endpoints.NewSettingsResponse(mgr.Get()),
		})
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
