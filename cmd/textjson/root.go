package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/textjson/internal/api"
	"github.com/jackzampolin/textjson/internal/config"
	"github.com/jackzampolin/textjson/version"
)

var (
	cfgFile      string
	envFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "textjson",
	Short: "Extract structured JSON from unstructured text with Gemini",
	Long: `textjson is an HTTP service that turns unstructured text into JSON.

Callers send the text and a target schema; the service asks Gemini to
produce a JSON document shaped like the schema and returns it verbatim.

Configuration is read from (highest precedence first):
  - environment variables (GEMINI_API_KEY, GOOGLE_API_KEY, TEXTJSON_*)
  - textjson.yaml in ./ or ~/.textjson (or --config)
  - a .env file in the working directory (or --env-file)`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./textjson.yaml or ~/.textjson/textjson.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&envFile, "env-file", "", "dotenv file to read (default: ./.env)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// loadSettings reads settings using the global --config and --env-file flags.
func loadSettings() (*config.Manager, error) {
	return config.NewManager(config.Options{
		ConfigFile: cfgFile,
		EnvFile:    envFile,
	})
}
