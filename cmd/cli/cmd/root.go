package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "forgectl",
	Short: "Forgectl is a command line tool for the postforge content pipeline",
	Long: `forgectl is the command-line interface for the postforge scheduled
content generation pipeline.

Postforge turns templates into published articles on a schedule: a worker
polls for due schedules, claims them, generates content through an AI
provider, and publishes the result to your CMS. Every run leaves a full
audit trail in the history log.

Common workflows:

  Create a template:
    forgectl template create --name "weekly-news" --content-prompt "Write about {{topic}}"

  Schedule it:
    forgectl schedule create --template <template-id> --frequency daily --topic "sea otters"

  Trigger a run immediately:
    forgectl schedule run <schedule-id>

  Inspect a run:
    forgectl history logs <history-id>

  Check the AI gate:
    forgectl resilience status

Configuration:
  Set the API endpoint and credentials via environment variables or a config file:
    POSTFORGE_URL      API endpoint (default: http://localhost:6161)
    POSTFORGE_TOKEN    API key for authentication`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".forgectl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".forgectl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "POSTFORGE_VARNAME"
	viper.SetEnvPrefix("POSTFORGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.forgectl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:6161", "Postforge Controller URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "API key for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}
