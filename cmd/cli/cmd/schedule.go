package cmd

import (
	"encoding/json"
	"time"

	"postforge/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage generation schedules",
}

var scheduleCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new generation schedule",
	Long: `Create a schedule that generates content from a template on a cadence.

Example:
  forgectl schedule create --template <id> --frequency daily --topic "sea otters"
  forgectl schedule create --template <id> --frequency custom --rules '{"mode":"all","conditions":[...]}'
  forgectl schedule create --template <id> --frequency weekly --topics "tides,reefs,kelp"`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		templateID, _ := flags.GetString("template")
		frequency, _ := flags.GetString("frequency")
		topic, _ := flags.GetString("topic")
		topics, _ := flags.GetStringSlice("topics")
		rules, _ := flags.GetString("rules")
		structureID, _ := flags.GetString("structure")
		rotation, _ := flags.GetString("rotation")
		startAt, _ := flags.GetString("start-at")

		client, ok := newClient(cmd)
		if !ok {
			return
		}

		if templateID == "" {
			cmd.Println("Error: --template is required")
			return
		}
		if frequency == "" {
			cmd.Println("Error: --frequency is required")
			return
		}

		var start *time.Time
		if startAt != "" {
			parsed, err := time.Parse(time.RFC3339, startAt)
			if err != nil {
				cmd.Printf("Error: --start-at must be RFC3339, got %q\n", startAt)
				return
			}
			start = &parsed
		}

		// Multiple topics fan out into one schedule per topic.
		if len(topics) > 0 {
			result, err := client.BulkCreateSchedules(api.BulkCreateSchedulesRequest{
				TemplateID: templateID,
				Frequency:  frequency,
				StartAt:    start,
				Topics:     topics,
				Rotation:   rotation,
			})
			if err != nil {
				printClientError(cmd, err)
				return
			}
			cmd.Printf("✓ %d schedules created!\n", len(result.ScheduleIDs))
			for _, id := range result.ScheduleIDs {
				cmd.Printf("  %s\n", id)
			}
			return
		}

		req := api.CreateScheduleRequest{
			TemplateID:  templateID,
			Frequency:   frequency,
			StartAt:     start,
			Topic:       topic,
			StructureID: structureID,
			Rotation:    rotation,
		}
		if rules != "" {
			req.Rules = json.RawMessage(rules)
		}

		result, err := client.CreateSchedule(req)
		if err != nil {
			printClientError(cmd, err)
			return
		}

		cmd.Printf("✓ Schedule created!\nID: %s\nNext run: %s\n", result.ScheduleID, result.NextRun)
	},
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List schedules",
	Run: func(cmd *cobra.Command, args []string) {
		activeOnly, _ := cmd.Flags().GetBool("active")

		client, ok := newClient(cmd)
		if !ok {
			return
		}

		schedules, err := client.ListSchedules(activeOnly)
		if err != nil {
			printClientError(cmd, err)
			return
		}
		if len(schedules) == 0 {
			cmd.Println("No schedules found")
			return
		}

		for _, s := range schedules {
			marker := " "
			if s.IsActive {
				marker = "*"
			}
			cmd.Printf("%s %s  %-14s next=%s topic=%q\n",
				marker, s.ID, s.Frequency, s.NextRun.Format(time.RFC3339), s.Topic)
		}
	},
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run [schedule_id]",
	Short: "Trigger a generation run immediately",
	Long:  `Run a schedule right now, outside its regular cadence. The run executes synchronously and the next scheduled run is unaffected.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, ok := newClient(cmd)
		if !ok {
			return
		}

		result, err := client.RunSchedule(args[0])
		if err != nil {
			printClientError(cmd, err)
			return
		}

		cmd.Printf("🚀 Run complete!\nHistory ID: %d\nArtifact: %s\n", result.HistoryID, result.ArtifactID)
	},
}

var scheduleDeleteCmd = &cobra.Command{
	Use:   "delete [schedule_id]",
	Short: "Delete a schedule",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, ok := newClient(cmd)
		if !ok {
			return
		}

		if err := client.DeleteSchedule(args[0]); err != nil {
			printClientError(cmd, err)
			return
		}
		cmd.Println("✓ Schedule deleted")
	},
}

// newClient builds an API client from the resolved configuration.
func newClient(cmd *cobra.Command) (*ForgeClient, bool) {
	url := viper.GetString("url")
	token := viper.GetString("token")

	if token == "" {
		cmd.Println("API token not found. Please set it using the --token flag or the POSTFORGE_TOKEN environment variable")
		return nil, false
	}
	return NewForgeClient(url, token), true
}

func printClientError(cmd *cobra.Command, err error) {
	if apiErr, ok := err.(*APIError); ok {
		cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
		return
	}
	cmd.Printf("Error: %v\n", err)
}

func init() {
	flags := scheduleCreateCmd.Flags()
	flags.String("template", "", "Template ID to generate from (required)")
	flags.StringP("frequency", "f", "", "Cadence: hourly, daily, weekly, monthly, once, custom, ... (required)")
	flags.String("topic", "", "Topic injected into the template prompts")
	flags.StringSlice("topics", []string{}, "Create one schedule per topic")
	flags.String("rules", "", "Rule set JSON for custom frequency")
	flags.String("structure", "", "Fixed structure ID")
	flags.String("rotation", "", "Structure rotation: sequential, random, weighted, alternating")
	flags.String("start-at", "", "First run time (RFC3339, default: now)")

	scheduleListCmd.Flags().Bool("active", false, "Only show active schedules")

	scheduleCmd.AddCommand(scheduleCreateCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleRunCmd)
	scheduleCmd.AddCommand(scheduleDeleteCmd)
	rootCmd.AddCommand(scheduleCmd)
}
