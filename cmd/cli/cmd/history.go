package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect generation run history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent generation runs",
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")

		client, ok := newClient(cmd)
		if !ok {
			return
		}

		records, err := client.ListHistory(limit)
		if err != nil {
			printClientError(cmd, err)
			return
		}
		if len(records) == 0 {
			cmd.Println("No runs recorded")
			return
		}

		for _, rec := range records {
			icon := statusIcon(rec.Status)
			cmd.Printf("%s #%-6d %-9s %-10s started=%s",
				icon, rec.ID, rec.RunType, rec.Status, rec.CreatedAt.Format(time.RFC3339))
			if rec.ArtifactID != "" {
				cmd.Printf(" artifact=%s", rec.ArtifactID)
			}
			if rec.ErrorMessage != "" {
				cmd.Printf(" error=%q", rec.ErrorMessage)
			}
			cmd.Println()
		}
	},
}

var historyLogsCmd = &cobra.Command{
	Use:   "logs [history_id]",
	Short: "Show the log trail of a generation run",
	Long:  `Print every log entry recorded during a run, including the AI prompts and responses. Use --after to page through long trails.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		after, _ := cmd.Flags().GetInt64("after")

		client, ok := newClient(cmd)
		if !ok {
			return
		}

		entries, err := client.GetHistoryLogs(args[0], after)
		if err != nil {
			printClientError(cmd, err)
			return
		}
		if len(entries) == 0 {
			cmd.Println("No log entries")
			return
		}

		for _, e := range entries {
			cmd.Printf("[%s] #%d %-11s %s\n", e.CreatedAt.Format("15:04:05"), e.ID, e.LogType, e.Message)
			if e.Input != "" {
				cmd.Printf("    input: %s\n", e.Input)
			}
			if e.Output != "" {
				cmd.Printf("    output: %s\n", e.Output)
			}
		}
	},
}

func statusIcon(status string) string {
	switch status {
	case "completed":
		return "✓"
	case "failed":
		return "✗"
	case "processing":
		return "…"
	default:
		return "?"
	}
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "Maximum number of runs to show")
	historyLogsCmd.Flags().Int64("after", 0, "Only show entries after this log ID")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyLogsCmd)
	rootCmd.AddCommand(historyCmd)
}
