package cmd

import (
	"postforge/pkg/api"

	"github.com/spf13/cobra"
)

var resilienceCmd = &cobra.Command{
	Use:   "resilience",
	Short: "Inspect and reset the AI call gate",
}

var resilienceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show circuit breaker and rate limiter state",
	Run: func(cmd *cobra.Command, args []string) {
		client, ok := newClient(cmd)
		if !ok {
			return
		}

		status, err := client.ResilienceStatus()
		if err != nil {
			printClientError(cmd, err)
			return
		}
		printGateStatus(cmd, status)
	},
}

var resilienceResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the circuit breaker and/or rate limiter",
	Long: `Reset the gate guarding AI provider calls.

Example:
  forgectl resilience reset                    # reset both mechanisms
  forgectl resilience reset --target breaker   # close the circuit breaker
  forgectl resilience reset --target limiter   # clear the rate limit window`,
	Run: func(cmd *cobra.Command, args []string) {
		target, _ := cmd.Flags().GetString("target")

		client, ok := newClient(cmd)
		if !ok {
			return
		}

		status, err := client.ResetResilience(target)
		if err != nil {
			printClientError(cmd, err)
			return
		}
		cmd.Println("✓ Reset applied")
		printGateStatus(cmd, status)
	},
}

func printGateStatus(cmd *cobra.Command, status *api.ResilienceStatusResponse) {
	cmd.Printf("Breaker:     %s (%d consecutive failures)\n", status.BreakerState, status.ConsecutiveFails)
	cmd.Printf("Rate window: %d/%d requests\n", status.WindowRequests, status.WindowLimit)
}

func init() {
	resilienceResetCmd.Flags().String("target", "", "What to reset: breaker, limiter or all (default: all)")

	resilienceCmd.AddCommand(resilienceStatusCmd)
	resilienceCmd.AddCommand(resilienceResetCmd)
	rootCmd.AddCommand(resilienceCmd)
}
