package cmd

import (
	"postforge/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new API key",
	Long:  `Create an API key for the controller. The plaintext key is printed exactly once; only its hash is stored server-side.`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		rateLimit, _ := flags.GetInt("rate-limit")

		// Key creation is the bootstrap path and needs no token.
		client := NewForgeClient(viper.GetString("url"), viper.GetString("token"))

		if name == "" {
			cmd.Println("Error: --name is required")
			return
		}

		result, err := client.CreateAPIKey(api.CreateAPIKeyRequest{
			Name:      name,
			RateLimit: rateLimit,
		})
		if err != nil {
			printClientError(cmd, err)
			return
		}

		cmd.Printf("✓ Key created!\nID: %s\nKey: %s\n\nStore this key now; it cannot be retrieved again.\n", result.KeyID, result.Key)
	},
}

func init() {
	flags := keysCreateCmd.Flags()
	flags.StringP("name", "n", "", "Name of the key (required)")
	flags.Int("rate-limit", 0, "Requests per second, 0 for unlimited")

	keysCmd.AddCommand(keysCreateCmd)
	rootCmd.AddCommand(keysCmd)
}
