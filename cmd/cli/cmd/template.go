package cmd

import (
	"postforge/pkg/api"

	"github.com/spf13/cobra"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage generation templates",
}

var templateCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new generation template",
	Long: `Create a template: the prompts and post settings a schedule generates from.

Example:
  forgectl template create --name "weekly-news" --content-prompt "Write a news roundup about {{topic}}"
  forgectl template create --name "guides" --content-prompt "Write a guide to {{topic}}" --image-source stock_photo --stock-keywords "{{topic}}"`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		contentPrompt, _ := flags.GetString("content-prompt")
		titlePrompt, _ := flags.GetString("title-prompt")
		imagePrompt, _ := flags.GetString("image-prompt")
		postStatus, _ := flags.GetString("post-status")
		category, _ := flags.GetString("category")
		author, _ := flags.GetString("author")
		generateImage, _ := flags.GetBool("generate-image")
		imageSource, _ := flags.GetString("image-source")
		stockKeywords, _ := flags.GetString("stock-keywords")
		mediaIDs, _ := flags.GetStringSlice("media-ids")

		client, ok := newClient(cmd)
		if !ok {
			return
		}

		if name == "" {
			cmd.Println("Error: --name is required")
			return
		}
		if contentPrompt == "" {
			cmd.Println("Error: --content-prompt is required")
			return
		}

		result, err := client.CreateTemplate(api.CreateTemplateRequest{
			Name:          name,
			ContentPrompt: contentPrompt,
			TitlePrompt:   titlePrompt,
			ImagePrompt:   imagePrompt,
			PostStatus:    postStatus,
			PostCategory:  category,
			PostAuthor:    author,
			GenerateImage: generateImage,
			ImageSource:   imageSource,
			StockKeywords: stockKeywords,
			MediaIDs:      mediaIDs,
		})
		if err != nil {
			printClientError(cmd, err)
			return
		}

		cmd.Printf("✓ Template created!\nID: %s\nName: %s\n", result.TemplateID, name)
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	Run: func(cmd *cobra.Command, args []string) {
		client, ok := newClient(cmd)
		if !ok {
			return
		}

		templates, err := client.ListTemplates()
		if err != nil {
			printClientError(cmd, err)
			return
		}
		if len(templates) == 0 {
			cmd.Println("No templates found")
			return
		}

		for _, t := range templates {
			cmd.Printf("%s  %-24s status=%s image=%v\n", t.ID, t.Name, t.PostStatus, t.GenerateImage)
		}
	},
}

func init() {
	flags := templateCreateCmd.Flags()
	flags.StringP("name", "n", "", "Name of the template (required)")
	flags.String("content-prompt", "", "Prompt that generates the article body (required)")
	flags.String("title-prompt", "", "Prompt that generates the title (optional)")
	flags.String("image-prompt", "", "Prompt that generates the featured image (optional)")
	flags.String("post-status", "", "Post status for published artifacts (default: draft)")
	flags.String("category", "", "Post category (optional)")
	flags.String("author", "", "Post author (optional)")
	flags.Bool("generate-image", false, "Generate a featured image")
	flags.String("image-source", "", "Featured image source: ai_prompt, stock_photo or media_library")
	flags.String("stock-keywords", "", "Stock photo search keywords")
	flags.StringSlice("media-ids", []string{}, "Media library IDs to pick from")

	templateCmd.AddCommand(templateCreateCmd)
	templateCmd.AddCommand(templateListCmd)
	rootCmd.AddCommand(templateCmd)
}
