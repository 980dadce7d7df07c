package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "pdf-highlight-api",
		Short: "PDF page rendering and visual pattern detection service",
		Long: `pdf-highlight-api converts uploaded PDFs to page images and locates
visual patterns on them using vision-capable LLMs (Gemini, Ollama or
OpenAI), drawing highlight annotations on matching pages.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")

	// Add subcommands
	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newAnalyzeCmd(&configPath))
	cmd.AddCommand(newConvertCmd(&configPath))

	return cmd
}
