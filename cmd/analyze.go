package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/em0-omg/pdf-highlight-api/internal/analysis"
	"github.com/em0-omg/pdf-highlight-api/internal/config"
	"github.com/em0-omg/pdf-highlight-api/internal/imgenc"
	"github.com/em0-omg/pdf-highlight-api/internal/pdfimage"
)

func newAnalyzeCmd(configPath *string) *cobra.Command {
	var (
		outDir     string
		provider   string
		model      string
		targetPath string
		dpi        int
		format     string
	)

	cmd := &cobra.Command{
		Use:   "analyze <pdf>",
		Short: "Detect a visual pattern in a local PDF",
		Long: `Runs the detection pipeline against a local PDF without starting the
HTTP server. Annotated page images and a JSON summary are written to the
output directory.`,
		Example: `  # Analyze with the default provider
  pdf-highlight-api analyze scan.pdf --out results

  # Match against a reference pattern image using Ollama
  pdf-highlight-api analyze scan.pdf --target stamp.png --provider ollama`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			service, err := analysis.NewService(cfg)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read PDF: %w", err)
			}

			var target []byte
			if targetPath != "" {
				target, err = os.ReadFile(targetPath)
				if err != nil {
					return fmt.Errorf("failed to read target image: %w", err)
				}
			}

			outFormat, err := imgenc.ParseFormat(format)
			if err != nil {
				return err
			}
			if dpi == 0 {
				dpi = cfg.Render.DefaultDPI
			}

			doc, err := pdfimage.Open(data)
			if err != nil {
				return err
			}
			defer doc.Close()

			result, err := service.Analyze(cmd.Context(), doc, analysis.Options{
				Filename: filepath.Base(args[0]),
				DPI:      dpi,
				Provider: provider,
				Model:    model,
				Target:   target,
				Annotate: true,
				Format:   outFormat,
				Quality:  cfg.Render.Quality,
			})
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			for _, pr := range result.Pages {
				if len(pr.Annotated) == 0 {
					continue
				}
				name := fmt.Sprintf("%s_page_%d.%s", base, pr.Page, outFormat.Ext())
				if err := os.WriteFile(filepath.Join(outDir, name), pr.Annotated, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", name, err)
				}
			}

			summary, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			summaryPath := filepath.Join(outDir, base+"_analysis.json")
			if err := os.WriteFile(summaryPath, summary, 0644); err != nil {
				return fmt.Errorf("failed to write summary: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d detections across %d pages; summary written to %s\n",
				result.TotalDetections, result.PageCount, summaryPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "out", "Output directory")
	cmd.Flags().StringVar(&provider, "provider", "", "Detection provider: gemini, ollama or openai")
	cmd.Flags().StringVar(&model, "model", "", "Model name (provider default when empty)")
	cmd.Flags().StringVar(&targetPath, "target", "", "Reference pattern image to locate")
	cmd.Flags().IntVar(&dpi, "dpi", 0, "Render resolution (config default when 0)")
	cmd.Flags().StringVar(&format, "format", "png", "Output image format: png, jpg or webp")

	return cmd
}
