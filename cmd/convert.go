package cmd

import (
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

func newConvertCmd(configPath *string) *cobra.Command {
	var (
		outDir string
		dpi    int
		format string
	)

	cmd := &cobra.Command{
		Use:   "convert <pdf>",
		Short: "Convert a local PDF to page images",
		Example: `  # Convert at 300 DPI to JPEG
  pdf-highlight-api convert scan.pdf --dpi 300 --format jpg --out pages`,
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

			result, err := service.Convert(doc, analysis.Options{
				Filename: filepath.Base(args[0]),
				DPI:      dpi,
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
			written := 0
			for _, pr := range result.Pages {
				if len(pr.Image) == 0 {
					return fmt.Errorf("page %d failed: %s", pr.Page, pr.Warning)
				}
				name := fmt.Sprintf("%s_page_%d.%s", base, pr.Page, outFormat.Ext())
				if err := os.WriteFile(filepath.Join(outDir, name), pr.Image, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", name, err)
				}
				written++
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d page images to %s\n", written, outDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "out", "Output directory")
	cmd.Flags().IntVar(&dpi, "dpi", 0, "Render resolution (config default when 0)")
	cmd.Flags().StringVar(&format, "format", "png", "Output image format: png, jpg or webp")

	return cmd
}
