package analysis

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math/rand"
	"os"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/em0-omg/pdf-highlight-api/internal/annotate"
	"github.com/em0-omg/pdf-highlight-api/internal/config"
	"github.com/em0-omg/pdf-highlight-api/internal/detect"
	"github.com/em0-omg/pdf-highlight-api/internal/gemini"
	"github.com/em0-omg/pdf-highlight-api/internal/highlight"
	"github.com/em0-omg/pdf-highlight-api/internal/imgenc"
	"github.com/em0-omg/pdf-highlight-api/internal/ollama"
	"github.com/em0-omg/pdf-highlight-api/internal/openai"
	"github.com/em0-omg/pdf-highlight-api/internal/pdfimage"
	"github.com/em0-omg/pdf-highlight-api/internal/providers"
)

// maxPageWorkers bounds concurrent page rendering and provider calls.
const maxPageWorkers = 4

// Service runs the render/detect/normalize/annotate pipeline.
type Service struct {
	cfg        *config.Config
	normalizer *detect.Normalizer
	drawer     *annotate.Drawer
	markColor  color.NRGBA

	// Resolver maps a provider name to a Provider; tests swap it for a
	// fake.
	Resolver func(name string) (providers.Provider, error)
}

// NewService builds a Service from configuration.
func NewService(cfg *config.Config) (*Service, error) {
	boxColor, err := annotate.ParseHexColor(cfg.Annotation.ColorHex)
	if err != nil {
		return nil, fmt.Errorf("invalid annotation color: %w", err)
	}
	markColor, err := annotate.ParseHexColor(cfg.Highlight.ColorHex)
	if err != nil {
		return nil, fmt.Errorf("invalid highlight color: %w", err)
	}

	drawer := annotate.NewDrawer(annotate.Style{
		Color:       boxColor,
		StrokeWidth: cfg.Annotation.StrokeWidth,
		ShowLabels:  cfg.Annotation.ShowLabels,
	})

	return &Service{
		cfg:        cfg,
		normalizer: detect.NewNormalizer(cfg.Detection.ClampTolerance),
		drawer:     drawer,
		markColor:  markColor,
		Resolver:   resolveProvider,
	}, nil
}

func resolveProvider(name string) (providers.Provider, error) {
	switch name {
	case "gemini":
		return gemini.New(), nil
	case "ollama":
		return ollama.New(), nil
	case "openai":
		return openai.New(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}

// DefaultModel returns the model used for a provider when the request
// names none. Environment variables override the built-in defaults.
func DefaultModel(provider string) string {
	switch provider {
	case "gemini":
		if m := os.Getenv("GEMINI_MODEL"); m != "" {
			return m
		}
		return gemini.DefaultModel
	case "ollama":
		if m := os.Getenv("OLLAMA_MODEL"); m != "" {
			return m
		}
		return ollama.DefaultModel
	case "openai":
		if m := os.Getenv("OPENAI_MODEL"); m != "" {
			return m
		}
		return openai.DefaultModel
	default:
		return ""
	}
}

// Analyze runs detection across every page of doc. Per-page failures are
// logged and degrade that page to zero detections; only resolving the
// provider itself is fatal.
func (s *Service) Analyze(ctx context.Context, doc pdfimage.Document, opts Options) (*Result, error) {
	providerName := opts.Provider
	if providerName == "" {
		providerName = s.cfg.Detection.DefaultProvider
	}
	provider, err := s.Resolver(providerName)
	if err != nil {
		return nil, err
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel(providerName)
	}

	pageCount := doc.PageCount()
	result := &Result{
		Filename:  opts.Filename,
		PageCount: pageCount,
		Pages:     make([]PageResult, pageCount),
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxPageWorkers)
	for i := 0; i < pageCount; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(page int) {
			defer wg.Done()
			defer func() { <-sem }()
			result.Pages[page] = s.analyzePage(ctx, doc, page, provider, model, opts)
		}(i)
	}
	wg.Wait()

	for _, p := range result.Pages {
		result.TotalDetections += len(p.Detections)
	}
	return result, nil
}

func (s *Service) analyzePage(ctx context.Context, doc pdfimage.Document, page int, provider providers.Provider, model string, opts Options) PageResult {
	pr := PageResult{Page: page + 1, Detections: []detect.Detection{}}

	img, err := doc.RenderPage(page, opts.DPI)
	if err != nil {
		slog.Warn("Failed to render page", "page", page+1, "err", err)
		pr.Warning = "render failed: " + err.Error()
		return pr
	}

	bounds := img.Bounds()
	pr.Width = bounds.Dx()
	pr.Height = bounds.Dy()

	sendImage, sentW, sentH, err := s.encodeForModel(img)
	if err != nil {
		slog.Warn("Failed to encode page for model", "page", page+1, "err", err)
		pr.Warning = "encode failed: " + err.Error()
		return pr
	}

	raw, err := provider.AnalyzeImage(ctx, providers.Config{
		Model:       model,
		Temperature: s.cfg.Detection.Temperature,
		Prompt:      buildDetectionPrompt(sentW, sentH, len(opts.Target) > 0),
		Image:       sendImage,
		Target:      opts.Target,
	})
	if err != nil {
		slog.Warn("Detection call failed", "page", page+1, "err", err)
		pr.Warning = "detection failed: " + err.Error()
		return pr
	}

	reply, err := detect.ParseReply(raw)
	if err != nil {
		slog.Warn("Unparseable model reply", "page", page+1, "err", err)
		pr.Warning = "malformed reply: " + err.Error()
		return pr
	}
	pr.Summary = reply.Summary

	// The model sees a possibly downscaled copy; map its coordinates
	// back into full page pixel space before validating.
	cands := rescaleCandidates(reply.Candidates, pr.Width, pr.Height, sentW, sentH)
	pr.Detections = s.normalizer.Normalize(cands, pr.Width, pr.Height)

	if opts.IncludeImages {
		if data, err := imgenc.Encode(img, opts.Format, opts.Quality); err == nil {
			pr.Image = data
		} else {
			slog.Warn("Failed to encode original page", "page", page+1, "err", err)
		}
	}

	if opts.Annotate && len(pr.Detections) > 0 {
		annotated := s.drawer.DrawDetections(img, pr.Detections)
		data, err := imgenc.Encode(annotated, opts.Format, opts.Quality)
		if err != nil {
			slog.Warn("Failed to encode annotated page", "page", page+1, "err", err)
		} else {
			pr.Annotated = data
		}
	}

	slog.Info("Page analyzed", "page", page+1, "detections", len(pr.Detections))
	return pr
}

// encodeForModel downscales the page to the configured long side and
// encodes it as JPEG for the provider call. The returned dimensions are
// those of the image actually sent; the prompt and the coordinate
// rescaling must both use them.
func (s *Service) encodeForModel(img image.Image) ([]byte, int, int, error) {
	b := img.Bounds()
	maxSide := s.cfg.Detection.MaxSendSize
	if maxSide > 0 && (b.Dx() > maxSide || b.Dy() > maxSide) {
		if b.Dx() >= b.Dy() {
			img = imaging.Resize(img, maxSide, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxSide, imaging.Lanczos)
		}
		b = img.Bounds()
	}

	data, err := imgenc.Encode(img, imgenc.JPEG, 85)
	if err != nil {
		return nil, 0, 0, err
	}
	return data, b.Dx(), b.Dy(), nil
}

// rescaleCandidates maps coordinates from the sent-image pixel space back
// to full page pixels. When the page was sent at full size the candidates
// pass through unchanged.
func rescaleCandidates(cands []detect.Candidate, width, height, sentW, sentH int) []detect.Candidate {
	if sentW < 1 || sentH < 1 || (sentW == width && sentH == height) {
		return cands
	}

	scaleX := float64(width) / float64(sentW)
	scaleY := float64(height) / float64(sentH)

	scaled := make([]detect.Candidate, len(cands))
	for i, c := range cands {
		scaled[i] = detect.Candidate{
			X1:         scaleCoord(c.X1, scaleX),
			Y1:         scaleCoord(c.Y1, scaleY),
			X2:         scaleCoord(c.X2, scaleX),
			Y2:         scaleCoord(c.Y2, scaleY),
			Confidence: c.Confidence,
		}
	}
	return scaled
}

func scaleCoord(v *float64, scale float64) *float64 {
	if v == nil {
		return nil
	}
	scaled := *v * scale
	return &scaled
}

// Highlight runs simulation mode: 1-5 random marks per page inside the
// configured margin inset.
func (s *Service) Highlight(doc pdfimage.Document, opts Options) (*Result, error) {
	placer := highlight.NewPlacer(s.cfg.Highlight.Margin, rand.New(rand.NewSource(rand.Int63())))

	pageCount := doc.PageCount()
	result := &Result{
		Filename:  opts.Filename,
		PageCount: pageCount,
		Pages:     make([]PageResult, pageCount),
	}

	for i := 0; i < pageCount; i++ {
		pr := PageResult{Page: i + 1, Detections: []detect.Detection{}}

		img, err := doc.RenderPage(i, opts.DPI)
		if err != nil {
			slog.Warn("Failed to render page", "page", i+1, "err", err)
			pr.Warning = "render failed: " + err.Error()
			result.Pages[i] = pr
			continue
		}

		bounds := img.Bounds()
		pr.Width = bounds.Dx()
		pr.Height = bounds.Dy()

		points := placer.Place(pr.Width, pr.Height)
		marked := s.drawer.DrawMarks(img, points, s.cfg.Highlight.Radius, s.markColor)

		data, err := imgenc.Encode(marked, opts.Format, opts.Quality)
		if err != nil {
			slog.Warn("Failed to encode highlighted page", "page", i+1, "err", err)
			pr.Warning = "encode failed: " + err.Error()
			result.Pages[i] = pr
			continue
		}
		pr.Annotated = data
		result.Pages[i] = pr
	}
	return result, nil
}

// Convert renders every page to the requested format without any
// annotation.
func (s *Service) Convert(doc pdfimage.Document, opts Options) (*Result, error) {
	pageCount := doc.PageCount()
	result := &Result{
		Filename:  opts.Filename,
		PageCount: pageCount,
		Pages:     make([]PageResult, pageCount),
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxPageWorkers)
	for i := 0; i < pageCount; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(page int) {
			defer wg.Done()
			defer func() { <-sem }()

			pr := PageResult{Page: page + 1, Detections: []detect.Detection{}}
			img, err := doc.RenderPage(page, opts.DPI)
			if err != nil {
				slog.Warn("Failed to render page", "page", page+1, "err", err)
				pr.Warning = "render failed: " + err.Error()
				result.Pages[page] = pr
				return
			}

			bounds := img.Bounds()
			pr.Width = bounds.Dx()
			pr.Height = bounds.Dy()

			data, err := imgenc.Encode(img, opts.Format, opts.Quality)
			if err != nil {
				slog.Warn("Failed to encode page", "page", page+1, "err", err)
				pr.Warning = "encode failed: " + err.Error()
				result.Pages[page] = pr
				return
			}
			pr.Image = data
			result.Pages[page] = pr
		}(i)
	}
	wg.Wait()

	return result, nil
}
