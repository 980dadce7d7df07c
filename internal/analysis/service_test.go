package analysis

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"strings"
	"testing"

	"github.com/em0-omg/pdf-highlight-api/internal/config"
	"github.com/em0-omg/pdf-highlight-api/internal/imgenc"
	"github.com/em0-omg/pdf-highlight-api/internal/pdfimage"
	"github.com/em0-omg/pdf-highlight-api/internal/providers"
)

// fakeDocument serves fixed-size blank pages and can fail selected pages.
type fakeDocument struct {
	sizes     [][2]int
	failPages map[int]bool
}

func (d *fakeDocument) PageCount() int { return len(d.sizes) }

func (d *fakeDocument) RenderPage(page int, dpi int) (image.Image, error) {
	if d.failPages[page] {
		return nil, fmt.Errorf("render error on page %d", page+1)
	}
	size := d.sizes[page]
	img := image.NewNRGBA(image.Rect(0, 0, size[0], size[1]))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img, nil
}

func (d *fakeDocument) Close() error { return nil }

var _ pdfimage.Document = (*fakeDocument)(nil)

// fakeProvider answers based on the width of the page image it receives,
// so replies stay deterministic under concurrent page processing.
type fakeProvider struct {
	repliesByWidth map[int]string
}

func (p *fakeProvider) AnalyzeImage(_ context.Context, cfg providers.Config) (string, error) {
	imgCfg, _, err := image.DecodeConfig(bytes.NewReader(cfg.Image))
	if err != nil {
		return "", err
	}
	reply, ok := p.repliesByWidth[imgCfg.Width]
	if !ok {
		return "", fmt.Errorf("no reply configured for width %d", imgCfg.Width)
	}
	return reply, nil
}

func newTestService(t *testing.T, provider providers.Provider) *Service {
	t.Helper()
	svc, err := NewService(config.Default())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	svc.Resolver = func(string) (providers.Provider, error) {
		return provider, nil
	}
	return svc
}

func TestAnalyzePartialFailureAndTotals(t *testing.T) {
	doc := &fakeDocument{sizes: [][2]int{{400, 300}, {500, 300}, {600, 300}}}
	provider := &fakeProvider{repliesByWidth: map[int]string{
		400: `{"detections":[{"x1":10,"y1":10,"x2":50,"y2":50,"confidence":0.9},{"x1":60,"y1":60,"x2":90,"y2":90,"confidence":0.8}]}`,
		500: `The page appears to contain a table of contents.`,
		600: `{"detections":[{"x1":5,"y1":5,"x2":25,"y2":25,"confidence":0.7}]}`,
	}}

	svc := newTestService(t, provider)
	result, err := svc.Analyze(context.Background(), doc, Options{
		Filename: "sample.pdf",
		DPI:      200,
		Format:   imgenc.PNG,
		Quality:  90,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.PageCount != 3 {
		t.Errorf("Expected PageCount=3, got %d", result.PageCount)
	}

	counts := []int{len(result.Pages[0].Detections), len(result.Pages[1].Detections), len(result.Pages[2].Detections)}
	if counts[0] != 2 || counts[1] != 0 || counts[2] != 1 {
		t.Errorf("Expected per-page counts [2,0,1], got %v", counts)
	}

	if result.TotalDetections != 3 {
		t.Errorf("Expected TotalDetections=3, got %d", result.TotalDetections)
	}

	if result.Pages[1].Warning == "" {
		t.Error("Expected warning for unparseable page 2")
	}
	if result.Pages[0].Warning != "" {
		t.Errorf("Expected no warning for page 1, got %q", result.Pages[0].Warning)
	}
}

func TestAnalyzeAnnotatesOnlyPagesWithDetections(t *testing.T) {
	doc := &fakeDocument{sizes: [][2]int{{400, 300}, {500, 300}}}
	provider := &fakeProvider{repliesByWidth: map[int]string{
		400: `{"detections":[{"x1":10,"y1":10,"x2":50,"y2":50,"confidence":0.9}],"summary":"one match"}`,
		500: `{"detections":[],"summary":"no matches"}`,
	}}

	svc := newTestService(t, provider)
	result, err := svc.Analyze(context.Background(), doc, Options{
		Filename: "two-pages.pdf",
		DPI:      200,
		Annotate: true,
		Format:   imgenc.PNG,
		Quality:  90,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.TotalDetections != 1 {
		t.Errorf("Expected TotalDetections=1, got %d", result.TotalDetections)
	}
	if len(result.Pages[0].Detections) != 1 {
		t.Errorf("Expected 1 detection on page 1, got %d", len(result.Pages[0].Detections))
	}
	if len(result.Pages[1].Detections) != 0 {
		t.Errorf("Expected 0 detections on page 2, got %d", len(result.Pages[1].Detections))
	}
	if result.Pages[0].Annotated == nil {
		t.Error("Expected annotated image for page 1")
	}
	if result.Pages[1].Annotated != nil {
		t.Error("Expected no annotated image for page 2")
	}
	if result.Pages[0].Summary != "one match" {
		t.Errorf("Expected summary carried through, got %q", result.Pages[0].Summary)
	}
}

func TestAnalyzeRescalesDownscaledReplies(t *testing.T) {
	// A 3072x1536 page exceeds the default max send size of 1536, so the
	// model sees a 1536x768 copy and answers in that space. Boxes must
	// come back mapped onto the full page.
	doc := &fakeDocument{sizes: [][2]int{{3072, 1536}}}
	provider := &fakeProvider{repliesByWidth: map[int]string{
		1536: `{"detections":[
			{"x1":100,"y1":100,"x2":200,"y2":300,"confidence":0.9},
			{"x1":1436,"y1":668,"x2":1536,"y2":768,"confidence":0.8}
		]}`,
	}}

	svc := newTestService(t, provider)
	result, err := svc.Analyze(context.Background(), doc, Options{
		Filename: "large.pdf",
		DPI:      200,
		Format:   imgenc.PNG,
		Quality:  90,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	page := result.Pages[0]
	if page.Warning != "" {
		t.Fatalf("Expected no warning, got %q", page.Warning)
	}
	if len(page.Detections) != 2 {
		t.Fatalf("Expected 2 detections, got %d", len(page.Detections))
	}

	interior := page.Detections[0]
	if interior.X1 != 200 || interior.Y1 != 200 || interior.X2 != 400 || interior.Y2 != 600 {
		t.Errorf("Expected interior box (200,200)-(400,600), got (%v,%v)-(%v,%v)",
			interior.X1, interior.Y1, interior.X2, interior.Y2)
	}

	// A box touching the sent image's edge must map to the page edge, not
	// overshoot and get discarded.
	edge := page.Detections[1]
	if edge.X1 != 2872 || edge.Y1 != 1336 || edge.X2 != 3072 || edge.Y2 != 1536 {
		t.Errorf("Expected edge box (2872,1336)-(3072,1536), got (%v,%v)-(%v,%v)",
			edge.X1, edge.Y1, edge.X2, edge.Y2)
	}
}

func TestAnalyzePromptStatesSentImageDimensions(t *testing.T) {
	doc := &fakeDocument{sizes: [][2]int{{3072, 1536}}}

	var gotPrompt string
	provider := &promptCaptureProvider{capture: &gotPrompt}

	svc := newTestService(t, provider)
	if _, err := svc.Analyze(context.Background(), doc, Options{DPI: 200, Format: imgenc.PNG, Quality: 90}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(gotPrompt, "1536 pixels wide and 768 pixels tall") {
		t.Errorf("Expected prompt to state the sent image dimensions 1536x768, got: %.200s", gotPrompt)
	}
}

type promptCaptureProvider struct {
	capture *string
}

func (p *promptCaptureProvider) AnalyzeImage(_ context.Context, cfg providers.Config) (string, error) {
	*p.capture = cfg.Prompt
	return `{"detections":[]}`, nil
}

func TestAnalyzeRenderFailureDegradesPage(t *testing.T) {
	doc := &fakeDocument{
		sizes:     [][2]int{{400, 300}, {400, 300}},
		failPages: map[int]bool{0: true},
	}
	provider := &fakeProvider{repliesByWidth: map[int]string{
		400: `{"detections":[{"x1":10,"y1":10,"x2":50,"y2":50,"confidence":0.9}]}`,
	}}

	svc := newTestService(t, provider)
	result, err := svc.Analyze(context.Background(), doc, Options{DPI: 200, Format: imgenc.PNG, Quality: 90})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Pages[0].Warning == "" {
		t.Error("Expected warning for failed page 1")
	}
	if len(result.Pages[0].Detections) != 0 {
		t.Errorf("Expected 0 detections on failed page, got %d", len(result.Pages[0].Detections))
	}
	if result.TotalDetections != 1 {
		t.Errorf("Expected TotalDetections=1, got %d", result.TotalDetections)
	}
}

func TestAnalyzeUnknownProvider(t *testing.T) {
	svc, err := NewService(config.Default())
	if err != nil {
		t.Fatal(err)
	}

	doc := &fakeDocument{sizes: [][2]int{{100, 100}}}
	if _, err := svc.Analyze(context.Background(), doc, Options{Provider: "nope", DPI: 200}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestConvertRendersEveryPage(t *testing.T) {
	doc := &fakeDocument{sizes: [][2]int{{200, 100}, {300, 150}, {400, 200}}}

	svc := newTestService(t, &fakeProvider{})
	result, err := svc.Convert(doc, Options{DPI: 200, Format: imgenc.PNG, Quality: 90})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.PageCount != 3 {
		t.Fatalf("Expected 3 pages, got %d", result.PageCount)
	}
	for i, pr := range result.Pages {
		if pr.Page != i+1 {
			t.Errorf("Expected page index %d, got %d", i+1, pr.Page)
		}
		if len(pr.Image) == 0 {
			t.Errorf("Expected encoded image for page %d", i+1)
		}
	}
	if result.Pages[1].Width != 300 || result.Pages[1].Height != 150 {
		t.Errorf("Expected page 2 dims 300x150, got %dx%d", result.Pages[1].Width, result.Pages[1].Height)
	}
}

func TestHighlightMarksEveryPage(t *testing.T) {
	doc := &fakeDocument{sizes: [][2]int{{400, 300}, {400, 300}}}

	svc := newTestService(t, &fakeProvider{})
	result, err := svc.Highlight(doc, Options{DPI: 200, Format: imgenc.PNG, Quality: 90})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for i, pr := range result.Pages {
		if len(pr.Annotated) == 0 {
			t.Errorf("Expected highlighted image for page %d", i+1)
		}
	}
}
