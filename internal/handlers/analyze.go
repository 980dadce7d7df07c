package handlers

import (
	"log/slog"
	"net/http"

	"github.com/em0-omg/pdf-highlight-api/internal/analysis"
	"github.com/em0-omg/pdf-highlight-api/internal/annotate"
	"github.com/em0-omg/pdf-highlight-api/internal/detect"
	"github.com/em0-omg/pdf-highlight-api/internal/imgenc"
	"github.com/em0-omg/pdf-highlight-api/internal/providers"
)

type analyzePage struct {
	Page           int                `json:"page"`
	Width          int                `json:"width"`
	Height         int                `json:"height"`
	DetectionCount int                `json:"detection_count"`
	Detections     []detect.Detection `json:"detections"`
	Summary        string             `json:"summary,omitempty"`
	Warning        string             `json:"warning,omitempty"`
	Image          string             `json:"image_base64,omitempty"`
	Annotated      string             `json:"annotated_base64,omitempty"`
}

type analyzeResponse struct {
	Filename        string        `json:"filename"`
	TotalPages      int           `json:"total_pages"`
	TotalDetections int           `json:"total_detections"`
	Pages           []analyzePage `json:"pages"`
}

// HandleAnalyze runs pattern detection over an uploaded PDF. The default
// response is a JSON summary; response=binary returns the annotated
// pages as a PDF.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, baseName, err := h.readPDFUpload(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	dpi, err := h.dpiParam(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	format, err := h.formatParam(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	responseMode := r.FormValue("response")
	if responseMode == "" {
		responseMode = "json"
	}
	if responseMode != "json" && responseMode != "binary" {
		h.writeError(w, "response must be 'json' or 'binary'", http.StatusBadRequest)
		return
	}

	providerName := r.FormValue("provider")
	if providerName == "" {
		providerName = h.cfg.Detection.DefaultProvider
	}
	if !providers.Configured(providerName) {
		h.writeError(w, "detection provider "+providerName+" is not configured", http.StatusServiceUnavailable)
		return
	}

	target, err := h.readTargetUpload(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.open(data)
	if err != nil {
		h.writeError(w, "Error opening PDF: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer doc.Close()

	opts := analysis.Options{
		Filename:      baseName + ".pdf",
		DPI:           dpi,
		Provider:      providerName,
		Model:         r.FormValue("model"),
		Target:        target,
		Annotate:      boolParam(r, "annotate"),
		IncludeImages: boolParam(r, "include_images") || responseMode == "binary",
		Format:        format,
		Quality:       h.cfg.Render.Quality,
	}
	if responseMode == "binary" {
		// Binary output goes through fpdf, which cannot embed webp.
		if opts.Format == imgenc.WebP {
			h.writeError(w, "binary response supports png and jpg page images only", http.StatusBadRequest)
			return
		}
		opts.Annotate = true
	}

	result, err := h.service.Analyze(r.Context(), doc, opts)
	if err != nil {
		h.writeError(w, "Error analyzing PDF: "+err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("PDF analyzed",
		"filename", result.Filename,
		"pages", result.PageCount,
		"detections", result.TotalDetections,
		"provider", providerName)

	if responseMode == "binary" {
		h.writeAnnotatedPDF(w, result, baseName, dpi)
		return
	}

	h.writeJSON(w, buildAnalyzeResponse(result, opts.IncludeImages))
}

func buildAnalyzeResponse(result *analysis.Result, includeImages bool) analyzeResponse {
	resp := analyzeResponse{
		Filename:        result.Filename,
		TotalPages:      result.PageCount,
		TotalDetections: result.TotalDetections,
		Pages:           make([]analyzePage, 0, len(result.Pages)),
	}

	for _, pr := range result.Pages {
		page := analyzePage{
			Page:           pr.Page,
			Width:          pr.Width,
			Height:         pr.Height,
			DetectionCount: len(pr.Detections),
			Detections:     pr.Detections,
			Summary:        pr.Summary,
			Warning:        pr.Warning,
		}
		if includeImages {
			if len(pr.Image) > 0 {
				page.Image = imgenc.ToBase64(pr.Image)
			}
			if len(pr.Annotated) > 0 {
				page.Annotated = imgenc.ToBase64(pr.Annotated)
			}
		}
		resp.Pages = append(resp.Pages, page)
	}
	return resp
}

// writeAnnotatedPDF reassembles pages into a PDF, using the annotated
// image where one exists and the original render elsewhere.
func (h *Handler) writeAnnotatedPDF(w http.ResponseWriter, result *analysis.Result, baseName string, dpi int) {
	pages := make([][]byte, 0, len(result.Pages))
	for _, pr := range result.Pages {
		switch {
		case len(pr.Annotated) > 0:
			pages = append(pages, pr.Annotated)
		case len(pr.Image) > 0:
			pages = append(pages, pr.Image)
		default:
			h.writeError(w, "Error analyzing PDF: "+pr.Warning, http.StatusInternalServerError)
			return
		}
	}

	pdfData, err := annotate.AssemblePDF(pages, dpi)
	if err != nil {
		h.writeError(w, "Error assembling PDF: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeBinary(w, pdfData, baseName+"_annotated.pdf", "application/pdf")
}
