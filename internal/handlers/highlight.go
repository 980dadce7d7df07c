package handlers

import (
	"log/slog"
	"net/http"

	"github.com/em0-omg/pdf-highlight-api/internal/analysis"
	"github.com/em0-omg/pdf-highlight-api/internal/annotate"
	"github.com/em0-omg/pdf-highlight-api/internal/imgenc"
)

// HandleHighlight runs simulation mode: random highlight marks on every
// page. output=pdf reassembles the marked pages into a PDF; the default
// returns images (ZIP for multi-page documents).
func (h *Handler) HandleHighlight(w http.ResponseWriter, r *http.Request) {
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

	output := r.FormValue("output")
	if output != "" && output != "images" && output != "pdf" {
		h.writeError(w, "output must be 'images' or 'pdf'", http.StatusBadRequest)
		return
	}
	if output == "pdf" && format == imgenc.WebP {
		h.writeError(w, "PDF output supports png and jpg page images only", http.StatusBadRequest)
		return
	}

	doc, err := h.open(data)
	if err != nil {
		h.writeError(w, "Error opening PDF: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer doc.Close()

	result, err := h.service.Highlight(doc, analysis.Options{
		Filename: baseName,
		DPI:      dpi,
		Format:   format,
		Quality:  h.cfg.Render.Quality,
	})
	if err != nil {
		h.writeError(w, "Error highlighting PDF: "+err.Error(), http.StatusInternalServerError)
		return
	}

	pages := make([][]byte, 0, len(result.Pages))
	for _, pr := range result.Pages {
		if len(pr.Annotated) == 0 {
			h.writeError(w, "Error highlighting PDF: "+pr.Warning, http.StatusInternalServerError)
			return
		}
		pages = append(pages, pr.Annotated)
	}

	slog.Info("PDF highlighted", "filename", baseName, "pages", len(pages))

	if output == "pdf" {
		pdfData, err := annotate.AssemblePDF(pages, dpi)
		if err != nil {
			h.writeError(w, "Error assembling PDF: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeBinary(w, pdfData, baseName+"_highlighted.pdf", "application/pdf")
		return
	}

	h.writePages(w, pages, baseName+"_highlighted", format)
}
