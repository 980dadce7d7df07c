package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/em0-omg/pdf-highlight-api/internal/analysis"
	"github.com/em0-omg/pdf-highlight-api/internal/config"
	"github.com/em0-omg/pdf-highlight-api/internal/imgenc"
	"github.com/em0-omg/pdf-highlight-api/internal/pdfimage"
)

type Handler struct {
	cfg     *config.Config
	service *analysis.Service
	open    pdfimage.Opener
}

// New builds the HTTP handler set. open defaults to the MuPDF-backed
// opener; tests pass a fake.
func New(cfg *config.Config, service *analysis.Service, open pdfimage.Opener) *Handler {
	if open == nil {
		open = pdfimage.Open
	}
	return &Handler{
		cfg:     cfg,
		service: service,
		open:    open,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// writeBinary sends data as an attachment with an RFC 5987 encoded
// filename, matching what browsers expect for non-ASCII names.
func (h *Handler) writeBinary(w http.ResponseWriter, data []byte, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	if _, err := w.Write(data); err != nil {
		slog.Error("Unable to write binary response", "err", err)
	}
}

// readPDFUpload reads and validates the uploaded PDF from the "file"
// form field. It returns the file bytes and the upload's base name
// (extension stripped).
func (h *Handler) readPDFUpload(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	defer file.Close()

	data, err := h.readLimited(file)
	if err != nil {
		return nil, "", err
	}

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		return nil, "", fmt.Errorf("only PDF files are allowed")
	}
	if !pdfimage.IsPDF(data) {
		return nil, "", fmt.Errorf("uploaded file is not a valid PDF")
	}

	base := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	if base == "" {
		base = "document"
	}
	return data, base, nil
}

// readTargetUpload reads the optional "target" pattern image. A missing
// field is not an error.
func (h *Handler) readTargetUpload(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("target")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read target image: %w", err)
	}
	defer file.Close()

	return h.readLimited(file)
}

func (h *Handler) readLimited(file multipart.File) ([]byte, error) {
	limit := int64(h.cfg.Server.MaxUploadMB) << 20
	// Read one byte past the limit so an upload of exactly limit bytes is
	// accepted and only a true overflow is rejected.
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file too large (max %dMB)", h.cfg.Server.MaxUploadMB)
	}
	return data, nil
}

// dpiParam parses the dpi form value, falling back to the configured
// default and rejecting non-positive or oversized values.
func (h *Handler) dpiParam(r *http.Request) (int, error) {
	raw := r.FormValue("dpi")
	if raw == "" {
		return h.cfg.Render.DefaultDPI, nil
	}
	dpi, err := strconv.Atoi(raw)
	if err != nil || dpi < 1 {
		return 0, fmt.Errorf("dpi must be a positive integer, got %q", raw)
	}
	if dpi > h.cfg.Render.MaxDPI {
		return 0, fmt.Errorf("dpi must be at most %d", h.cfg.Render.MaxDPI)
	}
	return dpi, nil
}

func (h *Handler) formatParam(r *http.Request) (imgenc.Format, error) {
	raw := r.FormValue("format")
	if raw == "" {
		raw = h.cfg.Render.DefaultFormat
	}
	return imgenc.ParseFormat(raw)
}

func boolParam(r *http.Request, name string) bool {
	switch strings.ToLower(r.FormValue(name)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
