package providers

import (
	"context"
	"os"
)

// Config represents one detection request to a vision model provider.
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	// Image is the JPEG-encoded page image the prompt refers to.
	Image []byte
	// Target is an optional JPEG-encoded reference image of the pattern
	// to locate, sent alongside the page image.
	Target []byte
}

// Provider defines the interface for a vision model provider.
type Provider interface {
	// AnalyzeImage sends the page image and prompt to the model and
	// returns its raw text reply.
	AnalyzeImage(ctx context.Context, config Config) (string, error)
}

// Configured reports whether the named provider has the credentials or
// endpoint it needs. Ollama always has a default local endpoint.
func Configured(name string) bool {
	switch name {
	case "gemini":
		return os.Getenv("GEMINI_API_KEY") != ""
	case "openai":
		return os.Getenv("OPENAI_API_KEY") != ""
	case "ollama":
		return true
	default:
		return false
	}
}

// AnyConfigured reports whether at least one provider with credentials is
// available. Used by the health check to signal degraded detection.
func AnyConfigured() bool {
	return Configured("gemini") || Configured("openai")
}
