package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/ollama/ollama/api"

	"github.com/em0-omg/pdf-highlight-api/internal/providers"
)

// DefaultModel is used when no model is requested.
const DefaultModel = "llama3.2-vision"

// Ollama is a provider for a local or remote Ollama server
type Ollama struct{}

// New returns a new Ollama provider
func New() *Ollama {
	return &Ollama{}
}

// AnalyzeImage sends the page image (and target pattern, when present) to
// Ollama via its chat API and returns the raw model reply.
func (o *Ollama) AnalyzeImage(ctx context.Context, config providers.Config) (string, error) {
	ollamaURL := os.Getenv("OLLAMA_URL")
	if ollamaURL == "" {
		ollamaURL = os.Getenv("OLLAMA_HOST")
	}
	if ollamaURL == "" {
		ollamaURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama URL: %w", err)
	}
	baseURL := &url.URL{Scheme: parsedURL.Scheme, Host: parsedURL.Host}

	client := api.NewClient(baseURL, http.DefaultClient)

	modelName := config.Model
	if modelName == "" {
		modelName = DefaultModel
	}

	images := []api.ImageData{}
	if len(config.Target) > 0 {
		images = append(images, api.ImageData(config.Target))
	}
	images = append(images, api.ImageData(config.Image))

	streamFalse := false
	req := &api.ChatRequest{
		Model: modelName,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: config.Prompt,
				Images:  images,
			},
		},
		Stream: &streamFalse,
		Options: map[string]any{
			"temperature": config.Temperature,
		},
	}

	var responseContent string
	err = client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}

	if responseContent == "" {
		return "", fmt.Errorf("empty response from ollama")
	}

	return responseContent, nil
}
