package composer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	ollama "github.com/ollama/ollama/api"
	"github.com/tartampluch/go-quickevent/internal/config"
)

// OllamaLLM implements LLM against a local Ollama daemon. Responses are
// requested in JSON mode with a low temperature so the composer gets
// parseable, deterministic output.
type OllamaLLM struct {
	Client *ollama.Client
	Model  string
}

// NewOllamaLLM builds a client for the given host. An empty host falls back
// to the OLLAMA_HOST environment variable, then to the default daemon URL.
func NewOllamaLLM(host, model string) (*OllamaLLM, error) {
	if host == "" {
		host = os.Getenv(config.OllamaEnvHost)
	}
	if host == "" {
		host = config.DefaultOllamaHost
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", config.ErrOllamaHost, host, err)
	}

	httpClient := &http.Client{
		Timeout: config.LLMTimeout,
	}

	return &OllamaLLM{
		Client: ollama.NewClient(u, httpClient),
		Model:  model,
	}, nil
}

// Generate streams a completion and returns the accumulated text.
func (o *OllamaLLM) Generate(ctx context.Context, prompt string) (string, error) {
	var text strings.Builder

	req := &ollama.GenerateRequest{
		Model:  o.Model,
		Prompt: prompt,
		Format: json.RawMessage(config.OllamaFormatJSON),
		Options: map[string]any{
			config.OllamaOptTemp: config.OllamaTemperature,
		},
	}

	if err := o.Client.Generate(ctx, req, func(gr ollama.GenerateResponse) error {
		if gr.Response != "" {
			text.WriteString(gr.Response)
		}
		return nil
	}); err != nil {
		return "", err
	}

	return text.String(), nil
}
