// OpenAI-compatible Provider implementation over raw net/http.
//
// Serves self-hosted endpoints (Ollama, vLLM, LM Studio and the like) that
// speak the OpenAI chat-completions wire format but are not worth an SDK
// dependency per deployment.
//
// Information Hiding:
// - Request construction and bearer authentication
// - JSON completion decoding and SSE stream parsing

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const compatRequestTimeout = 60 * time.Second

// CompatProvider implements the Provider interface for any OpenAI-compatible
// chat-completion endpoint reachable at a custom base URL.
type CompatProvider struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	log     *slog.Logger
}

// NewCompatProvider creates a provider for an OpenAI-compatible endpoint.
// baseURL is the API root, e.g. "http://localhost:11434/v1". apiKey may be
// empty for unauthenticated local endpoints.
func NewCompatProvider(baseURL, apiKey, model string, log *slog.Logger) *CompatProvider {
	if log == nil {
		log = slog.Default()
	}
	return &CompatProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: compatRequestTimeout},
		log:     log,
	}
}

// Name returns the provider name.
func (p *CompatProvider) Name() string {
	return "compat"
}

// DefaultModel returns the model used when Options.Model is empty.
func (p *CompatProvider) DefaultModel() string {
	return p.model
}

// compatRequest is the OpenAI-compatible chat-completion request body.
type compatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// compatResponse is the buffered completion response body.
type compatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (p *CompatProvider) post(ctx context.Context, messages []Message, opts Options, stream bool) (*http.Response, string, error) {
	model := opts.Model
	if model == "" {
		model = p.model
	}
	body := compatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      stream,
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, model, fmt.Errorf("encoding request: %w", err)
	}

	// Request body is rebuilt per call so retries never reuse a consumed reader.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return nil, model, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, model, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, model, &httpStatusError{status: resp.StatusCode, body: string(snippet)}
	}

	return resp, model, nil
}

// Generate sends a chat completion request.
func (p *CompatProvider) Generate(ctx context.Context, messages []Message, opts Options) (Reply, error) {
	resp, model, err := p.post(ctx, messages, opts, false)
	if err != nil {
		return Reply{}, err
	}
	defer resp.Body.Close()

	var out compatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Reply{}, fmt.Errorf("decoding response: %w", err)
	}

	content := ""
	if len(out.Choices) > 0 {
		content = out.Choices[0].Message.Content
	}
	if out.Model != "" {
		model = out.Model
	}

	return Reply{
		Content: content,
		Model:   model,
		Usage: &Usage{
			PromptTokens:     uint32(out.Usage.PromptTokens),
			CompletionTokens: uint32(out.Usage.CompletionTokens),
			TotalTokens:      uint32(out.Usage.TotalTokens),
		},
	}, nil
}

// GenerateStream streams a chat completion, forwarding SSE deltas to emit.
func (p *CompatProvider) GenerateStream(ctx context.Context, messages []Message, opts Options, emit ChunkFunc) error {
	resp, _, err := p.post(ctx, messages, opts, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeSSEStream(resp.Body, p.log, emit)
}

// Verify CompatProvider implements Provider
var _ Provider = (*CompatProvider)(nil)
