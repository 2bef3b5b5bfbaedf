// Google Gemini Provider implementation using official google.golang.org/genai SDK.
//
// Information Hiding:
// - API authentication and client creation
// - Request/response format for Gemini API
// - System instruction handling via config
// - Streaming via official SDK iterator

package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	client  *genai.Client
	model   string
	initErr error // Stores client initialization error for deferred reporting
}

// NewGeminiProvider creates a new Gemini provider with a default model.
// If client initialization fails, the error is stored and returned on first use.
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return &GeminiProvider{
			model:   model,
			initErr: fmt.Errorf("failed to initialize Gemini client: %w", err),
		}
	}

	return &GeminiProvider{
		client: client,
		model:  model,
	}
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// DefaultModel returns the model used when Options.Model is empty.
func (p *GeminiProvider) DefaultModel() string {
	return p.model
}

func (p *GeminiProvider) ready() error {
	if p.initErr != nil {
		return p.initErr
	}
	if p.client == nil {
		return fmt.Errorf("gemini client not initialized")
	}
	return nil
}

func (p *GeminiProvider) buildRequest(messages []Message, opts Options) (string, []*genai.Content, *genai.GenerateContentConfig) {
	model := opts.Model
	if model == "" {
		model = p.model
	}

	contents, systemInstruction := convertToGeminiMessages(messages)

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(opts.Temperature),
		MaxOutputTokens: int32(opts.MaxTokens),
	}

	if systemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}

	return model, contents, config
}

// Generate sends a chat completion request.
func (p *GeminiProvider) Generate(ctx context.Context, messages []Message, opts Options) (Reply, error) {
	if err := p.ready(); err != nil {
		return Reply{}, err
	}

	model, contents, config := p.buildRequest(messages, opts)

	response, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return Reply{}, fmt.Errorf("chat completion failed: %w", err)
	}

	content := response.Text()
	if content == "" {
		return Reply{}, fmt.Errorf("empty response from Gemini")
	}

	var usage *Usage
	if response.UsageMetadata != nil {
		usage = &Usage{
			PromptTokens:     uint32(response.UsageMetadata.PromptTokenCount),
			CompletionTokens: uint32(response.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      uint32(response.UsageMetadata.TotalTokenCount),
		}
	}

	return Reply{Content: content, Model: model, Usage: usage}, nil
}

// GenerateStream streams a chat completion, forwarding text deltas to emit.
func (p *GeminiProvider) GenerateStream(ctx context.Context, messages []Message, opts Options, emit ChunkFunc) error {
	if err := p.ready(); err != nil {
		return err
	}

	model, contents, config := p.buildRequest(messages, opts)

	// GenerateContentStream returns iter.Seq2[*GenerateContentResponse, error]
	for response, err := range p.client.Models.GenerateContentStream(ctx, model, contents, config) {
		if err != nil {
			return fmt.Errorf("stream error: %w", err)
		}

		if text := response.Text(); text != "" {
			emit(Chunk{Content: text})
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	emit(Chunk{Done: true})
	return nil
}

// convertToGeminiMessages converts our Message to Gemini format.
// Extracts the system message and returns it separately.
func convertToGeminiMessages(messages []Message) ([]*genai.Content, string) {
	var contents []*genai.Content
	var systemInstruction string

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			systemInstruction = msg.Content
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		}
	}

	return contents, systemInstruction
}

// Verify GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)
