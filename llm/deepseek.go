// DeepSeek Provider implementation using go-openai library.
//
// Information Hiding:
// - Uses OpenAI-compatible API with different base URL
// - Streaming via go-openai library

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// DeepSeekProvider implements the Provider interface for DeepSeek.
type DeepSeekProvider struct {
	client *openai.Client
	model  string
}

// NewDeepSeekProvider creates a new DeepSeek provider with a default model.
func NewDeepSeekProvider(apiKey, model string) *DeepSeekProvider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = deepseekBaseURL

	return &DeepSeekProvider{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Name returns the provider name.
func (p *DeepSeekProvider) Name() string {
	return "deepseek"
}

// DefaultModel returns the model used when Options.Model is empty.
func (p *DeepSeekProvider) DefaultModel() string {
	return p.model
}

func (p *DeepSeekProvider) request(messages []Message, opts Options, stream bool) openai.ChatCompletionRequest {
	model := opts.Model
	if model == "" {
		model = p.model
	}
	req := openai.ChatCompletionRequest{
		Model:               model,
		Messages:            convertToOpenAIMessages(messages),
		MaxCompletionTokens: opts.MaxTokens,
		Temperature:         opts.Temperature,
		Stream:              stream,
	}
	if stream {
		req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}
	return req
}

// Generate sends a chat completion request.
func (p *DeepSeekProvider) Generate(ctx context.Context, messages []Message, opts Options) (Reply, error) {
	req := p.request(messages, opts, false)

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Reply{}, fmt.Errorf("chat completion failed: %w", err)
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}

	// DeepSeek returns token usage in the standard OpenAI format
	return Reply{
		Content: content,
		Model:   model,
		Usage: &Usage{
			PromptTokens:     uint32(resp.Usage.PromptTokens),
			CompletionTokens: uint32(resp.Usage.CompletionTokens),
			TotalTokens:      uint32(resp.Usage.TotalTokens),
		},
	}, nil
}

// GenerateStream streams a chat completion, forwarding deltas to emit.
func (p *DeepSeekProvider) GenerateStream(ctx context.Context, messages []Message, opts Options, emit ChunkFunc) error {
	req := p.request(messages, opts, true)

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return fmt.Errorf("stream creation failed: %w", err)
	}
	defer stream.Close()

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			emit(Chunk{Done: true})
			return nil
		}
		if err != nil {
			return fmt.Errorf("stream recv failed: %w", err)
		}

		if len(response.Choices) > 0 {
			if content := response.Choices[0].Delta.Content; content != "" {
				emit(Chunk{Content: content})
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// Verify DeepSeekProvider implements Provider
var _ Provider = (*DeepSeekProvider)(nil)
