package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/localnerve/pagesdb/data"
	"github.com/localnerve/pagesdb/internal/config"
	"github.com/localnerve/pagesdb/internal/types"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// GenerateInput is a code generation request
type GenerateInput struct {
	Prompt      string
	CurrentCode string
	Model       string
}

// AIModel is a model offered by the provider
type AIModel struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// FallbackModels is returned when the provider cannot list its models
var FallbackModels = []AIModel{
	{ID: "gpt-4o", Object: "model", OwnedBy: "openai"},
	{ID: "anthropic/claude-3-5-sonnet", Object: "model", OwnedBy: "anthropic"},
	{ID: "google/gemini-1.5-pro", Object: "model", OwnedBy: "google"},
	{ID: "google/gemini-2.0-flash-exp", Object: "model", OwnedBy: "google"},
}

var modelKeywords = []string{"gpt", "claude", "gemini"}

// AIService talks to an OpenAI compatible provider
type AIService struct {
	client *openai.Client
	model  string
}

// NewAIService creates an AIService from the OPENAI_* settings
func NewAIService(cfg *config.Config) *AIService {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}
	model := cfg.OpenAIModel
	if model == "" {
		model = "gpt-4o"
	}
	return &AIService{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

func (s *AIService) request(in GenerateInput, stream bool) openai.ChatCompletionRequest {
	model := in.Model
	if model == "" {
		model = s.model
	}

	userMessage := "User Request: " + in.Prompt
	if in.CurrentCode != "" {
		userMessage = "Current Code:\n" + in.CurrentCode + "\n\n" + userMessage
	}

	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: data.GenerateSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Stream: stream,
	}
}

// GenerateCode asks the model for markup and returns it without markdown fences
func (s *AIService) GenerateCode(ctx context.Context, in GenerateInput) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, s.request(in, false))
	recordLLM("generate", err)
	if err != nil {
		log.Error().Err(err).Msg("AI generation failed")
		return "", types.Upstream("AI generation failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return StripCodeFences(resp.Choices[0].Message.Content), nil
}

// StripCodeFences removes a leading ```html or ``` fence and the closing fence
func StripCodeFences(content string) string {
	switch {
	case strings.HasPrefix(content, "```html"):
		content = strings.TrimPrefix(content, "```html\n")
	case strings.HasPrefix(content, "```"):
		content = strings.TrimPrefix(content, "```\n")
	default:
		return content
	}
	return strings.TrimSuffix(content, "\n```")
}

// ListModels returns the provider's coding models, or FallbackModels when listing fails
func (s *AIService) ListModels(ctx context.Context) []AIModel {
	list, err := s.client.ListModels(ctx)
	recordLLM("models", err)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch models, using fallback list")
		return FallbackModels
	}

	models := []AIModel{}
	for _, m := range list.Models {
		id := strings.ToLower(m.ID)
		for _, kw := range modelKeywords {
			if strings.Contains(id, kw) {
				models = append(models, AIModel{ID: m.ID, Object: m.Object, Created: m.CreatedAt, OwnedBy: m.OwnedBy})
				break
			}
		}
	}
	return models
}

// StreamCode relays generated tokens to onDelta until the model finishes.
// Cancelling ctx or an onDelta error stops the upstream request.
func (s *AIService) StreamCode(ctx context.Context, in GenerateInput, onDelta func(string) error) error {
	stream, err := s.client.CreateChatCompletionStream(ctx, s.request(in, true))
	if err != nil {
		recordLLM("stream", err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error().Err(err).Msg("AI stream failed to start")
		return types.Upstream("AI generation failed", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			recordLLM("stream", nil)
			return nil
		}
		if err != nil {
			recordLLM("stream", err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return types.Upstream("AI stream interrupted", err)
		}
		for _, choice := range resp.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if err := onDelta(choice.Delta.Content); err != nil {
				return err
			}
		}
	}
}
