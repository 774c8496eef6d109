package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/FACorreiaa/wanderplan/internal/types"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultOpenAIModel = openai.GPT4oMini
)

// TextGenerator turns a prompt into free-form text.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Model() string
}

var (
	_ TextGenerator = (*AIClient)(nil)
	_ TextGenerator = (*OpenAIClient)(nil)
	_ TextGenerator = (*UnconfiguredClient)(nil)
)

type AIClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewAIClient(ctx context.Context, apiKey, model string, temperature float32) (*AIClient, error) {
	if apiKey == "" {
		return nil, types.ErrLLMNotConfigured
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &AIClient{
		client:      client,
		model:       model,
		temperature: temperature,
	}, nil
}

func (ai *AIClient) Model() string { return ai.model }

func (ai *AIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](ai.temperature)}
	result, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", types.ErrEmptyLLMResponse
	}
	return text, nil
}

type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAIClient(apiKey, model string, temperature float32) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, types.ErrLLMNotConfigured
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIClient{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
	}, nil
}

func (c *OpenAIClient) Model() string { return c.model }

func (c *OpenAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", types.ErrEmptyLLMResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", types.ErrEmptyLLMResponse
	}
	return text, nil
}

// UnconfiguredClient stands in when no API key is available so that requests
// still complete as failed itineraries instead of aborting the process.
type UnconfiguredClient struct {
	model string
}

func (c *UnconfiguredClient) Model() string { return c.model }

func (c *UnconfiguredClient) GenerateText(context.Context, string) (string, error) {
	return "", types.ErrLLMNotConfigured
}

// NewTextGenerator builds the generator for provider, reading the API key from
// GOOGLE_GEMINI_API_KEY or OPENAI_API_KEY. A missing key yields an
// UnconfiguredClient rather than an error.
func NewTextGenerator(ctx context.Context, provider, model string, temperature float32) (TextGenerator, error) {
	var (
		gen TextGenerator
		err error
	)
	switch strings.ToLower(provider) {
	case ProviderGemini, "":
		gen, err = NewAIClient(ctx, os.Getenv("GOOGLE_GEMINI_API_KEY"), model, temperature)
	case ProviderOpenAI:
		gen, err = NewOpenAIClient(os.Getenv("OPENAI_API_KEY"), model, temperature)
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedProvider, provider)
	}
	if errors.Is(err, types.ErrLLMNotConfigured) {
		if model == "" {
			model = provider
		}
		return &UnconfiguredClient{model: model}, nil
	}
	if err != nil {
		return nil, err
	}
	return gen, nil
}
