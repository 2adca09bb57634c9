package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"go-insure/internal/breaker"
	"go-insure/internal/config"
)

// Generator produces a completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const systemPrompt = "You are a knowledgeable, neutral insurance advisor helping a customer in India. " +
	"Answer concisely in plain language and use Indian Rupees."

var ErrEmptyCompletion = errors.New("llm returned no content")

// OpenAIGenerator talks to any OpenAI-compatible chat completion endpoint.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAIGenerator builds a client for cfg. cfg.URL overrides the base URL
// (e.g. https://openrouter.ai/api/v1).
func NewOpenAIGenerator(cfg config.LLMConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is not configured")
	}
	model := cfg.Name
	if model == "" {
		model = openai.GPT4oMini
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.URL != "" {
		oc.BaseURL = strings.TrimRight(cfg.URL, "/")
	}
	log.Printf("[LLM] using model %s at %s", model, oc.BaseURL)
	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(oc),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Guarded bounds each call with a timeout and a circuit breaker.
type Guarded struct {
	next    Generator
	breaker *breaker.Breaker
	timeout time.Duration
}

func NewGuarded(next Generator, b *breaker.Breaker, timeout time.Duration) *Guarded {
	return &Guarded{next: next, breaker: b, timeout: timeout}
}

func (g *Guarded) Generate(ctx context.Context, prompt string) (string, error) {
	var out string
	err := g.breaker.Call(func() error {
		callCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		var err error
		out, err = g.next.Generate(callCtx, prompt)
		return err
	})
	return out, err
}
