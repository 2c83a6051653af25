package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiProvider generates text through Google's Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini-backed generator.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = p.model
	}

	cfg := &genai.GenerateContentConfig{}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(opts.Temperature))
	}

	result, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", generationErr("gemini", "generate", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", generationErr("gemini", "generate", errors.New("empty completion"))
	}
	return text, nil
}

func (p *GeminiProvider) ClassifyEmotionWord(ctx context.Context, utterance string) (string, error) {
	prompt := fmt.Sprintf("Identifica la emoción principal en: '%s'. Responde solo con una palabra.", utterance)

	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: 8,
	})
	if err != nil {
		return "", generationErr("gemini", "classify", err)
	}
	return result.Text(), nil
}

func (p *GeminiProvider) DefaultModel() string {
	return p.model
}
