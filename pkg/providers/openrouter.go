package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultOpenRouterAPIBase = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel   = "google/gemini-flash-1.5"
)

// OpenRouterProvider is an OpenAI-style chat-completions generator, kept as
// an alternative to the Gemini SDK for self-hosted or proxied deployments.
type OpenRouterProvider struct {
	apiKey     string
	apiBase    string
	httpClient *http.Client
}

func NewOpenRouterProvider(apiKey, apiBase, proxy string) *OpenRouterProvider {
	client := &http.Client{Timeout: 120 * time.Second}

	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err == nil {
			client.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &OpenRouterProvider{
		apiKey:     apiKey,
		apiBase:    strings.TrimRight(apiBase, "/"),
		httpClient: client,
	}
}

func (p *OpenRouterProvider) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenRouterModel
	}

	requestBody := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	if opts.MaxTokens > 0 {
		requestBody["max_tokens"] = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		requestBody["temperature"] = opts.Temperature
	}

	text, err := p.complete(ctx, requestBody)
	if err != nil {
		return "", generationErr("openrouter", "generate", err)
	}
	return text, nil
}

func (p *OpenRouterProvider) ClassifyEmotionWord(ctx context.Context, utterance string) (string, error) {
	prompt := fmt.Sprintf("Identifica la emoción principal en: '%s'. Responde solo con una palabra.", utterance)

	text, err := p.complete(ctx, map[string]interface{}{
		"model": defaultOpenRouterModel,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens": 8,
	})
	if err != nil {
		return "", generationErr("openrouter", "classify", err)
	}
	return text, nil
}

func (p *OpenRouterProvider) DefaultModel() string {
	return defaultOpenRouterModel
}

func (p *OpenRouterProvider) complete(ctx context.Context, requestBody map[string]interface{}) (string, error) {
	if p.apiBase == "" {
		return "", errors.New("OpenRouter API base not configured")
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenRouter API request failed:\n  Status: %d\n  Body:   %s", resp.StatusCode, string(body))
	}

	return parseCompletion(body)
}

func parseCompletion(body []byte) (string, error) {
	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(apiResponse.Choices) == 0 {
		return "", errors.New("empty completion")
	}

	text := strings.TrimSpace(apiResponse.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty completion")
	}
	return text, nil
}
