package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

const chatCompletionsEndpoint = "https://api.openai.com/v1/chat/completions"

// CompletionRequest is one chat-completion call. Schema, when non-empty, is a
// json_schema response format the model output must conform to.
type CompletionRequest struct {
	System      string
	Prompt      string
	Schema      string
	MaxTokens   int
	Temperature float64
}

// LanguageModelClient is the capability the content generator needs from the
// language-model API. Tests substitute a fake returning canned text.
type LanguageModelClient interface {
	Complete(req CompletionRequest) (string, error)
}

// OpenAIClient calls the OpenAI chat-completions API with the configured
// model. Structured output is requested through the response_format field.
type OpenAIClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	logger     *slog.Logger
}

func NewOpenAIClient(cfg OpenAIConfig, logger *slog.Logger) *OpenAIClient {
	return &OpenAIClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   chatCompletionsEndpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     logger.With("component", "openai"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat json.RawMessage `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Complete(req CompletionRequest) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.Schema != "" {
		payload.ResponseFormat = json.RawMessage(`{"type":"json_schema","json_schema":` + req.Schema + `}`)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding completion request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating completion request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("completion request", "model", c.model, "max_tokens", req.MaxTokens)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request: HTTP %d: %s", resp.StatusCode, responseSnippet(resp.Body))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}

	return decoded.Choices[0].Message.Content, nil
}
