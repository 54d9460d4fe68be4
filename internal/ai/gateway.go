package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/internal/config"
	"github.com/example/wordquest/internal/logger"
)

// Gateway is a client for an OpenAI-compatible chat completions API.
// Every operation is a single request with no retry.
type Gateway struct {
	apiKey      string
	apiURL      string
	model       string
	temperature float64
	client      *http.Client
	log         *logger.Logger
}

// New creates a gateway from the configuration. A missing API key is not an
// error here; each operation reports it instead.
func New(cfg *config.Config, log *logger.Logger) *Gateway {
	timeout := cfg.AITimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Gateway{
		apiKey:      cfg.OpenAIKey,
		apiURL:      strings.TrimRight(cfg.OpenAIBaseURL, "/") + "/chat/completions",
		model:       cfg.OpenAIModel,
		temperature: 0.7,
		client:      &http.Client{Timeout: timeout},
		log:         log.With("component", "ai"),
	}
}

// Message represents a message in the conversation. Content is a string, or a
// list of contentPart values for multimodal input.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// ChatRequest represents a request to the chat completions API
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// ChatResponse represents a response from the chat completions API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const systemPrompt = "You are a vocabulary assistant for UK primary-school teachers of Years 3 to 6. " +
	"Answer with a single JSON object and nothing else."

// completeJSON sends one chat request and decodes the JSON object in the reply into out
func (g *Gateway) completeJSON(ctx context.Context, op string, user interface{}, out interface{}) error {
	if g.apiKey == "" {
		return apperr.Config("the AI service is not configured: set OPENAI_API_KEY in the environment or .env file")
	}

	request := ChatRequest{
		Model: g.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: user},
		},
		Temperature:    g.temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	requestData, err := json.Marshal(request)
	if err != nil {
		return apperr.Backend("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return apperr.Backend("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn("AI request failed", "op", op, "error", err)
		return apperr.Backend("failed to send request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Backend("failed to read response", err)
	}

	var response ChatResponse
	decodeErr := json.Unmarshal(body, &response)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if decodeErr == nil && response.Error != nil {
			msg = response.Error.Message
		}
		g.log.Warn("AI request rejected", "op", op, "status", resp.StatusCode, "message", msg)
		return apperr.Backend(fmt.Sprintf("AI service returned %d", resp.StatusCode), fmt.Errorf("%s", msg))
	}
	if decodeErr != nil {
		return apperr.Validation("AI service returned a malformed response: %v", decodeErr)
	}
	if response.Error != nil {
		return apperr.Backend("API error", fmt.Errorf("%s", response.Error.Message))
	}
	if len(response.Choices) == 0 {
		return apperr.Validation("AI service returned no choices")
	}

	content := cleanJSON(response.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		g.log.Debug("AI reply is not JSON", "op", op, "content", content)
		return apperr.Validation("AI service did not return valid JSON: %v", err)
	}
	g.log.Debug("AI request done", "op", op, "took", time.Since(start))
	return nil
}

// cleanJSON strips the markdown fences some models wrap around JSON
func cleanJSON(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
