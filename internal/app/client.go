package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LocalClient talks to a locally running, OpenAI-compatible model server
// (ollama, llama.cpp server, LM Studio and friends all expose this shape).
type LocalClient struct {
	BaseURL   string
	Model     string
	MaxTokens int
	HTTP      *http.Client
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Model   string `json:"model,omitempty"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type,omitempty"`
	} `json:"error,omitempty"`
}

func NewLocalClient(baseURL, model string, maxTokens int) *LocalClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &LocalClient{
		BaseURL:   baseURL,
		Model:     model,
		MaxTokens: maxTokens,
		HTTP:      &http.Client{Timeout: 120 * time.Second},
	}
}

// Complete sends the conversation so far and returns the assistant reply.
// Error-role entries are local bookkeeping and are not forwarded.
func (c *LocalClient) Complete(ctx context.Context, history []StoredMessage) (string, error) {
	if c.Model == "" {
		return "", errors.New("model name is required")
	}

	msgs := make([]chatMessage, 0, len(history))
	for _, m := range history {
		if m.Role == RoleError {
			continue
		}
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Text})
	}
	if len(msgs) == 0 {
		return "", errors.New("no messages to send")
	}

	payload, err := json.Marshal(chatCompletionRequest{
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
		Messages:  msgs,
	})
	if err != nil {
		return "", err
	}

	url := c.BaseURL + "/v1/chat/completions"
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(request)
	if err != nil {
		return "", fmt.Errorf("model server request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read model server response: %w", err)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("model server returned status %d: %s", resp.StatusCode, string(body))
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("model server error: %s", parsed.Error.Message)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("model server returned status %d: %s", resp.StatusCode, string(body))
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("model server returned no completion: %s", string(body))
	}
	return parsed.Choices[0].Message.Content, nil
}
