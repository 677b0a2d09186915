package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"condense/internal/settings"
)

const (
	CohereDefaultBaseURL = "https://api.cohere.ai"

	cohereChatPath      = "/v1/chat"
	cohereRequestSource = "sandbox-condense"
	coherePreamble      = "Generate a summary of this webpage extracting the most important information."
	cohereTemperature   = 0.1
)

type cohereChatRequest struct {
	Message     string  `json:"message"`
	Preamble    string  `json:"preamble"`
	Temperature float64 `json:"temperature"`
}

// Cohere calls Cohere's chat endpoint.
type Cohere struct {
	client  *http.Client
	baseURL string
}

func NewCohere(client *http.Client, baseURL string) *Cohere {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = CohereDefaultBaseURL
	}

	return &Cohere{client: client, baseURL: baseURL}
}

func (c *Cohere) Model() settings.Model { return settings.ModelCohere }

func (c *Cohere) Name() string { return "Cohere" }

func (c *Cohere) Label() string { return "tl;dr: " }

func (c *Cohere) Summarize(ctx context.Context, text string, apiKey string) (string, error) {
	body, err := json.Marshal(cohereChatRequest{
		Message:     text,
		Preamble:    coherePreamble,
		Temperature: cohereTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+cohereChatPath, bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{Provider: c.Name(), Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Request-Source", cohereRequestSource)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &TransportError{Provider: c.Name(), Err: fmt.Errorf("do request: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Provider: c.Name(), Err: fmt.Errorf("read response: %w", err)}
	}

	// Any status is accepted as long as the body is JSON: Cohere reports
	// errors in the "message" field.
	if !gjson.ValidBytes(respBody) {
		return "", &TransportError{
			Provider: c.Name(),
			Err:      fmt.Errorf("decode response: invalid JSON (status = %d)", resp.StatusCode),
		}
	}

	if summary := gjson.GetBytes(respBody, "text"); summary.Type == gjson.String && summary.Str != "" {
		return summary.Str, nil
	}

	return "", &APIError{
		Provider: c.Name(),
		Message:  gjson.GetBytes(respBody, "message").String(),
	}
}
