package summarizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/tidwall/gjson"

	"condense/internal/settings"
)

const (
	OpenAIDefaultBaseURL = "https://api.openai.com/v1/"

	openAIMaxTokens   int64 = 1000
	openAITemperature       = 0.1

	openAISystemPrompt = "You are an expert at summarizing web pages."
	openAIUserPrompt   = "Please provide a concise summary of the following web page content:\n\n"
)

// OpenAI calls OpenAI's Chat Completions API.
type OpenAI struct {
	client openai.Client
}

func NewOpenAI(client *http.Client, baseURL string) *OpenAI {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = OpenAIDefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &OpenAI{
		client: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithHTTPClient(client),
			option.WithMaxRetries(0),
		),
	}
}

func (o *OpenAI) Model() settings.Model { return settings.ModelOpenAI }

func (o *OpenAI) Name() string { return "OpenAI" }

func (o *OpenAI) Label() string { return "At a Glance: " }

func (o *OpenAI) Summarize(ctx context.Context, text string, apiKey string) (string, error) {
	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModelGPT4o,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(openAISystemPrompt),
			openai.UserMessage(openAIUserPrompt + text),
		},
		Temperature: openai.Float(openAITemperature),
		MaxTokens:   openai.Int(openAIMaxTokens),
	}, option.WithAPIKey(apiKey))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			body := openAIErrorBody(apiErr)
			if !gjson.ValidBytes(body) {
				return "", &TransportError{Provider: o.Name(), Err: err}
			}

			return "", &APIError{Provider: o.Name(), Message: openAIErrorMessage(apiErr, body)}
		}

		return "", &TransportError{Provider: o.Name(), Err: err}
	}

	if len(completion.Choices) > 0 && completion.Choices[0].Message.Content != "" {
		return completion.Choices[0].Message.Content, nil
	}

	raw := completion.RawJSON()

	// A choices array without a usable first message is a malformed
	// response, not a provider-reported error.
	if choices := gjson.Get(raw, "choices"); choices.IsArray() && !gjson.Get(raw, "choices.0.message").IsObject() {
		return "", &TransportError{
			Provider: o.Name(),
			Err:      fmt.Errorf("unexpected response: %d choices without a message", len(choices.Array())),
		}
	}

	return "", &APIError{
		Provider: o.Name(),
		Message:  gjson.Get(raw, "error.message").String(),
	}
}

// openAIErrorBody returns the raw body of a failed response. The client
// keeps it readable after decoding.
func openAIErrorBody(apiErr *openai.Error) []byte {
	if apiErr.Response == nil || apiErr.Response.Body == nil {
		return nil
	}

	body, err := io.ReadAll(apiErr.Response.Body)
	if err != nil {
		return nil
	}

	return body
}

func openAIErrorMessage(apiErr *openai.Error, body []byte) string {
	if msg := gjson.GetBytes(body, "error.message").String(); msg != "" {
		return msg
	}

	return apiErr.Message
}
