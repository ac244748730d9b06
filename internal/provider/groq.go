package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const DefaultGroqBaseURL = "https://api.groq.com/openai/v1/"

// Groq calls Groq's OpenAI-compatible chat completions endpoint.
type Groq struct {
	apiKey string
	client *openai.Client
}

// NewGroq builds a client. An empty apiKey is accepted; Generate then
// fails with a MissingKeyError.
func NewGroq(apiKey, baseURL string, httpClient *http.Client) *Groq {
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	cli := openai.NewClient(opts...)
	return &Groq{apiKey: apiKey, client: &cli}
}

func (g *Groq) Name() string { return "groq" }

func (g *Groq) Generate(ctx context.Context, model, question string) (string, error) {
	if g.apiKey == "" {
		return "", &MissingKeyError{EnvVar: "GROQ_API_KEY"}
	}
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: buildMessages(SystemPrompt, UserPrompt(question)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &Error{Provider: g.Name(), StatusCode: apiErr.StatusCode, Message: err.Error()}
		}
		return "", fmt.Errorf("groq: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildMessages(system, user string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(user),
				},
			},
		},
	}
}
