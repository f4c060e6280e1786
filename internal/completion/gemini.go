package completion

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genai"
)

// GeminiClient generates answers with the Gemini API.
type GeminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int32
	timeout   time.Duration
}

// NewGeminiClient creates a Gemini client. baseURL overrides the API endpoint and
// may be empty.
func NewGeminiClient(ctx context.Context, apiKey, model string, maxTokens int, timeout time.Duration, baseURL string) (*GeminiClient, error) {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if maxTokens <= 0 {
		maxTokens = 200
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, &ServiceError{Provider: "gemini", Message: "creating client", Err: err}
	}
	return &GeminiClient{
		client:    client,
		model:     model,
		maxTokens: int32(maxTokens),
		timeout:   timeout,
	}, nil
}

func (g *GeminiClient) Model() string { return g.model }

// Complete sends the prompt as one user content with a single text part.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: g.maxTokens,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &ServiceError{Provider: "gemini", StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
		}
		return "", &ServiceError{Provider: "gemini", Message: "generating content", Err: err}
	}
	text := resp.Text()
	if text == "" {
		return "", &ServiceError{Provider: "gemini", Message: "empty response"}
	}
	return text, nil
}
