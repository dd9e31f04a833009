package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// SDKBackend talks to Gemini through the generative-ai-go client.
type SDKBackend struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewSDKBackend creates an SDK backend for model. Extra client options,
// such as option.WithEndpoint, are applied after the API key.
func NewSDKBackend(ctx context.Context, apiKey, model string, maxOutputTokens int, opts ...option.ClientOption) (*SDKBackend, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create generative client: %w", err)
	}

	m := client.GenerativeModel(model)
	if maxOutputTokens > 0 {
		m.SetMaxOutputTokens(int32(maxOutputTokens))
	}
	return &SDKBackend{client: client, model: m}, nil
}

// Close releases the underlying client.
func (b *SDKBackend) Close() error {
	return b.client.Close()
}

// Generate sends prompt as a single user turn.
func (b *SDKBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := b.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifySDKError(err)
	}
	text := textFromResponse(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// classifySDKError maps SDK errors onto the Backend error contract.
func classifySDKError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%w: %v", ErrEmptyResponse, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = unknownErrorMessage
		}
		return &StatusError{StatusCode: apiErr.Code, Message: message}
	}
	return err
}

// textFromResponse returns the text of the first part of the first
// candidate.
func textFromResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	if txt, ok := parts[0].(genai.Text); ok {
		return string(txt)
	}
	return ""
}
