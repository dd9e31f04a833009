package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const unknownErrorMessage = "Unknown error"

// RESTConfig configures a RESTBackend.
type RESTConfig struct {
	Endpoint        string // base URL, e.g. https://generativelanguage.googleapis.com/v1beta
	Model           string
	APIKey          string
	MaxOutputTokens int // omitted from the request when 0
}

// RESTBackend talks to the generateContent endpoint with plain JSON over
// HTTP.
type RESTBackend struct {
	url             string
	apiKey          string
	maxOutputTokens int
	httpClient      *http.Client
}

// NewRESTBackend creates a REST backend. A nil httpClient uses
// http.DefaultClient.
func NewRESTBackend(cfg RESTConfig, httpClient *http.Client) *RESTBackend {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RESTBackend{
		url:             fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(cfg.Endpoint, "/"), cfg.Model),
		apiKey:          cfg.APIKey,
		maxOutputTokens: cfg.MaxOutputTokens,
		httpClient:      httpClient,
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// text extracts candidates[0].content.parts[0].text.
func (r *generateResponse) text() (string, bool) {
	if len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return "", false
	}
	parts := r.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == nil || *parts[0].Text == "" {
		return "", false
	}
	return *parts[0].Text, true
}

// Generate sends prompt as a single user turn.
func (b *RESTBackend) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	if b.maxOutputTokens > 0 {
		reqBody.GenerationConfig = &generationConfig{MaxOutputTokens: b.maxOutputTokens}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("x-goog-api-key", b.apiKey)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	text, ok := genResp.text()
	if !ok {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// errorMessage pulls error.message out of an error body.
func errorMessage(body []byte) string {
	var wireError struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Error.Message != "" {
		return wireError.Error.Message
	}
	return unknownErrorMessage
}
