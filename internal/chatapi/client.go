// Package chatapi speaks the OpenAI-compatible chat/completions surface that
// image-capable models are served behind.
package chatapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"context"

	"github.com/deckgen-dev/deckgen/internal/httpx"
)

// Client posts chat completions to a single endpoint with Bearer auth.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Headers    map[string]string
}

// HTTPError is a non-2xx completion or download status. The pipeline treats
// it as retryable within its attempt budget.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("http %d", e.Status)
}

// Complete sends one user message with image+text modalities and returns the
// textual content of the first choice.
func (c *Client) Complete(ctx context.Context, content Content) (string, error) {
	u, err := c.endpointURL()
	if err != nil {
		return "", err
	}

	payload := chatCompletionRequest{
		Model:      c.Model,
		Messages:   []chatMessage{{Role: "user", Content: content}},
		Modalities: []string{"image", "text"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	h := make(http.Header)
	h.Set("Authorization", "Bearer "+c.APIKey)
	for k, v := range c.Headers {
		h.Set(k, v)
	}

	resp, err := httpx.DoJSON(ctx, c.HTTPClient, http.MethodPost, u, body, h)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		var er errorResponse
		if json.Unmarshal(b, &er) == nil && er.Error.Message != "" {
			return "", &HTTPError{Status: resp.StatusCode, Message: er.Error.Message}
		}
		return "", &HTTPError{Status: resp.StatusCode, Message: strings.TrimSpace(string(b))}
	}

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("response has no choices")
	}
	return string(out.Choices[0].Message.Content), nil
}

// Fetch downloads a generated image. Non-2xx statuses come back as *HTTPError
// with the body discarded.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := httpx.Get(ctx, c.HTTPClient, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &HTTPError{Status: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) endpointURL() (string, error) {
	base := strings.TrimRight(c.BaseURL, "/")
	u, err := url.Parse(base + "/chat/completions")
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
