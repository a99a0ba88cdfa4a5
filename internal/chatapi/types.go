package chatapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Content is the message body of a chat request: either a plain string or an
// ordered list of parts. The union is explicit so callers never rely on
// implicit type branching when composing multi-modal payloads.
type Content struct {
	Text  string
	Parts []Part
}

// Part is one entry of a multi-modal content array.
type Part struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// TextContent wraps a plain prompt.
func TextContent(text string) Content {
	return Content{Text: text}
}

// PartsContent wraps an ordered part list.
func PartsContent(parts ...Part) Content {
	return Content{Parts: parts}
}

// TextPart builds a text entry for a parts array.
func TextPart(text string) Part {
	return Part{Type: "text", Text: text}
}

// ImagePart builds an image entry. url may be an http(s) URL or a data URI.
func ImagePart(url string) Part {
	return Part{Type: "image_url", ImageURL: &ImageURL{URL: url}}
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

type chatCompletionRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Modalities []string      `json:"modalities,omitempty"`
}

type chatMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`

	Choices []struct {
		Index        int             `json:"index"`
		Message      responseMessage `json:"message"`
		FinishReason string          `json:"finish_reason"`
	} `json:"choices"`
}

type responseMessage struct {
	Role    string          `json:"role"`
	Content responseContent `json:"content"`
}

// responseContent tolerates both reply shapes: a content string and a parts
// array. Text parts are concatenated; non-text parts are skipped.
type responseContent string

func (c *responseContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = responseContent(s)
		return nil
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("content is neither string nor parts array: %w", err)
	}
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Text)
	}
	*c = responseContent(b.String())
	return nil
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}
