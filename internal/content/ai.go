// internal/content/ai.go
//
// OpenAI-compatible chat-completions client.
//
// Context
// -------
// The model is asked for a Document-shaped JSON object.  Whatever comes back
// is classified by Parse: valid Document JSON → KindDocument, anything else
// → KindRaw.  Transport errors, non-2xx replies, and empty choices all wrap
// apperr.ErrExternalService so Service can substitute the fallback.
//
// Notes
// -----
// • Single attempt.  The deadline comes from the caller's ctx plus
//   Options.Timeout, whichever is sooner.
// • An empty API key short-circuits before any network I/O.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/yanizio/sitecraft/internal/apperr"
)

const systemPrompt = "You write marketing websites for small businesses.  " +
	"Reply with one JSON object only, no markdown fences, with the keys " +
	`hero{title,subtitle,cta}, about{heading,body}, services[{name,description}], ` +
	`testimonials[{quote,author}], contact{heading,location,body}, footer{text}.  ` +
	"Use the real business name.  Never write placeholder text."

// maxReplyBytes caps how much of the upstream body is read.
const maxReplyBytes = 1 << 20

// AIOptions configures AIClient.
type AIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// AIClient implements Generator against a chat-completions endpoint.
type AIClient struct {
	opts AIOptions
	http *http.Client
}

// NewAIClient returns a client.  hc may be nil.
func NewAIClient(opts AIOptions, hc *http.Client) *AIClient {
	if hc == nil {
		hc = &http.Client{}
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &AIClient{opts: opts, http: hc}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

func userPrompt(req Request) string {
	return fmt.Sprintf(
		"Business name: %s\nBusiness type: %s\nIndustry: %s\nLocation: %s\nDescription: %s\n"+
			"Include at least three services.",
		req.BusinessName, req.BusinessType, req.Industry, req.Location, req.Description)
}

// Generate performs one completion call.
func (c *AIClient) Generate(ctx context.Context, req Request) (Content, error) {
	if strings.TrimSpace(c.opts.APIKey) == "" {
		return Content{}, fmt.Errorf("ai: api key not configured: %w", apperr.ErrExternalService)
	}
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(req)},
		},
	})
	if err != nil {
		return Content{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.opts.BaseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Content{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Content{}, fmt.Errorf("ai: %v: %w", err, apperr.ErrExternalService)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return Content{}, fmt.Errorf("ai: read: %v: %w", err, apperr.ErrExternalService)
	}
	if resp.StatusCode/100 != 2 {
		msg := gjson.GetBytes(body, "error.message").String()
		return Content{}, fmt.Errorf("ai: status %d %s: %w", resp.StatusCode, msg, apperr.ErrExternalService)
	}

	text := gjson.GetBytes(body, "choices.0.message.content").String()
	if strings.TrimSpace(text) == "" {
		return Content{}, fmt.Errorf("ai: empty completion: %w", apperr.ErrExternalService)
	}
	return Parse(text), nil
}
