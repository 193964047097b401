// Package anthropic provides a MessagesClient for the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.MessagesClient = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.anthropic.com"

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"

	// maxErrorBody bounds how much of an error body is kept in a StatusError.
	maxErrorBody = 512
)

// Config holds configuration for the Anthropic client.
type Config struct {
	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// HTTPClient performs requests. Timeouts are applied per request by the
	// caller's context, so the default client has none of its own.
	HTTPClient *http.Client
}

// Client performs single Messages API round trips. It holds no credential;
// the key is supplied per call.
type Client struct {
	client  *http.Client
	baseURL string
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model     string            `json:"model"`
	Messages  []messagesMessage `json:"messages"`
	MaxTokens int               `json:"max_tokens"`
	System    string            `json:"system,omitempty"`
}

// messagesMessage is the Anthropic message format.
type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// errorResponse is the body of a failed request.
type errorResponse struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient creates a new Anthropic client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &Client{
		client:  cfg.HTTPClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// CreateMessage sends one user message and decodes the first content block
// and the reported token usage.
func (c *Client) CreateMessage(ctx context.Context, apiKey string, req driven.MessageRequest) (*driven.MessageResponse, error) {
	reqBody := messagesRequest{
		Model:     req.Model,
		Messages:  []messagesMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens: req.MaxTokens,
		System:    req.System,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &driven.StatusError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return nil, fmt.Errorf("%w: %v", driven.ErrMalformedResponse, err)
	}
	if len(msgResp.Content) == 0 {
		return nil, fmt.Errorf("%w: no content blocks", driven.ErrMalformedResponse)
	}
	if msgResp.Usage == nil {
		return nil, fmt.Errorf("%w: usage missing", driven.ErrMalformedResponse)
	}

	out := &driven.MessageResponse{
		Text:       msgResp.Content[0].Text,
		StopReason: msgResp.StopReason,
	}
	out.Usage.InputTokens = msgResp.Usage.InputTokens
	out.Usage.OutputTokens = msgResp.Usage.OutputTokens
	return out, nil
}

// errorMessage extracts the API's error message, falling back to a
// truncated raw body.
func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != nil && e.Error.Message != "" {
		return e.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}
